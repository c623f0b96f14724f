package model

import (
	"strconv"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// OrderBookDeltas is an ordered batch of deltas sharing one sequence
// position. The batch is the atomic unit of application; the slice order
// is the application order.
type OrderBookDeltas struct {
	InstrumentID InstrumentID
	BookType     enum.BookType
	Deltas       []OrderBookDelta
	UpdateID     uint64
	TsEvent      int64
	TsInit       int64
}

// NewOrderBookDeltas builds a batch, rejecting empty or malformed input.
func NewOrderBookDeltas(
	instrumentID InstrumentID,
	bookType enum.BookType,
	deltas []OrderBookDelta,
	updateID uint64,
	tsEvent, tsInit int64,
) (OrderBookDeltas, error) {
	if len(deltas) == 0 {
		return OrderBookDeltas{}, exception.ErrEmptyBatch
	}
	for _, d := range deltas {
		if err := d.Validate(); err != nil {
			return OrderBookDeltas{}, err
		}
	}
	return OrderBookDeltas{
		InstrumentID: instrumentID,
		BookType:     bookType,
		Deltas:       deltas,
		UpdateID:     updateID,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}, nil
}

// Equal reports structural, sequence-order-sensitive equality.
func (b OrderBookDeltas) Equal(o OrderBookDeltas) bool {
	if b.InstrumentID != o.InstrumentID ||
		b.BookType != o.BookType ||
		b.UpdateID != o.UpdateID ||
		b.TsEvent != o.TsEvent ||
		b.TsInit != o.TsInit ||
		len(b.Deltas) != len(o.Deltas) {
		return false
	}
	for i := range b.Deltas {
		if b.Deltas[i] != o.Deltas[i] {
			return false
		}
	}
	return true
}

func (b OrderBookDeltas) Instrument() InstrumentID { return b.InstrumentID }
func (b OrderBookDeltas) Book() enum.BookType      { return b.BookType }
func (b OrderBookDeltas) Sequence() uint64         { return b.UpdateID }
func (b OrderBookDeltas) EventTime() int64         { return b.TsEvent }
func (b OrderBookDeltas) InitTime() int64          { return b.TsInit }

func (b OrderBookDeltas) Debug() string {
	return string(b.AppendDebug(make([]byte, 0, 512)))
}

func (b OrderBookDeltas) AppendDebug(buf []byte) []byte {
	buf = append(buf, "OrderBookDeltas("...)
	buf = b.InstrumentID.AppendBytes(buf)
	buf = append(buf, ", book_type="...)
	buf = append(buf, b.BookType.String()...)
	buf = append(buf, ", ["...)
	for i, d := range b.Deltas {
		if i > 0 {
			buf = append(buf, ", "...)
		}
		buf = d.AppendDebug(buf)
	}
	buf = append(buf, "], update_id="...)
	buf = strconv.AppendUint(buf, b.UpdateID, 10)
	buf = append(buf, ", ts_event="...)
	buf = strconv.AppendInt(buf, b.TsEvent, 10)
	buf = append(buf, ", ts_init="...)
	buf = strconv.AppendInt(buf, b.TsInit, 10)
	buf = append(buf, ')')
	return buf
}
