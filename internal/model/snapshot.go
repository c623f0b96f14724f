package model

import (
	"strconv"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// OrderBookSnapshot is the full book state at one sequence position. It
// is the universal (re)initialization and resynchronization mechanism.
type OrderBookSnapshot struct {
	InstrumentID InstrumentID
	BookType     enum.BookType
	Bids         []BookLevel
	Asks         []BookLevel
	UpdateID     uint64
	TsEvent      int64
	TsInit       int64
}

// NewOrderBookSnapshot builds a snapshot, validating the side ordering:
// bids strictly descending, asks strictly ascending, no duplicate price
// within a side.
func NewOrderBookSnapshot(
	instrumentID InstrumentID,
	bookType enum.BookType,
	bids, asks []BookLevel,
	updateID uint64,
	tsEvent, tsInit int64,
) (OrderBookSnapshot, error) {
	if !bookType.IsAvailable() {
		return OrderBookSnapshot{}, exception.ErrMalformedEvent
	}
	if err := validateSideOrder(bids, enum.SideBuy); err != nil {
		return OrderBookSnapshot{}, err
	}
	if err := validateSideOrder(asks, enum.SideSell); err != nil {
		return OrderBookSnapshot{}, err
	}
	return OrderBookSnapshot{
		InstrumentID: instrumentID,
		BookType:     bookType,
		Bids:         bids,
		Asks:         asks,
		UpdateID:     updateID,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}, nil
}

func validateSideOrder(levels []BookLevel, side enum.Side) error {
	for i := 1; i < len(levels); i++ {
		cmp, err := levels[i].Price.Cmp(levels[i-1].Price)
		if err != nil {
			return err
		}
		if side == enum.SideBuy && cmp >= 0 {
			return exception.ErrUnorderedLevels
		}
		if side == enum.SideSell && cmp <= 0 {
			return exception.ErrUnorderedLevels
		}
	}
	return nil
}

// Equal reports structural, sequence-order-sensitive equality.
func (s OrderBookSnapshot) Equal(o OrderBookSnapshot) bool {
	if s.InstrumentID != o.InstrumentID ||
		s.BookType != o.BookType ||
		s.UpdateID != o.UpdateID ||
		s.TsEvent != o.TsEvent ||
		s.TsInit != o.TsInit ||
		len(s.Bids) != len(o.Bids) ||
		len(s.Asks) != len(o.Asks) {
		return false
	}
	for i := range s.Bids {
		if s.Bids[i] != o.Bids[i] {
			return false
		}
	}
	for i := range s.Asks {
		if s.Asks[i] != o.Asks[i] {
			return false
		}
	}
	return true
}

func (s OrderBookSnapshot) Instrument() InstrumentID { return s.InstrumentID }
func (s OrderBookSnapshot) Book() enum.BookType      { return s.BookType }
func (s OrderBookSnapshot) Sequence() uint64         { return s.UpdateID }
func (s OrderBookSnapshot) EventTime() int64         { return s.TsEvent }
func (s OrderBookSnapshot) InitTime() int64          { return s.TsInit }

func (s OrderBookSnapshot) Debug() string {
	return string(s.AppendDebug(make([]byte, 0, 256)))
}

func (s OrderBookSnapshot) AppendDebug(buf []byte) []byte {
	buf = append(buf, "OrderBookSnapshot("...)
	buf = s.InstrumentID.AppendBytes(buf)
	buf = append(buf, ", book_type="...)
	buf = append(buf, s.BookType.String()...)
	buf = append(buf, ", bids="...)
	buf = AppendLevels(buf, s.Bids)
	buf = append(buf, ", asks="...)
	buf = AppendLevels(buf, s.Asks)
	buf = append(buf, ", update_id="...)
	buf = strconv.AppendUint(buf, s.UpdateID, 10)
	buf = append(buf, ", ts_event="...)
	buf = strconv.AppendInt(buf, s.TsEvent, 10)
	buf = append(buf, ", ts_init="...)
	buf = strconv.AppendInt(buf, s.TsInit, 10)
	buf = append(buf, ')')
	return buf
}
