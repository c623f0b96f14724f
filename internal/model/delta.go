package model

import (
	"strconv"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// OrderBookDelta is one state change for one instrument at one sequence
// position. The order payload is required for ADD/UPDATE/DELETE and must
// be absent for CLEAR; constructors and Validate enforce the pairing.
type OrderBookDelta struct {
	InstrumentID InstrumentID
	BookType     enum.BookType
	Action       enum.BookAction
	Order        BookOrder
	UpdateID     uint64
	TsEvent      int64
	TsInit       int64
}

// NewOrderBookDelta builds an ADD/UPDATE/DELETE delta carrying an order.
func NewOrderBookDelta(
	instrumentID InstrumentID,
	bookType enum.BookType,
	action enum.BookAction,
	order BookOrder,
	updateID uint64,
	tsEvent, tsInit int64,
) (OrderBookDelta, error) {
	d := OrderBookDelta{
		InstrumentID: instrumentID,
		BookType:     bookType,
		Action:       action,
		Order:        order,
		UpdateID:     updateID,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}
	if err := d.Validate(); err != nil {
		return OrderBookDelta{}, err
	}
	return d, nil
}

// NewClearDelta builds a CLEAR delta. It carries no order by construction.
func NewClearDelta(
	instrumentID InstrumentID,
	bookType enum.BookType,
	updateID uint64,
	tsEvent, tsInit int64,
) OrderBookDelta {
	return OrderBookDelta{
		InstrumentID: instrumentID,
		BookType:     bookType,
		Action:       enum.ActionClear,
		UpdateID:     updateID,
		TsEvent:      tsEvent,
		TsInit:       tsInit,
	}
}

// Validate rejects the malformed action/order pairings. Sizes are never
// negative; a zero size is meaningful only where it removes liquidity
// (UPDATE erases the level, DELETE carries the zeroed slot), so an ADD
// must carry a positive one.
func (d OrderBookDelta) Validate() error {
	if !d.BookType.IsAvailable() || !d.Action.IsAvailable() {
		return exception.ErrMalformedEvent
	}
	if d.Action.RequiresOrder() {
		if d.Order.IsZero() {
			return exception.ErrMalformedEvent
		}
		if !d.Order.Side.IsAvailable() {
			return exception.ErrMalformedEvent
		}
		if d.Order.Size.Mantissa < 0 {
			return exception.ErrMalformedEvent
		}
		if d.Action == enum.ActionAdd && d.Order.Size.IsZero() {
			return exception.ErrMalformedEvent
		}
		return nil
	}
	if !d.Order.IsZero() {
		return exception.ErrMalformedEvent
	}
	return nil
}

func (d OrderBookDelta) Instrument() InstrumentID { return d.InstrumentID }
func (d OrderBookDelta) Book() enum.BookType      { return d.BookType }
func (d OrderBookDelta) Sequence() uint64         { return d.UpdateID }
func (d OrderBookDelta) EventTime() int64         { return d.TsEvent }
func (d OrderBookDelta) InitTime() int64          { return d.TsInit }

// Debug renders the canonical text form. The order field is omitted for
// CLEAR, matching the absent payload.
func (d OrderBookDelta) Debug() string {
	return string(d.AppendDebug(make([]byte, 0, 192)))
}

func (d OrderBookDelta) AppendDebug(buf []byte) []byte {
	buf = append(buf, "OrderBookDelta("...)
	buf = d.InstrumentID.AppendBytes(buf)
	buf = append(buf, ", book_type="...)
	buf = append(buf, d.BookType.String()...)
	buf = append(buf, ", action="...)
	buf = append(buf, d.Action.String()...)
	if d.Action.RequiresOrder() {
		buf = append(buf, ", order="...)
		buf = d.Order.AppendDebug(buf)
	}
	buf = append(buf, ", update_id="...)
	buf = strconv.AppendUint(buf, d.UpdateID, 10)
	buf = append(buf, ", ts_event="...)
	buf = strconv.AppendInt(buf, d.TsEvent, 10)
	buf = append(buf, ", ts_init="...)
	buf = strconv.AppendInt(buf, d.TsInit, 10)
	buf = append(buf, ')')
	return buf
}
