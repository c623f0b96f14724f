package store

import (
	"main/internal/codec"
	"main/pkg/exception"
)

// EventRow is one archived event. Nullable columns mirror the record's
// conditional fields: order columns are set only on ADD/UPDATE/DELETE
// deltas, compound columns only on their owning type.
type EventRow struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	EventType    string  `gorm:"column:event_type;size:32;index:idx_instrument_seq,priority:3"`
	InstrumentID string  `gorm:"column:instrument_id;size:64;index:idx_instrument_seq,priority:1"`
	BookType     string  `gorm:"column:book_type;size:16"`
	Action       *string `gorm:"column:action;size:16"`

	OrderID    *string `gorm:"column:order_id;size:64"`
	OrderPrice *string `gorm:"column:order_price;size:32"`
	OrderSide  *string `gorm:"column:order_side;size:8"`
	OrderSize  *string `gorm:"column:order_size;size:32"`

	Bids   []byte `gorm:"column:bids"`
	Asks   []byte `gorm:"column:asks"`
	Deltas []byte `gorm:"column:deltas"`

	UpdateID uint64 `gorm:"column:update_id;index:idx_instrument_seq,priority:2"`
	TsEvent  int64  `gorm:"column:ts_event"`
	TsInit   int64  `gorm:"column:ts_init"`
}

// TableName pins the archive table.
func (EventRow) TableName() string { return "book_events" }

func rowFromRecord(rec codec.Record) (EventRow, error) {
	var row EventRow
	var err error
	if row.EventType, err = recStr(rec, codec.FieldType); err != nil {
		return EventRow{}, err
	}
	if row.InstrumentID, err = recStr(rec, codec.FieldInstrumentID); err != nil {
		return EventRow{}, err
	}
	if row.BookType, err = recStr(rec, codec.FieldBookType); err != nil {
		return EventRow{}, err
	}
	row.Action = recOptStr(rec, codec.FieldAction)
	row.OrderID = recOptStr(rec, codec.FieldOrderID)
	row.OrderPrice = recOptStr(rec, codec.FieldOrderPrice)
	row.OrderSide = recOptStr(rec, codec.FieldOrderSide)
	row.OrderSize = recOptStr(rec, codec.FieldOrderSize)
	row.Bids = recBytes(rec, codec.FieldBids)
	row.Asks = recBytes(rec, codec.FieldAsks)
	row.Deltas = recBytes(rec, codec.FieldDeltas)

	updateID, ok := rec[codec.FieldUpdateID].(uint64)
	if !ok {
		return EventRow{}, exception.ErrMissingField
	}
	row.UpdateID = updateID
	tsEvent, ok := rec[codec.FieldTsEvent].(int64)
	if !ok {
		return EventRow{}, exception.ErrMissingField
	}
	row.TsEvent = tsEvent
	tsInit, ok := rec[codec.FieldTsInit].(int64)
	if !ok {
		return EventRow{}, exception.ErrMissingField
	}
	row.TsInit = tsInit
	return row, nil
}

// record rebuilds the wire record, restoring only the columns the row
// actually carries.
func (r EventRow) record() codec.Record {
	rec := codec.Record{
		codec.FieldType:         r.EventType,
		codec.FieldInstrumentID: r.InstrumentID,
		codec.FieldBookType:     r.BookType,
		codec.FieldUpdateID:     r.UpdateID,
		codec.FieldTsEvent:      r.TsEvent,
		codec.FieldTsInit:       r.TsInit,
	}
	putOptStr(rec, codec.FieldAction, r.Action)
	putOptStr(rec, codec.FieldOrderID, r.OrderID)
	putOptStr(rec, codec.FieldOrderPrice, r.OrderPrice)
	putOptStr(rec, codec.FieldOrderSide, r.OrderSide)
	putOptStr(rec, codec.FieldOrderSize, r.OrderSize)
	if len(r.Bids) > 0 {
		rec[codec.FieldBids] = r.Bids
	}
	if len(r.Asks) > 0 {
		rec[codec.FieldAsks] = r.Asks
	}
	if len(r.Deltas) > 0 {
		rec[codec.FieldDeltas] = r.Deltas
	}
	return rec
}

func recStr(rec codec.Record, key string) (string, error) {
	v, ok := rec[key].(string)
	if !ok {
		return "", exception.ErrMissingField
	}
	return v, nil
}

func recOptStr(rec codec.Record, key string) *string {
	v, ok := rec[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func recBytes(rec codec.Record, key string) []byte {
	v, _ := rec[key].([]byte)
	return v
}

func putOptStr(rec codec.Record, key string, v *string) {
	if v != nil {
		rec[key] = *v
	}
}
