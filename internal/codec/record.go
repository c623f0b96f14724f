// Package codec converts order book events to and from their flat wire
// records. The record layout and the compact compound-field byte strings
// are a persistence contract consumed by replay loaders; both directions
// are lossless.
package codec

import (
	"encoding/base64"
	"encoding/json"

	"main/internal/model"
	"main/pkg/exception"
)

// Record field names. These are stable identifiers consumed by
// persistence and by replay loaders.
const (
	FieldType         = "type"
	FieldInstrumentID = "instrument_id"
	FieldBookType     = "book_type"
	FieldAction       = "action"
	FieldOrderID      = "order_id"
	FieldOrderPrice   = "order_price"
	FieldOrderSide    = "order_side"
	FieldOrderSize    = "order_size"
	FieldBids         = "bids"
	FieldAsks         = "asks"
	FieldDeltas       = "deltas"
	FieldUpdateID     = "update_id"
	FieldTsEvent      = "ts_event"
	FieldTsInit       = "ts_init"
)

// Record type discriminators.
const (
	TypeSnapshot = "OrderBookSnapshot"
	TypeDelta    = "OrderBookDelta"
	TypeDeltas   = "OrderBookDeltas"
)

// Record is one flat wire record. Values are string, []byte (compound
// fields), uint64 (update id) or int64 (timestamps).
type Record map[string]any

// ToRecord flattens any event type into its wire record.
func ToRecord(ev model.Event) (Record, error) {
	switch e := ev.(type) {
	case model.OrderBookSnapshot:
		return SnapshotToRecord(e), nil
	case model.OrderBookDelta:
		return DeltaToRecord(e)
	case model.OrderBookDeltas:
		return DeltasToRecord(e)
	default:
		return nil, exception.ErrFieldType
	}
}

// FromRecord dispatches on the type discriminator and rebuilds the event.
func FromRecord(rec Record) (model.Event, error) {
	typ, err := rec.str(FieldType)
	if err != nil {
		return nil, err
	}
	switch typ {
	case TypeSnapshot:
		return SnapshotFromRecord(rec)
	case TypeDelta:
		return DeltaFromRecord(rec)
	case TypeDeltas:
		return DeltasFromRecord(rec)
	default:
		return nil, exception.ErrUnknownEnum
	}
}

// Marshal serializes a record for transport or journaling. Key order is
// deterministic (encoding/json sorts map keys), compound fields ride as
// base64 byte strings.
func Marshal(rec Record) ([]byte, error) {
	return json.Marshal(rec)
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(data []byte) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, exception.ErrCompoundEncoding
	}
	rec := make(Record, len(raw))
	for key, val := range raw {
		switch key {
		case FieldBids, FieldAsks, FieldDeltas:
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return nil, exception.ErrFieldType
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, exception.ErrFieldType
			}
			rec[key] = b
		case FieldUpdateID:
			var v uint64
			if err := json.Unmarshal(val, &v); err != nil {
				return nil, exception.ErrFieldType
			}
			rec[key] = v
		case FieldTsEvent, FieldTsInit:
			var v int64
			if err := json.Unmarshal(val, &v); err != nil {
				return nil, exception.ErrFieldType
			}
			rec[key] = v
		default:
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return nil, exception.ErrFieldType
			}
			rec[key] = s
		}
	}
	return rec, nil
}

func (r Record) str(key string) (string, error) {
	v, ok := r[key]
	if !ok {
		return "", exception.ErrMissingField
	}
	s, ok := v.(string)
	if !ok {
		return "", exception.ErrFieldType
	}
	return s, nil
}

func (r Record) bytes(key string) ([]byte, error) {
	v, ok := r[key]
	if !ok {
		return nil, exception.ErrMissingField
	}
	b, ok := v.([]byte)
	if !ok {
		return nil, exception.ErrFieldType
	}
	return b, nil
}

func (r Record) u64(key string) (uint64, error) {
	v, ok := r[key]
	if !ok {
		return 0, exception.ErrMissingField
	}
	n, ok := v.(uint64)
	if !ok {
		return 0, exception.ErrFieldType
	}
	return n, nil
}

func (r Record) i64(key string) (int64, error) {
	v, ok := r[key]
	if !ok {
		return 0, exception.ErrMissingField
	}
	n, ok := v.(int64)
	if !ok {
		return 0, exception.ErrFieldType
	}
	return n, nil
}

func (r Record) has(key string) bool {
	_, ok := r[key]
	return ok
}

// common trailer shared by every record type
func (r Record) trailer() (uint64, int64, int64, error) {
	updateID, err := r.u64(FieldUpdateID)
	if err != nil {
		return 0, 0, 0, err
	}
	tsEvent, err := r.i64(FieldTsEvent)
	if err != nil {
		return 0, 0, 0, err
	}
	tsInit, err := r.i64(FieldTsInit)
	if err != nil {
		return 0, 0, 0, err
	}
	return updateID, tsEvent, tsInit, nil
}

func (r Record) header(wantType string) (model.InstrumentID, string, error) {
	typ, err := r.str(FieldType)
	if err != nil {
		return model.InstrumentID{}, "", err
	}
	if typ != wantType {
		return model.InstrumentID{}, "", exception.ErrFieldType
	}
	rawInstrument, err := r.str(FieldInstrumentID)
	if err != nil {
		return model.InstrumentID{}, "", err
	}
	instrumentID, err := model.ParseInstrumentID(rawInstrument)
	if err != nil {
		return model.InstrumentID{}, "", err
	}
	bookType, err := r.str(FieldBookType)
	if err != nil {
		return model.InstrumentID{}, "", err
	}
	return instrumentID, bookType, nil
}
