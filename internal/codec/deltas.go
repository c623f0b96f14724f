package codec

import (
	"encoding/json"
	"strconv"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// DeltasToRecord flattens a batch. The inner deltas ride in the deltas
// compound field as a compact JSON array of flat delta objects,
// preserving sequence order.
func DeltasToRecord(b model.OrderBookDeltas) (Record, error) {
	if len(b.Deltas) == 0 {
		return nil, exception.ErrEmptyBatch
	}
	buf := make([]byte, 0, 256*len(b.Deltas))
	buf = append(buf, '[')
	for i, d := range b.Deltas {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = appendDeltaJSON(buf, d)
	}
	buf = append(buf, ']')

	return Record{
		FieldType:         TypeDeltas,
		FieldInstrumentID: b.InstrumentID.String(),
		FieldBookType:     b.BookType.String(),
		FieldDeltas:       buf,
		FieldUpdateID:     b.UpdateID,
		FieldTsEvent:      b.TsEvent,
		FieldTsInit:       b.TsInit,
	}, nil
}

// appendDeltaJSON writes one flat delta object with a fixed field order
// and no inserted whitespace. Prices and sizes are emitted as decimal
// number literals at their carried precision.
func appendDeltaJSON(buf []byte, d model.OrderBookDelta) []byte {
	buf = append(buf, `{"type":"OrderBookDelta","instrument_id":`...)
	buf = strconv.AppendQuote(buf, d.InstrumentID.String())
	buf = append(buf, `,"book_type":"`...)
	buf = append(buf, d.BookType.String()...)
	buf = append(buf, `","action":"`...)
	buf = append(buf, d.Action.String()...)
	buf = append(buf, '"')
	if d.Action.RequiresOrder() {
		buf = append(buf, `,"order_price":`...)
		buf = d.Order.Price.AppendBytes(buf)
		buf = append(buf, `,"order_size":`...)
		buf = d.Order.Size.AppendBytes(buf)
		buf = append(buf, `,"order_side":"`...)
		buf = append(buf, d.Order.Side.String()...)
		buf = append(buf, `","order_id":`...)
		buf = strconv.AppendQuote(buf, string(d.Order.ID))
	}
	buf = append(buf, `,"update_id":`...)
	buf = strconv.AppendUint(buf, d.UpdateID, 10)
	buf = append(buf, `,"ts_event":`...)
	buf = strconv.AppendInt(buf, d.TsEvent, 10)
	buf = append(buf, `,"ts_init":`...)
	buf = strconv.AppendInt(buf, d.TsInit, 10)
	buf = append(buf, '}')
	return buf
}

type deltaJSON struct {
	Type         string      `json:"type"`
	InstrumentID string      `json:"instrument_id"`
	BookType     string      `json:"book_type"`
	Action       string      `json:"action"`
	OrderPrice   json.Number `json:"order_price"`
	OrderSize    json.Number `json:"order_size"`
	OrderSide    string      `json:"order_side"`
	OrderID      *string     `json:"order_id"`
	UpdateID     uint64      `json:"update_id"`
	TsEvent      int64       `json:"ts_event"`
	TsInit       int64       `json:"ts_init"`
}

// DeltasFromRecord rebuilds a batch from its record.
func DeltasFromRecord(rec Record) (model.OrderBookDeltas, error) {
	instrumentID, rawBookType, err := rec.header(TypeDeltas)
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	bookType, ok := enum.ParseBookType(rawBookType)
	if !ok {
		return model.OrderBookDeltas{}, exception.ErrUnknownEnum
	}

	rawDeltas, err := rec.bytes(FieldDeltas)
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	var rows []deltaJSON
	if err := json.Unmarshal(rawDeltas, &rows); err != nil {
		return model.OrderBookDeltas{}, exception.ErrCompoundEncoding
	}
	if len(rows) == 0 {
		return model.OrderBookDeltas{}, exception.ErrEmptyBatch
	}

	deltas := make([]model.OrderBookDelta, 0, len(rows))
	for _, row := range rows {
		d, err := deltaFromJSON(row)
		if err != nil {
			return model.OrderBookDeltas{}, err
		}
		deltas = append(deltas, d)
	}

	updateID, tsEvent, tsInit, err := rec.trailer()
	if err != nil {
		return model.OrderBookDeltas{}, err
	}
	return model.NewOrderBookDeltas(instrumentID, bookType, deltas, updateID, tsEvent, tsInit)
}

func deltaFromJSON(row deltaJSON) (model.OrderBookDelta, error) {
	if row.Type != TypeDelta {
		return model.OrderBookDelta{}, exception.ErrFieldType
	}
	instrumentID, err := model.ParseInstrumentID(row.InstrumentID)
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	bookType, ok := enum.ParseBookType(row.BookType)
	if !ok {
		return model.OrderBookDelta{}, exception.ErrUnknownEnum
	}
	action, ok := enum.ParseBookAction(row.Action)
	if !ok {
		return model.OrderBookDelta{}, exception.ErrUnknownEnum
	}

	if !action.RequiresOrder() {
		if row.OrderPrice != "" || row.OrderSize != "" || row.OrderSide != "" || row.OrderID != nil {
			return model.OrderBookDelta{}, exception.ErrUnexpectedOrder
		}
		return model.NewClearDelta(instrumentID, bookType, row.UpdateID, row.TsEvent, row.TsInit), nil
	}

	if row.OrderPrice == "" || row.OrderSize == "" || row.OrderSide == "" || row.OrderID == nil {
		return model.OrderBookDelta{}, exception.ErrMissingField
	}
	price, err := model.PriceFromString(row.OrderPrice.String())
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	size, err := model.SizeFromString(row.OrderSize.String())
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	side, ok := enum.ParseSide(row.OrderSide)
	if !ok {
		return model.OrderBookDelta{}, exception.ErrUnknownEnum
	}
	order := model.NewBookOrderWithID(price, size, side, model.OrderID(*row.OrderID))
	return model.NewOrderBookDelta(instrumentID, bookType, action, order, row.UpdateID, row.TsEvent, row.TsInit)
}
