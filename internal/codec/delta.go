package codec

import (
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// DeltaToRecord flattens a delta. The nested order is spread into
// order_id/order_price/order_side/order_size; a CLEAR record carries none
// of them.
func DeltaToRecord(d model.OrderBookDelta) (Record, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	rec := Record{
		FieldType:         TypeDelta,
		FieldInstrumentID: d.InstrumentID.String(),
		FieldBookType:     d.BookType.String(),
		FieldAction:       d.Action.String(),
		FieldUpdateID:     d.UpdateID,
		FieldTsEvent:      d.TsEvent,
		FieldTsInit:       d.TsInit,
	}
	if d.Action.RequiresOrder() {
		rec[FieldOrderID] = string(d.Order.ID)
		rec[FieldOrderPrice] = d.Order.Price.String()
		rec[FieldOrderSide] = d.Order.Side.String()
		rec[FieldOrderSize] = d.Order.Size.String()
	}
	return rec, nil
}

// DeltaFromRecord rebuilds a delta. A CLEAR record carrying any order
// field, or an ADD/UPDATE/DELETE record missing one, fails the decode.
func DeltaFromRecord(rec Record) (model.OrderBookDelta, error) {
	instrumentID, rawBookType, err := rec.header(TypeDelta)
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	bookType, ok := enum.ParseBookType(rawBookType)
	if !ok {
		return model.OrderBookDelta{}, exception.ErrUnknownEnum
	}
	rawAction, err := rec.str(FieldAction)
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	action, ok := enum.ParseBookAction(rawAction)
	if !ok {
		return model.OrderBookDelta{}, exception.ErrUnknownEnum
	}

	updateID, tsEvent, tsInit, err := rec.trailer()
	if err != nil {
		return model.OrderBookDelta{}, err
	}

	if !action.RequiresOrder() {
		if rec.has(FieldOrderID) || rec.has(FieldOrderPrice) ||
			rec.has(FieldOrderSide) || rec.has(FieldOrderSize) {
			return model.OrderBookDelta{}, exception.ErrUnexpectedOrder
		}
		return model.NewClearDelta(instrumentID, bookType, updateID, tsEvent, tsInit), nil
	}

	order, err := orderFromRecord(rec)
	if err != nil {
		return model.OrderBookDelta{}, err
	}
	return model.NewOrderBookDelta(instrumentID, bookType, action, order, updateID, tsEvent, tsInit)
}

func orderFromRecord(rec Record) (model.BookOrder, error) {
	rawID, err := rec.str(FieldOrderID)
	if err != nil {
		return model.BookOrder{}, err
	}
	rawPrice, err := rec.str(FieldOrderPrice)
	if err != nil {
		return model.BookOrder{}, err
	}
	price, err := model.PriceFromString(rawPrice)
	if err != nil {
		return model.BookOrder{}, err
	}
	rawSide, err := rec.str(FieldOrderSide)
	if err != nil {
		return model.BookOrder{}, err
	}
	side, ok := enum.ParseSide(rawSide)
	if !ok {
		return model.BookOrder{}, exception.ErrUnknownEnum
	}
	rawSize, err := rec.str(FieldOrderSize)
	if err != nil {
		return model.BookOrder{}, err
	}
	size, err := model.SizeFromString(rawSize)
	if err != nil {
		return model.BookOrder{}, err
	}
	return model.NewBookOrderWithID(price, size, side, model.OrderID(rawID)), nil
}
