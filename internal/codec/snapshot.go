package codec

import (
	"encoding/json"

	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

// SnapshotToRecord flattens a snapshot. The bids/asks compound fields are
// compact [price,size] arrays with no inserted whitespace.
func SnapshotToRecord(s model.OrderBookSnapshot) Record {
	return Record{
		FieldType:         TypeSnapshot,
		FieldInstrumentID: s.InstrumentID.String(),
		FieldBookType:     s.BookType.String(),
		FieldBids:         model.AppendLevels(nil, s.Bids),
		FieldAsks:         model.AppendLevels(nil, s.Asks),
		FieldUpdateID:     s.UpdateID,
		FieldTsEvent:      s.TsEvent,
		FieldTsInit:       s.TsInit,
	}
}

// SnapshotFromRecord rebuilds a snapshot, re-validating side ordering.
func SnapshotFromRecord(rec Record) (model.OrderBookSnapshot, error) {
	instrumentID, rawBookType, err := rec.header(TypeSnapshot)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	bookType, ok := enum.ParseBookType(rawBookType)
	if !ok {
		return model.OrderBookSnapshot{}, exception.ErrUnknownEnum
	}

	rawBids, err := rec.bytes(FieldBids)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	bids, err := parseLevels(rawBids)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	rawAsks, err := rec.bytes(FieldAsks)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	asks, err := parseLevels(rawAsks)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}

	updateID, tsEvent, tsInit, err := rec.trailer()
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	return model.NewOrderBookSnapshot(instrumentID, bookType, bids, asks, updateID, tsEvent, tsInit)
}

// parseLevels decodes a compact [[price,size],...] byte string. Numbers
// are kept as decimal literals so precision survives the round trip.
func parseLevels(data []byte) ([]model.BookLevel, error) {
	var rows [][]json.Number
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, exception.ErrCompoundEncoding
	}
	if len(rows) == 0 {
		return nil, nil
	}
	levels := make([]model.BookLevel, 0, len(rows))
	for _, row := range rows {
		if len(row) != 2 {
			return nil, exception.ErrCompoundEncoding
		}
		price, err := model.PriceFromString(row[0].String())
		if err != nil {
			return nil, err
		}
		size, err := model.SizeFromString(row[1].String())
		if err != nil {
			return nil, err
		}
		levels = append(levels, model.BookLevel{Price: price, Size: size})
	}
	return levels, nil
}
