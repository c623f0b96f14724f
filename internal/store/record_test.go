package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/codec"
	"main/internal/model"
	"main/internal/model/enum"
	"main/pkg/exception"
)

func instrument() model.InstrumentID {
	return model.NewInstrumentID("BTCUSDT", "BINANCE")
}

func price(t *testing.T, s string) model.Price {
	t.Helper()
	p, err := model.PriceFromString(s)
	require.NoError(t, err)
	return p
}

func size(t *testing.T, s string) model.Size {
	t.Helper()
	v, err := model.SizeFromString(s)
	require.NoError(t, err)
	return v
}

func sampleEvents(t *testing.T) []model.Event {
	t.Helper()
	snap, err := model.NewOrderBookSnapshot(instrument(), enum.BookTypeL2,
		[]model.BookLevel{{Price: price(t, "1010.5"), Size: size(t, "2")}},
		[]model.BookLevel{{Price: price(t, "1020.5"), Size: size(t, "2")}},
		5, 100, 200)
	require.NoError(t, err)

	d, err := model.NewOrderBookDelta(instrument(), enum.BookTypeL2, enum.ActionAdd,
		model.NewBookOrder(price(t, "1009.5"), size(t, "3"), enum.SideBuy), 6, 100, 200)
	require.NoError(t, err)

	clear := model.NewClearDelta(instrument(), enum.BookTypeL2, 7, 100, 200)

	batch, err := model.NewOrderBookDeltas(instrument(), enum.BookTypeL2,
		[]model.OrderBookDelta{d}, 6, 100, 200)
	require.NoError(t, err)

	return []model.Event{snap, d, clear, batch}
}

func TestRowRoundTrip(t *testing.T) {
	for _, ev := range sampleEvents(t) {
		rec, err := codec.ToRecord(ev)
		require.NoError(t, err)

		row, err := rowFromRecord(rec)
		require.NoError(t, err)
		assert.Equal(t, ev.Instrument().String(), row.InstrumentID)
		assert.Equal(t, ev.Sequence(), row.UpdateID)

		back, err := codec.FromRecord(row.record())
		require.NoError(t, err)
		assert.Equal(t, ev, back)
	}
}

func TestRowNullableColumns(t *testing.T) {
	clear := model.NewClearDelta(instrument(), enum.BookTypeL2, 7, 100, 200)
	rec, err := codec.ToRecord(clear)
	require.NoError(t, err)
	row, err := rowFromRecord(rec)
	require.NoError(t, err)

	require.NotNil(t, row.Action)
	assert.Equal(t, "CLEAR", *row.Action)
	assert.Nil(t, row.OrderID, "CLEAR carries no order columns")
	assert.Nil(t, row.OrderPrice)
	assert.Nil(t, row.OrderSide)
	assert.Nil(t, row.OrderSize)
	assert.Nil(t, row.Bids)
	assert.Nil(t, row.Deltas)
}

func TestRowMissingField(t *testing.T) {
	ev := sampleEvents(t)[0]
	rec, err := codec.ToRecord(ev)
	require.NoError(t, err)
	delete(rec, codec.FieldInstrumentID)

	_, err = rowFromRecord(rec)
	assert.ErrorIs(t, err, exception.ErrMissingField)
}
