package model

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model/enum"
	"main/pkg/exception"
)

func testInstrument() InstrumentID {
	return NewInstrumentID("BTCUSDT", "BINANCE")
}

func mustPrice(t *testing.T, s string) Price {
	t.Helper()
	p, err := PriceFromString(s)
	require.NoError(t, err)
	return p
}

func mustSize(t *testing.T, s string) Size {
	t.Helper()
	v, err := SizeFromString(s)
	require.NoError(t, err)
	return v
}

func TestParseInstrumentID(t *testing.T) {
	id, err := ParseInstrumentID("BTCUSDT.BINANCE")
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", id.Symbol)
	assert.Equal(t, "BINANCE", id.Venue)
	assert.Equal(t, "BTCUSDT.BINANCE", id.String())

	// Venue is everything after the last dot.
	id, err = ParseInstrumentID("BTC.USD.COINBASE")
	require.NoError(t, err)
	assert.Equal(t, "BTC.USD", id.Symbol)
	assert.Equal(t, "COINBASE", id.Venue)

	for _, in := range []string{"", "BTCUSDT", ".BINANCE", "BTCUSDT."} {
		_, err := ParseInstrumentID(in)
		assert.ErrorIs(t, err, exception.ErrInvalidIdentifier, "input %q", in)
	}
}

func TestContentIDPolicyDeterministic(t *testing.T) {
	price := mustPrice(t, "1010.0")
	size := mustSize(t, "5")

	a := NewBookOrder(price, size, enum.SideBuy)
	b := NewBookOrder(price, size, enum.SideBuy)
	assert.Equal(t, a.ID, b.ID, "identical inputs must derive identical ids")
	assert.Equal(t, a, b)

	c := NewBookOrder(price, mustSize(t, "6"), enum.SideBuy)
	assert.NotEqual(t, a.ID, c.ID, "different size must derive a different id")

	d := NewBookOrder(price, size, enum.SideSell)
	assert.NotEqual(t, a.ID, d.ID, "different side must derive a different id")
}

func TestUUIDPolicy(t *testing.T) {
	price := mustPrice(t, "1010.0")
	size := mustSize(t, "5")

	policy := UUIDPolicy{}
	a := policy.OrderID(price, size, enum.SideBuy)
	b := policy.OrderID(price, size, enum.SideBuy)
	assert.NotEqual(t, a, b, "identical inputs must still derive unique ids")
	for _, id := range []OrderID{a, b} {
		_, err := uuid.Parse(string(id))
		assert.NoError(t, err, "id %q must be a well-formed uuid", id)
	}
}

func TestDefaultOrderIDPolicySwap(t *testing.T) {
	price := mustPrice(t, "1010.0")
	size := mustSize(t, "5")
	content := NewBookOrder(price, size, enum.SideBuy)

	prev := DefaultOrderIDPolicy
	DefaultOrderIDPolicy = UUIDPolicy{}
	defer func() { DefaultOrderIDPolicy = prev }()

	a := NewBookOrder(price, size, enum.SideBuy)
	b := NewBookOrder(price, size, enum.SideBuy)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotEqual(t, content.ID, a.ID)
	_, err := uuid.Parse(string(a.ID))
	assert.NoError(t, err)
}

func TestDeltaValidateSizeSign(t *testing.T) {
	price := mustPrice(t, "10.0")

	for _, action := range []enum.BookAction{enum.ActionAdd, enum.ActionUpdate, enum.ActionDelete} {
		order := NewBookOrderWithID(price, mustSize(t, "-1"), enum.SideBuy, "o-1")
		_, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, action, order, 1, 10, 20)
		assert.ErrorIs(t, err, exception.ErrMalformedEvent, "action %s with negative size", action)
	}

	zero := NewBookOrderWithID(price, mustSize(t, "0"), enum.SideBuy, "o-1")
	_, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, enum.ActionAdd, zero, 1, 10, 20)
	assert.ErrorIs(t, err, exception.ErrMalformedEvent, "an add must carry liquidity")

	// Zero stays valid where it removes liquidity.
	for _, action := range []enum.BookAction{enum.ActionUpdate, enum.ActionDelete} {
		_, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, action, zero, 1, 10, 20)
		assert.NoError(t, err, "action %s with zero size", action)
	}
}

func TestDeltaValidateActionOrderPairing(t *testing.T) {
	order := NewBookOrderWithID(mustPrice(t, "10.0"), mustSize(t, "5"), enum.SideBuy, "o-1")

	for _, action := range []enum.BookAction{enum.ActionAdd, enum.ActionUpdate, enum.ActionDelete} {
		_, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, action, order, 1, 10, 20)
		assert.NoError(t, err, "action %s with order", action)

		_, err = NewOrderBookDelta(testInstrument(), enum.BookTypeL2, action, BookOrder{}, 1, 10, 20)
		assert.ErrorIs(t, err, exception.ErrMalformedEvent, "action %s without order", action)
	}

	clear := NewClearDelta(testInstrument(), enum.BookTypeL2, 1, 10, 20)
	assert.NoError(t, clear.Validate())

	_, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, enum.ActionClear, order, 1, 10, 20)
	assert.ErrorIs(t, err, exception.ErrMalformedEvent, "clear with order")
}

func TestDeltasRequiresNonEmptyBatch(t *testing.T) {
	_, err := NewOrderBookDeltas(testInstrument(), enum.BookTypeL2, nil, 1, 10, 20)
	assert.ErrorIs(t, err, exception.ErrEmptyBatch)
}

func TestSnapshotValidatesSideOrdering(t *testing.T) {
	bids := []BookLevel{
		{Price: mustPrice(t, "1010"), Size: mustSize(t, "2")},
		{Price: mustPrice(t, "1009"), Size: mustSize(t, "1")},
	}
	asks := []BookLevel{
		{Price: mustPrice(t, "1020"), Size: mustSize(t, "2")},
		{Price: mustPrice(t, "1021"), Size: mustSize(t, "1")},
	}

	_, err := NewOrderBookSnapshot(testInstrument(), enum.BookTypeL2, bids, asks, 5, 10, 20)
	require.NoError(t, err)

	ascBids := []BookLevel{bids[1], bids[0]}
	_, err = NewOrderBookSnapshot(testInstrument(), enum.BookTypeL2, ascBids, asks, 5, 10, 20)
	assert.ErrorIs(t, err, exception.ErrUnorderedLevels, "ascending bids")

	descAsks := []BookLevel{asks[1], asks[0]}
	_, err = NewOrderBookSnapshot(testInstrument(), enum.BookTypeL2, bids, descAsks, 5, 10, 20)
	assert.ErrorIs(t, err, exception.ErrUnorderedLevels, "descending asks")

	dupBids := []BookLevel{bids[0], bids[0]}
	_, err = NewOrderBookSnapshot(testInstrument(), enum.BookTypeL2, dupBids, asks, 5, 10, 20)
	assert.ErrorIs(t, err, exception.ErrUnorderedLevels, "duplicate bid price")
}

func TestCanonicalDebugStrings(t *testing.T) {
	order := NewBookOrderWithID(mustPrice(t, "1010.0"), mustSize(t, "5"), enum.SideBuy, "42")
	assert.Equal(t, "BookOrder(1010.0, 5, BUY, 42)", order.Debug())

	delta, err := NewOrderBookDelta(testInstrument(), enum.BookTypeL2, enum.ActionAdd, order, 7, 100, 200)
	require.NoError(t, err)
	assert.Equal(t,
		"OrderBookDelta(BTCUSDT.BINANCE, book_type=L2_MBP, action=ADD, "+
			"order=BookOrder(1010.0, 5, BUY, 42), update_id=7, ts_event=100, ts_init=200)",
		delta.Debug())

	clear := NewClearDelta(testInstrument(), enum.BookTypeL2, 8, 100, 200)
	assert.Equal(t,
		"OrderBookDelta(BTCUSDT.BINANCE, book_type=L2_MBP, action=CLEAR, update_id=8, ts_event=100, ts_init=200)",
		clear.Debug())

	batch, err := NewOrderBookDeltas(testInstrument(), enum.BookTypeL2, []OrderBookDelta{clear}, 8, 100, 200)
	require.NoError(t, err)
	assert.Equal(t,
		"OrderBookDeltas(BTCUSDT.BINANCE, book_type=L2_MBP, "+
			"[OrderBookDelta(BTCUSDT.BINANCE, book_type=L2_MBP, action=CLEAR, update_id=8, ts_event=100, ts_init=200)], "+
			"update_id=8, ts_event=100, ts_init=200)",
		batch.Debug())

	snapshot, err := NewOrderBookSnapshot(testInstrument(), enum.BookTypeL2,
		[]BookLevel{
			{Price: mustPrice(t, "1010"), Size: mustSize(t, "2")},
			{Price: mustPrice(t, "1009"), Size: mustSize(t, "1")},
		},
		[]BookLevel{
			{Price: mustPrice(t, "1020"), Size: mustSize(t, "2")},
			{Price: mustPrice(t, "1021"), Size: mustSize(t, "1")},
		},
		5, 100, 200)
	require.NoError(t, err)
	assert.Equal(t,
		"OrderBookSnapshot(BTCUSDT.BINANCE, book_type=L2_MBP, "+
			"bids=[[1010,2],[1009,1]], asks=[[1020,2],[1021,1]], update_id=5, ts_event=100, ts_init=200)",
		snapshot.Debug())

	// Byte-identical across repeated rendering.
	assert.Equal(t, snapshot.Debug(), snapshot.Debug())
}

func TestAppendLevelsCompact(t *testing.T) {
	levels := []BookLevel{
		{Price: mustPrice(t, "1010"), Size: mustSize(t, "2")},
		{Price: mustPrice(t, "1009"), Size: mustSize(t, "1")},
	}
	assert.Equal(t, "[[1010,2],[1009,1]]", string(AppendLevels(nil, levels)))
	assert.Equal(t, "[]", string(AppendLevels(nil, nil)))
}
