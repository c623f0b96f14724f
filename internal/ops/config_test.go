package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/model"
	"main/internal/model/enum"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const validConfig = `{
	"registry": {
		"venues": [{"name": "BINANCE"}, {"name": "SIM"}],
		"instruments": [
			{"symbol": "BTCUSDT", "venue": "BINANCE", "pricePrecision": 2, "sizePrecision": 3, "bookType": "L2_MBP"},
			{"symbol": "ETHUSDT", "venue": "SIM", "pricePrecision": 1, "sizePrecision": 0, "bookType": "L3_MBO"}
		]
	},
	"journal": {"dir": "/tmp/journal", "segmentMaxBytes": 1048576, "filePrefix": "book"},
	"feed": {"queueCapacity": 1024},
	"archive": {"enabled": false}
}`

func TestLoad(t *testing.T) {
	loaded, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/journal", loaded.Journal.Dir)
	assert.Equal(t, int64(1048576), loaded.Journal.SegmentMaxBytes)
	assert.Equal(t, 1024, loaded.Feed.QueueCapacity)
	assert.False(t, loaded.Archive.Enabled)

	reg := loaded.Registry
	require.Equal(t, 2, reg.InstrumentCount())
	assert.True(t, reg.HasVenue("BINANCE"))
	assert.False(t, reg.HasVenue("COINBASE"))

	btc, ok := reg.Instrument(model.NewInstrumentID("BTCUSDT", "BINANCE"))
	require.True(t, ok)
	assert.Equal(t, uint8(2), btc.PricePrecision)
	assert.Equal(t, uint8(3), btc.SizePrecision)
	assert.Equal(t, enum.BookTypeL2, btc.BookType)

	eth, ok := reg.InstrumentAt(1)
	require.True(t, ok)
	assert.Equal(t, enum.BookTypeL3, eth.BookType)

	_, ok = reg.Instrument(model.NewInstrumentID("XRPUSDT", "BINANCE"))
	assert.False(t, ok)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{`},
		{"unknown book type", `{"registry": {
			"venues": [{"name": "BINANCE"}],
			"instruments": [{"symbol": "BTCUSDT", "venue": "BINANCE", "bookType": "L9"}]
		}}`},
		{"unregistered venue", `{"registry": {
			"venues": [{"name": "BINANCE"}],
			"instruments": [{"symbol": "BTCUSDT", "venue": "COINBASE", "bookType": "L2_MBP"}]
		}}`},
		{"duplicate instrument", `{"registry": {
			"venues": [{"name": "BINANCE"}],
			"instruments": [
				{"symbol": "BTCUSDT", "venue": "BINANCE", "bookType": "L2_MBP"},
				{"symbol": "BTCUSDT", "venue": "BINANCE", "bookType": "L2_MBP"}
			]
		}}`},
		{"duplicate venue", `{"registry": {
			"venues": [{"name": "BINANCE"}, {"name": "BINANCE"}]
		}}`},
		{"precision out of range", `{"registry": {
			"venues": [{"name": "BINANCE"}],
			"instruments": [{"symbol": "BTCUSDT", "venue": "BINANCE", "pricePrecision": 10, "bookType": "L2_MBP"}]
		}}`},
		{"negative queue capacity", `{
			"registry": {"venues": [{"name": "BINANCE"}]},
			"feed": {"queueCapacity": -1}
		}`},
		{"archive without database", `{
			"registry": {"venues": [{"name": "BINANCE"}]},
			"archive": {"enabled": true}
		}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestInstrumentParseHelpers(t *testing.T) {
	inst := Instrument{
		ID:             model.NewInstrumentID("BTCUSDT", "BINANCE"),
		PricePrecision: 2,
		SizePrecision:  0,
		BookType:       enum.BookTypeL2,
	}

	p, err := inst.Price("1010.25")
	require.NoError(t, err)
	assert.Equal(t, int64(101025), p.Mantissa)
	assert.Equal(t, uint8(2), p.Precision)

	_, err = inst.Price("1010.5")
	assert.Error(t, err, "precision must match the instrument exactly")
	_, err = inst.Price("abc")
	assert.Error(t, err)

	s, err := inst.Size("7")
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.Mantissa)
	_, err = inst.Size("7.0")
	assert.Error(t, err)
}
