// Package ops loads the typed JSON configuration and resolves it into
// the instrument registry the feed, generator and book workers consume.
package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/model"
	"main/internal/model/enum"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Registry RegistryConfig `json:"registry"`
	Journal  JournalConfig  `json:"journal"`
	Feed     FeedConfig     `json:"feed"`
	Archive  ArchiveConfig  `json:"archive"`
}

// RegistryConfig defines venue and instrument entries.
type RegistryConfig struct {
	Venues      []VenueConfig      `json:"venues"`
	Instruments []InstrumentConfig `json:"instruments"`
}

// VenueConfig describes a venue entry.
type VenueConfig struct {
	Name string `json:"name"`
}

// InstrumentConfig describes one tradable instrument. Precisions are the
// fixed number of fractional digits every price and size carries.
type InstrumentConfig struct {
	Symbol         string `json:"symbol"`
	Venue          string `json:"venue"`
	PricePrecision uint8  `json:"pricePrecision"`
	SizePrecision  uint8  `json:"sizePrecision"`
	BookType       string `json:"bookType"`
}

// JournalConfig describes where recorded events land.
type JournalConfig struct {
	Dir             string `json:"dir"`
	SegmentMaxBytes int64  `json:"segmentMaxBytes"`
	FilePrefix      string `json:"filePrefix"`
}

// FeedConfig describes the book worker queues.
type FeedConfig struct {
	QueueCapacity int `json:"queueCapacity"`
}

// ArchiveConfig describes the optional Postgres event archive.
type ArchiveConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
}

// Instrument is a resolved instrument definition.
type Instrument struct {
	ID             model.InstrumentID
	PricePrecision uint8
	SizePrecision  uint8
	BookType       enum.BookType
}

// Price converts a decimal literal to a price at the instrument's
// precision, rejecting literals carrying a different precision.
func (i Instrument) Price(s string) (model.Price, error) {
	p, err := model.PriceFromString(s)
	if err != nil {
		return model.Price{}, err
	}
	if p.Precision != i.PricePrecision {
		return model.Price{}, fmt.Errorf("price %q has precision %d, instrument %s requires %d",
			s, p.Precision, i.ID, i.PricePrecision)
	}
	return p, nil
}

// Size converts a decimal literal to a size at the instrument's
// precision.
func (i Instrument) Size(s string) (model.Size, error) {
	v, err := model.SizeFromString(s)
	if err != nil {
		return model.Size{}, err
	}
	if v.Precision != i.SizePrecision {
		return model.Size{}, fmt.Errorf("size %q has precision %d, instrument %s requires %d",
			s, v.Precision, i.ID, i.SizePrecision)
	}
	return v, nil
}

// Registry stores resolved venue and instrument definitions.
type Registry struct {
	venues      []string
	instruments []Instrument
	byID        map[model.InstrumentID]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[model.InstrumentID]int)}
}

// AddVenue registers a venue name.
func (r *Registry) AddVenue(name string) error {
	if name == "" {
		return fmt.Errorf("venue name is empty")
	}
	for _, v := range r.venues {
		if v == name {
			return fmt.Errorf("venue already exists: %s", name)
		}
	}
	r.venues = append(r.venues, name)
	return nil
}

// HasVenue reports whether a venue name is registered.
func (r *Registry) HasVenue(name string) bool {
	for _, v := range r.venues {
		if v == name {
			return true
		}
	}
	return false
}

// AddInstrument registers an instrument definition.
func (r *Registry) AddInstrument(inst Instrument) error {
	if inst.ID.Symbol == "" {
		return fmt.Errorf("instrument symbol is empty")
	}
	if !r.HasVenue(inst.ID.Venue) {
		return fmt.Errorf("venue not found: %s", inst.ID.Venue)
	}
	if inst.PricePrecision > model.MaxPrecision || inst.SizePrecision > model.MaxPrecision {
		return fmt.Errorf("instrument %s precision out of range", inst.ID)
	}
	if !inst.BookType.IsAvailable() {
		return fmt.Errorf("instrument %s book type is unknown", inst.ID)
	}
	if _, ok := r.byID[inst.ID]; ok {
		return fmt.Errorf("instrument already exists: %s", inst.ID)
	}
	r.byID[inst.ID] = len(r.instruments)
	r.instruments = append(r.instruments, inst)
	return nil
}

// Instrument returns the definition for an instrument id.
func (r *Registry) Instrument(id model.InstrumentID) (Instrument, bool) {
	idx, ok := r.byID[id]
	if !ok {
		return Instrument{}, false
	}
	return r.instruments[idx], true
}

// InstrumentCount returns the number of registered instruments.
func (r *Registry) InstrumentCount() int {
	return len(r.instruments)
}

// InstrumentAt returns the instrument by zero-based index.
func (r *Registry) InstrumentAt(index int) (Instrument, bool) {
	if index < 0 || index >= len(r.instruments) {
		return Instrument{}, false
	}
	return r.instruments[index], true
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry *Registry
	Journal  JournalConfig
	Feed     FeedConfig
	Archive  ArchiveConfig
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}
	if cfg.Feed.QueueCapacity < 0 {
		return Loaded{}, fmt.Errorf("feed queueCapacity must be >= 0")
	}
	if cfg.Archive.Enabled && cfg.Archive.Database == "" {
		return Loaded{}, fmt.Errorf("archive enabled without a database")
	}
	return Loaded{
		Registry: registry,
		Journal:  cfg.Journal,
		Feed:     cfg.Feed,
		Archive:  cfg.Archive,
	}, nil
}

// LoadRegistry reads a JSON config file and only builds the registry.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return buildRegistry(cfg.Registry)
}

func buildRegistry(cfg RegistryConfig) (*Registry, error) {
	reg := NewRegistry()
	for _, venue := range cfg.Venues {
		if err := reg.AddVenue(venue.Name); err != nil {
			return nil, err
		}
	}
	for _, inst := range cfg.Instruments {
		bookType, ok := enum.ParseBookType(inst.BookType)
		if !ok {
			return nil, fmt.Errorf("unknown book type for %s: %q", inst.Symbol, inst.BookType)
		}
		def := Instrument{
			ID:             model.NewInstrumentID(inst.Symbol, inst.Venue),
			PricePrecision: inst.PricePrecision,
			SizePrecision:  inst.SizePrecision,
			BookType:       bookType,
		}
		if err := reg.AddInstrument(def); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
