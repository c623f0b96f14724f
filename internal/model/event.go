package model

import "main/internal/model/enum"

// Event is implemented by every order book event type. The journal, bus
// and book workers handle events through this surface.
type Event interface {
	// Instrument is the venue-qualified symbol the event belongs to.
	Instrument() InstrumentID
	// Book is the granularity the event targets.
	Book() enum.BookType
	// Sequence is the update id, the book's consistency watermark.
	Sequence() uint64
	// EventTime is the venue-reported event time, nanosecond epoch.
	EventTime() int64
	// InitTime is the local receipt time, nanosecond epoch.
	InitTime() int64
	// Debug renders the canonical text form.
	Debug() string
}
