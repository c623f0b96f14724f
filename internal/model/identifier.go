package model

import (
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"main/internal/model/enum"
	"main/pkg/exception"
)

// InstrumentID identifies an instrument as a venue-qualified symbol.
type InstrumentID struct {
	Symbol string
	Venue  string
}

func NewInstrumentID(symbol, venue string) InstrumentID {
	return InstrumentID{Symbol: symbol, Venue: venue}
}

// ParseInstrumentID parses the "SYMBOL.VENUE" form. The venue is the part
// after the last dot, so symbols containing dots survive the round trip.
func ParseInstrumentID(s string) (InstrumentID, error) {
	idx := strings.LastIndexByte(s, '.')
	if idx <= 0 || idx == len(s)-1 {
		return InstrumentID{}, exception.ErrInvalidIdentifier
	}
	return InstrumentID{Symbol: s[:idx], Venue: s[idx+1:]}, nil
}

func (id InstrumentID) String() string {
	return id.Symbol + "." + id.Venue
}

func (id InstrumentID) AppendBytes(buf []byte) []byte {
	buf = append(buf, id.Symbol...)
	buf = append(buf, '.')
	buf = append(buf, id.Venue...)
	return buf
}

// OrderID identifies a resting order within an L3 book.
type OrderID string

// OrderIDPolicy derives an id for an order constructed without one.
type OrderIDPolicy interface {
	OrderID(price Price, size Size, side enum.Side) OrderID
}

// ContentIDPolicy derives the id from the order's own fields (FNV-1a),
// so rebuilding an order from identical inputs yields an identical id.
type ContentIDPolicy struct{}

func (ContentIDPolicy) OrderID(price Price, size Size, side enum.Side) OrderID {
	h := fnv.New64a()
	var buf [8]byte
	putUint64(buf[:], uint64(price.Mantissa))
	_, _ = h.Write(buf[:])
	putUint64(buf[:], uint64(size.Mantissa))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte{price.Precision, size.Precision, byte(side)})
	return OrderID(strconv.FormatUint(h.Sum64(), 10))
}

// UUIDPolicy assigns a random globally unique id.
type UUIDPolicy struct{}

func (UUIDPolicy) OrderID(Price, Size, enum.Side) OrderID {
	return OrderID(uuid.NewString())
}

func putUint64(dst []byte, v uint64) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 32)
	dst[5] = byte(v >> 40)
	dst[6] = byte(v >> 48)
	dst[7] = byte(v >> 56)
}
