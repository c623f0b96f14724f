// Package journal records wire-encoded order book events into CRC-framed
// segment files and replays them deterministically, so a recorded feed
// can be driven through books again and compared against live behavior.
package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"

	"main/internal/codec"
	"main/internal/model"
)

// EntryType tags the event type of a journal entry.
type EntryType uint16

const (
	EntryUnknown EntryType = iota
	EntrySnapshot
	EntryDelta
	EntryDeltas
)

func (t EntryType) String() string {
	switch t {
	case EntrySnapshot:
		return "OrderBookSnapshot"
	case EntryDelta:
		return "OrderBookDelta"
	case EntryDeltas:
		return "OrderBookDeltas"
	default:
		return "Unknown"
	}
}

const (
	entryVersion      uint16 = 1
	entryHeaderSize          = 48
	entryChecksumSize        = 4
)

var (
	entryMagic = [4]byte{'O', 'B', 'J', '1'}
	crcTable   = crc32.MakeTable(crc32.Castagnoli)
)

var (
	ErrInvalidMagic           = errors.New("journal: invalid magic")
	ErrUnsupportedEntryVer    = errors.New("journal: unsupported entry version")
	ErrInvalidEntryHeaderSize = errors.New("journal: invalid header size")
	ErrChecksumMismatch       = errors.New("journal: checksum mismatch")
	ErrPayloadTooLarge        = errors.New("journal: payload too large")
)

// EntryHeader is the fixed metadata framing every journal entry.
type EntryHeader struct {
	Type    EntryType
	Version uint16
	Flags   uint16
	Seq     uint64
	TsEvent int64
	TsInit  int64
}

func headerFor(ev model.Event) (EntryHeader, error) {
	var typ EntryType
	switch ev.(type) {
	case model.OrderBookSnapshot:
		typ = EntrySnapshot
	case model.OrderBookDelta:
		typ = EntryDelta
	case model.OrderBookDeltas:
		typ = EntryDeltas
	default:
		return EntryHeader{}, errors.New("journal: unsupported event type")
	}
	return EntryHeader{
		Type:    typ,
		Version: entryVersion,
		Seq:     ev.Sequence(),
		TsEvent: ev.EventTime(),
		TsInit:  ev.InitTime(),
	}, nil
}

func encodeEntryHeader(dst []byte, header EntryHeader, payloadLen int) {
	_ = dst[entryHeaderSize-1]
	copy(dst[0:4], entryMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], entryVersion)
	binary.LittleEndian.PutUint16(dst[6:8], uint16(entryHeaderSize))
	binary.LittleEndian.PutUint16(dst[8:10], uint16(header.Type))
	binary.LittleEndian.PutUint16(dst[10:12], header.Flags)
	binary.LittleEndian.PutUint32(dst[12:16], uint32(payloadLen))
	binary.LittleEndian.PutUint64(dst[16:24], header.Seq)
	binary.LittleEndian.PutUint64(dst[24:32], uint64(header.TsEvent))
	binary.LittleEndian.PutUint64(dst[32:40], uint64(header.TsInit))
	binary.LittleEndian.PutUint64(dst[40:48], 0)
}

func decodeEntryHeader(src []byte) (EntryHeader, uint32, error) {
	if len(src) < entryHeaderSize {
		return EntryHeader{}, 0, ErrInvalidEntryHeaderSize
	}
	if !bytes.Equal(src[0:4], entryMagic[:]) {
		return EntryHeader{}, 0, ErrInvalidMagic
	}
	if ver := binary.LittleEndian.Uint16(src[4:6]); ver != entryVersion {
		return EntryHeader{}, 0, ErrUnsupportedEntryVer
	}
	if headerSize := binary.LittleEndian.Uint16(src[6:8]); headerSize != entryHeaderSize {
		return EntryHeader{}, 0, ErrInvalidEntryHeaderSize
	}
	payloadLen := binary.LittleEndian.Uint32(src[12:16])
	h := EntryHeader{
		Type:    EntryType(binary.LittleEndian.Uint16(src[8:10])),
		Version: binary.LittleEndian.Uint16(src[4:6]),
		Flags:   binary.LittleEndian.Uint16(src[10:12]),
		Seq:     binary.LittleEndian.Uint64(src[16:24]),
		TsEvent: int64(binary.LittleEndian.Uint64(src[24:32])),
		TsInit:  int64(binary.LittleEndian.Uint64(src[32:40])),
	}
	return h, payloadLen, nil
}

func checksum(header []byte, payload []byte) uint32 {
	crc := crc32.Update(0, crcTable, header)
	return crc32.Update(crc, crcTable, payload)
}

// DecodeEvent rebuilds the event carried by an entry payload.
func DecodeEvent(payload []byte) (model.Event, error) {
	rec, err := codec.Unmarshal(payload)
	if err != nil {
		return nil, err
	}
	return codec.FromRecord(rec)
}
