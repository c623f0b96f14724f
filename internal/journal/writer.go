package journal

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"main/internal/codec"
	"main/internal/model"
)

var ErrClosed = errors.New("journal: writer closed")

const maxPayloadLen = uint64(^uint32(0))

// Writer appends wire-encoded events to journal segments. It is owned
// by one goroutine, the same one that owns the book's update stream.
type Writer struct {
	cfg    Config
	seg    *segment
	segID  uint64
	closed bool

	headerBuf   [entryHeaderSize]byte
	checksumBuf [entryChecksumSize]byte
}

type segment struct {
	file     *os.File
	buf      *bufio.Writer
	size     int64
	openedAt time.Time
}

// NewWriter creates a journal writer and ensures the directory exists.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg}, nil
}

// Append encodes an event to its wire record and frames it into the
// current segment, rotating when the segment is full.
func (w *Writer) Append(ev model.Event) error {
	if w.closed {
		return ErrClosed
	}
	header, err := headerFor(ev)
	if err != nil {
		return err
	}
	rec, err := codec.ToRecord(ev)
	if err != nil {
		return err
	}
	payload, err := codec.Marshal(rec)
	if err != nil {
		return err
	}
	return w.writeEntry(header, payload)
}

func (w *Writer) writeEntry(header EntryHeader, payload []byte) error {
	if uint64(len(payload)) > maxPayloadLen {
		return ErrPayloadTooLarge
	}

	entrySize := int64(entryHeaderSize + len(payload) + entryChecksumSize)
	if w.seg == nil || (w.cfg.SegmentMaxBytes > 0 && w.seg.size+entrySize > w.cfg.SegmentMaxBytes) {
		if err := w.rotate(); err != nil {
			return err
		}
	}

	encodeEntryHeader(w.headerBuf[:], header, len(payload))
	sum := checksum(w.headerBuf[:], payload)
	w.checksumBuf[0] = byte(sum)
	w.checksumBuf[1] = byte(sum >> 8)
	w.checksumBuf[2] = byte(sum >> 16)
	w.checksumBuf[3] = byte(sum >> 24)

	if _, err := w.seg.buf.Write(w.headerBuf[:]); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := w.seg.buf.Write(payload); err != nil {
			return err
		}
	}
	if _, err := w.seg.buf.Write(w.checksumBuf[:]); err != nil {
		return err
	}
	w.seg.size += entrySize
	return nil
}

// Flush pushes buffered entries to the OS.
func (w *Writer) Flush() error {
	if w.seg == nil {
		return nil
	}
	return w.seg.buf.Flush()
}

// Sync flushes and fsyncs the current segment.
func (w *Writer) Sync() error {
	if w.seg == nil {
		return nil
	}
	if err := w.seg.buf.Flush(); err != nil {
		return err
	}
	return w.seg.file.Sync()
}

// Close flushes, syncs and closes the current segment.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeSegment()
}

func (w *Writer) rotate() error {
	if err := w.closeSegment(); err != nil {
		return err
	}
	now := time.Now().UTC()
	ts := now.Format("20060102-150405")
	for {
		w.segID++
		name := fmt.Sprintf("%s-%s-%06d.obj", w.cfg.FilePrefix, ts, w.segID)
		path := filepath.Join(w.cfg.Dir, name)
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
		if err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return err
		}
		w.seg = &segment{
			file:     file,
			buf:      bufio.NewWriterSize(file, w.cfg.BufferSize),
			openedAt: now,
		}
		return nil
	}
}

func (w *Writer) closeSegment() error {
	if w.seg == nil {
		return nil
	}
	seg := w.seg
	w.seg = nil
	if err := seg.buf.Flush(); err != nil {
		_ = seg.file.Close()
		return err
	}
	if err := seg.file.Sync(); err != nil {
		_ = seg.file.Close()
		return err
	}
	return seg.file.Close()
}
