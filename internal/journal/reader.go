package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// ErrTruncatedEntry reports a segment that ends mid-entry, typically a
// recorder that died between flushes.
var ErrTruncatedEntry = errors.New("journal: truncated entry")

// Scanner walks the entries of a segment stream in the shape of
// bufio.Scanner: call Scan until it returns false, then check Err. A
// clean end of stream leaves Err nil.
type Scanner struct {
	src        *bufio.Reader
	buf        []byte
	header     EntryHeader
	payload    []byte
	err        error
	verify     bool
	maxPayload int
}

// NewScanner prepares a scanner over a journal segment stream.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		src:    bufio.NewReader(r),
		buf:    make([]byte, entryHeaderSize),
		verify: true,
	}
}

// WithoutChecksum skips CRC verification of each entry.
func (s *Scanner) WithoutChecksum() *Scanner {
	s.verify = false
	return s
}

// WithMaxPayload rejects entries whose payload exceeds n bytes.
func (s *Scanner) WithMaxPayload(n int) *Scanner {
	s.maxPayload = n
	return s
}

// Scan advances to the next entry. It returns false at the end of the
// stream or on the first decoding error.
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}

	n, err := io.ReadFull(s.src, s.buf[:entryHeaderSize])
	if err != nil {
		if err == io.EOF && n == 0 {
			return false
		}
		s.err = s.readErr(err)
		return false
	}

	header, payloadLen, err := decodeEntryHeader(s.buf[:entryHeaderSize])
	if err != nil {
		s.err = err
		return false
	}
	if s.maxPayload > 0 && payloadLen > uint32(s.maxPayload) {
		s.err = ErrPayloadTooLarge
		return false
	}

	// Payload and checksum trailer arrive in one read; if either is
	// short the entry is a torn tail, not a partial success.
	total := entryHeaderSize + int(payloadLen) + entryChecksumSize
	if cap(s.buf) < total {
		grown := make([]byte, total)
		copy(grown, s.buf[:entryHeaderSize])
		s.buf = grown
	}
	s.buf = s.buf[:total]
	if _, err := io.ReadFull(s.src, s.buf[entryHeaderSize:]); err != nil {
		s.err = s.readErr(err)
		return false
	}

	payload := s.buf[entryHeaderSize : total-entryChecksumSize]
	if s.verify {
		want := binary.LittleEndian.Uint32(s.buf[total-entryChecksumSize:])
		if checksum(s.buf[:entryHeaderSize], payload) != want {
			s.err = ErrChecksumMismatch
			return false
		}
	}

	s.header = header
	s.payload = payload
	return true
}

func (s *Scanner) readErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrTruncatedEntry
	}
	return err
}

// Header returns the header of the current entry.
func (s *Scanner) Header() EntryHeader { return s.header }

// Payload returns the payload of the current entry. The slice is
// reused by the next call to Scan.
func (s *Scanner) Payload() []byte { return s.payload }

// Err returns the first error hit while scanning.
func (s *Scanner) Err() error { return s.err }
