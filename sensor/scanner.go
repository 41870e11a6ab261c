package sensor

import (
	"bytes"
	"errors"
	"io"
)

// ErrNoData is returned by Scanner.Next when a read completed without
// producing a full line, typically because a port read timed out.
var ErrNoData = errors.New("sensor: no data available")

const (
	defaultReadSize = 256
	maxLineLength   = 4096
)

// Scanner splits a byte stream into newline-terminated records.
//
// Each call to Next performs at most one Read on the underlying reader, so the
// blocking time of Next is bounded by the reader's own timeout (for a serial
// port, its read timeout). Lines longer than an internal limit are dropped up
// to their terminator.
type Scanner struct {
	r        io.Reader
	pending  []byte
	chunk    []byte
	eof      bool
	skipping bool // discarding the rest of an oversized line
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{
		r:     r,
		chunk: make([]byte, defaultReadSize),
	}
}

// Next returns the next complete line without its terminator. It returns
// ErrNoData when no complete line is available yet, and io.EOF once the
// reader is exhausted and all buffered lines were returned. A final
// unterminated line is returned before io.EOF.
func (s *Scanner) Next() (string, error) {
	if line, ok := s.take(); ok {
		return line, nil
	}
	if s.eof {
		if len(s.pending) > 0 {
			line := string(bytes.TrimRight(s.pending, "\r"))
			s.pending = s.pending[:0]
			return line, nil
		}
		return "", io.EOF
	}

	n, err := s.r.Read(s.chunk)
	if n > 0 {
		s.pending = append(s.pending, s.chunk[:n]...)
	}
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		s.eof = true
	}

	if line, ok := s.take(); ok {
		return line, nil
	}
	if len(s.pending) > maxLineLength {
		s.pending = s.pending[:0]
		s.skipping = true
	}
	if s.eof {
		return s.Next()
	}
	return "", ErrNoData
}

func (s *Scanner) take() (string, bool) {
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			if s.skipping {
				s.pending = s.pending[:0]
			}
			return "", false
		}
		line := string(bytes.TrimRight(s.pending[:i], "\r"))
		s.pending = append(s.pending[:0], s.pending[i+1:]...)
		if s.skipping {
			s.skipping = false
			continue
		}
		return line, true
	}
}
