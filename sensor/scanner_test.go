package sensor

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkReader returns its chunks one per Read call; an empty chunk simulates
// a read timeout.
type chunkReader struct {
	chunks []string
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	s := c.chunks[0]
	c.chunks = c.chunks[1:]
	return copy(p, s), nil
}

func TestScannerSplitsAcrossReads(t *testing.T) {
	r := &chunkReader{chunks: []string{"1,2,3", "", ",4,5,6\n7,8", ",9,10,11,12\r\n"}}
	s := NewScanner(r)

	var lines []string
	noData := 0
	for {
		line, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrNoData) {
			noData++
			continue
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		lines = append(lines, line)
	}

	want := []string{"1,2,3,4,5,6", "7,8,9,10,11,12"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
	if noData == 0 {
		t.Fatal("expected ErrNoData for the partial and empty reads")
	}
}

func TestScannerFlushesUnterminatedTail(t *testing.T) {
	s := NewScanner(strings.NewReader("a\nb"))

	for _, want := range []string{"a", "b"} {
		var line string
		var err error
		for {
			line, err = s.Next()
			if !errors.Is(err, ErrNoData) {
				break
			}
		}
		if err != nil || line != want {
			t.Fatalf("Next() = %q, %v; want %q", line, err, want)
		}
	}
	if _, err := s.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}
}

func TestScannerDropsOversizedLine(t *testing.T) {
	chunks := []string{"1,2\n"}
	long := strings.Repeat("9", 2*maxLineLength)
	for len(long) > 0 {
		n := min(len(long), defaultReadSize)
		chunks = append(chunks, long[:n])
		long = long[n:]
	}
	chunks = append(chunks, "99\n3,4\n")
	s := NewScanner(&chunkReader{chunks: chunks})

	var lines []string
	for {
		line, err := s.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrNoData) {
			continue
		}
		if err != nil {
			t.Fatalf("Next error: %v", err)
		}
		lines = append(lines, line)
	}

	if len(lines) != 2 || lines[0] != "1,2" || lines[1] != "3,4" {
		t.Fatalf("lines = %q, want [\"1,2\" \"3,4\"]", lines)
	}
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestScannerPropagatesReadErrors(t *testing.T) {
	boom := errors.New("port gone")
	s := NewScanner(failingReader{err: boom})
	if _, err := s.Next(); !errors.Is(err, boom) {
		t.Fatalf("Next() error = %v, want %v", err, boom)
	}
}
