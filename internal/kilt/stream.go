// Package kilt streams KILT-style question records from JSONL input.
package kilt

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/corpuslab/crossqa/internal/model"
)

// Records can be large (full provenance lists); allow lines up to 16 MiB.
const maxLineBytes = 16 << 20

// Stream reads question records one line at a time. The underlying input is
// never materialized, so arbitrarily long (or infinite) inputs are fine.
type Stream struct {
	scanner *bufio.Scanner
	closer  io.Closer
	line    int
}

// Open creates a stream over a JSONL file. Pass "-" to read stdin.
func Open(path string) (*Stream, error) {
	if path == "-" {
		return New(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "kilt: open input")
	}
	s := New(f)
	s.closer = f
	return s, nil
}

// New creates a stream over an arbitrary reader.
func New(r io.Reader) *Stream {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), maxLineBytes)
	return &Stream{scanner: sc}
}

// Next returns the next record. It returns io.EOF once the input is
// exhausted. Blank lines are skipped; a malformed line is a hard error,
// since silently dropping records would make resume counts lie.
func (s *Stream) Next() (model.SourceItem, error) {
	for s.scanner.Scan() {
		s.line++
		text := strings.TrimSpace(s.scanner.Text())
		if text == "" {
			continue
		}
		var item model.SourceItem
		if err := json.Unmarshal([]byte(text), &item); err != nil {
			return model.SourceItem{}, eris.Wrapf(err, "kilt: decode line %d", s.line)
		}
		return item, nil
	}
	if err := s.scanner.Err(); err != nil {
		return model.SourceItem{}, eris.Wrap(err, "kilt: read input")
	}
	return model.SourceItem{}, io.EOF
}

// Close releases the underlying file, if any.
func (s *Stream) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
