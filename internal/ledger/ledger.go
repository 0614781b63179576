// Package ledger rebuilds the set of already-processed record keys from the
// existing output file, so a rerun skips completed work.
package ledger

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Ledger is the read-only set of keys already present in the output.
// Built once at startup; safe for concurrent reads afterwards.
type Ledger struct {
	keys   map[string]struct{}
	legacy bool
}

// Load reads the output file at path and collects one key per row: the id
// column when present, otherwise the question column (legacy files written
// before ids were recorded). A missing file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Ledger{keys: map[string]struct{}{}}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ledger: open output")
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Ledger{keys: map[string]struct{}{}}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "ledger: read header")
	}

	col := columnIndex(header, "id")
	legacy := false
	if col < 0 {
		col = columnIndex(header, "question")
		if col < 0 {
			return nil, eris.New("ledger: output has neither id nor question column")
		}
		legacy = true
		zap.L().Warn("ledger: no id column in existing output, keying by question text",
			zap.String("path", path),
		)
	}

	keys := make(map[string]struct{})
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ledger: read row")
		}
		if col < len(row) {
			keys[row[col]] = struct{}{}
		}
	}

	return &Ledger{keys: keys, legacy: legacy}, nil
}

// Has reports whether a key was already written in a prior run.
func (l *Ledger) Has(key string) bool {
	_, ok := l.keys[key]
	return ok
}

// Key returns the ledger key for an item: its id, or its question text when
// resuming a legacy file.
func (l *Ledger) Key(id, question string) string {
	if l.legacy {
		return question
	}
	return id
}

// Len returns the number of known keys.
func (l *Ledger) Len() int { return len(l.keys) }

// Legacy reports whether the ledger fell back to question-text keys.
func (l *Ledger) Legacy() bool { return l.legacy }

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if h == name {
			return i
		}
	}
	return -1
}
