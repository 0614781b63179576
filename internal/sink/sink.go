// Package sink appends completed rows to the output CSV. The sink is the
// durability boundary for resumability: every row is flushed and synced to
// stable storage before the write returns.
package sink

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/corpuslab/crossqa/internal/model"
)

// Header returns the fixed column order for the configured language triple,
// e.g. dataset,id,question,short_answer,long_answer,url_en,url_it,url_sc.
// The pivot column is omitted when no pivot language is configured.
func Header(source, pivot, target string) []string {
	cols := []string{
		"dataset",
		"id",
		"question",
		"short_answer",
		"long_answer",
		"url_" + source,
	}
	if pivot != "" {
		cols = append(cols, "url_"+pivot)
	}
	return append(cols, "url_"+target)
}

// pivotColumn is the index of the pivot URL in model.EnrichedRow.Fields.
const pivotColumn = 6

// Sink is a single-writer append-only CSV writer. Only the coordinating
// goroutine may call Append; no internal locking.
type Sink struct {
	file  *os.File
	w     *csv.Writer
	kept  int
	pivot bool
}

// Open opens the output for appending, writing the header first when the
// file is new or empty. An existing file is never rewritten, so rows from
// prior runs survive untouched.
func Open(path string, header []string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, eris.Wrap(err, "sink: open output")
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, eris.Wrap(err, "sink: stat output")
	}

	s := &Sink{file: f, w: csv.NewWriter(f), pivot: len(header) > pivotColumn+1}
	if info.Size() == 0 {
		if err := s.write(header); err != nil {
			_ = f.Close()
			return nil, eris.Wrap(err, "sink: write header")
		}
	}
	return s, nil
}

// Append writes one row and forces it to stable storage. A row is either
// fully durable on return or, on error, was never acknowledged as kept.
func (s *Sink) Append(row *model.EnrichedRow) error {
	fields := row.Fields()
	if !s.pivot {
		fields = append(fields[:pivotColumn], fields[pivotColumn+1:]...)
	}
	if err := s.write(fields); err != nil {
		return eris.Wrap(err, "sink: append row")
	}
	s.kept++
	return nil
}

// Kept returns the number of rows newly written through this sink.
func (s *Sink) Kept() int { return s.kept }

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		_ = s.file.Close()
		return eris.Wrap(err, "sink: flush on close")
	}
	return s.file.Close()
}

func (s *Sink) write(fields []string) error {
	if err := s.w.Write(fields); err != nil {
		return err
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return err
	}
	return s.file.Sync()
}
