package paragraphs

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Stats summarizes an extraction run.
type Stats struct {
	Files      int
	Failed     int
	Paragraphs int
}

// Extractor walks a corpus tree and writes paragraph records as JSONL.
type Extractor struct {
	jobs     int
	minChars int
}

// NewExtractor creates an extractor processing jobs files concurrently.
func NewExtractor(jobs, minChars int) *Extractor {
	if jobs <= 0 {
		jobs = 8
	}
	return &Extractor{jobs: jobs, minChars: minChars}
}

// ListFiles returns the corpus HTML files under root for the given
// language subdirectories.
func ListFiles(root string, langs []string) ([]string, error) {
	var files []string
	for _, lang := range langs {
		matches, err := filepath.Glob(filepath.Join(root, lang, "*.html"))
		if err != nil {
			return nil, eris.Wrap(err, "paragraphs: glob corpus")
		}
		files = append(files, matches...)
	}
	return files, nil
}

// Run processes the corpus files in parallel and streams records to w.
// A failing file is logged and skipped; the rest of the corpus still gets
// extracted.
func (e *Extractor) Run(ctx context.Context, files []string, w io.Writer) (Stats, error) {
	var mu sync.Mutex
	enc := json.NewEncoder(w)

	var failed, paragraphs atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.jobs)

	for _, path := range files {
		path := path
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			recs, err := e.processFile(path)
			if err != nil {
				failed.Add(1)
				zap.L().Warn("paragraphs: file failed",
					zap.String("path", path),
					zap.Error(err),
				)
				return nil
			}
			paragraphs.Add(int64(len(recs)))

			mu.Lock()
			defer mu.Unlock()
			for _, rec := range recs {
				if err := enc.Encode(rec); err != nil {
					return eris.Wrap(err, "paragraphs: write record")
				}
			}
			return nil
		})
	}
	err := g.Wait()

	return Stats{
		Files:      len(files),
		Failed:     int(failed.Load()),
		Paragraphs: int(paragraphs.Load()),
	}, err
}

func (e *Extractor) processFile(path string) ([]Record, error) {
	docID, pageTitle, err := ParseFilename(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	lang := filepath.Base(filepath.Dir(path))

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "open corpus file")
	}
	defer f.Close() //nolint:errcheck

	paras, err := FromHTML(f, e.minChars)
	if err != nil {
		return nil, err
	}
	return Records(docID, lang, pageTitle, paras), nil
}

// Load reads a paragraphs JSONL file, keeping only records in lang when
// lang is non-empty.
func Load(r io.Reader, lang string) ([]Record, error) {
	var out []Record
	dec := json.NewDecoder(r)
	for {
		var rec Record
		if err := dec.Decode(&rec); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrap(err, "paragraphs: decode record")
		}
		if lang != "" && rec.Lang != lang {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}
