// Package corpus bulk-downloads the pages referenced by an enriched output
// file into a local HTML corpus, one directory per language.
package corpus

import (
	"context"
	"encoding/csv"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/corpuslab/crossqa/pkg/wikipedia"
)

// Job is one page to download.
type Job struct {
	URL  string
	Dest string
}

// Stats summarizes a download run.
type Stats struct {
	Jobs       int
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader fetches corpus pages with bounded parallelism.
type Downloader struct {
	wiki      wikipedia.Client
	outDir    string
	workers   int
	overwrite bool
}

// NewDownloader creates a downloader writing under outDir.
func NewDownloader(wiki wikipedia.Client, outDir string, workers int, overwrite bool) *Downloader {
	if workers <= 0 {
		workers = 16
	}
	return &Downloader{wiki: wiki, outDir: outDir, workers: workers, overwrite: overwrite}
}

// BuildJobs reads the enriched CSV and produces one job per row per
// configured language column. Rows without an id are skipped; empty URL
// cells are skipped. langCols maps language code to its URL column name.
func (d *Downloader) BuildJobs(r io.Reader, langCols map[string]string) ([]Job, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "corpus: read csv header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[name] = i
	}
	idCol, ok := cols["id"]
	if !ok {
		return nil, eris.New("corpus: csv has no id column")
	}

	var jobs []Job
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "corpus: read csv row")
		}
		if idCol >= len(row) {
			continue
		}
		id := strings.TrimSpace(row[idCol])
		if id == "" {
			continue
		}
		for lang, col := range langCols {
			idx, ok := cols[col]
			if !ok || idx >= len(row) {
				continue
			}
			pageURL := strings.TrimSpace(row[idx])
			if pageURL == "" {
				continue
			}
			name := id + "_" + fileTitle(pageURL) + ".html"
			jobs = append(jobs, Job{
				URL:  pageURL,
				Dest: filepath.Join(d.outDir, lang, name),
			})
		}
	}
	return jobs, nil
}

// Run downloads all jobs. Individual failures are logged and counted, never
// fatal: a partial corpus is still useful and the run can be repeated.
func (d *Downloader) Run(ctx context.Context, jobs []Job) Stats {
	var downloaded, skipped, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.workers)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if !d.overwrite {
				if _, err := os.Stat(job.Dest); err == nil {
					skipped.Add(1)
					return nil
				}
			}
			if err := d.fetchOne(gCtx, job); err != nil {
				failed.Add(1)
				zap.L().Warn("corpus: download failed",
					zap.String("url", job.URL),
					zap.Error(err),
				)
				return nil
			}
			downloaded.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return Stats{
		Jobs:       len(jobs),
		Downloaded: int(downloaded.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
	}
}

func (d *Downloader) fetchOne(ctx context.Context, job Job) error {
	body, err := d.wiki.FetchPage(ctx, job.URL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(job.Dest), 0o755); err != nil {
		return eris.Wrap(err, "create corpus dir")
	}
	if err := os.WriteFile(job.Dest, body, 0o644); err != nil {
		return eris.Wrap(err, "write corpus file")
	}
	return nil
}

// fileTitle returns the filename-safe page title from a page URL: the last
// path segment, percent-unescaped, underscores kept. Falls back to "index"
// when the path is empty.
func fileTitle(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "index"
	}
	seg := u.Path
	if idx := strings.LastIndex(seg, "/"); idx >= 0 {
		seg = seg[idx+1:]
	}
	unescaped, err := url.PathUnescape(seg)
	if err != nil {
		unescaped = seg
	}
	if unescaped == "" {
		return "index"
	}
	return unescaped
}
