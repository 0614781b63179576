package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/corpuslab/crossqa/internal/config"
	"github.com/corpuslab/crossqa/internal/model"
	"github.com/corpuslab/crossqa/pkg/wikipedia"
)

// Enricher turns one source item into a row or an explicit skip. It must
// never return an error: every external failure converts to a skip or a
// degraded field, so pool bookkeeping stays intact.
type Enricher interface {
	Enrich(ctx context.Context, item model.SourceItem) model.Result
}

// WikiEnricher enriches items against the MediaWiki API.
type WikiEnricher struct {
	wiki    wikipedia.Client
	dataset string
	langs   config.LangsConfig
	pause   time.Duration
}

// NewEnricher creates an enricher for the configured language triple. pause
// is slept inside each call after the API requests complete, as a soft
// per-worker rate limit.
func NewEnricher(wiki wikipedia.Client, dataset string, langs config.LangsConfig, pause time.Duration) *WikiEnricher {
	return &WikiEnricher{wiki: wiki, dataset: dataset, langs: langs, pause: pause}
}

// Enrich runs the lookup sequence for one item: provenance scan, langlinks
// lookup (critical), plaintext extract (best-effort), long-answer
// selection, pause, URL building.
func (e *WikiEnricher) Enrich(ctx context.Context, item model.SourceItem) model.Result {
	title, short, ok := item.FirstProvenance()
	if !ok {
		return model.SkipResult(item.ID, model.SkipNoProvenance)
	}

	links, err := e.wiki.LangLinks(ctx, title, e.langs.Source)
	if err != nil {
		zap.L().Debug("enrich: langlinks lookup failed",
			zap.String("id", item.ID),
			zap.String("title", title),
			zap.Error(err),
		)
		return model.SkipResult(item.ID, model.SkipLookupFailed)
	}
	targetTitle, ok := links[e.langs.Target]
	if !ok {
		return model.SkipResult(item.ID, model.SkipNoLangLink)
	}

	// The extract is non-critical: a failure degrades the long answer to
	// empty rather than dropping the row.
	longAnswer := ""
	degraded := false
	article, err := e.wiki.Extract(ctx, title, e.langs.Source)
	if err != nil {
		zap.L().Debug("enrich: extract fetch failed, degrading",
			zap.String("id", item.ID),
			zap.String("title", title),
			zap.Error(err),
		)
		degraded = true
	} else {
		longAnswer = PickLongAnswer(article, short)
	}

	e.sleep(ctx)

	row := &model.EnrichedRow{
		Dataset:     e.dataset,
		ID:          item.ID,
		Question:    item.Question,
		ShortAnswer: short,
		LongAnswer:  longAnswer,
		URLSource:   wikipedia.PageURL(title, e.langs.Source),
		URLTarget:   wikipedia.PageURL(targetTitle, e.langs.Target),
		Degraded:    degraded,
	}
	if e.langs.Pivot != "" {
		if pivotTitle, ok := links[e.langs.Pivot]; ok {
			row.URLPivot = wikipedia.PageURL(pivotTitle, e.langs.Pivot)
		}
	}
	return model.RowResult(row)
}

func (e *WikiEnricher) sleep(ctx context.Context) {
	if e.pause <= 0 {
		return
	}
	timer := time.NewTimer(e.pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// PickLongAnswer returns the first blank-line-separated paragraph of article
// containing short as a case-insensitive substring, falling back to the
// first paragraph, or "" when the article has none.
func PickLongAnswer(article, short string) string {
	fold := cases.Fold()
	shortFolded := fold.String(short)

	first := ""
	for _, para := range strings.Split(article, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if first == "" {
			first = para
		}
		if short != "" && strings.Contains(fold.String(para), shortFolded) {
			return para
		}
	}
	return first
}
