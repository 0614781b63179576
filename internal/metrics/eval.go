// Package metrics scores retrieval runs over the enriched question set:
// Recall@k, Precision@k, and mean reciprocal rank.
package metrics

import (
	"encoding/csv"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/corpuslab/crossqa/internal/paragraphs"
	"github.com/corpuslab/crossqa/pkg/wikipedia"
)

// Query pairs a question with its ground-truth page title.
type Query struct {
	Text string
	Page string
}

// Retriever returns the top-k page titles for a query, best first.
type Retriever interface {
	Retrieve(query string, k int) []string
}

// Report holds the aggregate scores for one run.
type Report struct {
	Name      string  `json:"name"`
	K         int     `json:"k"`
	Queries   int     `json:"queries"`
	Recall    float64 `json:"recall_at_k"`
	Precision float64 `json:"precision_at_k"`
	MRR       float64 `json:"mrr"`
}

// Evaluate scores a retriever over the query set. A hit at rank r
// contributes 1/r to the MRR; misses take the sentinel rank k+1, so they
// still contribute the small value 1/(k+1) rather than zero. Page titles
// compare case-folded.
func Evaluate(name string, r Retriever, queries []Query, k int) (Report, error) {
	if k <= 0 {
		return Report{}, eris.New("metrics: k must be positive")
	}
	if len(queries) == 0 {
		return Report{}, eris.New("metrics: empty query set")
	}

	fold := cases.Fold()

	hits := 0
	sumReciprocal := 0.0
	for _, q := range queries {
		want := fold.String(q.Page)
		rank := k + 1
		for i, got := range r.Retrieve(q.Text, k) {
			if i >= k {
				break
			}
			if fold.String(got) == want {
				rank = i + 1
				break
			}
		}
		if rank <= k {
			hits++
		}
		sumReciprocal += 1.0 / float64(rank)
	}

	n := float64(len(queries))
	return Report{
		Name:      name,
		K:         k,
		Queries:   len(queries),
		Recall:    float64(hits) / n,
		Precision: float64(hits) / (float64(k) * n),
		MRR:       sumReciprocal / n,
	}, nil
}

// LoadQueries reads the enriched CSV and builds the query set: question
// text from questionCol, ground-truth page recovered from the URL in
// urlCol. Rows with an empty question or URL are dropped.
func LoadQueries(r io.Reader, questionCol, urlCol string) ([]Query, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "metrics: read csv header")
	}
	qIdx, uIdx := -1, -1
	for i, name := range header {
		switch name {
		case questionCol:
			qIdx = i
		case urlCol:
			uIdx = i
		}
	}
	if qIdx < 0 || uIdx < 0 {
		return nil, eris.Errorf("metrics: csv missing column %q or %q", questionCol, urlCol)
	}

	var queries []Query
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "metrics: read csv row")
		}
		if qIdx >= len(row) || uIdx >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[qIdx])
		page := wikipedia.TitleFromURL(strings.TrimSpace(row[uIdx]))
		if text == "" || page == "" {
			continue
		}
		queries = append(queries, Query{Text: text, Page: page})
	}
	return queries, nil
}

// OverlapRetriever is the baseline lexical retriever: pages are scored by
// the number of distinct query tokens appearing in their paragraphs.
type OverlapRetriever struct {
	pageTokens map[string]map[string]struct{}
	titles     []string
}

// NewOverlapRetriever indexes a paragraph set.
func NewOverlapRetriever(recs []paragraphs.Record) *OverlapRetriever {
	fold := cases.Fold()
	pages := make(map[string]map[string]struct{})
	var titles []string
	for _, rec := range recs {
		toks, ok := pages[rec.PageTitle]
		if !ok {
			toks = make(map[string]struct{})
			pages[rec.PageTitle] = toks
			titles = append(titles, rec.PageTitle)
		}
		for _, tok := range strings.Fields(fold.String(rec.Text)) {
			toks[tok] = struct{}{}
		}
	}
	sort.Strings(titles) // stable tie-breaking
	return &OverlapRetriever{pageTokens: pages, titles: titles}
}

// Retrieve returns up to k page titles ranked by token overlap with the
// query. Pages with zero overlap are not returned.
func (o *OverlapRetriever) Retrieve(query string, k int) []string {
	fold := cases.Fold()
	queryToks := strings.Fields(fold.String(query))

	type scored struct {
		title string
		score int
	}
	var ranked []scored
	for _, title := range o.titles {
		toks := o.pageTokens[title]
		score := 0
		for _, qt := range queryToks {
			if _, ok := toks[qt]; ok {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{title: title, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	out := make([]string, len(ranked))
	for i, s := range ranked {
		out[i] = s.title
	}
	return out
}
