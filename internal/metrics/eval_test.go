package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corpuslab/crossqa/internal/paragraphs"
)

// cannedRetriever returns fixed results per query.
type cannedRetriever map[string][]string

func (c cannedRetriever) Retrieve(query string, _ int) []string { return c[query] }

func TestEvaluate(t *testing.T) {
	t.Parallel()

	queries := []Query{
		{Text: "q hit first", Page: "Dubai"},
		{Text: "q hit third", Page: "Cuore"},
		{Text: "q miss", Page: "Casteddu"},
	}
	retriever := cannedRetriever{
		"q hit first": {"Dubai", "Cuore", "Roma"},
		"q hit third": {"Roma", "Dubai", "cuore"}, // case-folded match
		"q miss":      {"Roma", "Dubai", "Cuore"},
	}

	report, err := Evaluate("baseline", retriever, queries, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Queries)
	assert.InDelta(t, 2.0/3.0, report.Recall, 1e-9)
	assert.InDelta(t, 2.0/9.0, report.Precision, 1e-9)
	// MRR: (1/1 + 1/3 + 1/4) / 3 — the miss takes sentinel rank k+1.
	assert.InDelta(t, (1.0+1.0/3.0+0.25)/3.0, report.MRR, 1e-9)
	assert.Equal(t, "baseline", report.Name)
}

func TestEvaluate_Validation(t *testing.T) {
	t.Parallel()

	_, err := Evaluate("x", cannedRetriever{}, []Query{{Text: "q", Page: "P"}}, 0)
	assert.Error(t, err)

	_, err = Evaluate("x", cannedRetriever{}, nil, 5)
	assert.Error(t, err)
}

func TestLoadQueries(t *testing.T) {
	t.Parallel()

	csv := `dataset,id,question,short_answer,long_answer,url_en,url_it,url_sc
natural_questions,q1,where is the burj khalifa,Dubai,para,https://en.wikipedia.org/wiki/Burj_Khalifa,,https://sc.wikipedia.org/wiki/Burj_Khalifa
natural_questions,q2,no target url,X,para,https://en.wikipedia.org/wiki/X,,
natural_questions,q3,when was cuore published,1886,para,https://en.wikipedia.org/wiki/Heart_(novel),https://it.wikipedia.org/wiki/Cuore,https://sc.wikipedia.org/wiki/Coro
`
	queries, err := LoadQueries(strings.NewReader(csv), "question", "url_sc")
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.Equal(t, "where is the burj khalifa", queries[0].Text)
	assert.Equal(t, "Burj Khalifa", queries[0].Page)
	assert.Equal(t, "Coro", queries[1].Page)
}

func TestLoadQueries_MissingColumn(t *testing.T) {
	t.Parallel()

	_, err := LoadQueries(strings.NewReader("a,b\n1,2\n"), "question", "url_sc")
	require.Error(t, err)
}

func TestOverlapRetriever(t *testing.T) {
	t.Parallel()

	recs := []paragraphs.Record{
		{PageTitle: "Dubai", Text: "Dubai is the most populous city in the United Arab Emirates"},
		{PageTitle: "Dubai", Text: "The Burj Khalifa tower stands in Dubai"},
		{PageTitle: "Cuore", Text: "Cuore è un romanzo per ragazzi di Edmondo De Amicis"},
		{PageTitle: "Roma", Text: "Roma è la capitale della Repubblica Italiana"},
	}
	r := NewOverlapRetriever(recs)

	got := r.Retrieve("where does the burj khalifa tower stand", 2)
	require.NotEmpty(t, got)
	assert.Equal(t, "Dubai", got[0])

	// No token overlap at all: nothing returned.
	assert.Empty(t, r.Retrieve("zzz qqq", 2))

	// k truncates.
	got = r.Retrieve("la capitale di romanzo Dubai", 1)
	assert.Len(t, got, 1)
}

func TestEvaluate_WithOverlapRetriever(t *testing.T) {
	t.Parallel()

	recs := []paragraphs.Record{
		{PageTitle: "Dubai", Text: "the burj khalifa is a skyscraper in dubai"},
		{PageTitle: "Cuore", Text: "cuore is an italian novel from 1886"},
	}
	queries := []Query{
		{Text: "where is the burj khalifa", Page: "Dubai"},
		{Text: "when was the novel cuore published", Page: "Cuore"},
	}

	report, err := Evaluate("overlap", NewOverlapRetriever(recs), queries, 5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, report.Recall, 1e-9)
	assert.InDelta(t, 1.0, report.MRR, 1e-9)
}
