package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawAnswer_Canonical(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   RawAnswer
		want string
	}{
		{"plain string", RawAnswer{Kind: AnswerString, Text: "Dubai"}, "Dubai"},
		{"string trimmed", RawAnswer{Kind: AnswerString, Text: "  Dubai \n"}, "Dubai"},
		{"char fragments", RawAnswer{Kind: AnswerList, Parts: []string{"D", "u", "b", "a", "i"}}, "Dubai"},
		{"phrase list", RawAnswer{Kind: AnswerList, Parts: []string{"near the", "coast"}}, "near the coast"},
		{"single element", RawAnswer{Kind: AnswerList, Parts: []string{" 1886 "}}, "1886"},
		{"empty list", RawAnswer{Kind: AnswerList}, ""},
		{"absent", RawAnswer{}, ""},
		{"unicode fragments", RawAnswer{Kind: AnswerList, Parts: []string{"é", "t", "é"}}, "été"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.in.Canonical())
		})
	}
}

func TestRawAnswer_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var a RawAnswer
	require.NoError(t, json.Unmarshal([]byte(`"Dubai"`), &a))
	assert.Equal(t, AnswerString, a.Kind)
	assert.Equal(t, "Dubai", a.Canonical())

	require.NoError(t, json.Unmarshal([]byte(`["near the","coast"]`), &a))
	assert.Equal(t, AnswerList, a.Kind)
	assert.Equal(t, "near the coast", a.Canonical())

	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.Equal(t, AnswerEmpty, a.Kind)
	assert.Equal(t, "", a.Canonical())

	assert.Error(t, json.Unmarshal([]byte(`42`), &a))
}

func TestSourceItem_FirstProvenance(t *testing.T) {
	t.Parallel()

	item := SourceItem{
		ID:       "q1",
		Question: "where is the burj khalifa",
		Outputs: []Output{
			{Answer: RawAnswer{Kind: AnswerString, Text: "ignored"}},
			{
				Answer:     RawAnswer{Kind: AnswerString, Text: "Dubai"},
				Provenance: []Provenance{{Title: "Burj Khalifa"}, {Title: "Dubai"}},
			},
		},
	}

	title, short, ok := item.FirstProvenance()
	require.True(t, ok)
	assert.Equal(t, "Burj Khalifa", title)
	assert.Equal(t, "Dubai", short)
}

func TestSourceItem_FirstProvenance_Missing(t *testing.T) {
	t.Parallel()

	item := SourceItem{ID: "q2", Outputs: []Output{{Answer: RawAnswer{Kind: AnswerString, Text: "x"}}}}
	_, _, ok := item.FirstProvenance()
	assert.False(t, ok)

	_, _, ok = SourceItem{ID: "q3"}.FirstProvenance()
	assert.False(t, ok)
}

func TestResult_Skipped(t *testing.T) {
	t.Parallel()

	row := RowResult(&EnrichedRow{ID: "a"})
	assert.False(t, row.Skipped())
	assert.Equal(t, "a", row.ID)

	skip := SkipResult("b", SkipNoLangLink)
	assert.True(t, skip.Skipped())
	assert.Equal(t, SkipNoLangLink, skip.Skip)
}

func TestEnrichedRow_Fields(t *testing.T) {
	t.Parallel()

	row := EnrichedRow{
		Dataset:     "natural_questions",
		ID:          "q1",
		Question:    "where is the burj khalifa",
		ShortAnswer: "Dubai",
		LongAnswer:  "The Burj Khalifa is in Dubai.",
		URLSource:   "https://en.wikipedia.org/wiki/Burj_Khalifa",
		URLTarget:   "https://sc.wikipedia.org/wiki/Burj_Khalifa",
	}
	fields := row.Fields()
	require.Len(t, fields, 8)
	assert.Equal(t, "natural_questions", fields[0])
	assert.Equal(t, "", fields[6]) // pivot column stays empty when absent
	assert.Equal(t, row.URLTarget, fields[7])
}
