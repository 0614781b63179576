package model

// EnrichedRow is one completed output row. Created only on successful
// enrichment, written once, then discarded.
type EnrichedRow struct {
	Dataset     string
	ID          string
	Question    string
	ShortAnswer string
	LongAnswer  string
	URLSource   string
	URLPivot    string // empty when the pivot language has no page
	URLTarget   string
	Degraded    bool // long answer lost to a failed extract fetch
}

// Fields returns the row in sink column order.
func (r EnrichedRow) Fields() []string {
	return []string{
		r.Dataset,
		r.ID,
		r.Question,
		r.ShortAnswer,
		r.LongAnswer,
		r.URLSource,
		r.URLPivot,
		r.URLTarget,
	}
}

// SkipReason says why an item produced no row.
type SkipReason string

const (
	// SkipNoProvenance: no output carried a usable source page.
	SkipNoProvenance SkipReason = "no_provenance"
	// SkipNoLangLink: the target language is absent from the langlinks map.
	SkipNoLangLink SkipReason = "no_langlink"
	// SkipLookupFailed: the langlinks lookup itself failed.
	SkipLookupFailed SkipReason = "lookup_failed"
)

// Result is the outcome of enriching one item: either a completed row or an
// explicit skip. Exactly one of Row or Skip is meaningful.
type Result struct {
	ID   string
	Row  *EnrichedRow
	Skip SkipReason
}

// Skipped reports whether the item produced no row.
func (r Result) Skipped() bool { return r.Row == nil }

// RowResult wraps a completed row.
func RowResult(row *EnrichedRow) Result {
	return Result{ID: row.ID, Row: row}
}

// SkipResult records an explicit skip for an item.
func SkipResult(id string, reason SkipReason) Result {
	return Result{ID: id, Skip: reason}
}
