package model

import (
	"encoding/json"
	"strings"
)

// SourceItem is one record pulled from the question stream. Items are
// consumed once per run and never mutated.
type SourceItem struct {
	ID       string   `json:"id"`
	Question string   `json:"input"`
	Outputs  []Output `json:"output"`
}

// Output is one candidate answer with its provenance pages, in stream order.
type Output struct {
	Answer     RawAnswer    `json:"answer"`
	Provenance []Provenance `json:"provenance"`
}

// Provenance points at a source-language page backing an answer.
type Provenance struct {
	Title string `json:"title"`
}

// FirstProvenance returns the title of the first provenance-backed output
// together with its canonical short answer. ok is false when no output
// carries provenance.
func (s SourceItem) FirstProvenance() (title, shortAnswer string, ok bool) {
	for _, out := range s.Outputs {
		if len(out.Provenance) == 0 {
			continue
		}
		return out.Provenance[0].Title, out.Answer.Canonical(), true
	}
	return "", "", false
}

// RawAnswerKind discriminates the shapes a raw answer arrives in.
type RawAnswerKind int

const (
	// AnswerEmpty means no answer was present.
	AnswerEmpty RawAnswerKind = iota
	// AnswerString is a single plain string.
	AnswerString
	// AnswerList is a list of strings, either word fragments or full phrases.
	AnswerList
)

// RawAnswer is the dynamically shaped answer field of a stream record: a
// single string, a list of single-character fragments, or a list of full
// strings. The shape is decoded once here; everything downstream sees only
// the canonical string.
type RawAnswer struct {
	Kind  RawAnswerKind
	Text  string
	Parts []string
}

// UnmarshalJSON accepts a JSON string, a JSON array of strings, or null.
func (a *RawAnswer) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = RawAnswer{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = RawAnswer{Kind: AnswerString, Text: s}
		return nil
	}
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	*a = RawAnswer{Kind: AnswerList, Parts: parts}
	return nil
}

// Canonical normalizes the raw answer into a single trimmed string.
// Single-character fragment lists are joined without separators ("D","u","b",
// "a","i" becomes "Dubai"); phrase lists are joined with spaces.
func (a RawAnswer) Canonical() string {
	switch a.Kind {
	case AnswerString:
		return strings.TrimSpace(a.Text)
	case AnswerList:
		if len(a.Parts) == 0 {
			return ""
		}
		if len(a.Parts) == 1 {
			return strings.TrimSpace(a.Parts[0])
		}
		fragments := true
		for _, p := range a.Parts {
			if len([]rune(p)) != 1 {
				fragments = false
				break
			}
		}
		if fragments {
			return strings.TrimSpace(strings.Join(a.Parts, ""))
		}
		trimmed := make([]string, len(a.Parts))
		for i, p := range a.Parts {
			trimmed[i] = strings.TrimSpace(p)
		}
		return strings.TrimSpace(strings.Join(trimmed, " "))
	default:
		return ""
	}
}
