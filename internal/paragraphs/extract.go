// Package paragraphs turns a local Wikipedia HTML corpus into clean
// paragraph records for retrieval experiments.
package paragraphs

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

// boilerplateSelectors are removed wholesale before paragraph collection:
// infoboxes, navboxes, hatnotes, and similar chrome.
var boilerplateSelectors = []string{
	"sup.reference",
	"span.mw-editsection",
	"div#toc",
	".infobox", ".navbox", ".vertical-navbox", ".sidebar",
	".metadata", ".ambox", ".hatnote",
	".succession-box", "table.succession-box",
	".plainlist.hlist", "table.plainlinks",
}

// referenceHeadings mark the tail sections cut from every page, across the
// corpus languages.
var referenceHeadings = []string{"references", "note", "notes", "bibliografia"}

var multiSpace = regexp.MustCompile(`\s{2,}`)

// FromHTML extracts clean paragraphs from a Wikipedia page. Paragraphs
// shorter than minChars or dominated by "·" list separators are dropped.
func FromHTML(r io.Reader, minChars int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, eris.Wrap(err, "paragraphs: parse html")
	}

	content := doc.Find("div#mw-content-text").First()
	if content.Length() == 0 {
		return nil, eris.New("paragraphs: mw-content-text not found")
	}

	for _, sel := range boilerplateSelectors {
		content.Find(sel).Remove()
	}
	stripAfterReferences(content)

	var paras []string
	content.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(multiSpace.ReplaceAllString(p.Text(), " "))
		if len(text) <= minChars || strings.Count(text, "·") >= 3 {
			return
		}
		paras = append(paras, text)
	})
	return paras, nil
}

// stripAfterReferences removes the first references-like heading and
// everything after it.
func stripAfterReferences(content *goquery.Selection) {
	content.Find("h2, h3").EachWithBreak(func(_ int, hdr *goquery.Selection) bool {
		txt := strings.ToLower(strings.TrimSpace(hdr.Text()))
		for _, prefix := range referenceHeadings {
			if strings.HasPrefix(txt, prefix) {
				hdr.NextAll().Remove()
				hdr.Remove()
				return false
			}
		}
		return true
	})
}

// Record is one paragraph of the corpus, keyed <doc id>_<ordinal>.
type Record struct {
	ParagraphID string `json:"paragraph_id"`
	Lang        string `json:"lang"`
	PageTitle   string `json:"page_title"`
	Text        string `json:"text"`
}

// Records numbers the paragraphs of one page, from 1.
func Records(docID, lang, pageTitle string, paras []string) []Record {
	out := make([]Record, len(paras))
	for i, text := range paras {
		out[i] = Record{
			ParagraphID: fmt.Sprintf("%s_%d", docID, i+1),
			Lang:        lang,
			PageTitle:   pageTitle,
			Text:        text,
		}
	}
	return out
}

// ParseFilename splits a corpus filename stem ("<id>_<title>.html") into the
// document id and the page title, underscores restored to spaces.
func ParseFilename(name string) (docID, pageTitle string, err error) {
	stem := strings.TrimSuffix(name, ".html")
	idx := strings.Index(stem, "_")
	if idx <= 0 || idx == len(stem)-1 {
		return "", "", eris.Errorf("paragraphs: malformed corpus filename %q", name)
	}
	return stem[:idx], strings.ReplaceAll(stem[idx+1:], "_", " "), nil
}
