package search

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pdiddy/cite-engine/pkg/types"
)

// CSLItem is one CSL-JSON bibliography entry, the format Pandoc,
// Zotero and citeproc processors import.
type CSLItem struct {
	ID          string    `json:"id"`
	CitationKey string    `json:"citation-key,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Author      []CSLName `json:"author,omitempty"`
	Abstract    string    `json:"abstract,omitempty"`
	Issued      *CSLDate  `json:"issued,omitempty"`
}

// CSLName is a CSL person name. Names that cannot be split go in Literal.
type CSLName struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"`
}

// CSLDate holds CSL date-parts; only the year is known for search results.
type CSLDate struct {
	DateParts [][]int `json:"date-parts"`
}

// FormatCSL writes papers to w as an indented CSL-JSON array.
func FormatCSL(papers []types.Paper, w io.Writer) error {
	items := make([]CSLItem, 0, len(papers))
	for _, p := range papers {
		items = append(items, toCSLItem(p))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(items)
}

func toCSLItem(p types.Paper) CSLItem {
	item := CSLItem{
		ID:          p.PaperID,
		CitationKey: citationKey(p),
		Type:        "article",
		Title:       strings.TrimSpace(p.Title),
		Abstract:    strings.TrimSpace(p.Abstract),
	}
	if item.ID == "" {
		item.ID = item.CitationKey
	}
	for _, a := range p.Authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if p.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{p.Year}}}
	}
	return item
}

// parseAuthorName accepts "Given Family" and "Family, Given". Lowercase
// particles before the last token ("van", "de la") stay with the family
// name. A single token becomes a literal name.
func parseAuthorName(name string) CSLName {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}

	parts := strings.Split(name, " ")
	if len(parts) == 1 {
		return CSLName{Literal: name}
	}
	split := len(parts) - 1
	for split > 1 && isParticle(parts[split-1]) {
		split--
	}
	return CSLName{
		Given:  strings.Join(parts[:split], " "),
		Family: strings.Join(parts[split:], " "),
	}
}

func isParticle(word string) bool {
	r := []rune(word)
	return len(r) > 0 && unicode.IsLower(r[0])
}

// citationKey builds a BibTeX-style key: first author's family name, year
// and the first title word longer than three letters, e.g.
// "vaswani2017attention".
func citationKey(p types.Paper) string {
	var b strings.Builder
	if len(p.Authors) > 0 {
		n := parseAuthorName(p.Authors[0])
		family := n.Family
		if family == "" {
			family = n.Literal
		}
		b.WriteString(keyPart(family))
	}
	if p.Year > 0 {
		b.WriteString(strconv.Itoa(p.Year))
	}
	for _, w := range strings.Fields(p.Title) {
		if k := keyPart(w); len(k) > 3 {
			b.WriteString(k)
			break
		}
	}
	return b.String()
}

// keyPart lowercases s and keeps only letters and digits.
func keyPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
