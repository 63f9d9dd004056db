// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package citation formats and checks parenthetical author-year citations.
package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// authorYearCiteRe matches parenthetical author-year citations like
// (Smith, 2020), (Smith and Jones, 2019) or (Smith et al., 2021).
var authorYearCiteRe = regexp.MustCompile(`^\((\p{Lu}[\p{L}'\-]+(?:\s+(?:et\s+al\.|and\s+\p{Lu}[\p{L}'\-]+))?),\s*(\d{4}|n\.d\.)\)$`)

// Valid reports whether s is a single (Author, Year) citation.
func Valid(s string) bool {
	return authorYearCiteRe.MatchString(strings.TrimSpace(s))
}

// Format builds an (Author, Year) citation from author names and a
// publication year. It returns "" when there are no authors. A zero year
// becomes "n.d.".
func Format(authors []string, year int) string {
	var names []string
	for _, a := range authors {
		if s := surname(a); s != "" {
			names = append(names, s)
		}
	}
	if len(names) == 0 {
		return ""
	}

	y := "n.d."
	if year > 0 {
		y = strconv.Itoa(year)
	}

	switch len(names) {
	case 1:
		return fmt.Sprintf("(%s, %s)", names[0], y)
	case 2:
		return fmt.Sprintf("(%s and %s, %s)", names[0], names[1], y)
	default:
		return fmt.Sprintf("(%s et al., %s)", names[0], y)
	}
}

// surname returns the family name of a full name. "Last, First" and
// "First Last" orders are both accepted.
func surname(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if last, _, ok := strings.Cut(name, ","); ok {
		return strings.TrimSpace(last)
	}
	fields := strings.Fields(name)
	return fields[len(fields)-1]
}
