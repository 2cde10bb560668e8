// Package highlight pulls short, high-signal excerpts out of normalized text.
package highlight

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags an excerpt.
type Kind string

const (
	KindURL          Kind = "URL"
	KindDate         Kind = "DATE"
	KindCompensation Kind = "COMPENSATION"
	KindCGPA         Kind = "CGPA"
)

// Excerpt is a single highlighted substring.
type Excerpt struct {
	Kind  Kind
	Value string
}

func (e Excerpt) String() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Value)
}

// Excerpts is an ordered, de-duplicated excerpt list.
type Excerpts []Excerpt

// Render formats the list as the block prepended to enhancement prompts.
// An empty list renders as "".
func (ex Excerpts) Render() string {
	if len(ex) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("IMPORTANT EXCERPTS:\n")
	for _, line := range ex.Strings() {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// Strings returns the "KIND: value" form of every excerpt.
func (ex Excerpts) Strings() []string {
	out := make([]string, 0, len(ex))
	for _, e := range ex {
		out = append(out, e.String())
	}
	return out
}

// Values returns the values of the given kind in order.
func (ex Excerpts) Values(kind Kind) []string {
	var out []string
	for _, e := range ex {
		if e.Kind == kind {
			out = append(out, e.Value)
		}
	}
	return out
}

const monthNames = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*`

// URLPattern matches absolute and www-prefixed URLs.
var URLPattern = regexp.MustCompile(`(?i)https?://[^\s<>"']+|www\.[^\s<>"']+`)

type scanner struct {
	kind  Kind
	re    *regexp.Regexp
	limit int
}

// Scan order is the excerpt order: URLs, then each date grammar, then each
// money grammar, then a single CGPA mention.
var scanners = []scanner{
	{KindURL, URLPattern, 3},
	{KindDate, regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`), 2},
	{KindDate, regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `\s+\d{4}\b`), 2},
	{KindDate, regexp.MustCompile(`(?i)\b` + monthNames + `\s+\d{1,2},?\s+\d{4}\b`), 2},
	{KindCompensation, regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:lpa|lakhs?|lac)\b`), 2},
	{KindCompensation, regexp.MustCompile(`(?i)₹\s*\d+(?:,\d+)*(?:\.\d+)?(?:\s*(?:lpa|lakh|k|per\s*month))?`), 2},
	{KindCompensation, regexp.MustCompile(`(?i)\b(?:ctc|salary|stipend|package)\s*[:=]?\s*₹?\s*\d+(?:\.\d+)?[^\n]{0,20}`), 2},
	{KindCGPA, regexp.MustCompile(`(?i)\b(?:cgpa|cg|gpa)\s*[:=]?\s*\d+(?:\.\d+)?(?:\s*(?:and\s*above|above|\+))?`), 1},
}

// Highlight scans text for URLs, dates, money amounts and a grade-point
// mention, keeping the first few matches of each pattern.
func Highlight(text string) Excerpts {
	var out Excerpts
	seen := make(map[string]bool)

	for _, s := range scanners {
		for _, m := range s.re.FindAllString(text, s.limit) {
			e := Excerpt{Kind: s.kind, Value: strings.TrimSpace(m)}
			if e.Value == "" || seen[e.String()] {
				continue
			}
			seen[e.String()] = true
			out = append(out, e)
		}
	}
	return out
}
