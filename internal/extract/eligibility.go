package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spigell/drive-extractor/internal/drive"
)

var (
	batchSuffixRe = regexp.MustCompile(`(?i)\b(20\d{2})[ \t]*(?:batch|pass[ \t-]?outs?|passing[ \t]*out|graduat(?:ing|es|ion))\b`)
	batchPrefixRe = regexp.MustCompile(`(?i)\bbatch(?:[ \t]+of)?[ \t]*[:\-]?[ \t]*(20\d{2})\b`)
	bareYearRe    = regexp.MustCompile(`\b(20\d{2})\b`)
)

// Batch finds the graduating-year batch. Rules, in order: a year followed by
// batch/passout/graduating, "batch: YEAR" or "batch of YEAR", then any year
// outside a date. A year is only accepted within [refYear-1, refYear+3].
func Batch(subject, text string, refYear int) string {
	combined := subject + "\n" + text
	inWindow := func(y string) bool {
		n, err := strconv.Atoi(y)
		return err == nil && n >= refYear-1 && n <= refYear+3
	}

	for _, re := range []*regexp.Regexp{batchSuffixRe, batchPrefixRe} {
		for _, m := range re.FindAllStringSubmatch(combined, -1) {
			if inWindow(m[1]) {
				return m[1]
			}
		}
	}

	for _, m := range bareYearRe.FindAllStringSubmatch(stripDates(combined), -1) {
		if inWindow(m[1]) {
			return m[1]
		}
	}
	return ""
}

var branchCodeRe = regexp.MustCompile(`\b(CSE|CS|IT|ECE|EEE|EE|MECH|ME|CIVIL|CE|AIML|AI|ML|DS)\b`)

// Long-form branch names and their codes. More specific names come first so
// "Electrical and Electronics" is not also read as "Electronics".
var branchNames = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`(?i)\bcomputer[ \t]+science(?:[ \t]+(?:and|&)[ \t]+engineering)?\b`), "CSE"},
	{regexp.MustCompile(`(?i)\binformation[ \t]+technology\b`), "IT"},
	{regexp.MustCompile(`(?i)\belectrical[ \t]+(?:and|&)[ \t]+electronics(?:[ \t]+engineering)?\b`), "EEE"},
	{regexp.MustCompile(`(?i)\belectronics(?:[ \t]+(?:and|&)[ \t]+(?:tele)?communications?)?(?:[ \t]+engineering)?\b`), "ECE"},
	{regexp.MustCompile(`(?i)\belectrical(?:[ \t]+engineering)?\b`), "EE"},
	{regexp.MustCompile(`(?i)\bmechanical(?:[ \t]+engineering)?\b`), "MECH"},
	{regexp.MustCompile(`(?i)\bcivil[ \t]+engineering\b`), "CIVIL"},
	{regexp.MustCompile(`(?i)\bartificial[ \t]+intelligence[ \t]+(?:and|&)[ \t]+machine[ \t]+learning\b`), "AIML"},
	{regexp.MustCompile(`(?i)\bartificial[ \t]+intelligence\b`), "AI"},
	{regexp.MustCompile(`(?i)\bmachine[ \t]+learning\b`), "ML"},
	{regexp.MustCompile(`(?i)\bdata[ \t]+science\b`), "DS"},
}

var allBranchesRe = regexp.MustCompile(`(?i)\ball[ \t]*(?:the[ \t]*)?(?:branch(?:es)?|streams|disciplines)\b`)

type branchHit struct {
	start, end int
	code       string
}

// Branches collects branch codes in text order, de-duplicated and comma-joined.
func Branches(text string) string {
	var hits []branchHit
	overlaps := func(start, end int) bool {
		for _, h := range hits {
			if start < h.end && end > h.start {
				return true
			}
		}
		return false
	}

	for _, b := range branchNames {
		for _, loc := range b.re.FindAllStringIndex(text, -1) {
			if !overlaps(loc[0], loc[1]) {
				hits = append(hits, branchHit{loc[0], loc[1], b.code})
			}
		}
	}
	for _, loc := range branchCodeRe.FindAllStringSubmatchIndex(text, -1) {
		if !overlaps(loc[0], loc[1]) {
			hits = append(hits, branchHit{loc[0], loc[1], text[loc[2]:loc[3]]})
		}
	}

	if len(hits) == 0 {
		if allBranchesRe.MatchString(text) {
			return drive.AllBranches
		}
		return ""
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].start < hits[j].start })

	seen := make(map[string]bool)
	codes := make([]string, 0, len(hits))
	for _, h := range hits {
		if seen[h.code] {
			continue
		}
		seen[h.code] = true
		codes = append(codes, h.code)
	}
	return strings.Join(codes, ", ")
}

// CGPA rules, in order: keyword then number, "minimum" keyword then number,
// number then keyword.
var cgpaRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:cgpa|cg|gpa)[ \t]*(?:of[ \t]*)?[:\-]?[ \t]*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)\bminimum[ \t]*(?:cgpa|cg|gpa)[ \t]*[:\-]?[ \t]*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)[ \t]*(?:cgpa|cg|gpa)\b`),
}

// CGPA returns the first grade-point requirement in (0,10].
func CGPA(text string) *float64 {
	for _, re := range cgpaRules {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, err := strconv.ParseFloat(m[1], 64)
			if err == nil && v > 0 && v <= 10 {
				return &v
			}
		}
	}
	return nil
}
