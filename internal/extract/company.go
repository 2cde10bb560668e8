package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var legalSuffixRe = regexp.MustCompile(`(?i)[\s,]*(?:Pvt\.?\s*Ltd\.?|Private\s*Limited|Ltd\.?|Inc\.?|LLC|LLP)$`)

// Words that describe the drive rather than the company. A capture made only
// of these is rejected.
var genericWords = map[string]bool{
	"campus": true, "placement": true, "recruitment": true, "drive": true, "hiring": true,
	"internship": true, "intern": true, "program": true, "programme": true, "test": true,
	"fte": true, "off": true, "on": true, "pool": true, "the": true, "batch": true,
	"students": true, "registration": true, "opportunity": true, "online": true,
	"assessment": true, "final": true, "year": true, "all": true, "job": true, "jobs": true,
}

// Company rules run against the subject line only, in this order:
//
//	subject_pipes    "Campus Drive || Acme || 2026 Batch"
//	leading_name     "Acme Campus Drive", "Re: Acme Internship Program"
//	name_dash        "Acme - Campus Drive"
//	drive_colon      "Placement Drive: Acme"
//	drive_by         "Campus drive by Acme _2026"
//	preposition      "Hiring drive for Acme - 2026"
var companyRules = []rule{
	{
		name:      "subject_pipes",
		re:        regexp.MustCompile(`\|\|\s*([^|]+?)\s*(?:\|\||$)`),
		transform: companyName,
	},
	{
		name:      "leading_name",
		re:        regexp.MustCompile(`(?i)^(?:Re:\s*|Fwd?:\s*)?([A-Z][A-Za-z0-9 \t.]+?)\s+(?:Campus|Internship|Placement|Recruitment|FTE)\s+(?:Drive|Test|Program)`),
		transform: companyName,
	},
	{
		name:      "name_dash",
		re:        regexp.MustCompile(`^([A-Z][A-Za-z0-9 \t]+?)\s*[-–]\s*(?:Campus|Placement)`),
		transform: companyName,
	},
	{
		name:      "drive_colon",
		re:        regexp.MustCompile(`(?:Drive|Recruitment)\s*[:\-]\s*([A-Z][A-Za-z0-9 \t&.]+)`),
		transform: companyName,
	},
	{
		name:      "drive_by",
		re:        regexp.MustCompile(`(?i)(?:drive|recruitment)\s+by\s+([A-Za-z][A-Za-z0-9 \t&.]+?)(?:\s*[_\-]|$)`),
		transform: companyName,
	},
	{
		name:      "preposition",
		re:        regexp.MustCompile(`(?i)\b(?:for|from|at)\s+([A-Z][A-Za-z0-9 \t&.]+?)(?:\s*[\-_|]|$)`),
		transform: companyName,
	},
}

func companyName(m []string) (string, bool) {
	name := strings.TrimSpace(m[1])
	name = strings.TrimSpace(legalSuffixRe.ReplaceAllString(name, ""))
	name = strings.Join(strings.Fields(name), " ")
	if utf8.RuneCountInString(name) <= 2 {
		return "", false
	}

	generic := true
	for _, w := range strings.Fields(strings.ToLower(name)) {
		w = strings.Trim(w, ".&")
		if w == "" {
			continue
		}
		if !genericWords[w] && !isNumber(w) {
			generic = false
			break
		}
	}
	if generic {
		return "", false
	}
	return name, true
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Company extracts the hiring company from a subject line.
func Company(subject string) string {
	v, _ := firstMatch(companyRules, strings.TrimSpace(subject))
	return v
}
