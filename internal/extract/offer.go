package extract

import (
	"regexp"
	"strings"

	"github.com/spigell/drive-extractor/internal/highlight"
	"github.com/spigell/drive-extractor/internal/utils"
)

const (
	currency = `(?:₹|\brs\.?|\binr)?[ \t]*`
	amount   = `\d+(?:,\d+)*(?:\.\d+)?`
	span     = `(?:[ \t]*[-–][ \t]*(?:₹[ \t]*)?\d+(?:\.\d+)?)?`
	monthly  = `(?:k[ \t]*)?(?:per[ \t]*month|/[ \t]*month|/[ \t]*m\b|p\.?m\.?)`
	annual   = `(?:lpa|lakhs?(?:[ \t]*per[ \t]*annum)?|l\.p\.a\.?|per[ \t]*annum)`
)

// Compensation patterns in preference order: keyword-prefixed annual figure
// with a mandatory unit, bare LPA/lakh figure, stipend-prefixed monthly
// figure, bare monthly figure.
var compensationRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:ctc|package|salary|compensation)[ \t]*(?:of[ \t]*)?(?:is[ \t]*)?[:\-]?[ \t]*(` + currency + amount + span + `[ \t]*` + annual + `)`),
	regexp.MustCompile(`(?i)(` + currency + `\d+(?:\.\d+)?` + span + `[ \t]*(?:lpa|lakhs?[ \t]*per[ \t]*annum|lakhs?|l\.p\.a\.?))`),
	regexp.MustCompile(`(?i)\bstipend[ \t]*(?:of[ \t]*)?[:\-]?[ \t]*(` + currency + amount + `[ \t]*` + monthly + `)`),
	regexp.MustCompile(`(?i)(` + currency + amount + `[ \t]*(?:k[ \t]*)?(?:per[ \t]*month|/[ \t]*month))`),
}

var (
	annualRe       = regexp.MustCompile(`(?i)lpa|lakh|l\.p\.a|per[ \t]*annum`)
	excerptLabelRe = regexp.MustCompile(`(?i)^(?:ctc|salary|stipend|package)[ \t]*[:=]?[ \t]*`)
)

// Compensation extracts the CTC or stipend. The first match of every pattern
// is collected and the first annual (LPA/lakh) figure wins over monthly ones.
// When no pattern matches, highlighted compensation excerpts are used.
func Compensation(text string, excerpts highlight.Excerpts) string {
	var found []string
	for _, re := range compensationRules {
		if m := re.FindStringSubmatch(text); m != nil {
			if v := utils.CollapseSpaces(m[1]); v != "" {
				found = append(found, v)
			}
		}
	}

	if len(found) == 0 {
		for _, v := range excerpts.Values(highlight.KindCompensation) {
			if v = utils.CollapseSpaces(excerptLabelRe.ReplaceAllString(v, "")); v != "" {
				found = append(found, v)
			}
		}
	}

	for _, v := range found {
		if annualRe.MatchString(v) {
			return v
		}
	}
	if len(found) > 0 {
		return found[0]
	}
	return ""
}

// Cities are checked in list order before any generic pattern.
var cities = []string{
	"Bangalore", "Bengaluru", "Hyderabad", "Chennai", "Mumbai", "Delhi",
	"Pune", "Noida", "Gurgaon", "Gurugram", "Kolkata", "Ahmedabad",
	"Bhubaneswar", "Jaipur", "Kochi", "Thiruvananthapuram", "Coimbatore",
	"Chandigarh", "Lucknow", "Indore", "Nagpur", "Visakhapatnam",
}

var cityRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(cities))
	for _, c := range cities {
		out = append(out, regexp.MustCompile(`(?i)\b`+c+`\b`))
	}
	return out
}()

var (
	remoteRe        = regexp.MustCompile(`(?i)\b(?:remote|work[ \t]*from[ \t]*home|wfh|hybrid)\b`)
	locationLabelRe = regexp.MustCompile(`(?i)\b(?:job[ \t]*location|work[ \t]*location|location)[ \t]*[:\-][ \t]*([A-Za-z][A-Za-z ,]{2,30})`)
)

// Captures of the location label that are known false positives.
var locationBlacklist = map[string]bool{
	"ment officer": true, "ment offers": true, "placement": true,
	"tba": true, "tbd": true, "to be announced": true, "to be decided": true,
}

// Location returns a known city, "Remote", or the value of a location label.
func Location(text string) string {
	for i, re := range cityRes {
		if re.MatchString(text) {
			return cities[i]
		}
	}

	if remoteRe.MatchString(text) {
		return "Remote"
	}

	if m := locationLabelRe.FindStringSubmatch(text); m != nil {
		loc := strings.Trim(strings.TrimSpace(m[1]), ", ")
		if loc != "" && !locationBlacklist[strings.ToLower(loc)] {
			return utils.TitleCase(loc)
		}
	}
	return ""
}

var excludedLinkParts = []string{"linkedin.com/in/", "twitter.com", "//x.com/", "facebook.com", "instagram.com"}

var intentKeywords = []string{"register", "apply", "form", "career", "job", "recruit"}

// URLs returns every URL in text with trailing punctuation removed.
// www-prefixed addresses get an https scheme.
func URLs(text string) []string {
	raw := highlight.URLPattern.FindAllString(text, -1)
	out := make([]string, 0, len(raw))
	for _, u := range raw {
		u = trimURL(u)
		if u == "" {
			continue
		}
		if strings.HasPrefix(strings.ToLower(u), "www.") {
			u = "https://" + u
		}
		out = append(out, u)
	}
	return out
}

func trimURL(u string) string {
	for {
		trimmed := strings.TrimRight(u, ".,;:!?'\"*")
		if strings.HasSuffix(trimmed, ")") && strings.Count(trimmed, "(") < strings.Count(trimmed, ")") {
			trimmed = strings.TrimSuffix(trimmed, ")")
		}
		if strings.HasSuffix(trimmed, "]") && strings.Count(trimmed, "[") < strings.Count(trimmed, "]") {
			trimmed = strings.TrimSuffix(trimmed, "]")
		}
		if trimmed == u {
			return u
		}
		u = trimmed
	}
}

// RegistrationLink picks the URL most likely to be the application form.
func RegistrationLink(text string) string {
	var candidates []string
	for _, u := range URLs(text) {
		lower := strings.ToLower(u)
		excluded := false
		for _, part := range excludedLinkParts {
			if strings.Contains(lower, part) {
				excluded = true
				break
			}
		}
		if !excluded {
			candidates = append(candidates, u)
		}
	}

	for _, u := range candidates {
		lower := strings.ToLower(u)
		for _, kw := range intentKeywords {
			if strings.Contains(lower, kw) {
				return u
			}
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}
