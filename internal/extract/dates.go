package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/drive-extractor/internal/drive"
)

const monthPattern = `(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|June?|July?|Aug(?:ust)?|Sep(?:t(?:ember)?)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\.?`

// dateGrammar is one supported way of writing a date. day, month and year
// are submatch indexes; prefixes only use non-capturing groups.
type dateGrammar struct {
	name             string
	pattern          string
	day, month, year int
}

// Grammars are tried in this order for every prefix and for the fallback.
var dateGrammars = []dateGrammar{
	{name: "numeric", pattern: `(\d{1,2})[/\-](\d{1,2})[/\-](20\d{2})`, day: 1, month: 2, year: 3},
	{name: "day_month_year", pattern: `(\d{1,2})(?:st|nd|rd|th)?[ \t]+` + monthPattern + `,?[ \t]+(20\d{2})`, day: 1, month: 2, year: 3},
	{name: "month_day_year", pattern: monthPattern + `[ \t]+(\d{1,2})(?:st|nd|rd|th)?,?[ \t]+(20\d{2})`, day: 2, month: 1, year: 3},
}

var monthNumbers = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// Deadline prefixes, in order.
var deadlinePrefixes = []string{
	`(?:deadline|last[ \t]*date(?:[ \t]*(?:to|for|of)[ \t]*(?:apply|register|registration|application|applying))?|apply[ \t]*by|register[ \t]*by|before)[ \t]*(?:is[ \t]*)?[:\-]?[ \t]*(?:on[ \t]*)?`,
	`(?:registration|application)s?[ \t]*(?:deadline|closes?|ends?)[ \t]*(?:on[ \t]*)?[:\-]?[ \t]*`,
}

// Drive-date prefixes, in order.
var drivePrefixes = []string{
	`(?:drive|interview|test|assessment)[ \t]*date[ \t]*[:\-]?[ \t]*`,
	`(?:scheduled[ \t]*(?:on|for)|on[ \t]*date)[ \t]*[:\-]?[ \t]*`,
	`(?:drive|test|interview|assessment)[ \t]*(?:is[ \t]*|will[ \t]*be[ \t]*)?(?:held[ \t]*|conducted[ \t]*)?on[ \t]*[:\-]?[ \t]*`,
}

type datedRule struct {
	re      *regexp.Regexp
	grammar dateGrammar
}

func compileDated(prefixes []string) []datedRule {
	var rules []datedRule
	for _, prefix := range prefixes {
		for _, g := range dateGrammars {
			rules = append(rules, datedRule{
				re:      regexp.MustCompile(`(?i)\b` + prefix + g.pattern),
				grammar: g,
			})
		}
	}
	return rules
}

var (
	deadlineRules = compileDated(deadlinePrefixes)
	driveRules    = compileDated(drivePrefixes)
	bareRules     = compileDated([]string{``})
)

// toDate converts a grammar match. Impossible calendar dates yield nil.
func (g dateGrammar) toDate(m []string) *drive.Date {
	day, err := strconv.Atoi(m[g.day])
	if err != nil {
		return nil
	}
	year, err := strconv.Atoi(m[g.year])
	if err != nil {
		return nil
	}

	raw := m[g.month]
	var month time.Month
	if n, err := strconv.Atoi(raw); err == nil {
		month = time.Month(n)
	} else {
		month = monthNumbers[strings.ToLower(raw)[:3]]
	}

	d, err := drive.NewDate(year, month, day)
	if err != nil {
		return nil
	}
	return d
}

// firstDate walks the rules in order and returns the first match that is a real calendar date.
func firstDate(rules []datedRule, text string) *drive.Date {
	for _, r := range rules {
		for _, m := range r.re.FindAllStringSubmatch(text, -1) {
			if d := r.grammar.toDate(m); d != nil {
				return d
			}
		}
	}
	return nil
}

// Dates holds the two date fields of a drive.
type Dates struct {
	DriveDate            *drive.Date
	RegistrationDeadline *drive.Date
	// DeadlineInferred is set when no labelled deadline existed and the first
	// date in the text was used instead.
	DeadlineInferred bool
}

// ExtractDates finds the registration deadline and the drive date.
func ExtractDates(text string) Dates {
	var out Dates
	out.RegistrationDeadline = firstDate(deadlineRules, text)
	out.DriveDate = firstDate(driveRules, text)

	if out.RegistrationDeadline == nil {
		if d := firstDate(bareRules, text); d != nil {
			out.RegistrationDeadline = d
			out.DeadlineInferred = true
		}
	}
	return out
}

// stripDates blanks every date-shaped substring so bare years inside dates
// are not mistaken for batch years.
func stripDates(text string) string {
	for _, r := range bareRules {
		text = r.re.ReplaceAllStringFunc(text, func(m string) string {
			return strings.Repeat(" ", len(m))
		})
	}
	return text
}
