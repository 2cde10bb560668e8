package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/utils"
)

// Role rules, in order:
//
//	labelled     "Role: Software Engineer", "Position - Graduate Trainee"
//	hiring_for   "hiring for Backend Developer Interns"
//	known_title  "Data Analyst", "Full Stack Developer"
//	short_form   "SDE Intern", "SWE II", "MTS"
//
// Phrases never span lines.
var roleRules = []rule{
	{
		name:      "labelled",
		re:        regexp.MustCompile(`(?i)\b(?:role|position|profile)[ \t]*[:\-]?[ \t]*([A-Za-z \t]*(?:Engineer|Developer|Analyst|Intern|Manager|Executive|Trainee)[A-Za-z \t]*)`),
		transform: roleTitle(4),
	},
	{
		name:      "hiring_for",
		re:        regexp.MustCompile(`(?i)\b(?:hiring|looking|opening)[ \t]+for[ \t]+([A-Za-z \t]*(?:Engineer|Developer|Analyst|Intern)[A-Za-z \t]*)`),
		transform: roleTitle(4),
	},
	{
		name:      "known_title",
		re:        regexp.MustCompile(`(?i)\b((?:Software|Frontend|Backend|Full[ \t-]?Stack|Data|ML|AI|QA|Test|DevOps)[ \t]*(?:Engineer|Developer|Analyst|Intern)s?)\b`),
		transform: roleTitle(4),
	},
	{
		name:      "short_form",
		re:        regexp.MustCompile(`\b((?:SDE|SWE|MTS|SET)(?:[ \t-]*(?:Intern|III|II|I|[1-3]))?)\b`),
		transform: roleTitle(3),
	},
}

var (
	roleLeadRe  = regexp.MustCompile(`(?i)^(?:(?:of|as|a|an|the|is)\s+)+`)
	roleTrailRe = regexp.MustCompile(`(?i)\s+(?:at|for|with|in|from|to|who|on)\s.*$`)
)

func roleTitle(minLen int) func(m []string) (string, bool) {
	return func(m []string) (string, bool) {
		role := strings.Join(strings.Fields(m[1]), " ")
		role = roleTrailRe.ReplaceAllString(roleLeadRe.ReplaceAllString(role, ""), "")
		if utf8.RuneCountInString(role) < minLen {
			return "", false
		}
		return utils.TitleCase(role), true
	}
}

// Role extracts the advertised role from the body.
func Role(text string) string {
	v, _ := firstMatch(roleRules, text)
	return v
}

var (
	internRe    = regexp.MustCompile(`(?i)\bintern(?:ship)?s?\b`)
	fullTimeRe  = regexp.MustCompile(`(?i)\b(?:fte|full[\s-]?time|permanent|ppo)\b`)
	bachelorsRe = regexp.MustCompile(`(?i)\bb\.?\s*tech\b`)
	mastersRe   = regexp.MustCompile(`(?i)\bm\.?\s*tech\b`)
)

// DriveType classifies the drive from the subject and body. When neither
// internship nor full-time tokens appear, a mention of both B.Tech and M.Tech
// is taken as a full-time drive.
func DriveType(subject, text string) drive.DriveType {
	combined := subject + " " + text
	intern := internRe.MatchString(combined)
	fullTime := fullTimeRe.MatchString(combined)

	switch {
	case intern && fullTime:
		return drive.TypeBoth
	case intern:
		return drive.TypeInternship
	case fullTime:
		return drive.TypeFullTime
	case bachelorsRe.MatchString(combined) && mastersRe.MatchString(combined):
		return drive.TypeFullTime
	}
	return drive.TypeUnset
}
