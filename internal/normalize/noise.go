package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Lines are matched lower-cased and trimmed.
var (
	signatureRes = compileAll(
		`^thanks\s*(&|and)?\s*regards?`,
		`^best\s*regards?`,
		`^warm\s*regards?`,
		`^kind\s*regards?`,
		`^regards,?\s*$`,
		`^thanking\s*you`,
		`^sincerely`,
		`^cheers`,
	)

	disclaimerRes = compileAll(
		`this\s*(e-?mail|message)\s*(is\s*)?(intended|confidential)`,
		`disclaimer`,
		`this\s*communication\s*is\s*confidential`,
		`if\s*you\s*are\s*not\s*the\s*intended\s*recipient`,
		`privileged\s*and\s*confidential`,
	)

	replyRes = compileAll(
		`^on\s+.+wrote:`,
		`^from:\s+.+`,
		`^sent:\s+.+`,
		`^to:\s+.+`,
		`^cc:\s+.+`,
		`^subject:\s+.+`,
		`^>`,
		`^-{3,}.*original\s*message.*-{3,}$`,
	)

	footerRes = compileAll(
		`^sent\s*from\s*(my\s*)?(iphone|android|mobile)`,
		`^get\s*outlook\s*for`,
	)

	placeholderRe = regexp.MustCompile(`(?i)\[(image|cid):[^\]]*\]`)
	angleURLRe    = regexp.MustCompile(`(?i)<(https?://[^\s<>]+)>`)
)

// resumeQuotedLen is the length above which a non-quoted line ends a quoted block.
const resumeQuotedLen = 50

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// isSignature reports whether a line opens a sender signature.
func isSignature(line string) bool {
	return matchAny(signatureRes, strings.ToLower(strings.TrimSpace(line)))
}

// removeNoise drops signatures and everything after them, disclaimer lines,
// quoted reply history and inline mail-client artefacts.
func removeNoise(text string) string {
	var kept []string
	quoted := false

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)

		if isSignature(trimmed) {
			break
		}

		if matchAny(replyRes, lower) {
			quoted = true
			continue
		}

		if quoted {
			if trimmed == "" || utf8.RuneCountInString(trimmed) <= resumeQuotedLen {
				continue
			}
			quoted = false
		}

		if matchAny(disclaimerRes, lower) || matchAny(footerRes, lower) {
			continue
		}

		line = cleanInline(line)
		if strings.TrimSpace(line) == "" && trimmed != "" {
			continue
		}
		kept = append(kept, line)
	}

	return strings.Join(kept, "\n")
}

// cleanInline removes image placeholders and unwraps <url> references. A
// bracketed URL already present elsewhere on the line is removed.
func cleanInline(line string) string {
	line = placeholderRe.ReplaceAllString(line, "")
	return angleURLRe.ReplaceAllStringFunc(line, func(m string) string {
		url := angleURLRe.FindStringSubmatch(m)[1]
		if strings.Count(line, url) > 1 {
			return ""
		}
		return url
	})
}
