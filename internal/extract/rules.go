package extract

import (
	"regexp"
	"strings"
)

// rule is one step of a field's ordered rule list. The transform receives the
// submatches of the first match and may reject it, in which case the next
// rule is tried.
type rule struct {
	name      string
	re        *regexp.Regexp
	transform func(m []string) (string, bool)
}

// firstMatch returns the value produced by the first accepting rule and the rule's name.
func firstMatch(rules []rule, text string) (string, string) {
	for _, r := range rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		transform := r.transform
		if transform == nil {
			transform = group(1)
		}
		if v, ok := transform(m); ok {
			return v, r.name
		}
	}
	return "", ""
}

// group returns the trimmed submatch n, rejecting empty values.
func group(n int) func(m []string) (string, bool) {
	return func(m []string) (string, bool) {
		if n >= len(m) {
			return "", false
		}
		v := strings.TrimSpace(m[n])
		return v, v != ""
	}
}

// trace collects "field:rule" pairs for debug logging.
type trace []string

func (t *trace) add(field, rule string) {
	if rule != "" {
		*t = append(*t, field+":"+rule)
	}
}
