// Package normalize turns raw announcement bodies into clean plain text.
package normalize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxChars is the rune budget of the capped text.
	DefaultMaxChars = 12000
	capBuffer       = 100
)

// DefaultPreserveKeywords mark lines that survive capping in full.
var DefaultPreserveKeywords = []string{
	"apply", "deadline", "role", "position", "ctc", "stipend",
	"eligibility", "batch", "branch", "location", "link",
	"cgpa", "salary", "lpa", "package", "register", "date",
}

var (
	spacesRe   = regexp.MustCompile(`[ \t\f\v]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
)

// Options configure a Normalizer.
type Options struct {
	MaxChars         int      `mapstructure:"max-chars" validate:"gte=0"`
	PreserveKeywords []string `mapstructure:"preserve-keywords"`
}

// Result is the output of Normalize.
type Result struct {
	// Text is the noise-free text used for field extraction.
	Text string
	// Capped is Text reduced to the character budget, used for highlighting and enhancement prompts.
	Capped string
	// Markup is set when the body was parsed as HTML.
	Markup bool
	// Degraded is set when the markup could not be parsed and tags were stripped instead.
	Degraded bool
}

// Normalizer converts raw bodies to plain text.
type Normalizer struct {
	maxChars int
	keywords []string
	logger   *zap.Logger
}

// New creates a Normalizer. Zero options fall back to the defaults.
func New(opts Options, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}

	keywords := make([]string, 0, len(opts.PreserveKeywords))
	for _, kw := range opts.PreserveKeywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if len(keywords) == 0 {
		keywords = DefaultPreserveKeywords
	}

	return &Normalizer{maxChars: opts.MaxChars, keywords: keywords, logger: logger}
}

// Normalize runs markup conversion, whitespace collapsing, noise removal and capping.
func (n *Normalizer) Normalize(raw string) Result {
	var res Result

	text := strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(raw)
	text = norm.NFKC.String(text)

	if IsMarkup(text) {
		res.Markup = true
		converted, err := markupToText(text)
		if err != nil {
			n.logger.Warn("markup parsing failed, stripping tags", zap.Error(err))
			converted = stripTags(text)
			res.Degraded = true
		}
		text = converted
	}

	text = collapse(text)
	text = collapse(removeNoise(text))

	res.Text = text
	res.Capped = n.Cap(text)

	n.logger.Debug("normalized body",
		zap.Bool("markup", res.Markup),
		zap.Bool("degraded", res.Degraded),
		zap.Int("raw_length", utf8.RuneCountInString(raw)),
		zap.Int("text_length", utf8.RuneCountInString(res.Text)),
		zap.Int("capped_length", utf8.RuneCountInString(res.Capped)),
	)

	return res
}

func collapse(text string) string {
	text = spacesRe.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Cap reduces text to the rune budget. Lines containing a preserve keyword are
// always kept; the remaining budget goes to the earliest other lines. Kept
// lines stay in their original order.
func (n *Normalizer) Cap(text string) string {
	if utf8.RuneCountInString(text) <= n.maxChars {
		return text
	}

	lines := strings.Split(text, "\n")
	keep := make([]bool, len(lines))
	used := 0
	for i, line := range lines {
		if n.preserved(line) {
			keep[i] = true
			used += utf8.RuneCountInString(line) + 1
		}
	}

	budget := n.maxChars - used - capBuffer
	for i, line := range lines {
		if keep[i] {
			continue
		}
		size := utf8.RuneCountInString(line) + 1
		if size > budget {
			break
		}
		keep[i] = true
		budget -= size
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if keep[i] {
			out = append(out, line)
		}
	}
	return strings.TrimSpace(newlinesRe.ReplaceAllString(strings.Join(out, "\n"), "\n\n"))
}

func (n *Normalizer) preserved(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range n.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
