package intake

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/utils"
)

type keywordsFilter struct {
	disabled  bool
	reason    string
	keywords  []string
	scanChars int
}

// NewKeywords creates a filter that passes messages whose subject or body
// opening mentions a placement keyword.
func NewKeywords() Filter {
	return &keywordsFilter{}
}

func (f *keywordsFilter) Name() string { return "placement_keywords" }

func (f *keywordsFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *keywordsFilter) IsEnabled() bool { return !f.disabled }

func (f *keywordsFilter) Validate(cfg *Config) error {
	if cfg.ScanChars < 0 {
		return fmt.Errorf("scan-chars must not be negative, got %d", cfg.ScanChars)
	}

	f.scanChars = cfg.ScanChars
	if f.scanChars == 0 {
		f.scanChars = DefaultScanChars
	}

	source := cfg.Keywords
	if len(source) == 0 {
		source = DefaultKeywords
	}
	f.keywords = f.keywords[:0]
	for _, kw := range source {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			f.keywords = append(f.keywords, kw)
		}
	}
	return nil
}

func (f *keywordsFilter) Apply(msg *drive.Message) Decision {
	body := []rune(msg.RawBody)
	if len(body) > f.scanChars {
		body = body[:f.scanChars]
	}
	combined := strings.ToLower(msg.Subject + " " + string(body))

	for _, kw := range f.keywords {
		if strings.Contains(combined, kw) {
			return Decision{Pass: true}
		}
	}
	return Decision{Reason: fmt.Sprintf("not a placement message: %s", utils.TruncateForLog(msg.Subject, 50))}
}

func (f *keywordsFilter) Status() Status {
	details := map[string]string{
		"keywords":   strconv.Itoa(len(f.keywords)),
		"scan_chars": strconv.Itoa(f.scanChars),
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
