// Package extract implements the deterministic, rule-based field extraction
// for drive announcements. Every field has its own ordered rule list; the
// first accepting rule wins.
package extract

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/highlight"
)

// Extractor builds candidates from a subject line and normalized body text.
type Extractor struct {
	now    func() time.Time
	logger *zap.Logger
}

// Option customises an Extractor.
type Option func(*Extractor)

// WithClock sets the clock used for the batch-year window.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs every field rule list. The company comes from the subject
// only; the body feeds everything else. Excerpts are used as a fallback hint
// for compensation.
func (e *Extractor) Extract(subject, text string, excerpts highlight.Excerpts) *drive.Candidate {
	var matched trace

	company, name := firstMatch(companyRules, strings.TrimSpace(subject))
	matched.add("company", name)

	role, name := firstMatch(roleRules, text)
	matched.add("role", name)

	dates := ExtractDates(text)

	c := &drive.Candidate{
		CompanyName:          company,
		Role:                 role,
		DriveType:            DriveType(subject, text),
		Batch:                Batch(subject, text, e.now().Year()),
		DriveDate:            dates.DriveDate,
		RegistrationDeadline: dates.RegistrationDeadline,
		DeadlineInferred:     dates.DeadlineInferred,
		EligibleBranches:     Branches(text),
		MinCGPA:              CGPA(text),
		CTCOrStipend:         Compensation(text, excerpts),
		JobLocation:          Location(text),
		RegistrationLink:     RegistrationLink(text),
		ExtractionMethod:     drive.MethodRules,
	}
	c.ConfidenceScore = c.Score()

	e.logger.Debug("rule-based extraction done",
		zap.Strings("matched_rules", matched),
		zap.Int("filled_fields", c.FilledFields()),
		zap.Int("total_fields", drive.ExtractedFields),
		zap.Bool("deadline_inferred", c.DeadlineInferred),
		zap.Float64("confidence", c.ConfidenceScore),
	)

	return c
}
