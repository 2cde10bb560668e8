// Package ai defines the contract between the pipeline and an optional
// enhancement service that proposes drive fields for a message.
package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/highlight"
)

// MaxTextRunes caps the text sent to an enhancement service.
const MaxTextRunes = 8000

// Request is the input of one enhancement call. Credentials are held by the
// Enhancer implementation.
type Request struct {
	Subject  string
	Text     string
	Excerpts highlight.Excerpts
}

// Body renders the excerpts block followed by the message text, cut to MaxTextRunes.
func (r Request) Body() string {
	var b strings.Builder
	if len(r.Excerpts) > 0 {
		b.WriteString("EXTRACTED:\n")
		b.WriteString(r.Excerpts.Render())
	}
	b.WriteString("EMAIL:\n")
	b.WriteString(r.Text)

	body := b.String()
	if utf8.RuneCountInString(body) > MaxTextRunes {
		body = string([]rune(body)[:MaxTextRunes])
	}
	return body
}

// Enhancement is the field superset returned by a successful call.
type Enhancement struct {
	Fields     drive.Partial
	Confidence float64
	Raw        string
}

// Enhancer proposes fields for a message. Any error means no enhancement is available.
type Enhancer interface {
	Enhance(ctx context.Context, req Request) (*Enhancement, error)
}

// Apply merges an enhancement into the candidate. Every proposed field
// overrides the rule-based value and the confidence becomes the larger of the two.
func Apply(c *drive.Candidate, enh *Enhancement) {
	if c == nil || enh == nil {
		return
	}

	f := enh.Fields
	setString(&c.CompanyName, f.CompanyName)
	setString(&c.Role, f.Role)
	setString(&c.Batch, f.Batch)
	setString(&c.EligibleBranches, f.EligibleBranches)
	setString(&c.CTCOrStipend, f.CTCOrStipend)
	setString(&c.JobLocation, f.JobLocation)
	setString(&c.RegistrationLink, f.RegistrationLink)

	if f.DriveType != nil {
		c.DriveType = *f.DriveType
	}
	if f.DriveDate != nil {
		d := *f.DriveDate
		c.DriveDate = &d
	}
	if f.RegistrationDeadline != nil {
		d := *f.RegistrationDeadline
		c.RegistrationDeadline = &d
		c.DeadlineInferred = false
	}
	if f.MinCGPA != nil {
		v := *f.MinCGPA
		c.MinCGPA = &v
	}

	if conf := drive.ClampConfidence(enh.Confidence); conf > c.ConfidenceScore {
		c.ConfidenceScore = conf
	}
	c.ExtractionMethod = drive.MethodRulesAI
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
