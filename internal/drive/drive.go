package drive

import (
	"strings"
	"time"
)

// DriveType classifies the hiring drive.
type DriveType string

const (
	TypeUnset      DriveType = ""
	TypeInternship DriveType = "internship"
	TypeFullTime   DriveType = "full-time"
	TypeBoth       DriveType = "both"
)

// Method records which extractors contributed to a candidate.
type Method string

const (
	MethodRules   Method = "rule-based"
	MethodRulesAI Method = "rule+ai"
)

// AllBranches is the eligibility value of a drive open to every branch.
const AllBranches = "All Branches"

// ExtractedFields is the number of fields the extraction engine fills.
const ExtractedFields = 11

// ConfidenceBase is the field count that maps to full confidence.
const ConfidenceBase = 8

// Message is an inbound recruiting announcement. It is never mutated by the pipeline.
type Message struct {
	ID         string     `json:"message_id" yaml:"message_id"`
	Sender     string     `json:"sender" yaml:"sender"`
	Subject    string     `json:"subject" yaml:"subject"`
	RawBody    string     `json:"raw_body" yaml:"raw_body"`
	ReceivedAt *time.Time `json:"received_at,omitempty" yaml:"received_at,omitempty"`
}

// Candidate is the structured drive record built from a single message.
// Empty strings and nil pointers mean the field is unset.
type Candidate struct {
	CompanyName          string    `json:"company_name"`
	Role                 string    `json:"role,omitempty"`
	DriveType            DriveType `json:"drive_type,omitempty"`
	Batch                string    `json:"batch,omitempty"`
	DriveDate            *Date     `json:"drive_date,omitempty"`
	RegistrationDeadline *Date     `json:"registration_deadline,omitempty"`
	EligibleBranches     string    `json:"eligible_branches,omitempty"`
	MinCGPA              *float64  `json:"min_cgpa,omitempty"`
	CTCOrStipend         string    `json:"ctc_or_stipend,omitempty"`
	JobLocation          string    `json:"job_location,omitempty"`
	RegistrationLink     string    `json:"registration_link,omitempty"`

	ConfidenceScore  float64  `json:"confidence_score"`
	ExtractionMethod Method   `json:"extraction_method"`
	NeedsReview      bool     `json:"needs_review"`
	ValidationErrors []string `json:"validation_errors,omitempty"`
	DeadlineInferred bool     `json:"deadline_inferred,omitempty"`
	// SourceMessageIDs lists the messages the candidate was built from.
	SourceMessageIDs []string `json:"-"`
}

// Clone returns a deep copy.
func (c *Candidate) Clone() *Candidate {
	if c == nil {
		return nil
	}

	out := *c
	if c.DriveDate != nil {
		d := *c.DriveDate
		out.DriveDate = &d
	}
	if c.RegistrationDeadline != nil {
		d := *c.RegistrationDeadline
		out.RegistrationDeadline = &d
	}
	if c.MinCGPA != nil {
		v := *c.MinCGPA
		out.MinCGPA = &v
	}
	if c.ValidationErrors != nil {
		out.ValidationErrors = append([]string(nil), c.ValidationErrors...)
	}
	if c.SourceMessageIDs != nil {
		out.SourceMessageIDs = append([]string(nil), c.SourceMessageIDs...)
	}
	return &out
}

// FilledFields counts the populated extracted fields.
func (c *Candidate) FilledFields() int {
	n := 0
	for _, s := range []string{
		c.CompanyName, c.Role, string(c.DriveType), c.Batch, c.EligibleBranches,
		c.CTCOrStipend, c.JobLocation, c.RegistrationLink,
	} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if c.DriveDate != nil {
		n++
	}
	if c.RegistrationDeadline != nil {
		n++
	}
	if c.MinCGPA != nil {
		n++
	}
	return n
}

// Score derives the rule-based confidence from the populated fields. An
// inferred deadline counts half.
func (c *Candidate) Score() float64 {
	filled := float64(c.FilledFields())
	if c.DeadlineInferred && c.RegistrationDeadline != nil {
		filled -= 0.5
	}
	return ClampConfidence(filled / ConfidenceBase)
}

// AddError appends a validation error.
func (c *Candidate) AddError(msg string) {
	c.ValidationErrors = append(c.ValidationErrors, msg)
}

// Summary is the read-only view of an already stored drive used for duplicate checks.
type Summary struct {
	CompanyName          string `json:"company_name" yaml:"company_name"`
	Role                 string `json:"role,omitempty" yaml:"role,omitempty"`
	Batch                string `json:"batch,omitempty" yaml:"batch,omitempty"`
	RegistrationDeadline *Date  `json:"registration_deadline,omitempty" yaml:"registration_deadline,omitempty"`
}

// Summarize projects a candidate to its duplicate-check view.
func (c *Candidate) Summarize() Summary {
	s := Summary{CompanyName: c.CompanyName, Role: c.Role, Batch: c.Batch}
	if c.RegistrationDeadline != nil {
		d := *c.RegistrationDeadline
		s.RegistrationDeadline = &d
	}
	return s
}

// Partial carries fields proposed by an enhancement service. Nil means "no opinion".
type Partial struct {
	CompanyName          *string
	Role                 *string
	DriveType            *DriveType
	Batch                *string
	DriveDate            *Date
	RegistrationDeadline *Date
	EligibleBranches     *string
	MinCGPA              *float64
	CTCOrStipend         *string
	JobLocation          *string
	RegistrationLink     *string
}

// Count returns the number of non-nil fields.
func (p *Partial) Count() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, set := range []bool{
		p.CompanyName != nil, p.Role != nil, p.DriveType != nil, p.Batch != nil,
		p.DriveDate != nil, p.RegistrationDeadline != nil, p.EligibleBranches != nil,
		p.MinCGPA != nil, p.CTCOrStipend != nil, p.JobLocation != nil, p.RegistrationLink != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

// ClampConfidence bounds a score to [0,1].
func ClampConfidence(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
