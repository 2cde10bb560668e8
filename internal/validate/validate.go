// Package validate canonicalizes candidate fields and range-checks them.
// Invalid values are cleared and recorded as validation errors; a record is
// never rejected here.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/utils"
)

// ErrMissingCompany is recorded when a candidate has no company name.
const ErrMissingCompany = "missing company_name"

// checks holds the fields with declarative range rules.
type checks struct {
	MinCGPA          *float64 `json:"min_cgpa" validate:"omitempty,gt=0,lte=10"`
	RegistrationLink string   `json:"registration_link" validate:"omitempty,http_url"`
	Batch            string   `json:"batch" validate:"omitempty,len=4,numeric"`
}

type Validator struct {
	validate *validator.Validate
	logger   *zap.Logger
}

func New(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	return &Validator{validate: v, logger: logger}
}

// Validate returns a canonicalized copy of the candidate.
func (v *Validator) Validate(c *drive.Candidate) *drive.Candidate {
	out := c.Clone()
	if out == nil {
		out = &drive.Candidate{}
	}

	out.CompanyName = utils.TitleCase(out.CompanyName)
	if out.CompanyName == "" {
		out.NeedsReview = true
		out.AddError(ErrMissingCompany)
	}

	out.Role = utils.CollapseSpaces(out.Role)
	out.Batch = strings.TrimSpace(out.Batch)
	out.RegistrationLink = strings.TrimSpace(out.RegistrationLink)
	out.CTCOrStipend = utils.CollapseSpaces(out.CTCOrStipend)
	out.JobLocation = utils.CollapseSpaces(out.JobLocation)

	dt, err := NormalizeDriveType(out.DriveType)
	if err != nil {
		out.AddError(err.Error())
	}
	out.DriveType = dt

	out.EligibleBranches = CanonicalBranches(out.EligibleBranches)

	v.checkRanges(out)

	out.ConfidenceScore = drive.ClampConfidence(out.ConfidenceScore)

	if len(out.ValidationErrors) > 0 {
		v.logger.Debug("candidate failed validation",
			zap.String("company_name", out.CompanyName),
			zap.Strings("validation_errors", out.ValidationErrors),
		)
	}

	return out
}

func (v *Validator) checkRanges(c *drive.Candidate) {
	err := v.validate.Struct(checks{
		MinCGPA:          c.MinCGPA,
		RegistrationLink: c.RegistrationLink,
		Batch:            c.Batch,
	})
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		v.logger.Warn("unexpected validation failure", zap.Error(err))
		return
	}

	for _, fe := range fieldErrs {
		switch fe.Field() {
		case "min_cgpa":
			c.AddError(fmt.Sprintf("min_cgpa %v is outside (0,10]", *c.MinCGPA))
			c.MinCGPA = nil
		case "registration_link":
			c.AddError(fmt.Sprintf("registration_link %q is not a valid http(s) URL", c.RegistrationLink))
			c.RegistrationLink = ""
		case "batch":
			c.AddError(fmt.Sprintf("batch %q is not a 4-digit year", c.Batch))
			c.Batch = ""
		}
	}
}

// NormalizeDriveType maps free text onto the closed drive type vocabulary.
// Values that cannot be inferred are cleared and reported.
func NormalizeDriveType(dt drive.DriveType) (drive.DriveType, error) {
	raw := strings.ToLower(strings.TrimSpace(string(dt)))
	switch drive.DriveType(raw) {
	case drive.TypeUnset, drive.TypeInternship, drive.TypeFullTime, drive.TypeBoth:
		return drive.DriveType(raw), nil
	}

	intern := strings.Contains(raw, "intern")
	fullTime := strings.Contains(raw, "full") || strings.Contains(raw, "fte") || strings.Contains(raw, "permanent")

	switch {
	case strings.Contains(raw, "both"), intern && fullTime:
		return drive.TypeBoth, nil
	case intern:
		return drive.TypeInternship, nil
	case fullTime:
		return drive.TypeFullTime, nil
	}
	return drive.TypeUnset, fmt.Errorf("drive_type %q is not one of internship, full-time, both", string(dt))
}

// Long branch names and their codes, most specific first.
var branchAliases = []struct {
	re   *regexp.Regexp
	code string
}{
	{regexp.MustCompile(`COMPUTER\s+SCIENCE(?:\s+(?:AND|&)\s+ENGINEERING)?`), "CSE"},
	{regexp.MustCompile(`INFORMATION\s+TECHNOLOGY`), "IT"},
	{regexp.MustCompile(`ELECTRICAL\s+(?:AND|&)\s+ELECTRONICS(?:\s+ENGINEERING)?`), "EEE"},
	{regexp.MustCompile(`ELECTRONICS(?:\s+(?:AND|&)\s+(?:TELE)?COMMUNICATIONS?)?(?:\s+ENGINEERING)?`), "ECE"},
}

var (
	branchSepRe = regexp.MustCompile(`\s*(?:[,/;|\n]|\bAND\b)\s*`)
	allBranchRe = regexp.MustCompile(`^ALL(?:\s+THE)?\s+(?:BRANCH(?:ES)?|STREAMS|DISCIPLINES)$`)
)

// CanonicalBranches upper-cases the branch list, replaces long names with
// codes and joins the entries with ", ".
func CanonicalBranches(s string) string {
	s = strings.ToUpper(utils.CollapseSpaces(s))
	if s == "" {
		return ""
	}
	if allBranchRe.MatchString(s) {
		return drive.AllBranches
	}

	for _, alias := range branchAliases {
		s = alias.re.ReplaceAllString(s, alias.code)
	}

	var parts []string
	for _, p := range branchSepRe.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
