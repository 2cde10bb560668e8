package ai

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/highlight"
)

func strPtr(s string) *string { return &s }

func TestApplyOverridesAndKeepsHigherConfidence(t *testing.T) {
	t.Parallel()

	cgpa := 7.0
	c := &drive.Candidate{
		CompanyName:          "Acme",
		Role:                 "Engineer",
		CTCOrStipend:         "12 LPA",
		MinCGPA:              &cgpa,
		RegistrationDeadline: drive.MustDate(2025, time.December, 1),
		ConfidenceScore:      0.5,
		ExtractionMethod:     drive.MethodRules,
		DeadlineInferred:     true,
	}

	internship := drive.TypeInternship
	enh := &Enhancement{
		Fields: drive.Partial{
			Role:                 strPtr("SDE Intern"),
			DriveType:            &internship,
			RegistrationDeadline: drive.MustDate(2025, time.December, 11),
		},
		Confidence: 0.375,
	}

	Apply(c, enh)

	if c.Role != "SDE Intern" {
		t.Fatalf("expected role override, got %q", c.Role)
	}
	if c.CompanyName != "Acme" || c.CTCOrStipend != "12 LPA" || *c.MinCGPA != 7.0 {
		t.Fatalf("fields without a proposal must be kept: %+v", c)
	}
	if c.DriveType != drive.TypeInternship {
		t.Fatalf("unexpected drive type %q", c.DriveType)
	}
	if got := c.RegistrationDeadline.String(); got != "2025-12-11" {
		t.Fatalf("unexpected deadline %s", got)
	}
	if c.DeadlineInferred {
		t.Fatalf("a proposed deadline is not inferred")
	}
	if c.ConfidenceScore != 0.5 {
		t.Fatalf("expected rule confidence to win, got %v", c.ConfidenceScore)
	}
	if c.ExtractionMethod != drive.MethodRulesAI {
		t.Fatalf("unexpected method %q", c.ExtractionMethod)
	}

	Apply(c, &Enhancement{Confidence: 3})
	if c.ConfidenceScore != 1 {
		t.Fatalf("expected clamped confidence 1, got %v", c.ConfidenceScore)
	}
}

func TestApplyNilEnhancementIsNoop(t *testing.T) {
	t.Parallel()

	c := &drive.Candidate{CompanyName: "Acme", ExtractionMethod: drive.MethodRules}
	Apply(c, nil)
	if c.ExtractionMethod != drive.MethodRules {
		t.Fatalf("method must stay rule-based without an enhancement")
	}
}

func TestRequestBody(t *testing.T) {
	t.Parallel()

	req := Request{
		Subject:  "Acme Drive",
		Text:     "Apply now",
		Excerpts: highlight.Excerpts{{Kind: highlight.KindURL, Value: "https://acme.example/apply"}},
	}
	want := "EXTRACTED:\nIMPORTANT EXCERPTS:\n- URL: https://acme.example/apply\n\nEMAIL:\nApply now"
	if got := req.Body(); got != want {
		t.Fatalf("unexpected body:\n%q\nwant:\n%q", got, want)
	}

	long := Request{Text: strings.Repeat("é", MaxTextRunes*2)}
	if n := utf8.RuneCountInString(long.Body()); n != MaxTextRunes {
		t.Fatalf("expected body capped to %d runes, got %d", MaxTextRunes, n)
	}
}

func TestDecodeFields(t *testing.T) {
	t.Parallel()

	p, err := DecodeFields(map[string]any{
		"company_name":          " Acme ",
		"role":                  []any{"SDE", "SWE"},
		"drive_type":            "FTE",
		"batch":                 float64(2026),
		"drive_date":            "2026-02-30",
		"registration_deadline": "2026-01-10",
		"eligible_branches":     nil,
		"min_cgpa":              "7.5/10",
		"ctc_or_stipend":        "",
		"job_location":          "null",
		"registration_link":     "https://acme.example/apply",
		"unknown":               true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.CompanyName == nil || *p.CompanyName != "Acme" {
		t.Fatalf("unexpected company %v", p.CompanyName)
	}
	if p.Role == nil || *p.Role != "SDE, SWE" {
		t.Fatalf("expected joined roles, got %v", p.Role)
	}
	if p.DriveType == nil || *p.DriveType != "fte" {
		t.Fatalf("unexpected drive type %v", p.DriveType)
	}
	if p.Batch == nil || *p.Batch != "2026" {
		t.Fatalf("unexpected batch %v", p.Batch)
	}
	if p.DriveDate != nil {
		t.Fatalf("impossible date must be dropped, got %v", p.DriveDate)
	}
	if p.RegistrationDeadline.String() != "2026-01-10" {
		t.Fatalf("unexpected deadline %v", p.RegistrationDeadline)
	}
	if p.MinCGPA == nil || *p.MinCGPA != 7.5 {
		t.Fatalf("unexpected cgpa %v", p.MinCGPA)
	}
	if p.EligibleBranches != nil || p.CTCOrStipend != nil || p.JobLocation != nil {
		t.Fatalf("null and empty values must be dropped: %+v", p)
	}
	if got := p.Count(); got != 7 {
		t.Fatalf("expected 7 proposed fields, got %d", got)
	}
	if got := Confidence(p); got != 7.0/8 {
		t.Fatalf("unexpected confidence %v", got)
	}
}

func TestDecodeFieldsRejectsWrongShape(t *testing.T) {
	t.Parallel()

	_, err := DecodeFields(map[string]any{"company_name": map[string]any{"name": "Acme"}})
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}
