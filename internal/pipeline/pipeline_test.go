package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/drive-extractor/internal/ai"
	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/intake"
	"github.com/spigell/drive-extractor/internal/validate"
)

func fixedClock() time.Time {
	return time.Date(2025, time.November, 20, 0, 0, 0, 0, time.UTC)
}

type fakeEnhancer struct {
	enh     *ai.Enhancement
	err     error
	explode bool
	block   bool
	calls   atomic.Int32
}

func (f *fakeEnhancer) Enhance(ctx context.Context, _ ai.Request) (*ai.Enhancement, error) {
	f.calls.Add(1)
	if f.explode {
		panic("enhancer exploded")
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.enh, f.err
}

func acmeMessage(id string) drive.Message {
	return drive.Message{
		ID:      id,
		Sender:  "Placement Cell <tpo@college.edu>",
		Subject: "Campus Recruitment Drive || Acme Technologies Pvt Ltd || 2026 Batch",
		RawBody: strings.Join([]string{
			"<p>Dear Students,</p>",
			"<p>Role: Software Engineer</p>",
			"<p>Eligibility: B.Tech CSE, IT, ECE with minimum CGPA 7.0</p>",
			"<p>CTC: 12 LPA</p>",
			"<p>Location: Pune</p>",
			"<p>Last date to apply: 11th December 2025</p>",
			"<p>Drive date: 15/12/2025</p>",
			`<p>Register <a href="https://forms.example.com/acme-register">here</a></p>`,
			"<p>Thanks &amp; Regards</p>",
			"<p>Training and Placement Office</p>",
		}, "\n"),
	}
}

func newTestPipeline(t *testing.T, enhancer ai.Enhancer, log *zap.Logger) *Pipeline {
	t.Helper()

	chain, err := intake.Default(&intake.Config{AllowedDomains: []string{"college.edu"}}, log)
	if err != nil {
		t.Fatalf("building intake chain: %v", err)
	}

	opts := Options{
		Intake: chain,
		Logger: log,
		Clock:  fixedClock,
	}
	if enhancer != nil {
		opts.Enhancer = enhancer
		opts.EnhanceTimeout = 50 * time.Millisecond
	}
	return New(opts)
}

func statuses(rec *Record) []Status {
	out := []Status{StatusPending}
	for _, tr := range rec.History {
		out = append(out, tr.To)
	}
	return out
}

func equalStatuses(a, b []Status) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRunReady(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	rec := p.Run(context.Background(), acmeMessage("m1"), nil)

	if rec.Status != StatusReady {
		t.Fatalf("expected READY, got %s (%s)", rec.Status, rec.Diagnostic)
	}
	want := []Status{StatusPending, StatusExtracted, StatusValidated, StatusReady}
	if got := statuses(rec); !equalStatuses(got, want) {
		t.Fatalf("unexpected history: %v", got)
	}

	c := rec.Candidate
	if c.CompanyName != "Acme Technologies" {
		t.Fatalf("unexpected company: %q", c.CompanyName)
	}
	if c.RegistrationLink != "https://forms.example.com/acme-register" {
		t.Fatalf("unexpected link: %q", c.RegistrationLink)
	}
	if c.RegistrationDeadline.String() != "2025-12-11" {
		t.Fatalf("unexpected deadline: %s", c.RegistrationDeadline)
	}
	if c.ExtractionMethod != drive.MethodRules {
		t.Fatalf("expected rule-based method, got %s", c.ExtractionMethod)
	}
	if len(c.SourceMessageIDs) != 1 || c.SourceMessageIDs[0] != "m1" {
		t.Fatalf("expected the source message id, got %v", c.SourceMessageIDs)
	}
	if strings.Contains(rec.NormalizedText, "Training and Placement Office") {
		t.Fatalf("signature must be removed from normalized text: %q", rec.NormalizedText)
	}
	if len(rec.Excerpts) == 0 {
		t.Fatalf("expected highlighted excerpts")
	}
	if rec.ID == "" {
		t.Fatalf("expected a run id")
	}
}

func TestRunIsIdempotent(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	first := p.Run(context.Background(), acmeMessage("m1"), nil)
	second := p.Run(context.Background(), acmeMessage("m1"), nil)

	a, _ := json.Marshal(first.Candidate)
	b, _ := json.Marshal(second.Candidate)
	if string(a) != string(b) || first.Status != second.Status {
		t.Fatalf("expected identical results:\n%s\n%s", a, b)
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct run ids")
	}
}

func TestRunFiltered(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	tests := []struct {
		name string
		msg  drive.Message
	}{
		{
			name: "untrusted sender",
			msg:  drive.Message{ID: "x", Sender: "spam@example.com", Subject: "Acme Campus Drive", RawBody: "hello"},
		},
		{
			name: "not a placement message",
			msg:  drive.Message{ID: "y", Sender: "tpo@college.edu", Subject: "Library timings", RawBody: "Closed on Sunday."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := p.Run(context.Background(), tt.msg, nil)
			if rec.Status != StatusFiltered {
				t.Fatalf("expected FILTERED, got %s", rec.Status)
			}
			if rec.Diagnostic == "" {
				t.Fatalf("expected a diagnostic")
			}
			if rec.Candidate != nil {
				t.Fatalf("filtered messages must not be extracted")
			}
		})
	}
}

func TestRunDuplicate(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	snapshot := []drive.Summary{
		{CompanyName: "Globex"},
		{CompanyName: "acme  technologies", Batch: "2026", RegistrationDeadline: drive.MustDate(2025, time.December, 11)},
	}

	rec := p.Run(context.Background(), acmeMessage("m1"), snapshot)

	if rec.Status != StatusDuplicate {
		t.Fatalf("expected DUPLICATE, got %s", rec.Status)
	}
	if rec.Duplicate == nil || rec.Duplicate.CompanyName != "acme  technologies" {
		t.Fatalf("expected matched summary, got %+v", rec.Duplicate)
	}
	if !strings.Contains(rec.Diagnostic, "duplicate of") {
		t.Fatalf("unexpected diagnostic: %q", rec.Diagnostic)
	}
}

func TestRunNeedsReviewWithoutCompanyIsTerminal(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	msg := acmeMessage("m2")
	msg.Subject = "Placement Drive - Campus Hiring 2026"

	rec := p.Run(context.Background(), msg, nil)

	if rec.Status != StatusNeedsReview {
		t.Fatalf("expected NEEDS_REVIEW, got %s", rec.Status)
	}
	if !rec.Candidate.NeedsReview {
		t.Fatalf("expected candidate to be flagged")
	}
	if !strings.Contains(rec.Diagnostic, validate.ErrMissingCompany) {
		t.Fatalf("unexpected diagnostic: %q", rec.Diagnostic)
	}
	if len(Ready([]*Record{rec})) != 0 {
		t.Fatalf("a record without company must never be ready")
	}
}

func TestRunWithoutContentFails(t *testing.T) {
	p := New(Options{Clock: fixedClock})

	rec := p.Run(context.Background(), drive.Message{ID: "empty", RawBody: "  <div></div> "}, nil)

	if rec.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", rec.Status)
	}
	if !strings.Contains(rec.Diagnostic, errNoContent.Error()) {
		t.Fatalf("unexpected diagnostic: %q", rec.Diagnostic)
	}
}

type explodingFilter struct{}

func (explodingFilter) Name() string { return "exploding" }
func (explodingFilter) Disable(string) {}
func (explodingFilter) IsEnabled() bool { return true }
func (explodingFilter) Validate(*intake.Config) error { return nil }
func (explodingFilter) Apply(*drive.Message) intake.Decision { panic("filter exploded") }

func TestRunRecoversFromStagePanic(t *testing.T) {
	chain, err := intake.NewChain(nil, nil, explodingFilter{})
	if err != nil {
		t.Fatalf("building intake chain: %v", err)
	}
	p := New(Options{Intake: chain, Clock: fixedClock})

	rec := p.Run(context.Background(), acmeMessage("m1"), nil)

	if rec.Status != StatusFailed {
		t.Fatalf("expected FAILED, got %s", rec.Status)
	}
	if !strings.Contains(rec.Diagnostic, "stage intake panicked: filter exploded") {
		t.Fatalf("unexpected diagnostic: %q", rec.Diagnostic)
	}
}

func TestRunKeepsRuleResultWhenEnhancerMisbehaves(t *testing.T) {
	tests := []struct {
		name     string
		enhancer *fakeEnhancer
	}{
		{"panic", &fakeEnhancer{explode: true}},
		{"nil enhancement", &fakeEnhancer{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.enhancer, nil)

			rec := p.Run(context.Background(), acmeMessage("m1"), nil)

			if rec.Status != StatusReady {
				t.Fatalf("expected READY, got %s (%s)", rec.Status, rec.Diagnostic)
			}
			if rec.Candidate.ExtractionMethod != drive.MethodRules {
				t.Fatalf("expected rule-based result, got %s", rec.Candidate.ExtractionMethod)
			}
			if rec.Candidate.CompanyName != "Acme Technologies" {
				t.Fatalf("unexpected company: %q", rec.Candidate.CompanyName)
			}
			if rec.Enhanced {
				t.Fatalf("record must not be marked as enhanced")
			}
		})
	}
}

func TestRunAppliesEnhancement(t *testing.T) {
	role := "SDE Intern"
	dt := drive.TypeInternship
	enhancer := &fakeEnhancer{enh: &ai.Enhancement{
		Fields:     drive.Partial{Role: &role, DriveType: &dt},
		Confidence: 0.2,
	}}
	p := newTestPipeline(t, enhancer, nil)

	rec := p.Run(context.Background(), acmeMessage("m1"), nil)

	if rec.Status != StatusReady {
		t.Fatalf("expected READY, got %s", rec.Status)
	}
	c := rec.Candidate
	if c.Role != "SDE Intern" || c.DriveType != drive.TypeInternship {
		t.Fatalf("expected enhancement fields to override, got role %q type %q", c.Role, c.DriveType)
	}
	if c.ExtractionMethod != drive.MethodRulesAI {
		t.Fatalf("expected rule+ai method, got %s", c.ExtractionMethod)
	}
	if c.ConfidenceScore != 1 {
		t.Fatalf("expected the higher rule confidence to be kept, got %v", c.ConfidenceScore)
	}
	if !rec.Enhanced {
		t.Fatalf("expected record to be marked as enhanced")
	}
}

func TestRunDegradesOnEnhancementFailure(t *testing.T) {
	tests := []struct {
		name     string
		enhancer *fakeEnhancer
		level    zapcore.Level
	}{
		{"service error", &fakeEnhancer{err: &ai.ServiceError{StatusCode: 503, Message: "down"}}, zapcore.WarnLevel},
		{"timeout", &fakeEnhancer{block: true}, zapcore.WarnLevel},
		{"unavailable", &fakeEnhancer{err: fmt.Errorf("gemini: %w", ai.ErrUnavailable)}, zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, observed := observer.New(zapcore.DebugLevel)
			p := newTestPipeline(t, tt.enhancer, zap.New(core))

			rec := p.Run(context.Background(), acmeMessage("m1"), nil)

			if rec.Status != StatusReady {
				t.Fatalf("expected READY, got %s (%s)", rec.Status, rec.Diagnostic)
			}
			if rec.Candidate.ExtractionMethod != drive.MethodRules {
				t.Fatalf("expected rule-based result, got %s", rec.Candidate.ExtractionMethod)
			}
			if tt.enhancer.calls.Load() != 1 {
				t.Fatalf("expected exactly one enhancement call, got %d", tt.enhancer.calls.Load())
			}

			found := false
			for _, entry := range observed.All() {
				if strings.HasPrefix(entry.Message, "enhancement") && entry.Level == tt.level {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected enhancement log at %s level", tt.level)
			}
		})
	}
}

func TestRunLogsMessageFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	p := newTestPipeline(t, nil, zap.New(core))

	rec := p.Run(context.Background(), acmeMessage("m1"), nil)

	entries := observed.FilterMessage("pipeline run finished").All()
	if len(entries) != 1 {
		t.Fatalf("expected one finish entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["message_id"] != "m1" || ctx["run_id"] != rec.ID || ctx["status"] != string(StatusReady) {
		t.Fatalf("unexpected context: %v", ctx)
	}
}

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusFiltered, true},
		{StatusPending, StatusExtracted, true},
		{StatusPending, StatusReady, false},
		{StatusExtracted, StatusNeedsReview, true},
		{StatusExtracted, StatusPending, false},
		{StatusValidated, StatusReady, true},
		{StatusNeedsReview, StatusDuplicate, true},
		{StatusReady, StatusValidated, false},
		{StatusFiltered, StatusExtracted, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	for _, s := range []Status{StatusFiltered, StatusFailed, StatusDuplicate, StatusReady} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}

	rec := &Record{Status: StatusReady}
	if err := rec.advance(StatusValidated, fixedClock()); err == nil {
		t.Fatalf("expected an error for a backward transition")
	}
	if rec.Status != StatusReady || len(rec.History) != 0 {
		t.Fatalf("a rejected transition must not change the record")
	}
}

func TestRunBatchKeepsOrderAndSnapshots(t *testing.T) {
	p := newTestPipeline(t, nil, nil)

	msgs := []drive.Message{
		acmeMessage("a"),
		{ID: "b", Sender: "tpo@college.edu", Subject: "Lunch", RawBody: "menu"},
		acmeMessage("c"),
		{ID: "d", Sender: "tpo@college.edu", Subject: "Globex Internship Drive", RawBody: "Stipend: 40,000/month. Apply at https://globex.example/careers"},
	}
	snapshot := []drive.Summary{{CompanyName: "Initech", RegistrationDeadline: drive.MustDate(2026, time.January, 1)}}

	records := p.RunBatch(context.Background(), msgs, snapshot, 2)

	if len(records) != len(msgs) {
		t.Fatalf("expected %d records, got %d", len(msgs), len(records))
	}
	for i, rec := range records {
		if rec.Message.ID != msgs[i].ID {
			t.Fatalf("record %d belongs to %s", i, rec.Message.ID)
		}
	}

	want := []Status{StatusReady, StatusFiltered, StatusReady, StatusReady}
	for i, rec := range records {
		if rec.Status != want[i] {
			t.Fatalf("record %s: expected %s, got %s (%s)", rec.Message.ID, want[i], rec.Status, rec.Diagnostic)
		}
	}

	ready := Ready(records)
	if len(ready) != 3 || ready[2].CompanyName != "Globex" {
		t.Fatalf("unexpected ready candidates: %d", len(ready))
	}
	if snapshot[0].RegistrationDeadline.String() != "2026-01-01" {
		t.Fatalf("snapshot must not be modified")
	}
}

func TestOutputJSON(t *testing.T) {
	p := newTestPipeline(t, nil, nil)
	rec := p.Run(context.Background(), acmeMessage("m1"), nil)

	raw, err := json.Marshal(rec.Output())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for key, want := range map[string]any{
		"status":                "READY",
		"message_id":            "m1",
		"company_name":          "Acme Technologies",
		"registration_deadline": "2025-12-11",
		"extraction_method":     "rule-based",
	} {
		if decoded[key] != want {
			t.Fatalf("expected %s=%v, got %v", key, want, decoded[key])
		}
	}
	if _, ok := decoded["duplicate_of"]; ok {
		t.Fatalf("duplicate_of must be omitted")
	}

	filtered := p.Run(context.Background(), drive.Message{ID: "f", Sender: "x@y.z"}, nil)
	if _, err := json.Marshal(filtered.Output()); err != nil {
		t.Fatalf("marshal filtered output: %v", err)
	}
}

func TestFlagged(t *testing.T) {
	records := []*Record{
		{Status: StatusReady},
		{Status: StatusNeedsReview},
		nil,
		{Status: StatusFailed, Diagnostic: errors.New("boom").Error()},
	}
	if got := Flagged(records); len(got) != 2 {
		t.Fatalf("expected 2 flagged records, got %d", len(got))
	}
}
