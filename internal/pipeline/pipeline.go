// Package pipeline runs a single message through intake, normalization,
// extraction, optional enhancement, validation and duplicate detection as a
// finite-state machine with one named stage per step.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/ai"
	"github.com/spigell/drive-extractor/internal/dedup"
	"github.com/spigell/drive-extractor/internal/drive"
	"github.com/spigell/drive-extractor/internal/extract"
	"github.com/spigell/drive-extractor/internal/highlight"
	"github.com/spigell/drive-extractor/internal/intake"
	"github.com/spigell/drive-extractor/internal/logger"
	"github.com/spigell/drive-extractor/internal/normalize"
	"github.com/spigell/drive-extractor/internal/validate"
)

// DefaultEnhanceTimeout bounds a single enhancement call.
const DefaultEnhanceTimeout = 20 * time.Second

// Record owns a message and everything derived from it during one run.
type Record struct {
	ID             string
	Message        drive.Message
	NormalizedText string
	CappedText     string
	Excerpts       highlight.Excerpts
	Candidate      *drive.Candidate
	Status         Status
	History        []Transition
	Diagnostic     string
	// Duplicate is the stored drive the candidate matched.
	Duplicate *drive.Summary
	// Degraded is set when the body markup could not be parsed.
	Degraded bool
	// Enhanced is set when an enhancement was merged into the candidate.
	Enhanced bool
}

// Options configure a Pipeline. Nil components fall back to defaults; a nil
// Intake admits every message and a nil Enhancer disables enhancement.
type Options struct {
	Intake         *intake.Chain
	Normalizer     *normalize.Normalizer
	Extractor      *extract.Extractor
	Enhancer       ai.Enhancer
	EnhanceTimeout time.Duration
	Validator      *validate.Validator
	Logger         *zap.Logger
	Clock          func() time.Time
}

type stage struct {
	name string
	run  func(ctx context.Context, rec *Record, snapshot []drive.Summary, log *zap.Logger) error
}

// Pipeline is safe for concurrent use as long as its components are.
type Pipeline struct {
	intake         *intake.Chain
	normalizer     *normalize.Normalizer
	extractor      *extract.Extractor
	enhancer       ai.Enhancer
	enhanceTimeout time.Duration
	validator      *validate.Validator
	logger         *zap.Logger
	now            func() time.Time
	stages         []stage
}

func New(opts Options) *Pipeline {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	p := &Pipeline{
		intake:         opts.Intake,
		normalizer:     opts.Normalizer,
		extractor:      opts.Extractor,
		enhancer:       opts.Enhancer,
		enhanceTimeout: opts.EnhanceTimeout,
		validator:      opts.Validator,
		logger:         log,
		now:            opts.Clock,
	}

	if p.normalizer == nil {
		p.normalizer = normalize.New(normalize.Options{}, log)
	}
	if p.extractor == nil {
		p.extractor = extract.New(extract.WithLogger(log), extract.WithClock(opts.Clock))
	}
	if p.validator == nil {
		p.validator = validate.New(log)
	}
	if p.enhanceTimeout <= 0 {
		p.enhanceTimeout = DefaultEnhanceTimeout
	}
	if p.now == nil {
		p.now = time.Now
	}

	p.stages = []stage{
		{name: "intake", run: p.admit},
		{name: "extract", run: p.extract},
		{name: "validate", run: p.validate},
		{name: "dedup", run: p.dedup},
	}
	return p
}

// Run processes one message against a snapshot of stored drives. It always
// returns a record in a terminal status or in NEEDS_REVIEW; no error or
// panic escapes.
func (p *Pipeline) Run(ctx context.Context, msg drive.Message, snapshot []drive.Summary) *Record {
	rec := &Record{ID: uuid.NewString(), Message: msg, Status: StatusPending}
	log := logger.WithMessage(p.logger, rec.ID, msg.ID, msg.Sender)

	for _, st := range p.stages {
		if err := p.runStage(ctx, st, rec, snapshot, log); err != nil {
			p.fail(rec, err)
		}

		log.Debug("stage finished", zap.String(logger.FieldStage, st.name), zap.String("status", string(rec.Status)))

		if finished(rec) {
			break
		}
	}

	fields := []zap.Field{zap.String("status", string(rec.Status))}
	if rec.Diagnostic != "" {
		fields = append(fields, zap.String("diagnostic", rec.Diagnostic))
	}
	if rec.Candidate != nil {
		fields = append(fields,
			zap.String("company_name", rec.Candidate.CompanyName),
			zap.Float64("confidence", rec.Candidate.ConfidenceScore),
		)
	}
	log.Info("pipeline run finished", fields...)

	return rec
}

// finished is the short-circuit predicate evaluated after every stage. A
// record that needs review because it has no company can never become READY.
func finished(rec *Record) bool {
	if rec.Status.Terminal() {
		return true
	}
	return rec.Status == StatusNeedsReview && !hasCompany(rec.Candidate)
}

func hasCompany(c *drive.Candidate) bool {
	return c != nil && strings.TrimSpace(c.CompanyName) != ""
}

func (p *Pipeline) runStage(ctx context.Context, st stage, rec *Record, snapshot []drive.Summary, log *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", st.name, r)
		}
	}()

	if err := st.run(ctx, rec, snapshot, log); err != nil {
		return fmt.Errorf("stage %s: %w", st.name, err)
	}
	return nil
}

// fail ends the run. FAILED is reachable from any non-terminal status when a
// stage breaks.
func (p *Pipeline) fail(rec *Record, err error) {
	if rec.Status.Terminal() {
		return
	}
	rec.History = append(rec.History, Transition{From: rec.Status, To: StatusFailed, At: p.now()})
	rec.Status = StatusFailed
	rec.Diagnostic = err.Error()
}

func (p *Pipeline) admit(_ context.Context, rec *Record, _ []drive.Summary, _ *zap.Logger) error {
	d := p.intake.Admit(&rec.Message)
	if d.Pass {
		return nil
	}

	rec.Diagnostic = d.Reason
	return rec.advance(StatusFiltered, p.now())
}

var errNoContent = errors.New("message has no subject and no text")

func (p *Pipeline) extract(ctx context.Context, rec *Record, _ []drive.Summary, log *zap.Logger) error {
	res := p.normalizer.Normalize(rec.Message.RawBody)
	rec.NormalizedText = res.Text
	rec.CappedText = res.Capped
	rec.Degraded = res.Degraded

	if res.Degraded {
		log.Warn("markup could not be parsed, tags were stripped")
	}

	if strings.TrimSpace(res.Text) == "" && strings.TrimSpace(rec.Message.Subject) == "" {
		return errNoContent
	}

	rec.Excerpts = highlight.Highlight(res.Capped)
	rec.Candidate = p.extractor.Extract(rec.Message.Subject, res.Text, rec.Excerpts)
	if rec.Message.ID != "" {
		rec.Candidate.SourceMessageIDs = []string{rec.Message.ID}
	}

	p.enhance(ctx, rec, log)

	return rec.advance(StatusExtracted, p.now())
}

// enhance calls the enhancement service once. Failures keep the rule-based result.
func (p *Pipeline) enhance(ctx context.Context, rec *Record, log *zap.Logger) {
	if p.enhancer == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, p.enhanceTimeout)
	defer cancel()

	enh, err := p.callEnhancer(ctx, rec)
	if err == nil && enh == nil {
		err = fmt.Errorf("%w: empty enhancement", ai.ErrUnavailable)
	}
	if err != nil {
		if errors.Is(err, ai.ErrUnavailable) {
			log.Debug("enhancement skipped", zap.Error(err))
			return
		}
		log.Warn("enhancement failed, keeping rule-based result", zap.Error(err))
		return
	}

	ai.Apply(rec.Candidate, enh)
	rec.Enhanced = true
	log.Debug("enhancement applied",
		zap.Int("proposed_fields", enh.Fields.Count()),
		zap.Float64("confidence", rec.Candidate.ConfidenceScore),
	)
}

// callEnhancer turns a panicking enhancer into an error so the extraction
// stage keeps its rule-based candidate.
func (p *Pipeline) callEnhancer(ctx context.Context, rec *Record) (enh *ai.Enhancement, err error) {
	defer func() {
		if r := recover(); r != nil {
			enh, err = nil, fmt.Errorf("enhancer panicked: %v", r)
		}
	}()

	return p.enhancer.Enhance(ctx, ai.Request{
		Subject:  rec.Message.Subject,
		Text:     rec.CappedText,
		Excerpts: rec.Excerpts,
	})
}

func (p *Pipeline) validate(_ context.Context, rec *Record, _ []drive.Summary, _ *zap.Logger) error {
	rec.Candidate = p.validator.Validate(rec.Candidate)
	if rec.Candidate.NeedsReview {
		rec.Diagnostic = strings.Join(rec.Candidate.ValidationErrors, "; ")
		return rec.advance(StatusNeedsReview, p.now())
	}
	return rec.advance(StatusValidated, p.now())
}

func (p *Pipeline) dedup(_ context.Context, rec *Record, snapshot []drive.Summary, _ *zap.Logger) error {
	if match, ok := dedup.Find(rec.Candidate, snapshot); ok {
		rec.Duplicate = match
		rec.Diagnostic = fmt.Sprintf("duplicate of %s", describe(match))
		return rec.advance(StatusDuplicate, p.now())
	}
	return rec.advance(StatusReady, p.now())
}

func describe(s *drive.Summary) string {
	parts := []string{s.CompanyName}
	if s.Role != "" {
		parts = append(parts, s.Role)
	}
	if s.RegistrationDeadline != nil {
		parts = append(parts, s.RegistrationDeadline.String())
	}
	return strings.Join(parts, " / ")
}
