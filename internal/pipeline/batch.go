package pipeline

import (
	"context"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/drive-extractor/internal/drive"
)

// RunBatch runs every message in parallel with at most workers runs at a
// time. Each run gets its own copy of the snapshot. Records are returned in
// input order.
func (p *Pipeline) RunBatch(ctx context.Context, msgs []drive.Message, snapshot []drive.Summary, workers int) []*Record {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	records := make([]*Record, len(msgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range msgs {
		i := i
		g.Go(func() error {
			records[i] = p.Run(ctx, msgs[i], cloneSnapshot(snapshot))
			return nil
		})
	}
	// Runs never return errors.
	_ = g.Wait()

	counts := make(map[Status]int)
	for _, rec := range records {
		counts[rec.Status]++
	}
	p.logger.Info("batch finished",
		zap.Int("messages", len(msgs)),
		zap.Int("ready", counts[StatusReady]),
		zap.Int("duplicate", counts[StatusDuplicate]),
		zap.Int("filtered", counts[StatusFiltered]),
		zap.Int("needs_review", counts[StatusNeedsReview]),
		zap.Int("failed", counts[StatusFailed]),
	)

	return records
}

func cloneSnapshot(snapshot []drive.Summary) []drive.Summary {
	if snapshot == nil {
		return nil
	}

	out := make([]drive.Summary, len(snapshot))
	for i, s := range snapshot {
		if s.RegistrationDeadline != nil {
			d := *s.RegistrationDeadline
			s.RegistrationDeadline = &d
		}
		out[i] = s
	}
	return out
}

// Ready returns the candidates of READY records in record order.
func Ready(records []*Record) []*drive.Candidate {
	var out []*drive.Candidate
	for _, rec := range records {
		if rec != nil && rec.Status == StatusReady && rec.Candidate != nil {
			out = append(out, rec.Candidate)
		}
	}
	return out
}

// Output is the record shape handed to the storage collaborator.
type Output struct {
	RunID      string `json:"run_id"`
	MessageID  string `json:"message_id"`
	Status     Status `json:"status"`
	Diagnostic string `json:"diagnostic,omitempty"`
	*drive.Candidate
	DuplicateOf *drive.Summary `json:"duplicate_of,omitempty"`
}

func (r *Record) Output() Output {
	return Output{
		RunID:       r.ID,
		MessageID:   r.Message.ID,
		Status:      r.Status,
		Diagnostic:  r.Diagnostic,
		Candidate:   r.Candidate,
		DuplicateOf: r.Duplicate,
	}
}

// Flagged returns the records that ended in NEEDS_REVIEW or FAILED.
func Flagged(records []*Record) []*Record {
	var out []*Record
	for _, rec := range records {
		if rec != nil && (rec.Status == StatusNeedsReview || rec.Status == StatusFailed) {
			out = append(out, rec)
		}
	}
	return out
}
