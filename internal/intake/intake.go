// Package intake decides whether an inbound message is a placement
// announcement from a trusted sender before any extraction work is done.
package intake

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/drive"
)

// DefaultScanChars is how much of the body the keyword filter reads.
const DefaultScanChars = 500

// DefaultKeywords are phrases that mark a placement announcement.
var DefaultKeywords = []string{
	"campus drive", "recruitment drive", "campus recruitment",
	"placement drive", "pool campus", "hiring drive",
	"internship drive", "fte drive", "full time drive",
	"campus hiring", "off campus", "on campus", "placement opportunity",
	"online test", "aptitude test", "coding test", "technical test",
	"company visit", "company drive", "batch 202", "passing out",
}

// Filter represents a single intake check applied to a message.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(msg *drive.Message) Decision
}

// Decision is the outcome of a filter for one message.
type Decision struct {
	Pass   bool
	Reason string
}

// Config contains the allow-lists consumed by the filters.
type Config struct {
	AllowedSenders []string `mapstructure:"allowed-senders"`
	AllowedDomains []string `mapstructure:"allowed-domains"`
	Keywords       []string `mapstructure:"keywords"`
	ScanChars      int      `mapstructure:"scan-chars" validate:"gte=0"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Step describes how many messages a filter let through in a batch.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Chain runs the filters in order; the first rejection wins.
type Chain struct {
	steps  []Filter
	logger *zap.Logger
}

// NewChain validates every enabled filter against the configuration.
func NewChain(cfg *Config, logger *zap.Logger, steps ...Filter) (*Chain, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return &Chain{steps: steps, logger: logger}, nil
}

// Default builds the sender and keyword filters.
func Default(cfg *Config, logger *zap.Logger) (*Chain, error) {
	return NewChain(cfg, logger, NewSender(), NewKeywords())
}

// Admit applies the enabled filters to the message.
func (c *Chain) Admit(msg *drive.Message) Decision {
	if c == nil {
		return Decision{Pass: true}
	}

	for _, step := range c.steps {
		if !step.IsEnabled() {
			continue
		}
		if d := step.Apply(msg); !d.Pass {
			c.logger.Debug("message rejected by intake filter",
				zap.String("name", step.Name()),
				zap.String("reason", d.Reason),
			)
			return d
		}
	}
	return Decision{Pass: true}
}

// Run filters a batch and reports how many messages each step dropped.
func (c *Chain) Run(msgs []drive.Message) []drive.Message {
	left := msgs
	for _, step := range c.steps {
		if !step.IsEnabled() {
			c.logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}

		kept := make([]drive.Message, 0, len(left))
		for i := range left {
			if step.Apply(&left[i]).Pass {
				kept = append(kept, left[i])
			}
		}

		info := Step{Initial: len(left), Dropped: len(left) - len(kept), Left: len(kept)}
		c.logger.Info("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)
		left = kept
	}
	return left
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func (c *Chain) DisableByName(name, reason string) {
	for _, step := range c.steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the filters.
func (c *Chain) Describe() []Status {
	statuses := make([]Status, 0, len(c.steps))
	for _, step := range c.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
