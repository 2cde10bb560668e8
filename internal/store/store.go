// Package store keeps the JSON drives file that stands in for the drive
// database: it provides the existing-drive snapshot and receives READY drives.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/spigell/drive-extractor/internal/drive"
)

type Drives struct {
	Items []*Entry `json:"items"`
}

type Entry struct {
	ID         string           `json:"id"`
	// MessageIDs are the messages the drive was extracted from.
	MessageIDs []string         `json:"message_ids,omitempty"`
	Drive      *drive.Candidate `json:"drive"`
	SavedAt    time.Time        `json:"saved_at"`
}

// reportRow is the flattened view of an entry used by ReportByCompany.
type reportRow struct {
	Role       string `mapstructure:"role,omitempty"`
	Type       string `mapstructure:"type,omitempty"`
	Batch      string `mapstructure:"batch,omitempty"`
	Deadline   string `mapstructure:"deadline,omitempty"`
	DriveDate  string `mapstructure:"drive date,omitempty"`
	Branches   string `mapstructure:"branches,omitempty"`
	CGPA       string `mapstructure:"min cgpa,omitempty"`
	Offer      string `mapstructure:"ctc or stipend,omitempty"`
	Location   string `mapstructure:"location,omitempty"`
	Link       string `mapstructure:"link,omitempty"`
	Confidence string `mapstructure:"confidence"`
	Method     string `mapstructure:"method"`
}

// FromCandidates wraps candidates into new entries with fresh IDs.
// Candidates without a company are skipped.
func FromCandidates(candidates []*drive.Candidate, now time.Time) *Drives {
	d := &Drives{}
	for _, c := range candidates {
		if c == nil || strings.TrimSpace(c.CompanyName) == "" {
			continue
		}
		d.Items = append(d.Items, &Entry{
			ID:         uuid.NewString(),
			MessageIDs: append([]string(nil), c.SourceMessageIDs...),
			Drive:      c.Clone(),
			SavedAt:    now.UTC(),
		})
	}
	return d
}

// Load reads the drives file. A missing or empty file is an empty store.
func Load(path string) (*Drives, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Drives{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &Drives{}, nil
	}

	var drives Drives
	if err := json.NewDecoder(file).Decode(&drives); err != nil {
		return nil, fmt.Errorf("decode drives file %s: %w", path, err)
	}
	return &drives, nil
}

func (d *Drives) Append(s *Drives) {
	if s == nil {
		return
	}
	d.Items = append(d.Items, s.Items...)
}

func (d *Drives) Len() int {
	return len(d.Items)
}

// Summaries returns the duplicate-check view of every stored drive.
func (d *Drives) Summaries() []drive.Summary {
	out := make([]drive.Summary, 0, len(d.Items))
	for _, e := range d.Items {
		if e == nil || e.Drive == nil {
			continue
		}
		out = append(out, e.Drive.Summarize())
	}
	return out
}

func (d *Drives) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	return encode(file, d)
}

func (d *Drives) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "drives_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := encode(file, d); err != nil {
		return "", err
	}
	return file.Name(), nil
}

func encode(file *os.File, v any) error {
	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ReportByCompany groups entries by company name. Each row maps a column
// name to its value; empty columns are left out.
func (d *Drives) ReportByCompany() (map[string][]map[string]string, error) {
	report := make(map[string][]map[string]string)
	for _, e := range d.Items {
		if e == nil || e.Drive == nil {
			continue
		}

		row := make(map[string]string)
		if err := mapstructure.Decode(toRow(e.Drive), &row); err != nil {
			return nil, fmt.Errorf("build report row for %s: %w", e.ID, err)
		}

		report[e.Drive.CompanyName] = append(report[e.Drive.CompanyName], row)
	}
	return report, nil
}

func toRow(c *drive.Candidate) reportRow {
	row := reportRow{
		Role:       c.Role,
		Type:       string(c.DriveType),
		Batch:      c.Batch,
		Branches:   c.EligibleBranches,
		Offer:      c.CTCOrStipend,
		Location:   c.JobLocation,
		Link:       c.RegistrationLink,
		Confidence: fmt.Sprintf("%.2f", c.ConfidenceScore),
		Method:     string(c.ExtractionMethod),
	}
	if c.RegistrationDeadline != nil {
		row.Deadline = c.RegistrationDeadline.String()
	}
	if c.DriveDate != nil {
		row.DriveDate = c.DriveDate.String()
	}
	if c.MinCGPA != nil {
		row.CGPA = fmt.Sprintf("%g", *c.MinCGPA)
	}
	return row
}
