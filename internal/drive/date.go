package drive

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time or zone. Values are only produced by
// NewDate and ParseDate, so a non-nil *Date is always a real calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate validates the components and returns the date. February 30th and
// similar overflows are rejected instead of being normalised by time.Date.
func NewDate(year int, month time.Month, day int) (*Date, error) {
	if year < 1 || month < time.January || month > time.December || day < 1 {
		return nil, fmt.Errorf("invalid date %04d-%02d-%02d", year, int(month), day)
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return nil, fmt.Errorf("invalid date %04d-%02d-%02d", year, int(month), day)
	}

	return &Date{Year: year, Month: month, Day: day}, nil
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (*Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse date %q: %w", s, err)
	}
	return &Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// MustDate is NewDate for literals known to be valid.
func MustDate(year int, month time.Month, day int) *Date {
	d, err := NewDate(year, month, day)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Date) String() string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Equal reports whether both dates are nil or denote the same day.
func (d *Date) Equal(o *Date) bool {
	if d == nil || o == nil {
		return d == nil && o == nil
	}
	return d.Year == o.Year && d.Month == o.Month && d.Day == o.Day
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// MarshalYAML keeps dates readable in YAML fixtures.
func (d Date) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}
