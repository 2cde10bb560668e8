package ai

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/drive-extractor/internal/drive"
)

// FieldNames lists the keys an enhancement service answers with.
var FieldNames = []string{
	"company_name", "role", "drive_type", "batch", "drive_date", "registration_deadline",
	"eligible_branches", "min_cgpa", "ctc_or_stipend", "job_location", "registration_link",
}

// wireFields is the loosely typed response shape. Dates stay strings until
// they are checked against the calendar.
type wireFields struct {
	CompanyName          *string  `mapstructure:"company_name"`
	Role                 *string  `mapstructure:"role"`
	DriveType            *string  `mapstructure:"drive_type"`
	Batch                *string  `mapstructure:"batch"`
	DriveDate            *string  `mapstructure:"drive_date"`
	RegistrationDeadline *string  `mapstructure:"registration_deadline"`
	EligibleBranches     *string  `mapstructure:"eligible_branches"`
	MinCGPA              *float64 `mapstructure:"min_cgpa"`
	CTCOrStipend         *string  `mapstructure:"ctc_or_stipend"`
	JobLocation          *string  `mapstructure:"job_location"`
	RegistrationLink     *string  `mapstructure:"registration_link"`
}

var numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// joinListHook turns ["SDE", "SWE"] into "SDE, SWE" for text fields.
func joinListHook(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Slice || to != reflect.String {
		return data, nil
	}
	items, ok := data.([]any)
	if !ok {
		return data, nil
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s := strings.TrimSpace(fmt.Sprint(item)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", "), nil
}

// numberFromTextHook reads "7.5/10" or "CGPA 8" as the first number in the text.
func numberFromTextHook(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.String || to != reflect.Float64 {
		return data, nil
	}
	m := numberRe.FindString(data.(string))
	if m == "" {
		return 0.0, nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0.0, nil
	}
	return v, nil
}

// DecodeFields converts a JSON object from an enhancement service into a
// Partial. Missing keys, nulls and empty strings mean "no opinion". Dates
// that are not real calendar days are dropped.
func DecodeFields(data map[string]any) (drive.Partial, error) {
	var wire wireFields
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(joinListHook, numberFromTextHook),
		WeaklyTypedInput: true,
		Result:           &wire,
	})
	if err != nil {
		return drive.Partial{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return drive.Partial{}, &ParseError{Message: "decode fields", Cause: err}
	}

	p := drive.Partial{
		CompanyName:          text(wire.CompanyName),
		Role:                 text(wire.Role),
		Batch:                text(wire.Batch),
		DriveDate:            date(wire.DriveDate),
		RegistrationDeadline: date(wire.RegistrationDeadline),
		EligibleBranches:     text(wire.EligibleBranches),
		CTCOrStipend:         text(wire.CTCOrStipend),
		JobLocation:          text(wire.JobLocation),
		RegistrationLink:     text(wire.RegistrationLink),
	}
	if v := text(wire.DriveType); v != nil {
		dt := drive.DriveType(strings.ToLower(*v))
		p.DriveType = &dt
	}
	if wire.MinCGPA != nil && *wire.MinCGPA != 0 {
		v := *wire.MinCGPA
		p.MinCGPA = &v
	}
	return p, nil
}

// Confidence maps the number of proposed fields to a score in [0,1].
func Confidence(p drive.Partial) float64 {
	return drive.ClampConfidence(float64(p.Count()) / drive.ConfidenceBase)
}

func text(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "na":
		return nil
	}
	return &s
}

func date(v *string) *drive.Date {
	s := text(v)
	if s == nil {
		return nil
	}
	d, err := drive.ParseDate(*s)
	if err != nil {
		return nil
	}
	return d
}
