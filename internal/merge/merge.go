// Package merge consolidates candidates that announce the same company's drive.
package merge

import (
	"slices"
	"strings"

	"github.com/spigell/drive-extractor/internal/drive"
)

// Merge groups candidates by company name (case and surrounding space
// ignored) in order of first appearance. The first candidate of a group
// seeds the result; later ones only fill fields that are still empty. The
// group keeps its highest confidence. Candidates without a company are
// returned unmerged. The inputs are not modified.
func Merge(candidates []*drive.Candidate) []*drive.Candidate {
	var out []*drive.Candidate
	groups := make(map[string]*drive.Candidate)

	for _, c := range candidates {
		if c == nil {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(c.CompanyName))
		if key == "" {
			out = append(out, c.Clone())
			continue
		}

		merged, ok := groups[key]
		if !ok {
			merged = c.Clone()
			groups[key] = merged
			out = append(out, merged)
			continue
		}

		fill(merged, c)
	}

	return out
}

func fill(dst, src *drive.Candidate) {
	fillString(&dst.Role, src.Role)
	fillString(&dst.Batch, src.Batch)
	fillString(&dst.EligibleBranches, src.EligibleBranches)
	fillString(&dst.CTCOrStipend, src.CTCOrStipend)
	fillString(&dst.JobLocation, src.JobLocation)
	fillString(&dst.RegistrationLink, src.RegistrationLink)

	if dst.DriveType == drive.TypeUnset {
		dst.DriveType = src.DriveType
	}
	if dst.DriveDate == nil && src.DriveDate != nil {
		d := *src.DriveDate
		dst.DriveDate = &d
	}
	if dst.RegistrationDeadline == nil && src.RegistrationDeadline != nil {
		d := *src.RegistrationDeadline
		dst.RegistrationDeadline = &d
		dst.DeadlineInferred = src.DeadlineInferred
	}
	if dst.MinCGPA == nil && src.MinCGPA != nil {
		v := *src.MinCGPA
		dst.MinCGPA = &v
	}

	if src.ConfidenceScore > dst.ConfidenceScore {
		dst.ConfidenceScore = src.ConfidenceScore
	}
	dst.NeedsReview = dst.NeedsReview || src.NeedsReview

	for _, id := range src.SourceMessageIDs {
		if !slices.Contains(dst.SourceMessageIDs, id) {
			dst.SourceMessageIDs = append(dst.SourceMessageIDs, id)
		}
	}
}

func fillString(dst *string, v string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = v
	}
}
