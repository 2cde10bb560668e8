// Package dedup matches candidates against drives that are already stored.
package dedup

import (
	"strings"

	"github.com/spigell/drive-extractor/internal/drive"
)

// IsDuplicate reports whether the candidate describes the existing drive.
// Company names must match ignoring case and whitespace. An empty role on
// either side matches any role, and a candidate without a deadline matches
// any deadline.
func IsDuplicate(c *drive.Candidate, existing drive.Summary) bool {
	if c == nil {
		return false
	}

	company := key(c.CompanyName)
	if company == "" || company != key(existing.CompanyName) {
		return false
	}

	role, existingRole := key(c.Role), key(existing.Role)
	if role != "" && existingRole != "" && role != existingRole {
		return false
	}

	if c.RegistrationDeadline != nil && !c.RegistrationDeadline.Equal(existing.RegistrationDeadline) {
		return false
	}

	return true
}

// Find returns the first existing drive the candidate duplicates.
func Find(c *drive.Candidate, snapshot []drive.Summary) (*drive.Summary, bool) {
	for i := range snapshot {
		if IsDuplicate(c, snapshot[i]) {
			match := snapshot[i]
			return &match, true
		}
	}
	return nil, false
}

// key lower-cases the value and collapses its whitespace.
func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
