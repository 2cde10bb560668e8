package highlight

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight(t *testing.T) {
	text := strings.Join([]string{
		"Register: https://forms.example.com/acme",
		"Careers: www.acme.example/careers",
		"Deadline: 11th December 2025. Drive on Dec 15, 2025.",
		"Test date 15/12/2025, interview 16/12/2025, reserve 17/12/2025",
		"CTC: 12 LPA",
		"Stipend ₹25,000 per month",
		"Minimum CGPA: 7.5 and above",
	}, "\n")

	got := Highlight(text)

	assert.Equal(t, []string{
		"URL: https://forms.example.com/acme",
		"URL: www.acme.example/careers",
		"DATE: 15/12/2025",
		"DATE: 16/12/2025",
		"DATE: 11th December 2025",
		"DATE: Dec 15, 2025",
		"COMPENSATION: 12 LPA",
		"COMPENSATION: ₹25,000 per month",
		"COMPENSATION: CTC: 12 LPA",
		"COMPENSATION: Stipend ₹25,000 per month",
		"CGPA: CGPA: 7.5 and above",
	}, got.Strings())
}

func TestHighlightLimitsURLs(t *testing.T) {
	text := "https://a.example https://b.example https://c.example https://d.example"
	assert.Equal(t, []string{"https://a.example", "https://b.example", "https://c.example"}, Highlight(text).Values(KindURL))
}

func TestHighlightDeduplicates(t *testing.T) {
	got := Highlight("12 LPA or 12 LPA")
	assert.Equal(t, []string{"12 LPA"}, got.Values(KindCompensation))
}

func TestRender(t *testing.T) {
	assert.Equal(t, "", Excerpts(nil).Render())

	ex := Excerpts{{Kind: KindURL, Value: "https://x.example"}, {Kind: KindCGPA, Value: "CGPA 7"}}
	assert.Equal(t, "IMPORTANT EXCERPTS:\n- URL: https://x.example\n- CGPA: CGPA 7\n\n", ex.Render())
}
