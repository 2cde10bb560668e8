package inbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadJSONList(t *testing.T) {
	path := writeFile(t, "batch.json", `[
  {"message_id": "m1", "sender": "tpo@college.edu", "subject": "Acme Campus Drive", "raw_body": "<p>Hello</p>"},
  {"sender": "hr@globex.com", "subject": "Globex Internship Drive", "raw_body": "Apply now"}
]`)

	msgs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "m1", msgs[0].ID)
	assert.Equal(t, "tpo@college.edu", msgs[0].Sender)
	assert.Equal(t, "<p>Hello</p>", msgs[0].RawBody)
	assert.Equal(t, "batch-2", msgs[1].ID)
}

func TestLoadJSONDocument(t *testing.T) {
	path := writeFile(t, "inbox.JSON", `{"messages": [{"message_id": "x", "subject": "s", "raw_body": "b"}]}`)

	msgs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "x", msgs[0].ID)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "inbox.yaml", `messages:
  - message_id: y1
    sender: tpo@college.edu
    subject: "Campus Recruitment Drive || Acme || 2026 Batch"
    received_at: 2025-11-20T10:00:00Z
    raw_body: |
      Role: SDE Intern
      Thanks & Regards
`)

	msgs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	msg := msgs[0]
	assert.Equal(t, "y1", msg.ID)
	assert.Equal(t, "Campus Recruitment Drive || Acme || 2026 Batch", msg.Subject)
	assert.Equal(t, "Role: SDE Intern\nThanks & Regards\n", msg.RawBody)
	require.NotNil(t, msg.ReceivedAt)
	assert.True(t, msg.ReceivedAt.Equal(time.Date(2025, time.November, 20, 10, 0, 0, 0, time.UTC)))
}

func TestLoadYAMLList(t *testing.T) {
	path := writeFile(t, "list.yml", `- subject: one
  raw_body: first
- subject: two
  raw_body: second
`)

	msgs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "list-1", msgs[0].ID)
	assert.Equal(t, "second", msgs[1].RawBody)
}

func TestLoadEmptyFiles(t *testing.T) {
	for _, name := range []string{"empty.json", "empty.yaml"} {
		msgs, err := Load(writeFile(t, name, "  \n"))
		require.NoError(t, err, name)
		assert.Empty(t, msgs, name)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "inbox.txt", "hello"))
	assert.ErrorContains(t, err, "unsupported")

	_, err = Load(writeFile(t, "bad.json", "{broken"))
	assert.ErrorContains(t, err, "decode messages file")

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
