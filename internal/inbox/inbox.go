// Package inbox reads recruiting messages from a JSON or YAML file. It stands
// in for the mail provider, which is outside of this module.
package inbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/drive-extractor/internal/drive"
)

// document is the wrapped form of a message file: `messages: [...]`.
type document struct {
	Messages []drive.Message `json:"messages" yaml:"messages"`
}

// Load reads messages from path. The format follows the file extension
// (.json, .yaml, .yml). Both a bare list and a document with a `messages`
// key are accepted. Messages without an ID get one derived from the file name
// and position.
func Load(path string) ([]drive.Message, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var msgs []drive.Message
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		msgs, err = decodeJSON(data)
	case ".yaml", ".yml":
		msgs, err = decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported messages file extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode messages file %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for i := range msgs {
		if strings.TrimSpace(msgs[i].ID) == "" {
			msgs[i].ID = fmt.Sprintf("%s-%d", base, i+1)
		}
	}
	return msgs, nil
}

func decodeJSON(data []byte) ([]drive.Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var msgs []drive.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc.Messages, nil
}

func decodeYAML(data []byte) ([]drive.Message, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	if root.Content[0].Kind == yaml.SequenceNode {
		var msgs []drive.Message
		if err := root.Decode(&msgs); err != nil {
			return nil, err
		}
		return msgs, nil
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Messages, nil
}
