// Package remote calls an enhancement service over HTTP.
package remote

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/ai"
	"github.com/spigell/drive-extractor/internal/logger"
)

const (
	// Provider is the provider name reported in logs.
	Provider = "http"

	contentType     = "application/json"
	contentEncoding = "gzip"
	userAgent       = "spigell/drive-extractor"
)

type Client struct {
	url        string
	credential string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

type request struct {
	Subject    string `json:"subject"`
	Text       string `json:"text"`
	Credential string `json:"credential,omitempty"`
}

func New(log *zap.Logger, url, credential string) *Client {
	return &Client{
		url:        strings.TrimSpace(url),
		credential: strings.TrimSpace(credential),
		logger:     logger.WithCommonFields(log, Provider, ""),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// Enhance posts the request and decodes the proposed fields. A non-2xx
// status, a body that is not a JSON object or a non-empty "error" key all
// fail the call.
func (c *Client) Enhance(ctx context.Context, req ai.Request) (*ai.Enhancement, error) {
	if c.url == "" {
		return nil, ai.ErrUnavailable
	}

	payload, err := json.Marshal(request{Subject: req.Subject, Text: req.Body(), Credential: c.credential})
	if err != nil {
		return nil, fmt.Errorf("marshal enhancement request: %w", err)
	}

	var data map[string]any
	raw, err := c.postJSON(ctx, payload, &data)
	if err != nil {
		return nil, err
	}

	if data == nil {
		return nil, &ai.ParseError{Message: "response is empty"}
	}
	if msg := serviceMessage(data["error"]); msg != "" {
		return nil, &ai.ServiceError{Message: msg}
	}
	delete(data, "error")

	fields, err := ai.DecodeFields(data)
	if err != nil {
		return nil, err
	}

	return &ai.Enhancement{
		Fields:     fields,
		Confidence: ai.Confidence(fields),
		Raw:        raw,
	}, nil
}

func (c *Client) postJSON(ctx context.Context, payload []byte, target any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)

	c.logger.Debug("make request", zap.String("url", req.URL.String()), zap.Int("payload_bytes", len(payload)))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", &ai.ServiceError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return "", &ai.ParseError{Message: "open gzip body", Cause: err}
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &ai.ServiceError{StatusCode: resp.StatusCode, Message: "read body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ai.ServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("bad status: %s", resp.Status)}
	}

	if err := json.Unmarshal(data, target); err != nil {
		return "", &ai.ParseError{Message: "response is not a JSON object", Cause: err}
	}

	return string(data), nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.credential != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.credential))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func serviceMessage(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		if val {
			return "service reported an error"
		}
		return ""
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(b)
	}
}
