package remote

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/drive-extractor/internal/ai"
)

func TestClientEnhance(t *testing.T) {
	t.Parallel()

	var got request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer s3cret" {
			t.Errorf("unexpected authorization header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_name": "Acme", "batch": 2026, "min_cgpa": null, "error": null}`))
	}))
	defer srv.Close()

	c := New(zap.NewNop(), srv.URL, " s3cret ")
	enh, err := c.Enhance(context.Background(), ai.Request{Subject: "Acme Drive", Text: "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Subject != "Acme Drive" || got.Text != "EMAIL:\nbody" || got.Credential != "s3cret" {
		t.Fatalf("unexpected request payload: %+v", got)
	}
	if enh.Fields.CompanyName == nil || *enh.Fields.CompanyName != "Acme" {
		t.Fatalf("unexpected company %v", enh.Fields.CompanyName)
	}
	if enh.Fields.Batch == nil || *enh.Fields.Batch != "2026" {
		t.Fatalf("unexpected batch %v", enh.Fields.Batch)
	}
	if enh.Fields.MinCGPA != nil {
		t.Fatalf("null cgpa must stay unset")
	}
	if enh.Confidence != 2.0/8 {
		t.Fatalf("unexpected confidence %v", enh.Confidence)
	}
}

func TestClientReadsGzipBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(`{"role": ["SDE", "SWE"]}`))
		_ = gz.Close()
	}))
	defer srv.Close()

	enh, err := New(zap.NewNop(), srv.URL, "").Enhance(context.Background(), ai.Request{Text: "body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enh.Fields.Role == nil || *enh.Fields.Role != "SDE, SWE" {
		t.Fatalf("unexpected role %v", enh.Fields.Role)
	}
}

func TestClientFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantParse bool
	}{
		{name: "bad status", status: http.StatusBadGateway, body: `{}`},
		{name: "error field", status: http.StatusOK, body: `{"error": "quota exceeded"}`},
		{name: "malformed", status: http.StatusOK, body: `not json`, wantParse: true},
		{name: "null body", status: http.StatusOK, body: `null`, wantParse: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(zap.NewNop(), srv.URL, "").Enhance(context.Background(), ai.Request{Text: "body"})
			if err == nil {
				t.Fatal("expected error")
			}

			var parseErr *ai.ParseError
			var svcErr *ai.ServiceError
			switch {
			case tt.wantParse && !errors.As(err, &parseErr):
				t.Fatalf("expected ParseError, got %v", err)
			case !tt.wantParse && !errors.As(err, &svcErr):
				t.Fatalf("expected ServiceError, got %v", err)
			}
		})
	}
}

func TestClientWithoutURLIsUnavailable(t *testing.T) {
	t.Parallel()

	_, err := New(zap.NewNop(), "  ", "").Enhance(context.Background(), ai.Request{})
	if !errors.Is(err, ai.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestClientHonoursContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(zap.NewNop(), srv.URL, "").Enhance(ctx, ai.Request{Text: "body"})
	if err == nil || !strings.Contains(err.Error(), "request failed") {
		t.Fatalf("expected request failure, got %v", err)
	}
}
