package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/infrastructure/resilience"
)

func TestExtractorParsesModelAnswer(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		answer := "Sure! " + `{"category":"Real Estate","summary":"Lease","extractedData":{"due_dates":["2024-03-15"]},"urgency_score":9,"confidence_score":0.92}`
		_ = json.NewEncoder(w).Encode(map[string]string{"response": answer})
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "gen"))
	raw, err := extractor.Extract(context.Background(), &domain.Document{Filename: "lease.pdf", Content: "Miete fällig am 15.03.2024"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if raw.Category != "Real Estate" {
		t.Fatalf("expected Real Estate, got %q", raw.Category)
	}
	if len(raw.Extracted.DueDates) != 1 || raw.Extracted.DueDates[0] != "2024-03-15" {
		t.Fatalf("expected due date, got %v", raw.Extracted.DueDates)
	}
	if raw.UrgencyScore == nil || *raw.UrgencyScore != 9 {
		t.Fatalf("expected urgency 9, got %v", raw.UrgencyScore)
	}
	if !strings.Contains(capturedPrompt, "Miete fällig") || !strings.Contains(capturedPrompt, "lease.pdf") {
		t.Fatalf("unexpected prompt: %s", capturedPrompt)
	}
}

func TestExtractorRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"{\"category\":\"Tax\"}"}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Policy{
		Retry: resilience.RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1},
	})
	extractor := NewExtractor(New(server.URL, "gen", WithResilience(exec)))

	raw, err := extractor.Extract(context.Background(), &domain.Document{Content: "Steuerbescheid"})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if raw.Category != "Tax" {
		t.Fatalf("expected Tax, got %q", raw.Category)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestExtractorMarksUnavailableModelTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	extractor := NewExtractor(New(server.URL, "gen"))
	_, err := extractor.Extract(context.Background(), &domain.Document{Content: "x"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}

func TestExtractorRejectsNonJSONAnswer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"I cannot read this document"}`))
	}))
	defer server.Close()

	_, err := NewExtractor(New(server.URL, "gen")).Extract(context.Background(), &domain.Document{Content: "x"})
	if err == nil || !strings.Contains(err.Error(), "parse extraction json") {
		t.Fatalf("expected parse error, got %v", err)
	}
}
