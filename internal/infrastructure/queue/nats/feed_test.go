package nats

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

func TestFeedSubjectSanitizesOwner(t *testing.T) {
	bus := NewFeedBus(nil, "notifications.feed.", Options{})

	tests := map[string]string{
		"owner-1":    "notifications.feed.owner-1",
		"a.b":        "notifications.feed.a_b",
		"evil.*.>":   "notifications.feed.evil____",
		"with space": "notifications.feed.with_space",
	}
	for owner, want := range tests {
		if got := bus.Subject(owner); got != want {
			t.Fatalf("Subject(%q) = %q, want %q", owner, got, want)
		}
	}
}

func TestFeedBusDefaultPrefix(t *testing.T) {
	bus := NewFeedBus(nil, "", Options{})
	if got := bus.Subject("o"); got != "notifications.feed.o" {
		t.Fatalf("Subject() = %q", got)
	}
}

func TestClassifyNATSError(t *testing.T) {
	if class := classifyNATSError(nats.ErrNoServers); !class.Retryable || !class.RecordFailure {
		t.Fatalf("expected no servers to be retryable, got %+v", class)
	}
	if class := classifyNATSError(errors.New("bad subject")); class.Retryable {
		t.Fatalf("expected generic error to be permanent, got %+v", class)
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(nats.ErrTimeout)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	permanent := errors.New("payload too large")
	if got := wrapTemporaryIfNeeded(permanent); !errors.Is(got, permanent) || domain.IsKind(got, domain.ErrTemporary) {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("expected nil")
	}
}
