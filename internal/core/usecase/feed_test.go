package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

func seededFeed() (*FeedUseCase, *notificationStoreFake, *feedPublisherFake) {
	base := time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)
	store := &notificationStoreFake{rows: []domain.Notification{
		{ID: "n-1", OwnerID: "owner-1", DocumentID: "doc-1", Message: "a", CreatedAt: base},
		{ID: "n-2", OwnerID: "owner-1", DocumentID: "doc-2", Message: "b", CreatedAt: base.Add(time.Minute)},
		{ID: "n-3", OwnerID: "owner-2", DocumentID: "doc-3", Message: "c", CreatedAt: base},
	}}
	publisher := &feedPublisherFake{}
	return NewFeedUseCase(store, nil, publisher, nil), store, publisher
}

func TestFeedListCountsUnread(t *testing.T) {
	uc, _, _ := seededFeed()

	feed, err := uc.List(context.Background(), "owner-1", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(feed.Notifications) != 2 || feed.UnreadCount != 2 {
		t.Fatalf("expected 2 unread notifications, got %d/%d", len(feed.Notifications), feed.UnreadCount)
	}
	if feed.Notifications[0].ID != "n-2" {
		t.Fatalf("expected newest first, got %s", feed.Notifications[0].ID)
	}
}

func TestFeedMarkAllReadClearsUnread(t *testing.T) {
	uc, store, publisher := seededFeed()

	if err := uc.MarkAllRead(context.Background(), "owner-1"); err != nil {
		t.Fatalf("MarkAllRead() error = %v", err)
	}
	feed, err := uc.List(context.Background(), "owner-1", 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if feed.UnreadCount != 0 {
		t.Fatalf("expected unread_count=0, got %d", feed.UnreadCount)
	}
	for _, n := range store.rows {
		if n.OwnerID == "owner-2" && n.Read {
			t.Fatalf("expected other owner's notification untouched")
		}
	}
	if len(publisher.events) != 1 || publisher.events[0].Kind != domain.FeedEventReadAll {
		t.Fatalf("expected one read_all event, got %+v", publisher.events)
	}

	if err := uc.MarkAllRead(context.Background(), "owner-1"); err != nil {
		t.Fatalf("MarkAllRead() second error = %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected no event when nothing changed, got %d", len(publisher.events))
	}
}

func TestFeedMarkReadForeignIsNoop(t *testing.T) {
	uc, store, publisher := seededFeed()

	if err := uc.MarkRead(context.Background(), "owner-1", "n-3"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	for _, n := range store.rows {
		if n.ID == "n-3" && n.Read {
			t.Fatalf("expected foreign notification to stay unread")
		}
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events, got %+v", publisher.events)
	}

	if err := uc.MarkRead(context.Background(), "owner-1", "n-1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	feed, _ := uc.List(context.Background(), "owner-1", 10)
	if feed.UnreadCount != 1 {
		t.Fatalf("expected unread_count=1, got %d", feed.UnreadCount)
	}
	if len(publisher.events) != 1 || publisher.events[0].NotificationIDs[0] != "n-1" {
		t.Fatalf("expected read event for n-1, got %+v", publisher.events)
	}
}

func TestFeedDeleteScopedToOwner(t *testing.T) {
	uc, store, _ := seededFeed()

	if err := uc.Delete(context.Background(), "owner-2", "n-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.rows) != 3 {
		t.Fatalf("expected foreign delete to be ignored, got %d rows", len(store.rows))
	}
	if err := uc.Delete(context.Background(), "owner-1", "n-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("expected one row removed, got %d rows", len(store.rows))
	}
}

func TestFeedValidation(t *testing.T) {
	uc, _, _ := seededFeed()

	if _, err := uc.List(context.Background(), "", 10); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := uc.MarkRead(context.Background(), "owner-1", ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if err := uc.Delete(context.Background(), "owner-1", " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestNormalizeFeedLimit(t *testing.T) {
	tests := map[int]int{0: DefaultFeedLimit, -3: DefaultFeedLimit, 25: 25, MaxFeedLimit + 1: MaxFeedLimit}
	for in, want := range tests {
		if got := normalizeFeedLimit(in); got != want {
			t.Fatalf("normalizeFeedLimit(%d) = %d, want %d", in, got, want)
		}
	}
}
