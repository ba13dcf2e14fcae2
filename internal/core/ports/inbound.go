package ports

import (
	"context"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

// NotificationDeriver is the inbound contract for a derivation run.
type NotificationDeriver interface {
	Derive(ctx context.Context, ownerID string, now time.Time) (*domain.DerivationReport, error)
}

// NotificationFeed is the inbound contract for reading and mutating the reminder feed.
type NotificationFeed interface {
	List(ctx context.Context, ownerID string, limit int) (domain.Feed, error)
	MarkRead(ctx context.Context, ownerID, notificationID string) error
	MarkAllRead(ctx context.Context, ownerID string) error
	Delete(ctx context.Context, ownerID, notificationID string) error
}

// SessionStarter runs the session-start sequence: read feed, derive, re-read.
type SessionStarter interface {
	Start(ctx context.Context, ownerID string, now time.Time) (*domain.SessionResult, error)
}

// DocumentIngestor is the inbound contract for registering new documents.
type DocumentIngestor interface {
	Ingest(ctx context.Context, ownerID string, req domain.IngestRequest) (*domain.Document, error)
}

// DocumentCatalog is the owner's view of stored documents.
type DocumentCatalog interface {
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
	List(ctx context.Context, ownerID string, filter domain.DocumentFilter) (*domain.DocumentListing, error)
	Upcoming(ctx context.Context, ownerID string, now time.Time, limit int) ([]domain.UpcomingDate, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// DocumentProcessor is the inbound contract for asynchronous classification.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID string) error
}
