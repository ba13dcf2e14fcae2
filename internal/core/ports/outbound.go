package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

// DocumentRepository persists and reads document state. Every read is scoped by owner.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error)
	GetForProcessing(ctx context.Context, id string) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error)
	CountByOwner(ctx context.Context, ownerID string) (int, error)
	ListOwners(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveClassification(ctx context.Context, id string, cls domain.Classification) error
	// Delete removes the document and, by cascade, its notifications.
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// NotificationRepository persists reminders and their read state.
type NotificationRepository interface {
	InsertBatch(ctx context.Context, notifications []domain.Notification) error
	ExistsSince(ctx context.Context, key domain.DedupeKey, since time.Time) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Notification, error)
	// MarkRead reports whether a row owned by ownerID was affected.
	MarkRead(ctx context.Context, ownerID, id string) (bool, error)
	MarkAllRead(ctx context.Context, ownerID string) (int64, error)
	// Delete returns the dedupe key of the removed row; ok is false when no
	// row owned by ownerID matched.
	Delete(ctx context.Context, ownerID, id string) (key domain.DedupeKey, ok bool, err error)
}

// RecentNotificationIndex is a best-effort cache of dedupe keys announced
// within the dedupe window.
type RecentNotificationIndex interface {
	Contains(ctx context.Context, key domain.DedupeKey) (bool, error)
	Remember(ctx context.Context, keys []domain.DedupeKey, ttl time.Duration) error
	Forget(ctx context.Context, keys []domain.DedupeKey) error
}

// SubscriptionRepository reads the payment provider's mirrored subscription state.
type SubscriptionRepository interface {
	GetByOwner(ctx context.Context, ownerID string) (*domain.Subscription, error)
}

// FeedPublisher pushes feed-changed events to subscribed presenters.
type FeedPublisher interface {
	PublishFeedEvent(ctx context.Context, event domain.FeedEvent) error
}

// FeedSubscriber delivers feed events for one owner until ctx is done.
type FeedSubscriber interface {
	SubscribeFeed(ctx context.Context, ownerID string, handler func(domain.FeedEvent)) error
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// DocumentExtractor runs the AI classifier over document text.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (domain.RawClassification, error)
}

// DerivationObserver records the outcome of every derivation run.
type DerivationObserver interface {
	ObserveDerivation(report *domain.DerivationReport, err error)
}

// ProcessingObserver records how ingested documents were classified and how
// the follow-up derivation ended.
type ProcessingObserver interface {
	ObserveClassification(source domain.ClassificationSource)
	ObservePostIngestDerivation(report *domain.DerivationReport, err error)
}

// FeedExporter renders a notification list into a downloadable document.
type FeedExporter interface {
	ContentType() string
	FileExtension() string
	WriteFeed(w io.Writer, notifications []domain.Notification) error
}
