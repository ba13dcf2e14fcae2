package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
)

const (
	DefaultFeedLimit = 100
	MaxFeedLimit     = 500
)

type FeedUseCase struct {
	notifications ports.NotificationRepository
	index         ports.RecentNotificationIndex
	publisher     ports.FeedPublisher
	logger        *slog.Logger
	now           func() time.Time
}

// NewFeedUseCase wires the feed. index may be nil; when set, deleted
// reminders are dropped from it so the next derivation can recreate them.
func NewFeedUseCase(
	notifications ports.NotificationRepository,
	index ports.RecentNotificationIndex,
	publisher ports.FeedPublisher,
	logger *slog.Logger,
) *FeedUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedUseCase{
		notifications: notifications,
		index:         index,
		publisher:     publisher,
		logger:        logger,
		now:           time.Now,
	}
}

func (uc *FeedUseCase) List(ctx context.Context, ownerID string, limit int) (domain.Feed, error) {
	if err := requireOwner("list notifications", ownerID); err != nil {
		return domain.Feed{}, err
	}
	items, err := uc.notifications.ListByOwner(ctx, ownerID, normalizeFeedLimit(limit))
	if err != nil {
		return domain.Feed{}, domain.WrapError(domain.ErrTemporary, "list notifications", err)
	}
	return domain.NewFeed(items), nil
}

// MarkRead is a no-op when the notification does not exist or belongs to
// someone else.
func (uc *FeedUseCase) MarkRead(ctx context.Context, ownerID, notificationID string) error {
	if err := requireOwner("mark notification read", ownerID); err != nil {
		return err
	}
	if strings.TrimSpace(notificationID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "mark notification read", errors.New("notification id is required"))
	}
	affected, err := uc.notifications.MarkRead(ctx, ownerID, notificationID)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "mark notification read", err)
	}
	if affected {
		uc.publish(ctx, ownerID, domain.FeedEventRead, notificationID)
	}
	return nil
}

func (uc *FeedUseCase) MarkAllRead(ctx context.Context, ownerID string) error {
	if err := requireOwner("mark all notifications read", ownerID); err != nil {
		return err
	}
	updated, err := uc.notifications.MarkAllRead(ctx, ownerID)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "mark all notifications read", err)
	}
	if updated > 0 {
		uc.publish(ctx, ownerID, domain.FeedEventReadAll)
	}
	return nil
}

// Delete removes one of the owner's notifications; foreign ids are ignored.
func (uc *FeedUseCase) Delete(ctx context.Context, ownerID, notificationID string) error {
	if err := requireOwner("delete notification", ownerID); err != nil {
		return err
	}
	if strings.TrimSpace(notificationID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "delete notification", errors.New("notification id is required"))
	}
	key, deleted, err := uc.notifications.Delete(ctx, ownerID, notificationID)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete notification", err)
	}
	if !deleted {
		return nil
	}
	if uc.index != nil {
		if err := uc.index.Forget(ctx, []domain.DedupeKey{key}); err != nil {
			uc.logger.Warn("recent_index_forget_failed", "owner_id", ownerID, "document_id", key.DocumentID, "error", err)
		}
	}
	uc.publish(ctx, ownerID, domain.FeedEventDeleted, notificationID)
	return nil
}

func (uc *FeedUseCase) publish(ctx context.Context, ownerID string, kind domain.FeedEventKind, ids ...string) {
	if uc.publisher == nil {
		return
	}
	event := domain.FeedEvent{
		OwnerID:         ownerID,
		Kind:            kind,
		NotificationIDs: ids,
		At:              uc.now().UTC(),
	}
	if err := uc.publisher.PublishFeedEvent(ctx, event); err != nil {
		uc.logger.Warn("publish_feed_event_failed", "owner_id", ownerID, "kind", kind, "error", err)
	}
}

func normalizeFeedLimit(limit int) int {
	if limit <= 0 {
		return DefaultFeedLimit
	}
	if limit > MaxFeedLimit {
		return MaxFeedLimit
	}
	return limit
}

func requireOwner(operation, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return domain.WrapError(domain.ErrUnauthorized, operation, errors.New("owner id is required"))
	}
	return nil
}
