package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
)

type SessionUseCase struct {
	feed    ports.NotificationFeed
	deriver ports.NotificationDeriver
	limit   int
	logger  *slog.Logger
}

func NewSessionUseCase(feed ports.NotificationFeed, deriver ports.NotificationDeriver, logger *slog.Logger) *SessionUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionUseCase{
		feed:    feed,
		deriver: deriver,
		limit:   DefaultFeedLimit,
		logger:  logger,
	}
}

// Start reads the current feed, runs one derivation for the owner and
// re-reads the feed when new reminders were written. A failed derivation
// leaves the first read in place.
func (uc *SessionUseCase) Start(ctx context.Context, ownerID string, now time.Time) (*domain.SessionResult, error) {
	feed, err := uc.feed.List(ctx, ownerID, uc.limit)
	if err != nil {
		return nil, err
	}
	result := &domain.SessionResult{Feed: feed}

	report, err := uc.deriver.Derive(ctx, ownerID, now)
	if err != nil {
		uc.logger.Warn("session_derivation_failed", "owner_id", ownerID, "error", err)
		result.DerivationError = err.Error()
		return result, nil
	}
	result.Derivation = report

	if len(report.Created) == 0 {
		return result, nil
	}
	refreshed, err := uc.feed.List(ctx, ownerID, uc.limit)
	if err != nil {
		uc.logger.Warn("session_feed_refresh_failed", "owner_id", ownerID, "error", err)
		return result, nil
	}
	result.Feed = refreshed
	return result, nil
}
