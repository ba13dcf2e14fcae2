package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
)

// DedupeWindow is how long an announced (document, date) pair suppresses a
// new reminder for the same pair.
const DedupeWindow = 12 * time.Hour

type DeriveOptions struct {
	// Index is consulted before the notification store. Optional.
	Index ports.RecentNotificationIndex
	// Publisher receives a created event after a successful batch write. Optional.
	Publisher ports.FeedPublisher
	// Observer sees every run, including ones that fail to start. Optional.
	Observer ports.DerivationObserver
	// Location defines the owner's "today". Defaults to UTC.
	Location     *time.Location
	DedupeWindow time.Duration
	Logger       *slog.Logger
}

type DeriveNotificationsUseCase struct {
	documents     ports.DocumentRepository
	notifications ports.NotificationRepository
	index         ports.RecentNotificationIndex
	publisher     ports.FeedPublisher
	observer      ports.DerivationObserver
	location      *time.Location
	window        time.Duration
	logger        *slog.Logger
}

func NewDeriveNotificationsUseCase(
	documents ports.DocumentRepository,
	notifications ports.NotificationRepository,
	opts DeriveOptions,
) *DeriveNotificationsUseCase {
	uc := &DeriveNotificationsUseCase{
		documents:     documents,
		notifications: notifications,
		index:         opts.Index,
		publisher:     opts.Publisher,
		observer:      opts.Observer,
		location:      opts.Location,
		window:        opts.DedupeWindow,
		logger:        opts.Logger,
	}
	if uc.location == nil {
		uc.location = time.UTC
	}
	if uc.window <= 0 {
		uc.window = DedupeWindow
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	return uc
}

// Derive scans every document of ownerID and writes reminders for dates that
// have not been announced within the dedupe window. Only a failure to list
// the owner's documents is returned as an error; everything else is recorded
// in the report.
func (uc *DeriveNotificationsUseCase) Derive(ctx context.Context, ownerID string, now time.Time) (*domain.DerivationReport, error) {
	report, err := uc.derive(ctx, ownerID, now)
	if uc.observer != nil {
		uc.observer.ObserveDerivation(report, err)
	}
	return report, err
}

func (uc *DeriveNotificationsUseCase) derive(ctx context.Context, ownerID string, now time.Time) (*domain.DerivationReport, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, domain.WrapError(domain.ErrUnauthorized, "derive notifications", errors.New("owner id is required"))
	}

	docs, err := uc.documents.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list documents by owner", err)
	}

	report := &domain.DerivationReport{
		OwnerID:          ownerID,
		RanAt:            now.UTC(),
		DocumentsScanned: len(docs),
		Created:          []domain.Notification{},
	}
	run := derivationRun{
		ownerID: ownerID,
		today:   domain.CivilDate(now, uc.location),
		since:   now.Add(-uc.window),
		staged:  make(map[domain.DedupeKey]struct{}),
		report:  report,
	}

	var batch []domain.Notification
	for i := range docs {
		doc := &docs[i]
		if doc.OwnerID != "" && doc.OwnerID != ownerID {
			continue
		}
		pending, err := uc.evaluateDocument(ctx, &run, doc)
		if err != nil {
			uc.logger.Warn("derive_document_failed",
				"owner_id", ownerID,
				"document_id", doc.ID,
				"error", err,
			)
			report.Failures = append(report.Failures, domain.DocumentFailure{
				DocumentID: doc.ID,
				Error:      err.Error(),
			})
			continue
		}
		batch = append(batch, pending...)
	}

	if len(batch) == 0 {
		return report, nil
	}

	createdAt := now.UTC()
	for i := range batch {
		batch[i].ID = uuid.NewString()
		batch[i].CreatedAt = createdAt
	}

	if err := uc.notifications.InsertBatch(ctx, batch); err != nil {
		uc.logger.Error("insert_notifications_failed",
			"owner_id", ownerID,
			"staged", len(batch),
			"error", err,
		)
		report.InsertError = err.Error()
		return report, nil
	}
	report.Created = batch

	uc.remember(ctx, batch)
	uc.publishCreated(ctx, ownerID, batch, now)
	return report, nil
}

type derivationRun struct {
	ownerID string
	today   time.Time
	since   time.Time
	staged  map[domain.DedupeKey]struct{}
	report  *domain.DerivationReport
}

func (uc *DeriveNotificationsUseCase) evaluateDocument(
	ctx context.Context,
	run *derivationRun,
	doc *domain.Document,
) ([]domain.Notification, error) {
	var pending []domain.Notification
	for _, raw := range doc.CandidateDates() {
		run.report.CandidatesSeen++

		due, ok := domain.ParseCalendarDate(raw)
		if !ok {
			run.report.InvalidDates++
			continue
		}
		days := domain.DaysUntil(due, run.today)
		tier, ok := domain.ClassifyUrgency(days)
		if !ok {
			run.report.BeyondHorizon++
			continue
		}

		candidate := domain.Notification{
			OwnerID:    run.ownerID,
			DocumentID: doc.ID,
			Message:    domain.ReminderMessage(doc.Title, days, due),
			Type:       tier.Type,
			Priority:   tier.Priority,
			DueOn:      due,
		}
		key := candidate.DedupeKey()
		if _, dup := run.staged[key]; dup {
			run.report.DuplicatesSkipped++
			continue
		}

		announced, err := uc.recentlyAnnounced(ctx, key, run.since)
		if err != nil {
			return nil, err
		}
		run.staged[key] = struct{}{}
		if announced {
			run.report.DuplicatesSkipped++
			continue
		}
		pending = append(pending, candidate)
	}
	return pending, nil
}

func (uc *DeriveNotificationsUseCase) recentlyAnnounced(ctx context.Context, key domain.DedupeKey, since time.Time) (bool, error) {
	if uc.index != nil {
		hit, err := uc.index.Contains(ctx, key)
		if err != nil {
			uc.logger.Debug("recent_index_lookup_failed", "document_id", key.DocumentID, "error", err)
		} else if hit {
			return true, nil
		}
	}
	exists, err := uc.notifications.ExistsSince(ctx, key, since)
	if err != nil {
		return false, domain.WrapError(domain.ErrTemporary, "check recent notification", err)
	}
	return exists, nil
}

func (uc *DeriveNotificationsUseCase) remember(ctx context.Context, created []domain.Notification) {
	if uc.index == nil {
		return
	}
	keys := make([]domain.DedupeKey, 0, len(created))
	for i := range created {
		keys = append(keys, created[i].DedupeKey())
	}
	if err := uc.index.Remember(ctx, keys, uc.window); err != nil {
		uc.logger.Warn("recent_index_remember_failed", "count", len(keys), "error", err)
	}
}

func (uc *DeriveNotificationsUseCase) publishCreated(ctx context.Context, ownerID string, created []domain.Notification, now time.Time) {
	if uc.publisher == nil {
		return
	}
	ids := make([]string, 0, len(created))
	for i := range created {
		ids = append(ids, created[i].ID)
	}
	event := domain.FeedEvent{
		OwnerID:         ownerID,
		Kind:            domain.FeedEventCreated,
		NotificationIDs: ids,
		At:              now.UTC(),
	}
	if err := uc.publisher.PublishFeedEvent(ctx, event); err != nil {
		uc.logger.Warn("publish_feed_event_failed", "owner_id", ownerID, "kind", event.Kind, "error", err)
	}
}
