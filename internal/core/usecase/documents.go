package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
)

const MaxUpcomingLimit = 50

type DocumentCatalogUseCase struct {
	repo      ports.DocumentRepository
	publisher ports.FeedPublisher
	location  *time.Location
	logger    *slog.Logger
}

// NewDocumentCatalogUseCase wires the document catalog. publisher may be nil;
// location decides which calendar day counts as today.
func NewDocumentCatalogUseCase(repo ports.DocumentRepository, publisher ports.FeedPublisher, location *time.Location, logger *slog.Logger) *DocumentCatalogUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if location == nil {
		location = time.UTC
	}
	return &DocumentCatalogUseCase{repo: repo, publisher: publisher, location: location, logger: logger}
}

func (uc *DocumentCatalogUseCase) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	if err := requireDocumentRef("get document", ownerID, id); err != nil {
		return nil, err
	}
	doc, err := uc.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrTemporary, "get document", err)
	}
	return doc, nil
}

// List returns the owner's documents narrowed by filter, with counts taken
// over every document.
func (uc *DocumentCatalogUseCase) List(ctx context.Context, ownerID string, filter domain.DocumentFilter) (*domain.DocumentListing, error) {
	if err := requireOwner("list documents", ownerID); err != nil {
		return nil, err
	}
	if !filter.ValidCategory() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list documents", fmt.Errorf("unknown category \"%s\"", filter.Category))
	}
	docs, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list documents", err)
	}
	listing := domain.NewDocumentListing(docs, filter)
	return &listing, nil
}

func (uc *DocumentCatalogUseCase) Upcoming(ctx context.Context, ownerID string, now time.Time, limit int) ([]domain.UpcomingDate, error) {
	if err := requireOwner("list upcoming dates", ownerID); err != nil {
		return nil, err
	}
	if limit < 0 || limit > MaxUpcomingLimit {
		return nil, domain.WrapError(domain.ErrInvalidInput, "list upcoming dates", fmt.Errorf("limit must be between 1 and %d", MaxUpcomingLimit))
	}
	docs, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "list upcoming dates", err)
	}
	return domain.UpcomingDates(docs, domain.CivilDate(now, uc.location), limit), nil
}

// Delete removes the owner's document. Its notifications go with it, so feed
// subscribers are told to refresh.
func (uc *DocumentCatalogUseCase) Delete(ctx context.Context, ownerID, id string) error {
	if err := requireDocumentRef("delete document", ownerID, id); err != nil {
		return err
	}
	deleted, err := uc.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "delete document", err)
	}
	if !deleted {
		return domain.WrapError(domain.ErrDocumentNotFound, "delete document", fmt.Errorf("id=%s", id))
	}
	uc.logger.Info("document_deleted", "owner_id", ownerID, "document_id", id)

	if uc.publisher != nil {
		event := domain.FeedEvent{OwnerID: ownerID, Kind: domain.FeedEventDeleted, At: time.Now().UTC()}
		if err := uc.publisher.PublishFeedEvent(ctx, event); err != nil {
			uc.logger.Warn("publish_feed_event_failed", "owner_id", ownerID, "kind", event.Kind, "error", err)
		}
	}
	return nil
}

func requireDocumentRef(op, ownerID, id string) error {
	if err := requireOwner(op, ownerID); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return domain.WrapError(domain.ErrInvalidInput, op, errors.New("document id is required"))
	}
	return nil
}
