package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/paperbox/internal/core/domain"
	"github.com/kirillkom/paperbox/internal/core/ports"
)

// DefaultFreeDocumentLimit is the lifetime document cap of the free plan.
const DefaultFreeDocumentLimit = 10

type IngestDocumentUseCase struct {
	repo          ports.DocumentRepository
	subscriptions ports.SubscriptionRepository
	queue         ports.MessageQueue
	freeLimit     int
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	subscriptions ports.SubscriptionRepository,
	queue ports.MessageQueue,
	freeLimit int,
) *IngestDocumentUseCase {
	if freeLimit <= 0 {
		freeLimit = DefaultFreeDocumentLimit
	}
	return &IngestDocumentUseCase{
		repo:          repo,
		subscriptions: subscriptions,
		queue:         queue,
		freeLimit:     freeLimit,
	}
}

func (uc *IngestDocumentUseCase) Ingest(ctx context.Context, ownerID string, req domain.IngestRequest) (*domain.Document, error) {
	if err := requireOwner("ingest document", ownerID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(req.Filename), filepath.Ext(req.Filename))
	}
	if title == "" || title == "." {
		return nil, domain.WrapError(domain.ErrInvalidInput, "ingest document", errors.New("title or filename is required"))
	}

	if err := uc.checkQuota(ctx, ownerID); err != nil {
		return nil, err
	}

	cls := domain.NormalizeClassification(domain.RawClassification{
		Category:  req.Category,
		Extracted: req.Extracted,
	}, req.Filename)
	primaryDue := cls.PrimaryDueDate
	if req.PrimaryDueDate != nil && strings.TrimSpace(*req.PrimaryDueDate) != "" {
		value := strings.TrimSpace(*req.PrimaryDueDate)
		primaryDue = &value
	}
	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		Title:          title,
		Filename:       sanitizeFilename(req.Filename),
		MimeType:       req.MimeType,
		Content:        req.Content,
		Category:       cls.Category,
		Summary:        cls.Summary,
		Extracted:      cls.Extracted,
		PrimaryDueDate: primaryDue,
		UrgencyScore:   cls.UrgencyScore,
		Confidence:     cls.Confidence,
		Status:         domain.StatusUploaded,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

func (uc *IngestDocumentUseCase) checkQuota(ctx context.Context, ownerID string) error {
	var sub *domain.Subscription
	if uc.subscriptions != nil {
		found, err := uc.subscriptions.GetByOwner(ctx, ownerID)
		if err != nil {
			return domain.WrapError(domain.ErrTemporary, "load subscription", err)
		}
		sub = found
	}
	limit := domain.DocumentLimit(sub.EffectivePlan(), uc.freeLimit)
	if limit == domain.UnlimitedDocuments {
		return nil
	}
	count, err := uc.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "count documents", err)
	}
	if count >= limit {
		return domain.WrapError(domain.ErrQuotaExceeded, "ingest document",
			fmt.Errorf("plan %s allows %d documents", sub.EffectivePlan(), limit))
	}
	return nil
}

func sanitizeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return ""
	}
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
