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

type ProcessDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.DocumentExtractor
	deriver   ports.NotificationDeriver
	observer  ports.ProcessingObserver
	logger    *slog.Logger
	now       func() time.Time
}

func NewProcessDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.DocumentExtractor,
	deriver ports.NotificationDeriver,
	observer ports.ProcessingObserver,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		deriver:   deriver,
		observer:  observer,
		logger:    logger,
		now:       time.Now,
	}
}

// ProcessByID classifies a freshly ingested document and refreshes its
// owner's reminders. Reminder derivation failures do not fail processing.
func (uc *ProcessDocumentUseCase) ProcessByID(ctx context.Context, documentID string) error {
	if err := uc.markStatus(ctx, documentID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	doc, err := uc.repo.GetForProcessing(ctx, documentID)
	if err != nil {
		return uc.fail(ctx, documentID, fmt.Errorf("fetch document by id: %w", err))
	}

	source := domain.ClassificationProvided
	if uc.extractor != nil && strings.TrimSpace(doc.Content) != "" {
		cls, classifiedBy, err := uc.classify(ctx, doc)
		if err != nil {
			return uc.fail(ctx, documentID, fmt.Errorf("extract document data: %w", err))
		}
		if err := uc.repo.SaveClassification(ctx, doc.ID, cls); err != nil {
			return uc.fail(ctx, documentID, fmt.Errorf("save classification: %w", err))
		}
		source = classifiedBy
	}
	if uc.observer != nil {
		uc.observer.ObserveClassification(source)
	}

	if err := uc.markStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}

	if uc.deriver != nil {
		report, err := uc.deriver.Derive(ctx, doc.OwnerID, uc.now())
		if uc.observer != nil {
			uc.observer.ObservePostIngestDerivation(report, err)
		}
		if err != nil {
			uc.logger.Warn("post_ingest_derivation_failed", "document_id", documentID, "owner_id", doc.OwnerID, "error", err)
			return nil
		}
		uc.logger.Info("post_ingest_derivation",
			"document_id", documentID,
			"owner_id", doc.OwnerID,
			"created", len(report.Created),
			"status", report.Status(),
		)
	}
	return nil
}

// classify asks the extractor and falls back to keyword detection when the
// model fails. Only cancellation of ctx is returned as an error.
func (uc *ProcessDocumentUseCase) classify(ctx context.Context, doc *domain.Document) (domain.Classification, domain.ClassificationSource, error) {
	raw, err := uc.extractor.Extract(ctx, doc)
	if err == nil {
		return domain.NormalizeClassification(raw, doc.Filename), domain.ClassificationAI, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Classification{}, "", errors.Join(err, ctxErr)
	}
	uc.logger.Warn("classification_fallback", "document_id", doc.ID, "error", err)
	return domain.FallbackClassification(doc.Filename, doc.Content), domain.ClassificationFallback, nil
}

func (uc *ProcessDocumentUseCase) fail(ctx context.Context, documentID string, processErr error) error {
	if failErr := uc.markStatus(ctx, documentID, domain.StatusFailed, processErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return processErr
}

func (uc *ProcessDocumentUseCase) markStatus(ctx context.Context, documentID string, status domain.DocumentStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, documentID, status, errMessage)
}
