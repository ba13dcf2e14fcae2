package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

type ingestQueueFake struct {
	documentID string
	err        error
}

func (f *ingestQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *ingestQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

type subscriptionRepoFake struct {
	sub *domain.Subscription
	err error
}

func (f *subscriptionRepoFake) GetByOwner(context.Context, string) (*domain.Subscription, error) {
	return f.sub, f.err
}

func TestIngestSuccess(t *testing.T) {
	repo := &documentStoreFake{}
	queue := &ingestQueueFake{}
	uc := NewIngestDocumentUseCase(repo, &subscriptionRepoFake{}, queue, 0)

	doc, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{
		Filename: "rent contract.pdf",
		Category: "Housing",
		Extracted: domain.ExtractionResult{
			DueDates: []string{" 2024-03-15 ", ""},
		},
	})
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if doc.Title != "rent contract" {
		t.Fatalf("expected title from filename, got %q", doc.Title)
	}
	if doc.Filename != "rent_contract.pdf" {
		t.Fatalf("expected sanitized filename, got %q", doc.Filename)
	}
	if doc.Category != domain.CategoryRealEstate {
		t.Fatalf("expected alias mapped to Real Estate, got %s", doc.Category)
	}
	if len(doc.Extracted.DueDates) != 1 || doc.Extracted.DueDates[0] != "2024-03-15" {
		t.Fatalf("expected compacted due dates, got %v", doc.Extracted.DueDates)
	}
	if len(repo.docs) != 1 {
		t.Fatalf("expected repo.Create call")
	}
	if queue.documentID != doc.ID {
		t.Fatalf("expected queued doc id %s, got %s", doc.ID, queue.documentID)
	}
}

func TestIngestPrimaryDueDate(t *testing.T) {
	provided := "2024-05-01"
	tests := []struct {
		name     string
		provided *string
		want     string
	}{
		{name: "derived from expiry date", want: "2024-04-30"},
		{name: "request value wins", provided: &provided, want: "2024-05-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			uc := NewIngestDocumentUseCase(&documentStoreFake{}, nil, &ingestQueueFake{}, 0)
			doc, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{
				Filename:       "passport.pdf",
				Extracted:      domain.ExtractionResult{Dates: []string{"2020-01-01"}, ExpiryDates: []string{"2024-04-30"}},
				PrimaryDueDate: tc.provided,
			})
			if err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
			if doc.PrimaryDueDate == nil || *doc.PrimaryDueDate != tc.want {
				t.Fatalf("PrimaryDueDate = %v, want %s", doc.PrimaryDueDate, tc.want)
			}
		})
	}
}

func TestIngestQueueError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&documentStoreFake{}, nil, &ingestQueueFake{err: errors.New("queue down")}, 0)

	_, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{Title: "Report"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestIngestRequiresTitleOrFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(&documentStoreFake{}, nil, &ingestQueueFake{}, 0)

	_, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIngestEnforcesFreePlanQuota(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "a", OwnerID: "owner-1"},
		{ID: "b", OwnerID: "owner-1"},
	}}
	queue := &ingestQueueFake{}
	canceled := &subscriptionRepoFake{sub: &domain.Subscription{OwnerID: "owner-1", PlanID: domain.PlanProMonthly, Status: domain.SubscriptionCanceled}}
	uc := NewIngestDocumentUseCase(repo, canceled, queue, 2)

	_, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{Title: "Third"})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
	if queue.documentID != "" {
		t.Fatalf("expected nothing queued")
	}
}

func TestIngestActiveProPlanIsUnlimited(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "a", OwnerID: "owner-1"},
		{ID: "b", OwnerID: "owner-1"},
	}}
	active := &subscriptionRepoFake{sub: &domain.Subscription{OwnerID: "owner-1", PlanID: domain.PlanProYearly, Status: domain.SubscriptionActive}}
	uc := NewIngestDocumentUseCase(repo, active, &ingestQueueFake{}, 2)

	if _, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{Title: "Third"}); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
}

func TestIngestSubscriptionLookupFailure(t *testing.T) {
	uc := NewIngestDocumentUseCase(&documentStoreFake{}, &subscriptionRepoFake{err: errors.New("db down")}, &ingestQueueFake{}, 0)

	_, err := uc.Ingest(context.Background(), "owner-1", domain.IngestRequest{Title: "Doc"})
	if !errors.Is(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
}
