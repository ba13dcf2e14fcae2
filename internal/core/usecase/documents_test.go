package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

func TestDocumentCatalogScopesByOwner(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "doc-1", OwnerID: "owner-1", Title: "Mine"},
		{ID: "doc-2", OwnerID: "owner-2", Title: "Theirs"},
	}}
	uc := NewDocumentCatalogUseCase(repo, nil, nil, nil)

	doc, err := uc.GetByID(context.Background(), "owner-1", "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.Title != "Mine" {
		t.Fatalf("expected Mine, got %s", doc.Title)
	}
	if _, err := uc.GetByID(context.Background(), "owner-1", "doc-2"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}

	listing, err := uc.List(context.Background(), "owner-3", domain.DocumentFilter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if listing.Documents == nil || len(listing.Documents) != 0 || listing.Total != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", listing)
	}
}

func TestDocumentCatalogListFilters(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "doc-1", OwnerID: "owner-1", Title: "Lease", Category: domain.CategoryRealEstate},
		{ID: "doc-2", OwnerID: "owner-1", Title: "Tax return", Category: domain.CategoryTax},
		{ID: "doc-3", OwnerID: "owner-2", Title: "Lease", Category: domain.CategoryRealEstate},
	}}
	uc := NewDocumentCatalogUseCase(repo, nil, nil, nil)

	listing, err := uc.List(context.Background(), "owner-1", domain.DocumentFilter{Query: "lease"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listing.Documents) != 1 || listing.Documents[0].ID != "doc-1" {
		t.Fatalf("unexpected documents %+v", listing.Documents)
	}
	if listing.Total != 2 || listing.CategoryCounts[domain.CategoryTax] != 1 {
		t.Fatalf("expected counts over the owner's documents, got %d %v", listing.Total, listing.CategoryCounts)
	}

	if _, err := uc.List(context.Background(), "owner-1", domain.DocumentFilter{Category: "Spaceflight"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for unknown category, got %v", err)
	}
}

func TestDocumentCatalogUpcomingUsesLocation(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "doc-1", OwnerID: "owner-1", Title: "Invoice", Extracted: domain.ExtractionResult{PaymentDates: []string{"2024-03-15"}}},
	}}
	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 23:30 UTC on the 14th is already the 15th in Berlin.
	now := time.Date(2024, time.March, 14, 23, 30, 0, 0, time.UTC)

	utc, err := NewDocumentCatalogUseCase(repo, nil, time.UTC, nil).Upcoming(context.Background(), "owner-1", now, 0)
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if len(utc) != 1 || utc[0].DaysUntil != 1 {
		t.Fatalf("expected the payment date tomorrow in UTC, got %+v", utc)
	}

	local, err := NewDocumentCatalogUseCase(repo, nil, berlin, nil).Upcoming(context.Background(), "owner-1", now, 0)
	if err != nil {
		t.Fatalf("Upcoming() error = %v", err)
	}
	if len(local) != 0 {
		t.Fatalf("expected no upcoming dates in Berlin, got %+v", local)
	}

	if _, err := NewDocumentCatalogUseCase(repo, nil, nil, nil).Upcoming(context.Background(), "owner-1", now, MaxUpcomingLimit+1); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for oversized limit, got %v", err)
	}
}

func TestDocumentCatalogDelete(t *testing.T) {
	repo := &documentStoreFake{docs: []domain.Document{
		{ID: "doc-1", OwnerID: "owner-1"},
		{ID: "doc-2", OwnerID: "owner-2"},
	}}
	publisher := &feedPublisherFake{}
	uc := NewDocumentCatalogUseCase(repo, publisher, nil, nil)

	if err := uc.Delete(context.Background(), "owner-1", "doc-2"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound for another owner's document, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no event for a missed delete")
	}

	if err := uc.Delete(context.Background(), "owner-1", "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.docs) != 1 || repo.docs[0].ID != "doc-2" {
		t.Fatalf("expected only doc-2 to remain, got %+v", repo.docs)
	}
	if len(publisher.events) != 1 || publisher.events[0].Kind != domain.FeedEventDeleted || publisher.events[0].OwnerID != "owner-1" {
		t.Fatalf("expected one deleted event for owner-1, got %+v", publisher.events)
	}

	if err := uc.Delete(context.Background(), "owner-1", " "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank id, got %v", err)
	}
}
