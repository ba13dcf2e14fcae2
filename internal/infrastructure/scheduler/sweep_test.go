package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

type ownersFake struct {
	owners []string
	err    error
}

func (f *ownersFake) ListOwners(context.Context) ([]string, error) {
	return f.owners, f.err
}

type deriverFake struct {
	reports map[string]*domain.DerivationReport
	errs    map[string]error
	seen    []string
}

func (f *deriverFake) Derive(_ context.Context, ownerID string, _ time.Time) (*domain.DerivationReport, error) {
	f.seen = append(f.seen, ownerID)
	if err := f.errs[ownerID]; err != nil {
		return nil, err
	}
	if report, ok := f.reports[ownerID]; ok {
		return report, nil
	}
	return &domain.DerivationReport{OwnerID: ownerID}, nil
}

type observerFake struct {
	summaries []SweepSummary
}

func (o *observerFake) ObserveSweep(summary SweepSummary, _ error) {
	o.summaries = append(o.summaries, summary)
}

func TestRunOnceDerivesEveryOwner(t *testing.T) {
	deriver := &deriverFake{
		reports: map[string]*domain.DerivationReport{
			"owner-1": {OwnerID: "owner-1", Created: []domain.Notification{{ID: "a"}, {ID: "b"}}},
			"owner-2": {OwnerID: "owner-2", Failures: []domain.DocumentFailure{{DocumentID: "d"}}},
		},
		errs: map[string]error{"owner-3": domain.ErrTemporary},
	}
	observer := &observerFake{}
	sweeper := NewSweeper(&ownersFake{owners: []string{"owner-1", "owner-2", "owner-3"}}, deriver, observer, nil)

	summary, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(deriver.seen) != 3 {
		t.Fatalf("expected 3 derive calls, got %v", deriver.seen)
	}
	if summary.Owners != 3 || summary.Created != 2 || summary.Partial != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(observer.summaries) != 1 || observer.summaries[0].Created != 2 {
		t.Fatalf("expected one observed sweep, got %+v", observer.summaries)
	}
}

func TestRunOnceListFailure(t *testing.T) {
	sweeper := NewSweeper(&ownersFake{err: errors.New("db down")}, &deriverFake{}, nil, nil)
	if _, err := sweeper.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStartRejectsInvalidSpec(t *testing.T) {
	sweeper := NewSweeper(&ownersFake{}, &deriverFake{}, nil, nil)
	if err := sweeper.Start("every now and then"); err == nil {
		t.Fatalf("expected invalid spec error")
	}
}

func TestStartAndStop(t *testing.T) {
	sweeper := NewSweeper(&ownersFake{}, &deriverFake{}, nil, nil)
	if err := sweeper.Start(""); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	sweeper.Stop(ctx)
}
