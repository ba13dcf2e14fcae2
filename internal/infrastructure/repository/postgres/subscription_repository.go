package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

// SubscriptionRepository reads subscription rows mirrored from the payment
// provider. Writing them is the billing integration's job.
type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// GetByOwner returns nil without error when the owner never subscribed.
func (r *SubscriptionRepository) GetByOwner(ctx context.Context, ownerID string) (*domain.Subscription, error) {
	var plan, status string
	sub := domain.Subscription{OwnerID: ownerID}
	err := r.db.QueryRowContext(ctx, `
SELECT plan_id, status
FROM subscriptions
WHERE owner_id = $1
`, ownerID).Scan(&plan, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	sub.PlanID = domain.PlanID(plan)
	sub.Status = domain.SubscriptionStatus(status)
	return &sub, nil
}
