package domain

type PlanID string

const (
	PlanFree       PlanID = "free"
	PlanProMonthly PlanID = "pro_monthly"
	PlanProYearly  PlanID = "pro_yearly"
)

type SubscriptionStatus string

const (
	SubscriptionActive     SubscriptionStatus = "active"
	SubscriptionCanceled   SubscriptionStatus = "canceled"
	SubscriptionPastDue    SubscriptionStatus = "past_due"
	SubscriptionIncomplete SubscriptionStatus = "incomplete"
)

// UnlimitedDocuments marks a plan without a document cap.
const UnlimitedDocuments = -1

type Subscription struct {
	OwnerID string             `json:"owner_id"`
	PlanID  PlanID             `json:"plan_id"`
	Status  SubscriptionStatus `json:"status"`
}

// EffectivePlan falls back to the free plan unless a paid plan is active.
func (s *Subscription) EffectivePlan() PlanID {
	if s == nil || s.Status != SubscriptionActive {
		return PlanFree
	}
	switch s.PlanID {
	case PlanProMonthly, PlanProYearly:
		return s.PlanID
	default:
		return PlanFree
	}
}

// DocumentLimit returns the lifetime document cap for plan.
func DocumentLimit(plan PlanID, freeLimit int) int {
	if plan == PlanFree {
		return freeLimit
	}
	return UnlimitedDocuments
}
