package domain

import "time"

type NotificationType string

const (
	NotificationDueDate NotificationType = "due_date"
	NotificationExpiry  NotificationType = "expiry"
	NotificationPayment NotificationType = "payment"
	NotificationRenewal NotificationType = "renewal"
	NotificationUrgent  NotificationType = "urgent"
	NotificationOverdue NotificationType = "overdue"
)

// DocumentSnapshot is the read-time view of the document a notification points at.
type DocumentSnapshot struct {
	Title    string   `json:"title"`
	Category Category `json:"category"`
	DueDate  *string  `json:"due_date,omitempty"`
}

type Notification struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"owner_id"`
	DocumentID string            `json:"document_id"`
	Message    string            `json:"message"`
	Type       NotificationType  `json:"type"`
	Priority   int               `json:"priority"`
	DueOn      time.Time         `json:"due_on"`
	Read       bool              `json:"read"`
	CreatedAt  time.Time         `json:"created_at"`
	Document   *DocumentSnapshot `json:"document,omitempty"`
}

// DedupeKey identifies "the same reminder": one document, one calendar date,
// one owner. Urgency type is not part of the key.
type DedupeKey struct {
	OwnerID    string
	DocumentID string
	DueOn      string // YYYY-MM-DD
}

func (n *Notification) DedupeKey() DedupeKey {
	return DedupeKey{
		OwnerID:    n.OwnerID,
		DocumentID: n.DocumentID,
		DueOn:      n.DueOn.Format(DateLayout),
	}
}

func UnreadCount(notifications []Notification) int {
	count := 0
	for _, n := range notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Feed is the notification list as shown to the owner.
type Feed struct {
	Notifications []Notification `json:"notifications"`
	UnreadCount   int            `json:"unread_count"`
}

func NewFeed(notifications []Notification) Feed {
	if notifications == nil {
		notifications = []Notification{}
	}
	return Feed{
		Notifications: notifications,
		UnreadCount:   UnreadCount(notifications),
	}
}

type FeedEventKind string

const (
	FeedEventCreated FeedEventKind = "created"
	FeedEventRead    FeedEventKind = "read"
	FeedEventReadAll FeedEventKind = "read_all"
	FeedEventDeleted FeedEventKind = "deleted"
)

// FeedEvent tells subscribers that an owner's notification list changed.
// It carries no list; receivers re-fetch.
type FeedEvent struct {
	OwnerID         string        `json:"owner_id"`
	Kind            FeedEventKind `json:"kind"`
	NotificationIDs []string      `json:"notification_ids,omitempty"`
	At              time.Time     `json:"at"`
}
