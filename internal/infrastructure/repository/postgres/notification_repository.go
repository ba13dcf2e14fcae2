package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

type NotificationRepository struct {
	db               *sql.DB
	rowsPerStatement int
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db, rowsPerStatement: maxNotificationRowsPerStatement}
}

const (
	notificationInsertColumns = 8
	// PostgreSQL binds at most 65535 parameters per statement.
	maxNotificationRowsPerStatement = 65535 / notificationInsertColumns
)

// InsertBatch stores the batch completely or not at all. Batches that do not
// fit into one statement are split across statements in one transaction.
func (r *NotificationRepository) InsertBatch(ctx context.Context, notifications []domain.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	chunk := r.rowsPerStatement
	if chunk <= 0 || chunk > maxNotificationRowsPerStatement {
		chunk = maxNotificationRowsPerStatement
	}
	if len(notifications) <= chunk {
		query, args := buildNotificationInsert(notifications)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert notifications: %w", err)
		}
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin notifications tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(notifications); start += chunk {
		end := min(start+chunk, len(notifications))
		query, args := buildNotificationInsert(notifications[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert notifications: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit notifications tx: %w", err)
	}
	return nil
}

func buildNotificationInsert(notifications []domain.Notification) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO notifications (id, user_id, document_id, message, type, priority, due_on, created_at) VALUES ")
	args := make([]any, 0, len(notifications)*notificationInsertColumns)
	for i, n := range notifications {
		if i > 0 {
			b.WriteString(",")
		}
		base := i * notificationInsertColumns
		fmt.Fprintf(&b, "($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			n.ID, n.OwnerID, n.DocumentID, n.Message, string(n.Type), n.Priority,
			n.DueOn.Format(domain.DateLayout), n.CreatedAt,
		)
	}
	return b.String(), args
}

func (r *NotificationRepository) ExistsSince(ctx context.Context, key domain.DedupeKey, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (
	SELECT 1 FROM notifications
	WHERE user_id = $1 AND document_id = $2 AND due_on = $3 AND created_at >= $4
)
`, key.OwnerID, key.DocumentID, key.DueOn, since.UTC()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check recent notification: %w", err)
	}
	return exists, nil
}

func (r *NotificationRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT n.id, n.user_id, n.document_id, n.message, n.type, n.priority, n.due_on, n.read, n.created_at,
	d.title, d.category, d.due_date
FROM notifications n
LEFT JOIN documents d ON d.id = n.document_id AND d.owner_id = n.user_id
WHERE n.user_id = $1
ORDER BY n.created_at DESC, n.priority DESC
LIMIT $2
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE notifications
SET read = true
WHERE user_id = $1 AND id = $2
`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, ownerID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
UPDATE notifications
SET read = true
WHERE user_id = $1 AND read = false
`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read rows affected: %w", err)
	}
	return rows, nil
}

func (r *NotificationRepository) Delete(ctx context.Context, ownerID, id string) (domain.DedupeKey, bool, error) {
	var (
		documentID string
		dueOn      time.Time
	)
	err := r.db.QueryRowContext(ctx, `
DELETE FROM notifications
WHERE user_id = $1 AND id = $2
RETURNING document_id, due_on
`, ownerID, id).Scan(&documentID, &dueOn)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DedupeKey{}, false, nil
	}
	if err != nil {
		return domain.DedupeKey{}, false, fmt.Errorf("delete notification: %w", err)
	}
	return domain.DedupeKey{
		OwnerID:    ownerID,
		DocumentID: documentID,
		DueOn:      dueOn.Format(domain.DateLayout),
	}, true, nil
}

func scanNotification(row rowScanner) (domain.Notification, error) {
	var (
		n        domain.Notification
		typ      string
		title    sql.NullString
		category sql.NullString
		dueDate  sql.NullString
	)
	err := row.Scan(
		&n.ID, &n.OwnerID, &n.DocumentID, &n.Message, &typ, &n.Priority, &n.DueOn, &n.Read, &n.CreatedAt,
		&title, &category, &dueDate,
	)
	if err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	if title.Valid {
		snapshot := &domain.DocumentSnapshot{
			Title:    title.String,
			Category: domain.ParseCategory(category.String),
		}
		if dueDate.Valid && dueDate.String != "" {
			value := dueDate.String
			snapshot.DueDate = &value
		}
		n.Document = snapshot
	}
	return n, nil
}
