package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, owner_id, title, filename, mime_type, category, summary, extracted_data, due_date, urgency_score, confidence, status, error_message, created_at, updated_at`

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	extractedJSON, err := json.Marshal(doc.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO documents (
	id, owner_id, title, filename, mime_type, content, category, summary, extracted_data, due_date, urgency_score, confidence, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
`,
		doc.ID, doc.OwnerID, doc.Title, doc.Filename, doc.MimeType, doc.Content, string(doc.Category), doc.Summary,
		extractedJSON, doc.PrimaryDueDate, doc.UrgencyScore, doc.Confidence, string(doc.Status), doc.Error,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE owner_id = $1 AND id = $2
`, ownerID, id)

	doc, err := scanDocument(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

// GetForProcessing loads a document with its content regardless of owner.
// Only the ingestion worker calls it.
func (r *DocumentRepository) GetForProcessing(ctx context.Context, id string) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+documentColumns+`, content
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document for processing", fmt.Errorf("id=%s", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+documentColumns+`
FROM documents
WHERE owner_id = $1
ORDER BY created_at DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows, false)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

func (r *DocumentRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT owner_id FROM documents ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		out = append(out, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return requireAffected(result, "update document status", id)
}

func (r *DocumentRepository) SaveClassification(ctx context.Context, id string, cls domain.Classification) error {
	extractedJSON, err := json.Marshal(cls.Extracted)
	if err != nil {
		return fmt.Errorf("marshal extracted data: %w", err)
	}
	var dueDate sql.NullString
	if cls.PrimaryDueDate != nil {
		dueDate = sql.NullString{String: *cls.PrimaryDueDate, Valid: true}
	}
	// A due date given at ingest is kept over the derived one.
	result, err := r.db.ExecContext(ctx, `
UPDATE documents
SET category = $2, summary = $3, extracted_data = $4, urgency_score = $5, confidence = $6, updated_at = $7,
	due_date = COALESCE(NULLIF(due_date, ''), $8)
WHERE id = $1
`, id, string(cls.Category), cls.Summary, extractedJSON, cls.UrgencyScore, cls.Confidence, time.Now().UTC(), dueDate)
	if err != nil {
		return fmt.Errorf("save classification: %w", err)
	}
	return requireAffected(result, "save classification", id)
}

func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM documents
WHERE owner_id = $1 AND id = $2
`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document rows affected: %w", err)
	}
	return rows > 0, nil
}

func requireAffected(result sql.Result, operation, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, operation, fmt.Errorf("id=%s", id))
	}
	return nil
}

func scanDocument(row rowScanner, withContent bool) (domain.Document, error) {
	var (
		doc          domain.Document
		category     string
		summary      sql.NullString
		extractedRaw []byte
		dueDate      sql.NullString
		status       string
		errMessage   sql.NullString
		content      sql.NullString
	)
	dest := []any{
		&doc.ID, &doc.OwnerID, &doc.Title, &doc.Filename, &doc.MimeType, &category, &summary,
		&extractedRaw, &dueDate, &doc.UrgencyScore, &doc.Confidence, &status, &errMessage,
		&doc.CreatedAt, &doc.UpdatedAt,
	}
	if withContent {
		dest = append(dest, &content)
	}
	if err := row.Scan(dest...); err != nil {
		return domain.Document{}, err
	}

	if len(extractedRaw) > 0 {
		if err := json.Unmarshal(extractedRaw, &doc.Extracted); err != nil {
			return domain.Document{}, fmt.Errorf("unmarshal extracted data: %w", err)
		}
	}
	doc.Category = domain.ParseCategory(category)
	doc.Summary = summary.String
	if dueDate.Valid && dueDate.String != "" {
		value := dueDate.String
		doc.PrimaryDueDate = &value
	}
	doc.Status = domain.DocumentStatus(status)
	doc.Error = errMessage.String
	doc.Content = content.String
	return doc, nil
}
