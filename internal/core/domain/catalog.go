package domain

import (
	"sort"
	"strings"
	"time"
)

// CategoryAll disables the category filter.
const CategoryAll = "all"

const (
	// DefaultUpcomingLimit is how many upcoming dates a listing shows.
	DefaultUpcomingLimit = 5
	upcomingUrgentDays   = 7
)

// DocumentFilter narrows an owner's document list. The zero value matches
// every document.
type DocumentFilter struct {
	// Query is matched case-insensitively against title, summary and keywords.
	Query    string
	Category string
}

// Normalized trims the filter and maps "all" to no category.
func (f DocumentFilter) Normalized() DocumentFilter {
	out := DocumentFilter{
		Query:    strings.TrimSpace(f.Query),
		Category: strings.TrimSpace(f.Category),
	}
	if strings.EqualFold(out.Category, CategoryAll) {
		out.Category = ""
	}
	return out
}

// ValidCategory reports whether the filter category is empty or a member of
// the enumeration. Aliases are not accepted.
func (f DocumentFilter) ValidCategory() bool {
	c := f.Normalized().Category
	if c == "" {
		return true
	}
	for _, known := range categories {
		if string(known) == c {
			return true
		}
	}
	return false
}

func (f DocumentFilter) Matches(d *Document) bool {
	f = f.Normalized()
	if f.Category != "" && string(d.Category) != f.Category {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	if strings.Contains(strings.ToLower(d.Title), q) || strings.Contains(strings.ToLower(d.Summary), q) {
		return true
	}
	for _, kw := range d.Extracted.Keywords {
		if strings.Contains(strings.ToLower(kw), q) {
			return true
		}
	}
	return false
}

// DocumentListing is a filtered page of documents. Total and CategoryCounts
// describe all of the owner's documents, not only the filtered ones.
type DocumentListing struct {
	Documents      []Document       `json:"documents"`
	Total          int              `json:"total"`
	CategoryCounts map[Category]int `json:"category_counts"`
}

func NewDocumentListing(all []Document, filter DocumentFilter) DocumentListing {
	counts := make(map[Category]int, len(categories))
	for _, c := range categories {
		counts[c] = 0
	}
	matched := make([]Document, 0, len(all))
	for i := range all {
		counts[all[i].Category]++
		if filter.Matches(&all[i]) {
			matched = append(matched, all[i])
		}
	}
	return DocumentListing{
		Documents:      matched,
		Total:          len(all),
		CategoryCounts: counts,
	}
}

// UpcomingDate is one future deadline taken from a document.
type UpcomingDate struct {
	DocumentID string   `json:"document_id"`
	Title      string   `json:"title"`
	Category   Category `json:"category"`
	Date       string   `json:"date"`
	DaysUntil  int      `json:"days_until"`
	Urgent     bool     `json:"urgent"`
}

// UpcomingDates collects the due, expiry, payment and renewal dates plus the
// primary due date of every document, keeps those after today and returns
// the earliest limit of them. Generic dates are left out and a date repeated
// within one document is listed once.
func UpcomingDates(docs []Document, today time.Time, limit int) []UpcomingDate {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	out := make([]UpcomingDate, 0)
	for i := range docs {
		doc := &docs[i]
		seen := make(map[string]struct{})
		for _, raw := range deadlineDates(doc) {
			due, ok := ParseCalendarDate(raw)
			if !ok {
				continue
			}
			days := DaysUntil(due, today)
			if days <= 0 {
				continue
			}
			date := due.Format(DateLayout)
			if _, dup := seen[date]; dup {
				continue
			}
			seen[date] = struct{}{}
			out = append(out, UpcomingDate{
				DocumentID: doc.ID,
				Title:      doc.Title,
				Category:   doc.Category,
				Date:       date,
				DaysUntil:  days,
				Urgent:     days <= upcomingUrgentDays,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysUntil < out[j].DaysUntil
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func deadlineDates(d *Document) []string {
	e := d.Extracted
	out := make([]string, 0, len(e.DueDates)+len(e.ExpiryDates)+len(e.PaymentDates)+len(e.RenewalDates)+1)
	out = append(out, e.DueDates...)
	out = append(out, e.ExpiryDates...)
	out = append(out, e.PaymentDates...)
	out = append(out, e.RenewalDates...)
	if d.PrimaryDueDate != nil && *d.PrimaryDueDate != "" {
		out = append(out, *d.PrimaryDueDate)
	}
	return out
}
