package domain

import (
	"path/filepath"
	"strings"
	"time"
)

type DocumentStatus string

const (
	StatusUploaded   DocumentStatus = "uploaded"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusFailed     DocumentStatus = "failed"
)

type Category string

const (
	CategoryRealEstate Category = "Real Estate"
	CategoryBanking    Category = "Banking"
	CategoryTax        Category = "Tax"
	CategoryHealthcare Category = "Healthcare"
	CategoryLegal      Category = "Legal"
	CategoryEmployment Category = "Employment"
	CategoryInsurance  Category = "Insurance"
	CategoryEducation  Category = "Education"
	CategoryUtilities  Category = "Utilities"
	CategoryTravel     Category = "Travel"
	CategoryOther      Category = "Other"
)

var categories = []Category{
	CategoryRealEstate,
	CategoryBanking,
	CategoryTax,
	CategoryHealthcare,
	CategoryLegal,
	CategoryEmployment,
	CategoryInsurance,
	CategoryEducation,
	CategoryUtilities,
	CategoryTravel,
	CategoryOther,
}

// Common classifier answers that are not enumeration members.
var categoryAliases = map[string]Category{
	"Housing":        CategoryRealEstate,
	"Property":       CategoryRealEstate,
	"Rent":           CategoryRealEstate,
	"Rental":         CategoryRealEstate,
	"Finance":        CategoryBanking,
	"Bank":           CategoryBanking,
	"Government":     CategoryTax,
	"Medical":        CategoryHealthcare,
	"Health":         CategoryHealthcare,
	"Work":           CategoryEmployment,
	"Job":            CategoryEmployment,
	"School":         CategoryEducation,
	"University":     CategoryEducation,
	"Utility":        CategoryUtilities,
	"Transportation": CategoryTravel,
}

func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory maps a raw classifier answer onto the fixed enumeration.
// Unknown values become CategoryOther.
func ParseCategory(raw string) Category {
	value := strings.TrimSpace(raw)
	for _, c := range categories {
		if string(c) == value {
			return c
		}
	}
	if mapped, ok := categoryAliases[value]; ok {
		return mapped
	}
	return CategoryOther
}

// ExtractionResult is the per-document bag produced by the AI classifier.
// Every field may be absent.
type ExtractionResult struct {
	Dates        []string `json:"dates,omitempty"`
	Amounts      []string `json:"amounts,omitempty"`
	ReferenceIDs []string `json:"reference_ids,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	DueDates     []string `json:"due_dates,omitempty"`
	ExpiryDates  []string `json:"expiry_dates,omitempty"`
	PaymentDates []string `json:"payment_dates,omitempty"`
	RenewalDates []string `json:"renewal_dates,omitempty"`
}

type Document struct {
	ID             string           `json:"id"`
	OwnerID        string           `json:"owner_id"`
	Title          string           `json:"title"`
	Filename       string           `json:"filename,omitempty"`
	MimeType       string           `json:"mime_type,omitempty"`
	Content        string           `json:"-"`
	Category       Category         `json:"category"`
	Summary        string           `json:"summary,omitempty"`
	Extracted      ExtractionResult `json:"extracted_data"`
	PrimaryDueDate *string          `json:"due_date,omitempty"`
	UrgencyScore   int              `json:"urgency_score,omitempty"`
	Confidence     float64          `json:"confidence_score,omitempty"`
	Status         DocumentStatus   `json:"status"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CandidateDates concatenates every date-bearing field of the document.
// Duplicates across fields are kept.
func (d *Document) CandidateDates() []string {
	e := d.Extracted
	out := make([]string, 0, len(e.DueDates)+len(e.ExpiryDates)+len(e.PaymentDates)+len(e.RenewalDates)+len(e.Dates)+1)
	out = append(out, e.DueDates...)
	out = append(out, e.ExpiryDates...)
	out = append(out, e.PaymentDates...)
	out = append(out, e.RenewalDates...)
	out = append(out, e.Dates...)
	if d.PrimaryDueDate != nil && *d.PrimaryDueDate != "" {
		out = append(out, *d.PrimaryDueDate)
	}
	return out
}

// Classification is what the extraction pipeline persists for a document.
type Classification struct {
	Category     Category         `json:"category"`
	Summary      string           `json:"summary"`
	Extracted    ExtractionResult `json:"extracted_data"`
	UrgencyScore int              `json:"urgency_score"`
	Confidence   float64          `json:"confidence_score"`
	// PrimaryDueDate is nil when the extraction carries no deadline.
	PrimaryDueDate *string `json:"due_date,omitempty"`
}

// ClassificationSource says where a stored classification came from.
type ClassificationSource string

const (
	ClassificationAI       ClassificationSource = "ai"
	ClassificationFallback ClassificationSource = "fallback"
	// ClassificationProvided means the ingest request carried the data.
	ClassificationProvided ClassificationSource = "provided"
)

// RawClassification mirrors the classifier's JSON answer before validation.
type RawClassification struct {
	Category     string           `json:"category"`
	Summary      string           `json:"summary"`
	Extracted    ExtractionResult `json:"extractedData"`
	UrgencyScore *float64         `json:"urgency_score"`
	Confidence   *float64         `json:"confidence_score"`
}

// NormalizeClassification turns an untrusted classifier answer into a
// Classification the rest of the service can rely on.
func NormalizeClassification(raw RawClassification, filename string) Classification {
	out := Classification{
		Category:     ParseCategory(raw.Category),
		Summary:      strings.TrimSpace(raw.Summary),
		Extracted:    normalizeExtraction(raw.Extracted),
		UrgencyScore: 1,
		Confidence:   0.5,
	}
	out.PrimaryDueDate = PrimaryDueDate(out.Extracted)
	if out.Summary == "" {
		out.Summary = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	if raw.UrgencyScore != nil {
		out.UrgencyScore = int(clamp(*raw.UrgencyScore, 1, 10))
	}
	if raw.Confidence != nil {
		out.Confidence = clamp(*raw.Confidence, 0, 1)
	}
	return out
}

// PrimaryDueDate picks the first due, expiry, payment or renewal date, in
// that order of preference. Generic dates never become the primary deadline.
func PrimaryDueDate(e ExtractionResult) *string {
	for _, dates := range [][]string{e.DueDates, e.ExpiryDates, e.PaymentDates, e.RenewalDates} {
		if len(dates) > 0 && dates[0] != "" {
			value := dates[0]
			return &value
		}
	}
	return nil
}

// fallbackRules are checked in order; the first matching keyword wins.
// A rule with contentOnly set ignores the filename.
var fallbackRules = []struct {
	category    Category
	keywords    []string
	contentOnly []string
}{
	{category: CategoryRealEstate, keywords: []string{"sublet", "untermiete", "mietvertrag", "rent"}},
	{category: CategoryBanking, keywords: []string{"bank", "konto"}, contentOnly: []string{"überweisung"}},
	{category: CategoryTax, keywords: []string{"tax", "steuer"}, contentOnly: []string{"finanzamt"}},
	{category: CategoryHealthcare, keywords: []string{"arzt", "kranken", "medical"}},
	{category: CategoryInsurance, keywords: []string{"versicherung", "insurance"}},
	{category: CategoryEmployment, keywords: []string{"arbeit", "employment"}, contentOnly: []string{"gehalt"}},
}

const (
	fallbackUrgency    = 3
	fallbackConfidence = 0.4
)

// FallbackClassification guesses a category from keywords in the content and
// filename. It is used when the AI classifier cannot answer.
func FallbackClassification(filename, content string) Classification {
	lowerContent := strings.ToLower(content)
	lowerName := strings.ToLower(filename)
	category := CategoryOther
rules:
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowerContent, kw) || strings.Contains(lowerName, kw) {
				category = rule.category
				break rules
			}
		}
		for _, kw := range rule.contentOnly {
			if strings.Contains(lowerContent, kw) {
				category = rule.category
				break rules
			}
		}
	}
	return Classification{
		Category:     category,
		Summary:      string(category) + " Document: " + strings.TrimSuffix(filename, filepath.Ext(filename)),
		Extracted:    normalizeExtraction(ExtractionResult{}),
		UrgencyScore: fallbackUrgency,
		Confidence:   fallbackConfidence,
	}
}

func normalizeExtraction(e ExtractionResult) ExtractionResult {
	return ExtractionResult{
		Dates:        compactStrings(e.Dates),
		Amounts:      compactStrings(e.Amounts),
		ReferenceIDs: compactStrings(e.ReferenceIDs),
		Keywords:     compactStrings(e.Keywords),
		DueDates:     compactStrings(e.DueDates),
		ExpiryDates:  compactStrings(e.ExpiryDates),
		PaymentDates: compactStrings(e.PaymentDates),
		RenewalDates: compactStrings(e.RenewalDates),
	}
}

func compactStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// IngestRequest registers a document. Content is classified asynchronously;
// when Content is empty the supplied Extracted data is normalized and kept.
type IngestRequest struct {
	Title          string           `json:"title"`
	Filename       string           `json:"filename"`
	MimeType       string           `json:"mime_type"`
	Content        string           `json:"content"`
	Category       string           `json:"category"`
	Extracted      ExtractionResult `json:"extracted_data"`
	PrimaryDueDate *string          `json:"due_date"`
}
