package domain

import "testing"

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"Banking":     CategoryBanking,
		" Tax ":       CategoryTax,
		"Housing":     CategoryRealEstate,
		"Medical":     CategoryHealthcare,
		"Spaceflight": CategoryOther,
		"":            CategoryOther,
	}
	for raw, want := range tests {
		if got := ParseCategory(raw); got != want {
			t.Fatalf("ParseCategory(%q) = %s, want %s", raw, got, want)
		}
	}
}

func TestNormalizeClassificationDefaults(t *testing.T) {
	cls := NormalizeClassification(RawClassification{}, "water-bill.pdf")

	if cls.Category != CategoryOther {
		t.Fatalf("expected Other, got %s", cls.Category)
	}
	if cls.Summary != "water-bill" {
		t.Fatalf("expected filename summary, got %q", cls.Summary)
	}
	if cls.UrgencyScore != 1 || cls.Confidence != 0.5 {
		t.Fatalf("expected defaults 1/0.5, got %d/%v", cls.UrgencyScore, cls.Confidence)
	}
	if cls.Extracted.DueDates == nil || len(cls.Extracted.DueDates) != 0 {
		t.Fatalf("expected empty non-nil arrays, got %#v", cls.Extracted.DueDates)
	}
}

func TestNormalizeClassificationClamps(t *testing.T) {
	urgency := -4.0
	confidence := 1.7
	cls := NormalizeClassification(RawClassification{
		Category:     "Legal",
		Summary:      "  court summons ",
		UrgencyScore: &urgency,
		Confidence:   &confidence,
	}, "x.txt")

	if cls.UrgencyScore != 1 || cls.Confidence != 1 {
		t.Fatalf("expected clamped 1/1, got %d/%v", cls.UrgencyScore, cls.Confidence)
	}
	if cls.Summary != "court summons" {
		t.Fatalf("expected trimmed summary, got %q", cls.Summary)
	}
}

func TestCandidateDatesOrder(t *testing.T) {
	primary := "2024-06-01"
	doc := Document{
		Extracted: ExtractionResult{
			Dates:        []string{"d"},
			DueDates:     []string{"due"},
			ExpiryDates:  []string{"exp"},
			PaymentDates: []string{"pay"},
			RenewalDates: []string{"ren"},
		},
		PrimaryDueDate: &primary,
	}
	got := doc.CandidateDates()
	want := []string{"due", "exp", "pay", "ren", "d", primary}
	if len(got) != len(want) {
		t.Fatalf("CandidateDates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("CandidateDates() = %v, want %v", got, want)
		}
	}
}

func TestSubscriptionEffectivePlan(t *testing.T) {
	var none *Subscription
	if none.EffectivePlan() != PlanFree {
		t.Fatalf("expected free plan for nil subscription")
	}
	past := &Subscription{PlanID: PlanProMonthly, Status: SubscriptionPastDue}
	if past.EffectivePlan() != PlanFree {
		t.Fatalf("expected free plan for past_due subscription")
	}
	active := &Subscription{PlanID: PlanProYearly, Status: SubscriptionActive}
	if DocumentLimit(active.EffectivePlan(), 10) != UnlimitedDocuments {
		t.Fatalf("expected unlimited documents for active pro plan")
	}
	if DocumentLimit(PlanFree, 10) != 10 {
		t.Fatalf("expected free limit 10")
	}
}

func TestNormalizeClassificationPicksPrimaryDueDate(t *testing.T) {
	tests := []struct {
		name      string
		extracted ExtractionResult
		want      string
	}{
		{name: "due date first", extracted: ExtractionResult{DueDates: []string{"2024-04-01"}, ExpiryDates: []string{"2024-03-01"}}, want: "2024-04-01"},
		{name: "expiry before payment", extracted: ExtractionResult{ExpiryDates: []string{"2024-05-01"}, PaymentDates: []string{"2024-03-01"}}, want: "2024-05-01"},
		{name: "renewal only", extracted: ExtractionResult{RenewalDates: []string{" 2024-12-31 "}}, want: "2024-12-31"},
		{name: "generic dates ignored", extracted: ExtractionResult{Dates: []string{"2024-02-01"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cls := NormalizeClassification(RawClassification{Extracted: tc.extracted}, "x.pdf")
			if tc.want == "" {
				if cls.PrimaryDueDate != nil {
					t.Fatalf("expected no primary due date, got %s", *cls.PrimaryDueDate)
				}
				return
			}
			if cls.PrimaryDueDate == nil || *cls.PrimaryDueDate != tc.want {
				t.Fatalf("PrimaryDueDate = %v, want %s", cls.PrimaryDueDate, tc.want)
			}
		})
	}
}

func TestFallbackClassification(t *testing.T) {
	tests := []struct {
		filename string
		content  string
		want     Category
	}{
		{filename: "Mietvertrag_2024.pdf", content: "", want: CategoryRealEstate},
		{filename: "scan.pdf", content: "Ihre Überweisung wurde ausgeführt", want: CategoryBanking},
		{filename: "konto.pdf", content: "", want: CategoryBanking},
		{filename: "finanzamt.pdf", content: "", want: CategoryOther},
		{filename: "scan.pdf", content: "Schreiben vom Finanzamt", want: CategoryTax},
		{filename: "befund.pdf", content: "Krankenkasse Bescheid", want: CategoryHealthcare},
		{filename: "Versicherung.pdf", content: "", want: CategoryInsurance},
		{filename: "gehalt.pdf", content: "", want: CategoryOther},
		{filename: "scan.pdf", content: "Gehaltsabrechnung März", want: CategoryEmployment},
		{filename: "notes.txt", content: "hello", want: CategoryOther},
	}
	for _, tc := range tests {
		cls := FallbackClassification(tc.filename, tc.content)
		if cls.Category != tc.want {
			t.Errorf("FallbackClassification(%s, %s) category = %s, want %s", tc.filename, tc.content, cls.Category, tc.want)
		}
	}

	cls := FallbackClassification("Mietvertrag_2024.pdf", "")
	if cls.Summary != "Real Estate Document: Mietvertrag_2024" {
		t.Fatalf("unexpected summary %s", cls.Summary)
	}
	if cls.UrgencyScore != 3 || cls.Confidence != 0.4 {
		t.Fatalf("expected 3/0.4, got %d/%v", cls.UrgencyScore, cls.Confidence)
	}
	if cls.PrimaryDueDate != nil || cls.Extracted.DueDates == nil {
		t.Fatalf("expected empty extraction without primary due date")
	}
}
