package domain

import "time"

// DocumentFailure records a document whose candidates could not be evaluated.
type DocumentFailure struct {
	DocumentID string `json:"document_id"`
	Error      string `json:"error"`
}

// DerivationReport is the outcome of one derivation run over an owner's documents.
type DerivationReport struct {
	OwnerID           string            `json:"owner_id"`
	RanAt             time.Time         `json:"ran_at"`
	DocumentsScanned  int               `json:"documents_scanned"`
	CandidatesSeen    int               `json:"candidates_seen"`
	InvalidDates      int               `json:"invalid_dates"`
	BeyondHorizon     int               `json:"beyond_horizon"`
	DuplicatesSkipped int               `json:"duplicates_skipped"`
	Created           []Notification    `json:"created"`
	Failures          []DocumentFailure `json:"failures,omitempty"`
	InsertError       string            `json:"insert_error,omitempty"`
}

// Complete reports whether every document was evaluated and the batch write
// (if any) succeeded.
func (r *DerivationReport) Complete() bool {
	return len(r.Failures) == 0 && r.InsertError == ""
}

func (r *DerivationReport) Status() string {
	if r.Complete() {
		return "ok"
	}
	return "partial"
}

// SessionResult is what a session start hands to the presenter.
type SessionResult struct {
	Feed       Feed              `json:"feed"`
	Derivation *DerivationReport `json:"derivation,omitempty"`
	// DerivationError is set when the run could not start; the feed is still valid.
	DerivationError string `json:"derivation_error,omitempty"`
}
