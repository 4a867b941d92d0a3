package admin

import (
	"time"

	"github.com/google/uuid"

	"tanaestate/portal-backend/internal/verification"
)

// Decision is an admin's verdict on a flagged verification
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Review is an append-only record of a manual verification review
type Review struct {
	ID             uuid.UUID `json:"id" db:"id"`
	VerificationID string    `json:"verification_id" db:"verification_id"`
	ReviewerID     uuid.UUID `json:"reviewer_id" db:"reviewer_id"`
	Decision       Decision  `json:"decision" db:"decision"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// QueueItem is a flagged verification awaiting manual review, joined with
// the submitter's email.
type QueueItem struct {
	Verification   verification.HistoryItem `json:"verification"`
	SubmitterEmail string                   `json:"submitter_email"`
	Reviews        []Review                 `json:"reviews,omitempty"`
}

// ResolveRequest is the payload for recording a review decision
type ResolveRequest struct {
	Decision Decision `json:"decision" binding:"required"`
	Notes    string   `json:"notes"`
}
