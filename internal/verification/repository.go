package verification

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrHistoryNotFound signals that no history row matches the lookup.
var ErrHistoryNotFound = errors.New("verification: history item not found")

// historyPageSize caps history reads; there is no pagination cursor beyond it.
const historyPageSize = 20

type Repository interface {
	CreateHistoryItem(ctx context.Context, item *HistoryItem) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error)
	GetByVerificationID(ctx context.Context, userID uuid.UUID, verificationID string) (*HistoryItem, error)
	FindByVerificationID(ctx context.Context, verificationID string) (*HistoryItem, error)
	ListNeedingReview(ctx context.Context) ([]HistoryItem, error)
}

type postgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateHistoryItem(ctx context.Context, item *HistoryItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO verification_results (
			id, user_id, verification_id, document_type, verification_status,
			risk_level, risk_score, risk_recommendation, extracted_data,
			validation_details, storage_key, created_at
		) VALUES (
			:id, :user_id, :verification_id, :document_type, :verification_status,
			:risk_level, :risk_score, :risk_recommendation, :extracted_data,
			:validation_details, :storage_key, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, item)
	return err
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]HistoryItem, error) {
	var items []HistoryItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM verification_results WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2",
		userID, historyPageSize)
	return items, err
}

func (r *postgresRepository) GetByVerificationID(ctx context.Context, userID uuid.UUID, verificationID string) (*HistoryItem, error) {
	var item HistoryItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM verification_results WHERE user_id = $1 AND verification_id = $2",
		userID, verificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByVerificationID looks up a row regardless of owner. Used by the
// admin review queue; user-facing reads stay scoped through
// GetByVerificationID.
func (r *postgresRepository) FindByVerificationID(ctx context.Context, verificationID string) (*HistoryItem, error) {
	var item HistoryItem
	err := r.db.GetContext(ctx, &item,
		"SELECT * FROM verification_results WHERE verification_id = $1",
		verificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHistoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *postgresRepository) ListNeedingReview(ctx context.Context) ([]HistoryItem, error) {
	var items []HistoryItem
	err := r.db.SelectContext(ctx, &items,
		"SELECT * FROM verification_results WHERE UPPER(verification_status) = $1 ORDER BY created_at DESC LIMIT $2",
		string(StatusNeedsReview), historyPageSize)
	return items, err
}

// FlattenResult builds the persisted row for a completed submission.
func FlattenResult(userID uuid.UUID, req SubmitRequest, result *Result, storageKey string) (*HistoryItem, error) {
	item := &HistoryItem{
		ID:                 uuid.New(),
		UserID:             userID,
		VerificationID:     result.VerificationID,
		DocumentType:       req.DocumentType,
		VerificationStatus: string(result.Status),
		RiskLevel:          string(result.RiskAssessment.RiskLevel),
		RiskScore:          result.RiskAssessment.TotalScore,
		RiskRecommendation: result.RiskAssessment.Recommendation,
		StorageKey:         storageKey,
		CreatedAt:          result.CreatedAt,
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	if result.ExtractedData != nil {
		raw, err := json.Marshal(result.ExtractedData)
		if err != nil {
			return nil, err
		}
		item.ExtractedData = raw
	}
	if result.ValidationDetails != nil {
		raw, err := json.Marshal(result.ValidationDetails)
		if err != nil {
			return nil, err
		}
		item.ValidationDetails = raw
	}
	return item, nil
}

// Reconstruct rebuilds a Result from a persisted history row. Stored status
// and level strings are upper-cased defensively (older rows were written with
// differing case) and missing risk fields default to a neutral MEDIUM/0
// rather than failing.
func Reconstruct(item *HistoryItem) *Result {
	status := Status(strings.ToUpper(strings.TrimSpace(item.VerificationStatus)))
	switch status {
	case StatusVerified, StatusNeedsReview, StatusRejected:
	default:
		status = StatusPending
	}

	level := RiskLevel(strings.ToUpper(strings.TrimSpace(item.RiskLevel)))
	switch level {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		level = RiskMedium
	}

	result := &Result{
		VerificationID: item.VerificationID,
		Status:         status,
		RiskAssessment: RiskAssessment{
			TotalScore:     item.RiskScore,
			RiskLevel:      level,
			Color:          riskColor(level),
			Recommendation: item.RiskRecommendation,
		},
		CreatedAt: item.CreatedAt,
	}

	// Stored JSON blobs are opaque and may be null or malformed; both cases
	// simply leave the optional section absent.
	if len(item.ExtractedData) > 0 {
		var extracted ExtractedData
		if err := json.Unmarshal(item.ExtractedData, &extracted); err == nil {
			result.ExtractedData = &extracted
		}
	}
	if len(item.ValidationDetails) > 0 {
		var details ValidationDetails
		if err := json.Unmarshal(item.ValidationDetails, &details); err == nil {
			result.ValidationDetails = &details
		}
	}

	return result
}
