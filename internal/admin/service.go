package admin

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
	"tanaestate/portal-backend/internal/verification"
)

var ErrInvalidDecision = errors.New("decision must be APPROVE or REJECT")

// Service handles manual review of flagged verifications
type Service interface {
	Queue(ctx context.Context) ([]QueueItem, error)
	Resolve(ctx context.Context, reviewerID uuid.UUID, verificationID string, req *ResolveRequest) (*Review, error)
	ExportQueue(ctx context.Context) (*bytes.Buffer, error)
}

type adminService struct {
	reviews       Repository
	verifications verification.Repository
	users         auth.Repository
	logger        *zap.Logger
}

// NewService creates an admin review service
func NewService(reviews Repository, verifications verification.Repository, users auth.Repository, logger *zap.Logger) Service {
	return &adminService{
		reviews:       reviews,
		verifications: verifications,
		users:         users,
		logger:        logger,
	}
}

// Queue lists verifications flagged NEEDS_REVIEW, newest first, with the
// submitter's email and any prior review decisions attached.
func (s *adminService) Queue(ctx context.Context) ([]QueueItem, error) {
	items, err := s.verifications.ListNeedingReview(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load review queue: %w", err)
	}

	queue := make([]QueueItem, 0, len(items))
	for _, item := range items {
		entry := QueueItem{Verification: item}

		if user, err := s.users.GetUserByID(ctx, item.UserID); err == nil {
			entry.SubmitterEmail = user.Email
		} else {
			s.logger.Warn("failed to resolve submitter",
				zap.String("user_id", item.UserID.String()),
				zap.Error(err))
		}

		if reviews, err := s.reviews.ListReviewsByVerification(ctx, item.VerificationID); err == nil {
			entry.Reviews = reviews
		}

		queue = append(queue, entry)
	}
	return queue, nil
}

// Resolve records a review decision for a flagged verification. Decisions
// never mutate the stored verification result, the review trail is the
// source of truth for manual outcomes.
func (s *adminService) Resolve(ctx context.Context, reviewerID uuid.UUID, verificationID string, req *ResolveRequest) (*Review, error) {
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return nil, ErrInvalidDecision
	}

	if _, err := s.verifications.FindByVerificationID(ctx, verificationID); err != nil {
		return nil, err
	}

	review := &Review{
		VerificationID: verificationID,
		ReviewerID:     reviewerID,
		Decision:       req.Decision,
		Notes:          req.Notes,
	}
	if err := s.reviews.CreateReview(ctx, review); err != nil {
		return nil, err
	}

	s.logger.Info("verification reviewed",
		zap.String("verification_id", verificationID),
		zap.String("reviewer_id", reviewerID.String()),
		zap.String("decision", string(req.Decision)))

	return review, nil
}

// ExportQueue renders the current review queue as an XLSX workbook.
func (s *adminService) ExportQueue(ctx context.Context) (*bytes.Buffer, error) {
	queue, err := s.Queue(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Review Queue"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Verification ID", "Submitter", "Document Type", "Status", "Risk Level", "Risk Score", "Submitted At", "Last Decision"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, item := range queue {
		lastDecision := ""
		if len(item.Reviews) > 0 {
			lastDecision = string(item.Reviews[0].Decision)
		}
		values := []interface{}{
			item.Verification.VerificationID,
			item.SubmitterEmail,
			string(item.Verification.DocumentType),
			item.Verification.VerificationStatus,
			item.Verification.RiskLevel,
			item.Verification.RiskScore,
			item.Verification.CreatedAt.Format("2006-01-02 15:04:05"),
			lastDecision,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}
