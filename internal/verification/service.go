package verification

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tanaestate/portal-backend/pkg/pdf"
	"tanaestate/portal-backend/pkg/storage"
)

// ErrRateLimited signals the per-user submission budget is exhausted.
var ErrRateLimited = errors.New("verification: rate limit exceeded")

// ErrInvalidDocumentType signals an unknown document type tag.
var ErrInvalidDocumentType = errors.New("verification: invalid document type")

// RateLimiter gates submissions per user. Implementations may fail; the
// service treats limiter errors as an allow (fail-open) by policy.
type RateLimiter interface {
	Allow(key string) (bool, error)
}

// Notifier receives progress and completion events for a user's open
// dashboards. Deliveries are best-effort.
type Notifier interface {
	VerificationProgress(userID uuid.UUID, percent int64)
	VerificationCompleted(userID uuid.UUID, result *Result)
}

// SubmitResponse bundles everything the client needs after a submission.
type SubmitResponse struct {
	Result   *Result    `json:"result"`
	View     ResultView `json:"view"`
	Preview  string     `json:"preview,omitempty"`
	DemoMode bool       `json:"demo_mode"`
}

// HistoryEntry pairs a stored row with its reconstructed result and view.
type HistoryEntry struct {
	Item   HistoryItem `json:"item"`
	Result *Result     `json:"result"`
	View   ResultView  `json:"view"`
}

// HealthStatus reports verification service reachability for UI affordances.
type HealthStatus struct {
	Available bool `json:"available"`
	DemoMode  bool `json:"demo_mode"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error)
	History(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
	Lookup(ctx context.Context, verificationID string) (*Result, error)
	Report(ctx context.Context, userID uuid.UUID, verificationID string) (io.ReadSeeker, error)
	ServiceHealth(ctx context.Context) HealthStatus
	DemoMode() bool
}

type verificationService struct {
	repo      Repository
	client    Client
	validator *FileValidator
	limiter   RateLimiter
	notifier  Notifier
	archive   storage.S3Client
	bucket    string
	keyPrefix string
	pdf       pdf.Generator
	logger    *zap.Logger
}

// ServiceOptions wires the orchestration dependencies. Limiter, notifier and
// archive are optional.
type ServiceOptions struct {
	Repo      Repository
	Client    Client
	Validator *FileValidator
	Limiter   RateLimiter
	Notifier  Notifier
	Archive   storage.S3Client
	Bucket    string
	KeyPrefix string
	PDF       pdf.Generator
	Logger    *zap.Logger
}

func NewService(opts ServiceOptions) Service {
	if opts.Validator == nil {
		opts.Validator = NewFileValidator(nil, 0)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = "users"
	}
	if opts.PDF == nil {
		opts.PDF = pdf.NewGenerator()
	}
	return &verificationService{
		repo:      opts.Repo,
		client:    opts.Client,
		validator: opts.Validator,
		limiter:   opts.Limiter,
		notifier:  opts.Notifier,
		archive:   opts.Archive,
		bucket:    opts.Bucket,
		keyPrefix: opts.KeyPrefix,
		pdf:       opts.PDF,
		logger:    opts.Logger,
	}
}

func (s *verificationService) DemoMode() bool {
	return s.client.DemoMode()
}

// Submit runs one verification: local validation, rate-limit check, remote
// submission, then best-effort archival, persistence and notification. The
// result is returned to the user even when persistence fails; losing a
// history row is non-critical and only logged.
func (s *verificationService) Submit(ctx context.Context, req SubmitRequest) (*SubmitResponse, error) {
	if !IsValidDocumentType(string(req.DocumentType)) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDocumentType, req.DocumentType)
	}
	if err := s.validator.Validate(req.ContentType, req.FileSize); err != nil {
		return nil, err
	}

	if !s.allow(req.UserID.String()) {
		return nil, ErrRateLimited
	}

	storageKey := s.archiveUpload(ctx, req)

	// Simulated progress while the remote call is in flight. The service
	// provides no progress events, so this is a timer-driven illusion that
	// only reaches 100 once the real response lands.
	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	sim := NewProgressSimulator(0, 0)
	sim.Start(progressCtx)
	if s.notifier != nil {
		go s.forwardProgress(progressCtx, req.UserID, sim)
	}

	result, err := s.client.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	sim.Finish()
	if s.notifier != nil {
		s.notifier.VerificationProgress(req.UserID, sim.Percent())
	}

	s.persist(ctx, req, result, storageKey)
	if s.notifier != nil {
		s.notifier.VerificationCompleted(req.UserID, result)
	}

	resp := &SubmitResponse{
		Result:   result,
		View:     Render(result),
		DemoMode: s.client.DemoMode(),
	}

	// Preview generation is best-effort and never blocks the submission.
	if preview, err := Preview(req.ContentType, req.FileContent); err != nil {
		s.logger.Warn("Failed to build upload preview",
			zap.String("file_name", req.FileName), zap.Error(err))
	} else {
		resp.Preview = preview
	}

	return resp, nil
}

// forwardProgress relays simulated progress changes to the user's dashboards
// until the submission settles.
func (s *verificationService) forwardProgress(ctx context.Context, userID uuid.UUID, sim *ProgressSimulator) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	last := int64(-1)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := sim.Percent()
			if current != last {
				s.notifier.VerificationProgress(userID, current)
				last = current
			}
			if current >= 100 {
				return
			}
		}
	}
}

// allow applies the rate limit with an explicit fail-open policy: if the
// limiter itself errors the request goes through. Availability is preferred
// over strictness here.
func (s *verificationService) allow(key string) bool {
	if s.limiter == nil {
		return true
	}
	allowed, err := s.limiter.Allow(key)
	if err != nil {
		s.logger.Warn("Rate limiter failed, allowing request", zap.String("key", key), zap.Error(err))
		return true
	}
	return allowed
}

// archiveUpload stores the original file in object storage. Best-effort: on
// failure the submission continues without an archived copy.
func (s *verificationService) archiveUpload(ctx context.Context, req SubmitRequest) string {
	if s.archive == nil || s.bucket == "" {
		return ""
	}
	key := fmt.Sprintf("%s/%s/certificates/%s/%s%s",
		s.keyPrefix, req.UserID, req.DocumentType, uuid.New(), filepath.Ext(req.FileName))
	if err := s.archive.Upload(ctx, s.bucket, key, bytes.NewReader(req.FileContent)); err != nil {
		s.logger.Warn("Failed to archive certificate upload",
			zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

// persist writes the flattened history row. Best-effort: a failure here must
// not block showing the result to the user.
func (s *verificationService) persist(ctx context.Context, req SubmitRequest, result *Result, storageKey string) {
	item, err := FlattenResult(req.UserID, req, result, storageKey)
	if err != nil {
		s.logger.Error("Failed to flatten verification result",
			zap.String("verification_id", result.VerificationID), zap.Error(err))
		return
	}
	if err := s.repo.CreateHistoryItem(ctx, item); err != nil {
		s.logger.Error("Failed to persist verification history",
			zap.String("verification_id", result.VerificationID), zap.Error(err))
	}
}

func (s *verificationService) History(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("verification: list history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(items))
	for _, item := range items {
		result := Reconstruct(&item)
		entries = append(entries, HistoryEntry{
			Item:   item,
			Result: result,
			View:   Render(result),
		})
	}
	return entries, nil
}

func (s *verificationService) Lookup(ctx context.Context, verificationID string) (*Result, error) {
	return s.client.Lookup(ctx, verificationID)
}

func (s *verificationService) ServiceHealth(ctx context.Context) HealthStatus {
	status := HealthStatus{DemoMode: s.client.DemoMode()}
	if status.DemoMode {
		status.Available = true
		return status
	}
	if err := s.client.Health(ctx); err != nil {
		s.logger.Warn("Verification service health probe failed", zap.Error(err))
		return status
	}
	status.Available = true
	return status
}
