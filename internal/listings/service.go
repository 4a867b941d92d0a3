package listings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
	"tanaestate/portal-backend/pkg/geospatial"
	"tanaestate/portal-backend/pkg/workflows"
)

var (
	ErrNotOwner          = errors.New("listing belongs to another agent")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotEditable       = errors.New("listing can only be edited in DRAFT or REJECTED status")
)

// Notifier pushes listing moderation updates to the owning agent.
// Delivery is best effort.
type Notifier interface {
	ListingStatusChanged(agentID uuid.UUID, listingID uuid.UUID, status, reason string)
}

// Service handles listing business logic
type Service interface {
	Create(ctx context.Context, agentID uuid.UUID, req *CreateListingRequest) (*Listing, error)
	Get(ctx context.Context, id uuid.UUID) (*Listing, error)
	Update(ctx context.Context, agentID uuid.UUID, id uuid.UUID, req *UpdateListingRequest) (*Listing, error)
	Delete(ctx context.Context, agentID uuid.UUID, role auth.Role, id uuid.UUID) error
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]Listing, error)
	Search(ctx context.Context, filters SearchFilters) ([]Listing, int64, error)
	Transition(ctx context.Context, actorID uuid.UUID, role auth.Role, id uuid.UUID, target ListingStatus, reason string) (*Listing, error)
	ExpirePublished(ctx context.Context, ttl time.Duration) (int64, error)
}

type listingService struct {
	repo         Repository
	stateMachine *workflows.StateMachine
	notifier     Notifier
	logger       *zap.Logger
}

// NewService creates a listing service. notifier may be nil.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger) Service {
	return &listingService{
		repo:         repo,
		stateMachine: workflows.NewStateMachine(),
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *listingService) Create(ctx context.Context, agentID uuid.UUID, req *CreateListingRequest) (*Listing, error) {
	if _, err := geospatial.NewPoint(req.Longitude, req.Latitude); err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}

	photos, err := json.Marshal(req.Photos)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photos: %w", err)
	}
	facilities, err := json.Marshal(req.Facilities)
	if err != nil {
		return nil, fmt.Errorf("failed to encode facilities: %w", err)
	}

	listing := &Listing{
		ID:              uuid.New(),
		AgentID:         agentID,
		Title:           req.Title,
		Description:     req.Description,
		Price:           req.Price,
		Address:         req.Address,
		City:            req.City,
		Province:        req.Province,
		LandAreaSqM:     req.LandAreaSqM,
		BuildingAreaSqM: req.BuildingAreaSqM,
		Bedrooms:        req.Bedrooms,
		Bathrooms:       req.Bathrooms,
		CertificateType: req.CertificateType,
		Photos:          photos,
		Facilities:      facilities,
		Longitude:       req.Longitude,
		Latitude:        req.Latitude,
		Status:          StatusDraft,
	}

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	s.logger.Info("listing created",
		zap.String("listing_id", listing.ID.String()),
		zap.String("agent_id", agentID.String()),
		zap.String("city", listing.City))

	return listing, nil
}

func (s *listingService) Get(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *listingService) Update(ctx context.Context, agentID uuid.UUID, id uuid.UUID, req *UpdateListingRequest) (*Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.AgentID != agentID {
		return nil, ErrNotOwner
	}
	if listing.Status != StatusDraft && listing.Status != StatusRejected {
		return nil, ErrNotEditable
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		listing.Price = *req.Price
	}
	if req.Address != nil {
		listing.Address = *req.Address
	}
	if req.City != nil {
		listing.City = *req.City
	}
	if req.Province != nil {
		listing.Province = *req.Province
	}
	if req.LandAreaSqM != nil {
		listing.LandAreaSqM = *req.LandAreaSqM
	}
	if req.BuildingAreaSqM != nil {
		listing.BuildingAreaSqM = *req.BuildingAreaSqM
	}
	if req.Bedrooms != nil {
		listing.Bedrooms = *req.Bedrooms
	}
	if req.Bathrooms != nil {
		listing.Bathrooms = *req.Bathrooms
	}
	if req.Photos != nil {
		photos, err := json.Marshal(*req.Photos)
		if err != nil {
			return nil, fmt.Errorf("failed to encode photos: %w", err)
		}
		listing.Photos = photos
	}
	if req.Facilities != nil {
		facilities, err := json.Marshal(*req.Facilities)
		if err != nil {
			return nil, fmt.Errorf("failed to encode facilities: %w", err)
		}
		listing.Facilities = facilities
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

func (s *listingService) Delete(ctx context.Context, agentID uuid.UUID, role auth.Role, id uuid.UUID) error {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role != auth.RoleAdmin && listing.AgentID != agentID {
		return ErrNotOwner
	}
	return s.repo.Delete(ctx, id)
}

func (s *listingService) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]Listing, error) {
	return s.repo.ListByAgent(ctx, agentID)
}

// Search applies database-level filters, then narrows by radius in memory
// when a center point and radius are given. Radius filtering happens after
// pagination at the database, so a radius page may return fewer rows than
// the page size.
func (s *listingService) Search(ctx context.Context, filters SearchFilters) ([]Listing, int64, error) {
	if filters.Status == "" {
		filters.Status = StatusPublished
	}

	listings, total, err := s.repo.Search(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("search failed: %w", err)
	}

	if filters.RadiusKm <= 0 {
		return listings, total, nil
	}

	center, err := geospatial.NewPoint(filters.CenterLng, filters.CenterLat)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid search center: %w", err)
	}

	within := make([]Listing, 0, len(listings))
	for _, listing := range listings {
		point, err := geospatial.NewPoint(listing.Longitude, listing.Latitude)
		if err != nil {
			continue
		}
		if geospatial.DistanceKm(center, point) <= filters.RadiusKm {
			within = append(within, listing)
		}
	}
	return within, int64(len(within)), nil
}

// Transition moves a listing to a new status. Agents may submit their own
// drafts for review and mark their own published listings sold or archived.
// Publishing and rejecting are reserved for admins.
func (s *listingService) Transition(ctx context.Context, actorID uuid.UUID, role auth.Role, id uuid.UUID, target ListingStatus, reason string) (*Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch target {
	case StatusPublished, StatusRejected:
		if role != auth.RoleAdmin {
			return nil, ErrNotOwner
		}
	default:
		if role != auth.RoleAdmin && listing.AgentID != actorID {
			return nil, ErrNotOwner
		}
	}

	if !s.stateMachine.CanTransition(string(listing.Status), string(target)) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, listing.Status, target)
	}

	previous := listing.Status
	listing.Status = target
	switch target {
	case StatusPublished:
		now := time.Now()
		listing.PublishedAt = &now
		listing.RejectionReason = ""
	case StatusRejected:
		listing.RejectionReason = reason
	case StatusPendingReview:
		listing.RejectionReason = ""
	}

	if err := s.repo.Update(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing status: %w", err)
	}

	s.logger.Info("listing status changed",
		zap.String("listing_id", listing.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(target)))

	if s.notifier != nil {
		s.notifier.ListingStatusChanged(listing.AgentID, listing.ID, string(target), reason)
	}

	return listing, nil
}

// ExpirePublished archives listings that have been published longer than ttl.
func (s *listingService) ExpirePublished(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl)
	archived, err := s.repo.ExpirePublished(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire listings: %w", err)
	}
	if archived > 0 {
		s.logger.Info("expired published listings",
			zap.Int64("archived", archived),
			zap.Time("cutoff", cutoff))
	}
	return archived, nil
}
