package listings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tanaestate/portal-backend/internal/auth"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, listing *Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, listing *Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]Listing, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Listing), args.Error(1)
}

func (m *MockRepository) Search(ctx context.Context, filters SearchFilters) ([]Listing, int64, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]Listing), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) ExpirePublished(ctx context.Context, publishedBefore time.Time) (int64, error) {
	args := m.Called(ctx, publishedBefore)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo Repository) Service {
	return NewService(repo, nil, zap.NewNop())
}

type recordingNotifier struct {
	agentID   uuid.UUID
	listingID uuid.UUID
	status    string
	reason    string
	calls     int
}

func (n *recordingNotifier) ListingStatusChanged(agentID uuid.UUID, listingID uuid.UUID, status, reason string) {
	n.agentID = agentID
	n.listingID = listingID
	n.status = status
	n.reason = reason
	n.calls++
}

func TestCreateListing(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*listings.Listing")).Return(nil)

	agentID := uuid.New()
	listing, err := service.Create(context.Background(), agentID, &CreateListingRequest{
		Title:     "Rumah di Bandung",
		Price:     850_000_000,
		City:      "Bandung",
		Longitude: 107.6098,
		Latitude:  -6.9147,
		Photos:    []string{"https://cdn.example.com/1.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, StatusDraft, listing.Status)
	assert.Equal(t, agentID, listing.AgentID)
	repo.AssertExpectations(t)
}

func TestCreateListingRejectsBadCoordinates(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	_, err := service.Create(context.Background(), uuid.New(), &CreateListingRequest{
		Title:     "Rumah",
		Price:     1,
		City:      "Jakarta",
		Longitude: 200,
		Latitude:  0,
	})

	assert.Error(t, err)
	repo.AssertNotCalled(t, "Create")
}

func TestUpdateRequiresOwnership(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: uuid.New(),
		Status:  StatusDraft,
	}, nil)

	title := "New title"
	_, err := service.Update(context.Background(), uuid.New(), listingID, &UpdateListingRequest{Title: &title})
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestUpdateRejectedWhilePublished(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	agentID := uuid.New()
	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: agentID,
		Status:  StatusPublished,
	}, nil)

	price := int64(900_000_000)
	_, err := service.Update(context.Background(), agentID, listingID, &UpdateListingRequest{Price: &price})
	assert.ErrorIs(t, err, ErrNotEditable)
}

func TestTransitionDraftToPendingReview(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	agentID := uuid.New()
	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: agentID,
		Status:  StatusDraft,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*listings.Listing")).Return(nil)

	listing, err := service.Transition(context.Background(), agentID, auth.RoleAgent, listingID, StatusPendingReview, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPendingReview, listing.Status)
}

func TestAgentCannotPublish(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	agentID := uuid.New()
	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: agentID,
		Status:  StatusPendingReview,
	}, nil)

	_, err := service.Transition(context.Background(), agentID, auth.RoleAgent, listingID, StatusPublished, "")
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestAdminPublishSetsPublishedAt(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: uuid.New(),
		Status:  StatusPendingReview,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*listings.Listing")).Return(nil)

	listing, err := service.Transition(context.Background(), uuid.New(), auth.RoleAdmin, listingID, StatusPublished, "")
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, listing.Status)
	require.NotNil(t, listing.PublishedAt)
	assert.WithinDuration(t, time.Now(), *listing.PublishedAt, 5*time.Second)
}

func TestInvalidTransitionRejected(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: uuid.New(),
		Status:  StatusSold,
	}, nil)

	_, err := service.Transition(context.Background(), uuid.New(), auth.RoleAdmin, listingID, StatusPublished, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	repo.AssertNotCalled(t, "Update")
}

func TestRejectRecordsReason(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: uuid.New(),
		Status:  StatusPendingReview,
	}, nil)

	var saved *Listing
	repo.On("Update", mock.Anything, mock.AnythingOfType("*listings.Listing")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*Listing) }).
		Return(nil)

	_, err := service.Transition(context.Background(), uuid.New(), auth.RoleAdmin, listingID, StatusRejected, "photos do not match address")
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "photos do not match address", saved.RejectionReason)
}

func TestTransitionNotifiesAgent(t *testing.T) {
	repo := new(MockRepository)
	notifier := &recordingNotifier{}
	service := NewService(repo, notifier, zap.NewNop())

	agentID := uuid.New()
	listingID := uuid.New()
	repo.On("GetByID", mock.Anything, listingID).Return(&Listing{
		ID:      listingID,
		AgentID: agentID,
		Status:  StatusPendingReview,
	}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*listings.Listing")).Return(nil)

	_, err := service.Transition(context.Background(), uuid.New(), auth.RoleAdmin, listingID, StatusRejected, "blurry photos")
	require.NoError(t, err)
	assert.Equal(t, 1, notifier.calls)
	assert.Equal(t, agentID, notifier.agentID)
	assert.Equal(t, string(StatusRejected), notifier.status)
	assert.Equal(t, "blurry photos", notifier.reason)
}

func TestSearchDefaultsToPublished(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("Search", mock.Anything, mock.MatchedBy(func(f SearchFilters) bool {
		return f.Status == StatusPublished
	})).Return([]Listing{}, int64(0), nil)

	_, _, err := service.Search(context.Background(), SearchFilters{City: "Surabaya"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestSearchRadiusFiltersByDistance(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	// Monas vs a point roughly 600 km away in Surabaya
	near := Listing{ID: uuid.New(), Longitude: 106.8272, Latitude: -6.1754, Status: StatusPublished}
	far := Listing{ID: uuid.New(), Longitude: 112.7521, Latitude: -7.2575, Status: StatusPublished}
	repo.On("Search", mock.Anything, mock.Anything).Return([]Listing{near, far}, int64(2), nil)

	results, total, err := service.Search(context.Background(), SearchFilters{
		CenterLat: -6.2,
		CenterLng: 106.8,
		RadiusKm:  25,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].ID)
}

func TestExpirePublished(t *testing.T) {
	repo := new(MockRepository)
	service := newTestService(repo)

	repo.On("ExpirePublished", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	archived, err := service.ExpirePublished(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), archived)
}
