package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func TestRegister(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	ctx := context.Background()

	mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*auth.User")).Return(nil)

	user, err := service.Register(ctx, RegisterRequest{
		Email:    "Agent@Example.com",
		Password: "strongpassword",
		FullName: "Agent Example",
		Role:     RoleAgent,
	})

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "agent@example.com", user.Email)
	assert.Equal(t, RoleAgent, user.Role)
	assert.NotEqual(t, "strongpassword", user.PasswordHash)

	mockRepo.AssertExpectations(t)
}

func TestRegisterDefaultsToBuyer(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	ctx := context.Background()

	mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*auth.User")).Return(nil)

	user, err := service.Register(ctx, RegisterRequest{
		Email:    "buyer@example.com",
		Password: "strongpassword",
		FullName: "Buyer Example",
	})

	assert.NoError(t, err)
	assert.Equal(t, RoleBuyer, user.Role)
}

func TestRegisterWeakPassword(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)

	_, err := service.Register(context.Background(), RegisterRequest{
		Email:    "agent@example.com",
		Password: "short",
		FullName: "Agent Example",
	})

	assert.ErrorIs(t, err, ErrWeakPassword)
	mockRepo.AssertNotCalled(t, "CreateUser")
}

func TestLoginAndVerifyToken(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	ctx := context.Background()

	// Register through the service so the stored hash is real.
	var created *User
	mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*auth.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*User)
	}).Return(nil)

	_, err := service.Register(ctx, RegisterRequest{
		Email:    "agent@example.com",
		Password: "strongpassword",
		FullName: "Agent Example",
		Role:     RoleAgent,
	})
	assert.NoError(t, err)

	mockRepo.On("GetUserByEmail", ctx, "agent@example.com").Return(created, nil)

	result, err := service.Login(ctx, LoginRequest{Email: "agent@example.com", Password: "strongpassword"})
	assert.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	userID, role, err := service.VerifyToken(result.Token)
	assert.NoError(t, err)
	assert.Equal(t, created.ID, userID)
	assert.Equal(t, RoleAgent, role)
}

func TestLoginWrongPassword(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	ctx := context.Background()

	var created *User
	mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*auth.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*User)
	}).Return(nil)

	_, err := service.Register(ctx, RegisterRequest{
		Email:    "agent@example.com",
		Password: "strongpassword",
		FullName: "Agent Example",
	})
	assert.NoError(t, err)

	mockRepo.On("GetUserByEmail", ctx, "agent@example.com").Return(created, nil)

	_, err = service.Login(ctx, LoginRequest{Email: "agent@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	ctx := context.Background()

	mockRepo.On("GetUserByEmail", ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

	_, err := service.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyTokenRejectsTampered(t *testing.T) {
	mockRepo := new(MockRepository)
	service := NewService(mockRepo, "test-secret", 24*time.Hour)
	other := NewService(mockRepo, "other-secret", 24*time.Hour)
	ctx := context.Background()

	var created *User
	mockRepo.On("CreateUser", ctx, mock.AnythingOfType("*auth.User")).Run(func(args mock.Arguments) {
		created = args.Get(1).(*User)
	}).Return(nil)

	_, err := service.Register(ctx, RegisterRequest{
		Email:    "agent@example.com",
		Password: "strongpassword",
		FullName: "Agent Example",
	})
	assert.NoError(t, err)

	mockRepo.On("GetUserByEmail", ctx, "agent@example.com").Return(created, nil)
	result, err := service.Login(ctx, LoginRequest{Email: "agent@example.com", Password: "strongpassword"})
	assert.NoError(t, err)

	_, _, err = other.VerifyToken(result.Token)
	assert.Error(t, err)
}
