package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/career-compass/internal/models"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/repository/common"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	profiles     map[uuid.UUID]*models.Profile
	createErr    error
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		profiles:     make(map[uuid.UUID]*models.Profile),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User, profile *models.Profile) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.usersByEmail[user.Email]; ok {
		return common.ErrAlreadyExists
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	profile.UserID = user.ID
	profile.UpdatedAt = user.CreatedAt
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	m.profiles[user.ID] = profile
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, common.ErrNotFound
}

func (m *mockAuthRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if profile, ok := m.profiles[userID]; ok {
		return profile, nil
	}
	return nil, common.ErrNotFound
}

func newTestAuthService(repo AuthRepository) (*AuthService, *TokenManager) {
	tokens := NewTokenManager("access-secret", time.Minute)
	svc := NewAuthService(repo, tokens, time.Second)
	svc.hashCost = bcrypt.MinCost
	return svc, tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	repo := newMockAuthRepository()
	svc, tokens := newTestAuthService(repo)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Email:    "Test@Example.com",
		Password: "Password123",
		Role:     models.RoleHost,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, res.User.ID)
	assert.Equal(t, "test@example.com", res.User.Email)
	assert.Equal(t, "test", res.Profile.DisplayName)
	assert.Equal(t, models.RoleHost, res.Profile.Role)
	assert.NotEqual(t, "Password123", res.User.PasswordHash)

	loginRes, err := svc.Login(ctx, LoginInput{Email: "test@example.com", Password: "Password123"})
	require.NoError(t, err)
	require.NotEmpty(t, loginRes.Token.Token)

	userID, role, err := tokens.ParseAccess(loginRes.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
	assert.Equal(t, models.RoleHost, role)
}

func TestAuthService_RegisterDefaultsToSeeker(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepository())

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:       "seeker@example.com",
		Password:    "Password123",
		DisplayName: "Анна",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeeker, res.User.Role)
	assert.Equal(t, "Анна", res.Profile.DisplayName)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepository())
	ctx := context.Background()
	in := RegisterInput{Email: "dup@example.com", Password: "Password123"}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in)
	assert.True(t, apperror.IsAlreadyExists(err))
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepository())
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"email":    {Email: "not-an-email", Password: "Password123"},
		"password": {Email: "a@example.com", Password: "short"},
		"role":     {Email: "a@example.com", Password: "Password123", Role: "admin"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(ctx, in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestAuthService_RegisterStoreFailure(t *testing.T) {
	repo := newMockAuthRepository()
	repo.createErr = errors.New("connection refused")
	svc, _ := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@example.com", Password: "Password123"})
	assert.Equal(t, apperror.ErrCodeRemoteWriteFailed, apperror.CodeOf(err))
}

func TestAuthService_RegisterDerivesValidDisplayName(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepository())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "a@example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, fallbackDisplayName, res.Profile.DisplayName)

	res, err = svc.Register(ctx, RegisterInput{Email: "olga+work@example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, fallbackDisplayName, res.Profile.DisplayName)

	res, err = svc.Register(ctx, RegisterInput{Email: "ivan.petrov@example.com", Password: "Password123"})
	require.NoError(t, err)
	assert.Equal(t, "ivan.petrov", res.Profile.DisplayName)
}

func TestAuthService_LoginInvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService(newMockAuthRepository())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Email: "user@example.com", Password: "Password123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "user@example.com", Password: "Wrong12345"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "missing@example.com", Password: "Password123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_IssueToken(t *testing.T) {
	repo := newMockAuthRepository()
	svc, tokens := newTestAuthService(repo)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Email: "cli@example.com", Password: "Password123"})
	require.NoError(t, err)

	token, err := svc.IssueToken(ctx, res.User.ID)
	require.NoError(t, err)
	userID, _, err := tokens.ParseAccess(token.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)

	_, err = svc.IssueToken(ctx, uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issued, err := NewTokenManager("one", time.Minute).Generate(uuid.New(), models.RoleSeeker)
	require.NoError(t, err)

	_, _, err = NewTokenManager("two", time.Minute).ParseAccess(issued.Token)
	assert.Error(t, err)
}
