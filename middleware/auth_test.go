package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot/domain"
	apierrors "github.com/localspot/localspot/errors"
)

// --- Mock implementations ---

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) SetUserStatus(ctx context.Context, id string, status domain.UserStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// --- Helpers ---

func runGate(t *testing.T, users domain.UserRepository, principal *domain.Principal) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/discussions", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if principal != nil {
		c.Set(PrincipalContextKey, principal)
	}

	handler := RequireVerifiedEmail(users)(func(c echo.Context) error {
		return c.JSON(http.StatusCreated, map[string]string{"ok": "true"})
	})
	require.NoError(t, handler(c))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apierrors.APIError {
	t.Helper()
	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

// --- Tests ---

func TestRequireVerifiedEmail_AllowsVerified(t *testing.T) {
	users := new(MockUserRepository)
	now := time.Now().UTC()
	users.On("GetUserByID", mock.Anything, "u1").Return(&domain.User{
		ID:              "u1",
		Role:            domain.RoleUser,
		Status:          domain.UserStatusActive,
		EmailVerifiedAt: &now,
	}, nil)

	rec := runGate(t, users, &domain.Principal{ID: "u1", Role: domain.RoleUser})

	assert.Equal(t, http.StatusCreated, rec.Code)
	users.AssertExpectations(t)
}

func TestRequireVerifiedEmail_BlocksUnverified(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, "u1").Return(&domain.User{
		ID:     "u1",
		Role:   domain.RoleUser,
		Status: domain.UserStatusActive,
	}, nil)

	rec := runGate(t, users, &domain.Principal{ID: "u1", Role: domain.RoleUser})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	apiErr := decodeError(t, rec)
	assert.Equal(t, apierrors.VerificationRequiredMessage, apiErr.Message)
}

func TestRequireVerifiedEmail_RequiresAuthentication(t *testing.T) {
	users := new(MockUserRepository)

	rec := runGate(t, users, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	users.AssertNotCalled(t, "GetUserByID")
}

func TestRequireVerifiedEmail_PrincipalMissingFromStore(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, "ghost").Return(nil, domain.ErrUserNotFound)

	rec := runGate(t, users, &domain.Principal{ID: "ghost", Role: domain.RoleUser})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequireVerifiedEmail_LookupFailure(t *testing.T) {
	users := new(MockUserRepository)
	users.On("GetUserByID", mock.Anything, "u1").Return(nil, errors.New("connection reset"))

	rec := runGate(t, users, &domain.Principal{ID: "u1", Role: domain.RoleUser})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireVerifiedEmail_FreshLookupPerRequest(t *testing.T) {
	// Verification state must be read on every request, so a revocation is
	// visible immediately on the next call.
	users := new(MockUserRepository)
	now := time.Now().UTC()
	verified := &domain.User{ID: "u1", Role: domain.RoleUser, EmailVerifiedAt: &now}
	unverified := &domain.User{ID: "u1", Role: domain.RoleUser}

	users.On("GetUserByID", mock.Anything, "u1").Return(verified, nil).Once()
	users.On("GetUserByID", mock.Anything, "u1").Return(unverified, nil).Once()

	principal := &domain.Principal{ID: "u1", Role: domain.RoleUser}
	first := runGate(t, users, principal)
	second := runGate(t, users, principal)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusForbidden, second.Code)
	users.AssertExpectations(t)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	handler := RequireRole(domain.RoleAdmin)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(PrincipalContextKey, &domain.Principal{ID: "a1", Role: domain.RoleAdmin})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("non-admin refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(PrincipalContextKey, &domain.Principal{ID: "u1", Role: domain.RoleUser})
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, handler(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
