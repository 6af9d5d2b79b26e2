package echo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localspot/localspot/cache"
	"github.com/localspot/localspot/domain"
	apierrors "github.com/localspot/localspot/errors"
)

func newExchangeAPI(t *testing.T) (*AuthAPI, *cache.MemoryExchangeStore) {
	t.Helper()
	store := cache.NewMemoryExchangeStore()
	t.Cleanup(store.Close)
	return &AuthAPI{exchange: store}, store
}

func callExchange(t *testing.T, api *AuthAPI, code string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/exchange?code="+code, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, api.ExchangeHandler(e.NewContext(req, rec)))
	return rec
}

func TestExchangeHandler_RedeemsIssuedToken(t *testing.T) {
	api, store := newExchangeAPI(t)

	token, err := store.Issue(context.Background(), &domain.SessionBundle{
		UserID:      "u1",
		Email:       "amy@example.com",
		Role:        domain.RoleUser,
		AccessToken: "session-token",
		TokenType:   "Bearer",
		ExpiresAt:   time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	rec := callExchange(t, api, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Code   int                  `json:"code"`
		Status string               `json:"status"`
		Data   domain.SessionBundle `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "u1", env.Data.UserID)
	assert.Equal(t, "session-token", env.Data.AccessToken)

	// An immediate duplicate call lands inside the grace window and is
	// served the same bundle.
	rec = callExchange(t, api, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "session-token", env.Data.AccessToken)
}

func TestExchangeHandler_MissingCode(t *testing.T) {
	api, _ := newExchangeAPI(t)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/exchange", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, api.ExchangeHandler(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExchangeHandler_UnknownToken(t *testing.T) {
	api, store := newExchangeAPI(t)

	// With another sign-in outstanding the miss reads as expiry, not a
	// restart.
	_, err := store.Issue(context.Background(), &domain.SessionBundle{
		UserID:      "other",
		AccessToken: "tok",
	})
	require.NoError(t, err)

	rec := callExchange(t, api, "never-issued")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Message, "not found or expired")
}

func TestExchangeHandler_EmptyStoreHintsRestart(t *testing.T) {
	api, _ := newExchangeAPI(t)

	rec := callExchange(t, api, "issued-before-restart")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var apiErr apierrors.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Message, "restarted")
}
