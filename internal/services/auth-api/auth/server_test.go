package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authx "github.com/NordCoder/Gatekeeper/internal/auth"
)

func newTestRouter(t *testing.T) (*gin.Engine, *fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := newFixture(t, Config{})
	r := gin.New()
	NewServer(f.uc, nil).Mount(r)
	return r, f
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestServer_RegisterValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "not-an-email", "username": "a", "password": "p", "confirm_password": "p",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "validation_error", body.Kind)
	assert.Equal(t, "email", body.Fields["email"])

	rec = do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "a@x.io", "username": "a", "password": "p", "confirm_password": "q",
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(authx.KindPasswordsDidNotMatch), decode[errorResponse](t, rec).Kind)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewBufferString("{"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	r.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestServer_RegisterMultibytePassword(t *testing.T) {
	r, f := newTestRouter(t)
	pw := strings.Repeat("é", 40)

	rec := do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "long@x.io", "username": "long", "password": pw, "confirm_password": pw,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, r, http.MethodPatch, "/api/auth/verify/"+f.mail.last().Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "long@x.io", "password": pw})
	assert.Equal(t, http.StatusOK, rec.Code)

	tooLong := strings.Repeat("a", 257)
	rec = do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "huge@x.io", "username": "huge", "password": tooLong, "confirm_password": tooLong,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "validation_error", decode[errorResponse](t, rec).Kind)
}

func TestServer_Flow(t *testing.T) {
	r, f := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "a@x.io", "username": "a", "password": "p", "confirm_password": "p",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[map[string]any](t, rec)
	assert.Equal(t, "a@x.io", created["email"])
	assert.Equal(t, false, created["is_verified"])
	assert.NotContains(t, created, "PasswordHash")

	rec = do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "a@x.io", "username": "b", "password": "p", "confirm_password": "p",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.io", "password": "p"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, r, http.MethodPatch, "/api/auth/verify/"+f.mail.last().Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully verified", decode[successResponse](t, rec).Message)

	rec = do(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.io", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/auth/login", map[string]string{"email": "a@x.io", "password": "p"})
	require.Equal(t, http.StatusOK, rec.Code)
	pair := decode[tokenPairResponse](t, rec)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	rec = do(t, r, http.MethodPost, "/api/auth/refresh", tokenRequest{Token: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rec.Code)
	refreshed := decode[tokenPairResponse](t, rec)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, refreshed.AccessToken)

	rec = do(t, r, http.MethodPatch, "/api/auth/password_update?token="+pair.AccessToken, map[string]string{
		"old_password": "wrong", "password": "n", "confirm_password": "n",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(authx.KindOldPasswordIncorrect), decode[errorResponse](t, rec).Kind)

	rec = do(t, r, http.MethodPatch, "/api/auth/password_update?token="+pair.AccessToken, map[string]string{
		"old_password": "p", "password": "n", "confirm_password": "n",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password successfully updated", decode[successResponse](t, rec).Message)

	rec = do(t, r, http.MethodPost, "/api/auth/logout", tokenRequest{Token: pair.AccessToken})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Successfully logged out", decode[successResponse](t, rec).Message)

	rec = do(t, r, http.MethodPost, "/api/auth/logout", tokenRequest{Token: pair.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, string(authx.KindAuthFailed), decode[errorResponse](t, rec).Kind)
}

func TestServer_ForgotAndReset(t *testing.T) {
	r, f := newTestRouter(t)
	f.registerVerified(t, "a@x.io", "a", "p")

	rec := do(t, r, http.MethodPost, "/api/auth/forgot_password", forgotPasswordRequest{Email: "nobody@x.io"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodPost, "/api/auth/forgot_password", forgotPasswordRequest{Email: "a@x.io"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Email with reset token successfully sent", decode[successResponse](t, rec).Message)
	reset := f.mail.last().Token

	rec = do(t, r, http.MethodPatch, "/api/auth/password_reset", passwordResetRequest{Password: "n", ConfirmPassword: "n"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, r, http.MethodPatch, "/api/auth/password_reset?token="+reset, passwordResetRequest{Password: "n", ConfirmPassword: "n"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Password successfully reset", decode[successResponse](t, rec).Message)

	rec = do(t, r, http.MethodPatch, "/api/auth/password_reset?token="+reset, passwordResetRequest{Password: "x", ConfirmPassword: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_GetUser(t *testing.T) {
	r, f := newTestRouter(t)
	acc := f.registerVerified(t, "a@x.io", "a", "p")

	rec := do(t, r, http.MethodGet, "/api/auth/users/"+acc.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, acc.ID.String(), decode[map[string]any](t, rec)["id"])

	rec = do(t, r, http.MethodGet, "/api/auth/users/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, r, http.MethodGet, "/api/auth/users/not-a-uuid", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_InternalErrorIsOpaque(t *testing.T) {
	r, f := newTestRouter(t)
	f.mail.err = errors.New("outbox down")

	rec := do(t, r, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "a@x.io", "username": "a", "password": "p", "confirm_password": "p",
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Equal(t, "internal", body.Kind)
	assert.NotContains(t, rec.Body.String(), "outbox down")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(authx.KindUsernameAlreadyTaken))
	assert.Equal(t, http.StatusInternalServerError, statusFor(authx.Kind("unknown")))
}
