package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yummyfi/yummyfi-backend/services"
)

func TestLogin(t *testing.T) {
	app := setupTestApp(t, "")

	w := app.do(t, http.MethodPost, "/login", map[string]string{"email": "ADMIN@yummyfi.in ", "password": staffPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sess services.Session
	decode(t, w, &sess)
	assert.True(t, sess.Admin)
	assert.Equal(t, adminEmail, sess.Email)
	assert.Equal(t, "Admin", sess.DisplayName)
	assert.Greater(t, sess.ExpiresAt, int64(0))

	w = app.do(t, http.MethodPost, "/login", map[string]string{"email": adminEmail, "password": "wrong-password"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/login", map[string]string{"email": "nobody@yummyfi.in", "password": staffPassword}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(t, http.MethodPost, "/login", map[string]string{"email": adminEmail}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRateLimited(t *testing.T) {
	app := setupTestApp(t, "")
	bad := map[string]string{"email": adminEmail, "password": "guess"}

	for i := 0; i < 5; i++ {
		w := app.do(t, http.MethodPost, "/login", bad, nil)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := app.do(t, http.MethodPost, "/login", bad, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestProfileAndLogout(t *testing.T) {
	app := setupTestApp(t, "")
	token := app.login(t, staffEmail)

	w := app.do(t, http.MethodGet, "/admin/profile", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)
	var id services.Identity
	decode(t, w, &id)
	assert.Equal(t, staffEmail, id.Email)
	assert.False(t, id.Admin)

	w = app.do(t, http.MethodGet, "/admin/profile", nil, map[string]string{"Authorization": "Token " + token})
	assert.Equal(t, http.StatusUnauthorized, w.Code, "only bearer tokens are accepted")

	w = app.do(t, http.MethodPost, "/admin/logout", nil, bearer(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/admin/profile", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, w.Code, "signed-out tokens are rejected")
}

func TestAdminGate(t *testing.T) {
	app := setupTestApp(t, "")
	staff := app.login(t, staffEmail)
	admin := app.login(t, adminEmail)

	w := app.do(t, http.MethodGet, "/admin/orders", nil, bearer(staff))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/admin/orders", nil, bearer(admin))
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(t, http.MethodGet, "/admin/orders?token="+admin, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code, "query token is accepted for sockets and downloads")

	w = app.do(t, http.MethodGet, "/admin/orders", nil, bearer("not-a-jwt"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
