// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/vipledger/internal/core"
	"github.com/carterperez-dev/vipledger/internal/middleware"
)

func newTestRouter(t *testing.T) (*authFixture, http.Handler) {
	t.Helper()
	f := newAuthFixture(t)

	r := chi.NewRouter()
	h := NewHandler(f.svc, testSessionConfig)
	h.RegisterRoutes(
		r,
		middleware.Authenticator(f.svc, testSessionConfig.CookieName),
		func(next http.Handler) http.Handler { return next },
	)
	return f, r
}

func post(router http.Handler, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func responseCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	return body.Error.Code
}

func TestHandler_RegisterLoginMeLogout(t *testing.T) {
	_, router := newTestRouter(t)

	rec := post(router, "/auth/register", `{"name":"Ana","phone":"923456789","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = post(router, "/auth/register", `{"name":"Ana","phone":"923456789","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "PHONE_TAKEN", responseCode(t, rec))

	rec = post(router, "/auth/login", `{"phone":"923456789","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", responseCode(t, rec))

	rec = post(router, "/auth/login", `{"phone":"923456789","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	cookie := cookies[0]
	assert.Equal(t, testSessionConfig.CookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	me := httptest.NewRecorder()
	router.ServeHTTP(me, req)
	require.Equal(t, http.StatusOK, me.Code)
	assert.Contains(t, me.Body.String(), `"phone":"923456789"`)

	rec = post(router, "/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(cookie)
	me = httptest.NewRecorder()
	router.ServeHTTP(me, req)
	assert.Equal(t, http.StatusUnauthorized, me.Code)
}

func TestHandler_RegisterValidation(t *testing.T) {
	_, router := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"missing phone", `{"name":"Ana","password":"secret123"}`, "VALIDATION_ERROR"},
		{"short password", `{"name":"Ana","phone":"923456789","password":"123"}`, "VALIDATION_ERROR"},
		{"unknown referral", `{"name":"Ana","phone":"923456789","password":"secret123","referral_code":"ABCDEFGH"}`, "INVALID_REFERRAL_CODE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := post(router, "/auth/register", tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, responseCode(t, rec))
		})
	}
}
