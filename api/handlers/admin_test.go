package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func adminEnv(t *testing.T) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	assert.NoError(t, err)
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD_HASH", string(hash))
	t.Setenv("ADMIN_JWT_SECRET", "test-secret")
}

func TestAdminLoginHandlerNotConfigured(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD_HASH", "")

	a := Admin{}
	body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "hunter2"}`)
	rr := httptest.NewRecorder()

	a.AdminLoginHandler(rr, httptest.NewRequest("POST", "/api/v1/admin/login", body))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLoginHandlerWrongPassword(t *testing.T) {
	adminEnv(t)

	a := Admin{}
	body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "wrong"}`)
	rr := httptest.NewRecorder()

	a.AdminLoginHandler(rr, httptest.NewRequest("POST", "/api/v1/admin/login", body))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminLoginHandlerIssuesToken(t *testing.T) {
	adminEnv(t)

	a := Admin{}
	body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "hunter2"}`)
	rr := httptest.NewRecorder()

	a.AdminLoginHandler(rr, httptest.NewRequest("POST", "/api/v1/admin/login", body))

	assert.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["token"])
}

func TestAdminOnlyRejectsMissingToken(t *testing.T) {
	adminEnv(t)

	handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/admin/pending-cameras", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminOnlyRejectsGarbageToken(t *testing.T) {
	adminEnv(t)

	handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/v1/admin/pending-cameras", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminOnlyAcceptsIssuedToken(t *testing.T) {
	adminEnv(t)

	a := Admin{}
	body := bytes.NewBufferString(`{"email": "admin@example.com", "password": "hunter2"}`)
	loginRec := httptest.NewRecorder()
	a.AdminLoginHandler(loginRec, httptest.NewRequest("POST", "/api/v1/admin/login", body))

	var resp map[string]string
	assert.NoError(t, json.Unmarshal(loginRec.Body.Bytes(), &resp))

	called := false
	handler := AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest("GET", "/api/v1/admin/pending-cameras", nil)
	req.Header.Set("Authorization", "Bearer "+resp["token"])
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, called)
}
