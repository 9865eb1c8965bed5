package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/token"
)

func echoCaller(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(caller)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewService("segredo-de-teste", time.Hour)
	handler := middleware.NewAuthMiddleware(tokens)(echoCaller)

	valid, _, err := tokens.GenerateToken("user-1", []domain.Role{domain.RoleModerator})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"invalid token", "Bearer nao-e-um-jwt", http.StatusUnauthorized},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthMiddleware_AttachesCaller(t *testing.T) {
	tokens := token.NewService("segredo-de-teste", time.Hour)
	valid, _, err := tokens.GenerateToken("user-1", []domain.Role{domain.RoleAdmin})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+valid)
	rec := httptest.NewRecorder()

	middleware.NewAuthMiddleware(tokens)(echoCaller)(rec, req)

	var caller domain.Caller
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&caller))
	assert.Equal(t, "user-1", caller.ID)
	assert.True(t, caller.HasRole(domain.RoleAdmin))
}

func TestPermissionMiddleware(t *testing.T) {
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }
	gate := middleware.PermissionMiddleware(domain.RoleModerator, domain.RoleAdmin)(ok)

	cases := []struct {
		name   string
		caller *domain.Caller
		status int
	}{
		{"no caller", nil, http.StatusUnauthorized},
		{"base user", &domain.Caller{ID: "u", Roles: []domain.Role{domain.RoleUser}}, http.StatusForbidden},
		{"moderator", &domain.Caller{ID: "m", Roles: []domain.Role{domain.RoleModerator}}, http.StatusNoContent},
		{"admin among others", &domain.Caller{ID: "a", Roles: []domain.Role{domain.RoleUser, domain.RoleAdmin}}, http.StatusNoContent},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/categories", nil)
			if tc.caller != nil {
				req = req.WithContext(middleware.WithCaller(req.Context(), *tc.caller))
			}
			rec := httptest.NewRecorder()

			gate(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			if tc.status >= 400 {
				var body domain.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, tc.status, body.Code)
			}
		})
	}
}
