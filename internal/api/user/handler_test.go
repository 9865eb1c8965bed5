package user_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/api/user"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	args := m.Called(ctx, registration)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.TokenResponse), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) AssignRoles(ctx context.Context, id string, assignment domain.RoleAssignment) (domain.User, error) {
	args := m.Called(ctx, id, assignment)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	args := m.Called(ctx, caller)
	users, _ := args.Get(0).([]domain.User)
	return users, args.Error(1)
}

func (m *MockUserService) ReplaceUser(ctx context.Context, caller domain.Caller, id string, req domain.UserUpdate) (domain.User, error) {
	args := m.Called(ctx, caller, id, req)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) PatchUser(ctx context.Context, caller domain.Caller, id string, req domain.UserPatchRequest) (domain.User, error) {
	args := m.Called(ctx, caller, id, req)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, caller domain.Caller, id string) error {
	return m.Called(ctx, caller, id).Error(0)
}

var self = domain.Caller{ID: "u1", Roles: []domain.Role{domain.RoleUser}}

func withCaller(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), self))
}

func TestRegisterUserHandler_HidesPasswordHash(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	reg := domain.UserRegistration{Name: "Ana", Email: "ana@example.com", Password: "senha-forte"}
	svc.On("Register", mock.Anything, reg).Return(domain.User{
		ID: "u1", Name: "Ana", Email: "ana@example.com", PasswordHash: "$2a$hash", Roles: []domain.Role{domain.RoleUser},
	}, nil)

	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/register",
		strings.NewReader(`{"name":"Ana","email":"ana@example.com","password":"senha-forte"}`)))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "$2a$hash")
}

func TestRegisterUserHandler_Conflict(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	svc.On("Register", mock.Anything, mock.Anything).Return(domain.User{}, apperror.NewConflictError("email já cadastrado"))

	rec := httptest.NewRecorder()
	h.RegisterUserHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/register", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginUserHandler(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	expires := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.On("Login", mock.Anything, domain.LoginRequest{Email: "ana@example.com", Password: "x"}).
		Return(domain.TokenResponse{Token: "jwt", ExpiresAt: expires}, nil)

	rec := httptest.NewRecorder()
	h.LoginUserHandler(rec, httptest.NewRequest(http.MethodPost, "/v1/login",
		strings.NewReader(`{"email":"ana@example.com","password":"x"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "jwt", resp.Token)
}

func TestAssignRolesHandler_UsesPathID(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	svc.On("AssignRoles", mock.Anything, "u1", domain.RoleAssignment{Roles: []string{"moderator"}}).
		Return(domain.User{ID: "u1", Roles: []domain.Role{domain.RoleModerator}}, nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/users/u1/roles", strings.NewReader(`{"roles":["moderator"]}`))
	req.SetPathValue("id", "u1")
	rec := httptest.NewRecorder()

	h.AssignRolesHandler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestListUsersHandler_RequiresCaller(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.ListUsersHandler(rec, httptest.NewRequest(http.MethodGet, "/v1/users", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	svc.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything)
}

func TestPatchUserHandler_PassesNullThrough(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	svc.On("PatchUser", mock.Anything, self, "u1", mock.MatchedBy(func(p domain.UserPatchRequest) bool {
		return p.Email.IsNull() && !p.Name.IsPresent()
	})).Return(domain.User{}, apperror.NewFieldValidationError("email", "O campo 'email' não pode ser nulo."))

	req := httptest.NewRequest(http.MethodPatch, "/v1/users/u1", strings.NewReader(`{"email":null}`))
	req.SetPathValue("id", "u1")
	rec := httptest.NewRecorder()

	h.PatchUserHandler(rec, withCaller(req))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertExpectations(t)
}

func TestReplaceUserHandler(t *testing.T) {
	svc := new(MockUserService)
	h := user.NewHandler(svc, logger.NewNop())
	body := domain.UserUpdate{Name: "Ana", Email: "ana@example.com"}
	svc.On("ReplaceUser", mock.Anything, self, "u1", body).Return(domain.User{ID: "u1", Name: "Ana"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/users/u1", strings.NewReader(`{"name":"Ana","email":"ana@example.com"}`))
	req.SetPathValue("id", "u1")
	rec := httptest.NewRecorder()

	h.ReplaceUserHandler(rec, withCaller(req))

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestDeleteUserHandler(t *testing.T) {
	t.Run("conflito quando ainda possui produtos", func(t *testing.T) {
		svc := new(MockUserService)
		h := user.NewHandler(svc, logger.NewNop())
		svc.On("DeleteUser", mock.Anything, self, "u1").Return(apperror.NewConflictError("ainda possui produtos"))

		req := httptest.NewRequest(http.MethodDelete, "/v1/users/u1", nil)
		req.SetPathValue("id", "u1")
		rec := httptest.NewRecorder()

		h.DeleteUserHandler(rec, withCaller(req))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("sem conteúdo", func(t *testing.T) {
		svc := new(MockUserService)
		h := user.NewHandler(svc, logger.NewNop())
		svc.On("DeleteUser", mock.Anything, self, "u1").Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/v1/users/u1", nil)
		req.SetPathValue("id", "u1")
		rec := httptest.NewRecorder()

		h.DeleteUserHandler(rec, withCaller(req))

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Zero(t, rec.Body.Len())
	})
}
