package user

import (
	"context"
	"net/http"

	"gocatalog/internal/api/httpx"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// UserService define o contrato para registro, login, papéis e administração de contas.
type UserService interface {
	Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	AssignRoles(ctx context.Context, id string, assignment domain.RoleAssignment) (domain.User, error)
	ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error)
	ReplaceUser(ctx context.Context, caller domain.Caller, id string, req domain.UserUpdate) (domain.User, error)
	PatchUser(ctx context.Context, caller domain.Caller, id string, req domain.UserPatchRequest) (domain.User, error)
	DeleteUser(ctx context.Context, caller domain.Caller, id string) error
}

// Handler agrupa todos os métodos de Handler do usuário.
type Handler struct {
	Service UserService
	Logger  logger.Logger
	resp    *httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc UserService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
		resp:    httpx.NewResponder(log),
	}
}

// RegisterUserHandler lida com a requisição POST /v1/register.
// @Summary Registra um novo usuário
// @Description Cria um novo usuário com papel "user", hasheia a senha e salva no banco de dados.
// @Tags users
// @Accept json
// @Produce json
// @Param registration body domain.UserRegistration true "Nome, email e senha"
// @Success 201 {object} domain.User "Usuário criado com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido (JSON malformado ou campos obrigatórios ausentes)"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var reg domain.UserRegistration
	if err := httpx.Decode(r, &reg); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	// O PasswordHash não é serializado (tag json:"-").
	newUser, err := h.Service.Register(r.Context(), reg)
	h.resp.Respond(w, r, newUser, err, http.StatusCreated)
}

// LoginUserHandler lida com a requisição POST /v1/login.
// @Summary Autentica um usuário e retorna um JWT
// @Description Recebe email/senha, verifica a validade e emite um JSON Web Token.
// @Tags users
// @Accept json
// @Produce json
// @Param login body domain.LoginRequest true "Credenciais do usuário (email e senha)"
// @Success 200 {object} domain.TokenResponse "Token JWT emitido"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /login [post]
func (h *Handler) LoginUserHandler(w http.ResponseWriter, r *http.Request) {
	var loginReq domain.LoginRequest
	if err := httpx.Decode(r, &loginReq); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	token, err := h.Service.Login(r.Context(), loginReq)
	h.resp.Respond(w, r, token, err, http.StatusOK)
}

// GetUserHandler lida com a requisição GET /v1/users/{id}.
// @Summary Obtém um usuário por ID
// @Tags users
// @Produce json
// @Param id path string true "ID do Usuário"
// @Success 200 {object} domain.User
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Security ApiKeyAuth
// @Router /users/{id} [get]
func (h *Handler) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.GetUser(r.Context(), r.PathValue("id"))
	h.resp.Respond(w, r, user, err, http.StatusOK)
}

// AssignRolesHandler lida com a requisição PUT /v1/users/{id}/roles.
// @Summary Substitui os papéis de um usuário (administradores)
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do Usuário"
// @Param roles body domain.RoleAssignment true "Novos papéis"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Papéis inválidos"
// @Failure 403 {object} domain.ErrorResponse "Somente administradores"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Security ApiKeyAuth
// @Router /users/{id}/roles [put]
func (h *Handler) AssignRolesHandler(w http.ResponseWriter, r *http.Request) {
	var assignment domain.RoleAssignment
	if err := httpx.Decode(r, &assignment); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.Service.AssignRoles(r.Context(), r.PathValue("id"), assignment)
	h.resp.Respond(w, r, user, err, http.StatusOK)
}

// ListUsersHandler lida com a requisição GET /v1/users.
// @Summary Lista todos os usuários (administradores)
// @Tags users
// @Produce json
// @Success 200 {array} domain.User
// @Failure 403 {object} domain.ErrorResponse "Somente administradores"
// @Security ApiKeyAuth
// @Router /users [get]
func (h *Handler) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	users, err := h.Service.ListUsers(r.Context(), caller)
	h.resp.Respond(w, r, users, err, http.StatusOK)
}

// ReplaceUserHandler lida com a requisição PUT /v1/users/{id}.
// @Summary Substitui nome, email e (opcionalmente) a senha da conta
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do Usuário"
// @Param user body domain.UserUpdate true "Novos dados"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Dados inválidos"
// @Failure 403 {object} domain.ErrorResponse "Conta de outro usuário"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Security ApiKeyAuth
// @Router /users/{id} [put]
func (h *Handler) ReplaceUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.UserUpdate
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.Service.ReplaceUser(r.Context(), caller, r.PathValue("id"), req)
	h.resp.Respond(w, r, user, err, http.StatusOK)
}

// PatchUserHandler lida com a requisição PATCH /v1/users/{id}.
// @Summary Altera parcialmente a conta
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "ID do Usuário"
// @Param patch body domain.UserPatchRequest true "Campos a alterar"
// @Success 200 {object} domain.User
// @Failure 400 {object} domain.ErrorResponse "Campo nulo ou inválido"
// @Failure 403 {object} domain.ErrorResponse "Conta de outro usuário"
// @Failure 409 {object} domain.ErrorResponse "Email já cadastrado"
// @Security ApiKeyAuth
// @Router /users/{id} [patch]
func (h *Handler) PatchUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req domain.UserPatchRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	user, err := h.Service.PatchUser(r.Context(), caller, r.PathValue("id"), req)
	h.resp.Respond(w, r, user, err, http.StatusOK)
}

// DeleteUserHandler lida com a requisição DELETE /v1/users/{id}.
// @Summary Remove a conta
// @Tags users
// @Param id path string true "ID do Usuário"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Conta de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Failure 409 {object} domain.ErrorResponse "Usuário ainda é dono de produtos"
// @Security ApiKeyAuth
// @Router /users/{id} [delete]
func (h *Handler) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	err := h.Service.DeleteUser(r.Context(), caller, r.PathValue("id"))
	h.resp.Respond(w, r, nil, err, http.StatusNoContent)
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.resp.Error(w, r, apperror.NewUnauthorizedError("Autorização necessária."))
		return domain.Caller{}, false
	}
	return caller, true
}
