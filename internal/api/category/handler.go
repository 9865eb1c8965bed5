package category

import (
	"context"
	"net/http"

	"gocatalog/internal/api/httpx"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/logger"
)

// CategoryService define o contrato que o Handler espera da camada de Serviço.
type CategoryService interface {
	CreateCategory(ctx context.Context, req domain.CategoryRequest) (domain.Category, error)
	GetCategory(ctx context.Context, id string) (domain.Category, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

// Handler agrupa todos os métodos de Handler de categorias.
type Handler struct {
	Service CategoryService
	Logger  logger.Logger
	resp    *httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc CategoryService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
		resp:    httpx.NewResponder(log),
	}
}

// CreateCategoryHandler lida com a requisição POST /v1/categories.
// @Summary Cria uma nova categoria
// @Description Adiciona uma nova categoria ao catálogo. Requer papel moderator ou admin.
// @Tags categories
// @Accept json
// @Produce json
// @Param category body domain.CategoryRequest true "Dados da categoria"
// @Success 201 {object} domain.Category "Categoria criada com sucesso"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Security ApiKeyAuth
// @Router /categories [post]
func (h *Handler) CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CategoryRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	created, err := h.Service.CreateCategory(r.Context(), req)
	h.resp.Respond(w, r, created, err, http.StatusCreated)
}

// GetCategoryByIDHandler lida com a requisição GET /v1/categories/{id}.
// @Summary Obtém uma categoria por ID
// @Tags categories
// @Produce json
// @Param id path string true "ID da Categoria"
// @Success 200 {object} domain.Category "Categoria encontrada"
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /categories/{id} [get]
func (h *Handler) GetCategoryByIDHandler(w http.ResponseWriter, r *http.Request) {
	category, err := h.Service.GetCategory(r.Context(), r.PathValue("id"))
	h.resp.Respond(w, r, category, err, http.StatusOK)
}

// ListCategoriesHandler lida com a requisição GET /v1/categories.
// @Summary Lista todas as categorias
// @Tags categories
// @Produce json
// @Success 200 {array} domain.Category "Lista de categorias"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /categories [get]
func (h *Handler) ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Service.ListCategories(r.Context())
	h.resp.Respond(w, r, categories, err, http.StatusOK)
}
