package product

import (
	"context"
	"net/http"

	"gocatalog/internal/api/httpx"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/query"
	"gocatalog/internal/service/productservice"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, caller domain.Caller, req domain.ProductRequest) (domain.ProductResponse, error)
	GetProduct(ctx context.Context, id string) (domain.ProductResponse, error)
	ListProducts(ctx context.Context, q productservice.ListQuery) (query.Result[domain.ProductResponse], error)
	ListProductsByUser(ctx context.Context, userID string, q productservice.ListQuery) (query.Result[domain.ProductResponse], error)
	ListProductsByCategory(ctx context.Context, categoryID string, q productservice.ListQuery) (query.Result[domain.ProductResponse], error)
	ListAllProducts(ctx context.Context, caller domain.Caller, q productservice.ListQuery) ([]domain.ProductResponse, error)
	ReplaceProduct(ctx context.Context, caller domain.Caller, id string, req domain.ProductRequest) (domain.ProductResponse, error)
	PatchProduct(ctx context.Context, caller domain.Caller, id string, req domain.ProductPatchRequest) (domain.ProductResponse, error)
	DeleteProduct(ctx context.Context, caller domain.Caller, id string) error
}

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service         ProductService
	Logger          logger.Logger
	DefaultPageSize int
	resp            *httpx.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger, defaultPageSize int) *Handler {
	if defaultPageSize <= 0 {
		defaultPageSize = query.DefaultPageSize
	}
	return &Handler{
		Service:         svc,
		Logger:          log,
		DefaultPageSize: defaultPageSize,
		resp:            httpx.NewResponder(log),
	}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um produto
// @Description Cria um produto para o chamador. Moderadores e administradores podem informar owner_id.
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.ProductRequest true "Dados do produto"
// @Success 201 {object} domain.ProductResponse "Produto criado"
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Sem permissão para o dono informado"
// @Failure 404 {object} domain.ErrorResponse "Dono ou categoria inexistente"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado"
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req domain.ProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), caller, req)
	h.resp.Respond(w, r, created, err, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto por ID
// @Tags products
// @Produce json
// @Param id path string true "ID do Produto"
// @Success 200 {object} domain.ProductResponse "Produto encontrado"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	product, err := h.Service.GetProduct(r.Context(), r.PathValue("id"))
	h.resp.Respond(w, r, product, err, http.StatusOK)
}

// ListProductsHandler lida com a requisição GET /v1/products.
// @Summary Lista produtos com filtros, ordenação e paginação
// @Description mode=counted (padrão) devolve totais; mode=uncounted devolve apenas has_next.
// @Tags products
// @Produce json
// @Param page query int false "Página (base 0)"
// @Param size query int false "Tamanho da página (1..100)"
// @Param sort query []string false "campo[,asc|desc]" collectionFormat(multi)
// @Param name query string false "Substring do nome (sem diferenciar maiúsculas)"
// @Param minPrice query number false "Preço mínimo"
// @Param maxPrice query number false "Preço máximo"
// @Param categoryId query string false "ID da categoria"
// @Param mode query string false "counted ou uncounted"
// @Success 200 {object} query.Page[domain.ProductResponse]
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.listQuery(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.Service.ListProducts(r.Context(), q)
	h.resp.Respond(w, r, result, err, http.StatusOK)
}

// ListProductsSliceHandler lida com a requisição GET /v1/products/slice.
// @Summary Lista produtos sem contagem total
// @Tags products
// @Produce json
// @Param page query int false "Página (base 0)"
// @Param size query int false "Tamanho da página (1..100)"
// @Param sort query []string false "campo[,asc|desc]" collectionFormat(multi)
// @Success 200 {object} query.Slice[domain.ProductResponse]
// @Failure 400 {object} domain.ErrorResponse "Parâmetros inválidos"
// @Router /products/slice [get]
func (h *Handler) ListProductsSliceHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.listQuery(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	q.Mode = query.ModeUncounted
	result, err := h.Service.ListProducts(r.Context(), q)
	h.resp.Respond(w, r, result, err, http.StatusOK)
}

// ListAllProductsHandler lida com a requisição GET /v1/products/all.
// @Summary Lista todos os produtos sem paginação (administradores)
// @Tags products
// @Produce json
// @Success 200 {array} domain.ProductResponse
// @Failure 403 {object} domain.ErrorResponse "Somente administradores"
// @Security ApiKeyAuth
// @Router /products/all [get]
func (h *Handler) ListAllProductsHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	q, err := h.listQuery(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	products, err := h.Service.ListAllProducts(r.Context(), caller, q)
	h.resp.Respond(w, r, products, err, http.StatusOK)
}

// ListUserProductsHandler lida com a requisição GET /v1/users/{id}/products.
// @Summary Lista os produtos de um usuário
// @Tags products
// @Produce json
// @Param id path string true "ID do Usuário"
// @Success 200 {object} query.Page[domain.ProductResponse]
// @Failure 404 {object} domain.ErrorResponse "Usuário não encontrado"
// @Router /users/{id}/products [get]
func (h *Handler) ListUserProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.listQuery(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.Service.ListProductsByUser(r.Context(), r.PathValue("id"), q)
	h.resp.Respond(w, r, result, err, http.StatusOK)
}

// ListCategoryProductsHandler lida com a requisição GET /v1/categories/{id}/products.
// @Summary Lista os produtos de uma categoria
// @Tags products
// @Produce json
// @Param id path string true "ID da Categoria"
// @Success 200 {object} query.Page[domain.ProductResponse]
// @Failure 404 {object} domain.ErrorResponse "Categoria não encontrada"
// @Router /categories/{id}/products [get]
func (h *Handler) ListCategoryProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := h.listQuery(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.Service.ListProductsByCategory(r.Context(), r.PathValue("id"), q)
	h.resp.Respond(w, r, result, err, http.StatusOK)
}

// ReplaceProductHandler lida com a requisição PUT /v1/products/{id}.
// @Summary Substitui um produto
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do Produto"
// @Param product body domain.ProductRequest true "Todos os campos do produto"
// @Success 200 {object} domain.ProductResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Produto de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Produto, dono ou categoria inexistente"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado ou versão desatualizada"
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *Handler) ReplaceProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req domain.ProductRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	updated, err := h.Service.ReplaceProduct(r.Context(), caller, r.PathValue("id"), req)
	h.resp.Respond(w, r, updated, err, http.StatusOK)
}

// PatchProductHandler lida com a requisição PATCH /v1/products/{id}.
// @Summary Altera parcialmente um produto
// @Description Chaves ausentes não alteram o campo; null limpa description e category_ids.
// @Tags products
// @Accept json
// @Produce json
// @Param id path string true "ID do Produto"
// @Param patch body domain.ProductPatchRequest true "Campos a alterar"
// @Success 200 {object} domain.ProductResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 403 {object} domain.ErrorResponse "Produto de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Produto, dono ou categoria inexistente"
// @Failure 409 {object} domain.ErrorResponse "Nome já utilizado ou versão desatualizada"
// @Security ApiKeyAuth
// @Router /products/{id} [patch]
func (h *Handler) PatchProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	var req domain.ProductPatchRequest
	if err := httpx.Decode(r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	updated, err := h.Service.PatchProduct(r.Context(), caller, r.PathValue("id"), req)
	h.resp.Respond(w, r, updated, err, http.StatusOK)
}

// DeleteProductHandler lida com a requisição DELETE /v1/products/{id}.
// @Summary Deleta um produto
// @Tags products
// @Param id path string true "ID do Produto"
// @Success 204 "Nenhum conteúdo"
// @Failure 403 {object} domain.ErrorResponse "Produto de outro usuário"
// @Failure 404 {object} domain.ErrorResponse "Produto não encontrado"
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	err := h.Service.DeleteProduct(r.Context(), caller, r.PathValue("id"))
	h.resp.Respond(w, r, nil, err, http.StatusNoContent)
}

// --- Funções Auxiliares ---

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		h.Logger.Warn("Requisição sem chamador no contexto.", map[string]interface{}{"path": r.URL.Path})
		h.resp.Error(w, r, apperror.NewUnauthorizedError("Autorização necessária."))
		return domain.Caller{}, false
	}
	return caller, true
}

// listQuery extrai page, size, sort, filtros e mode da query string.
func (h *Handler) listQuery(r *http.Request) (productservice.ListQuery, error) {
	page, err := httpx.QueryInt(r, "page", 0)
	if err != nil {
		return productservice.ListQuery{}, err
	}
	size, err := httpx.QueryInt(r, "size", h.DefaultPageSize)
	if err != nil {
		return productservice.ListQuery{}, err
	}
	minPrice, err := httpx.QueryFloat(r, "minPrice")
	if err != nil {
		return productservice.ListQuery{}, err
	}
	maxPrice, err := httpx.QueryFloat(r, "maxPrice")
	if err != nil {
		return productservice.ListQuery{}, err
	}
	mode, err := query.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		return productservice.ListQuery{}, err
	}

	return productservice.ListQuery{
		SortTokens: r.URL.Query()["sort"],
		Name:       httpx.QueryString(r, "name"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		CategoryID: httpx.QueryString(r, "categoryId"),
		Page:       page,
		Size:       size,
		Mode:       mode,
	}, nil
}
