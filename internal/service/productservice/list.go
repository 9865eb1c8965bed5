package productservice

import (
	"context"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/query"
)

// ListQuery são os parâmetros de listagem já extraídos da requisição.
type ListQuery struct {
	SortTokens []string
	Name       *string
	MinPrice   *float64
	MaxPrice   *float64
	CategoryID *string
	Page       int
	Size       int
	Mode       query.Mode
}

// ListProducts executa a listagem paginada. O modo escolhe entre Page (com total) e Slice (sem COUNT).
func (s *Service) ListProducts(ctx context.Context, q ListQuery) (query.Result[domain.ProductResponse], error) {
	return s.list(ctx, q, nil)
}

// ListProductsByUser lista os produtos de um dono. O dono precisa existir.
func (s *Service) ListProductsByUser(ctx context.Context, userID string, q ListQuery) (query.Result[domain.ProductResponse], error) {
	if err := ensureExists(ctx, "Usuário", userID, s.users.ExistsByID); err != nil {
		return nil, err
	}
	return s.list(ctx, q, func(f *query.FilterParams) { f.OwnerID = &userID })
}

// ListProductsByCategory lista os produtos de uma categoria. A categoria precisa existir.
func (s *Service) ListProductsByCategory(ctx context.Context, categoryID string, q ListQuery) (query.Result[domain.ProductResponse], error) {
	if err := ensureExists(ctx, "Categoria", categoryID, s.categories.ExistsByID); err != nil {
		return nil, err
	}
	return s.list(ctx, q, func(f *query.FilterParams) { f.CategoryID = &categoryID })
}

// ListAllProducts devolve todos os produtos filtrados, sem paginação. Restrito a administradores.
func (s *Service) ListAllProducts(ctx context.Context, caller domain.Caller, q ListQuery) ([]domain.ProductResponse, error) {
	if !caller.HasRole(domain.RoleAdmin) {
		s.logger.Warn("Listagem completa negada.", map[string]interface{}{"caller_id": caller.ID})
		return nil, apperror.NewForbiddenError("somente administradores podem listar todos os produtos sem paginação")
	}

	sort, filter, err := buildCriteria(q, nil)
	if err != nil {
		return nil, err
	}

	products, err := s.products.FindAll(ctx, filter, sort)
	if err != nil {
		return nil, apperror.OrInternal(err, "Falha interna ao listar produtos.")
	}

	out := make([]domain.ProductResponse, len(products))
	for i, p := range products {
		out[i] = p.ToResponse()
	}
	return out, nil
}

func (s *Service) list(ctx context.Context, q ListQuery, scope func(*query.FilterParams)) (query.Result[domain.ProductResponse], error) {
	sort, filter, err := buildCriteria(q, scope)
	if err != nil {
		s.logger.Warn("Parâmetros de listagem inválidos.", map[string]interface{}{"field": apperror.FieldOf(err), "error": err.Error()})
		return nil, err
	}

	page, err := query.NewPageRequest(q.Page, q.Size)
	if err != nil {
		return nil, err
	}

	strategy, err := query.StrategyFor[domain.Product](q.Mode)
	if err != nil {
		return nil, err
	}

	result, err := strategy.Execute(ctx, s.products, query.Request{Filter: filter, Sort: sort, Page: page})
	if err != nil {
		return nil, apperror.OrInternal(err, "Falha interna ao listar produtos.")
	}

	s.logger.Debug("Listagem de produtos concluída.", map[string]interface{}{
		"mode":  string(q.Mode),
		"page":  page.Page,
		"size":  page.Size,
		"items": len(result.Elements()),
	})
	return query.MapResult(result, domain.Product.ToResponse), nil
}

// buildCriteria valida ordenação e filtros. scope fixa o recurso pai das listagens aninhadas.
func buildCriteria(q ListQuery, scope func(*query.FilterParams)) (query.SortSpec, query.FilterSpec, error) {
	sort, err := query.BuildSort(q.SortTokens, query.ProductSortFields)
	if err != nil {
		return nil, query.FilterSpec{}, err
	}

	params := query.FilterParams{
		Name:       q.Name,
		MinPrice:   q.MinPrice,
		MaxPrice:   q.MaxPrice,
		CategoryID: q.CategoryID,
	}
	if scope != nil {
		scope(&params)
	}

	filter, err := query.BuildFilter(params)
	if err != nil {
		return nil, query.FilterSpec{}, err
	}
	// Categoria inexistente só esvazia o resultado; fora do formato UUID é erro do cliente.
	if filter.CategoryID != nil {
		if _, err := uuid.Parse(*filter.CategoryID); err != nil {
			return nil, query.FilterSpec{}, apperror.NewFieldValidationError("categoryId", "O identificador de categoria é inválido.")
		}
	}
	return sort, filter, nil
}
