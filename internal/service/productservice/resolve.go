package productservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// resolveOwner carrega o dono referenciado e devolve seu resumo.
func (s *Service) resolveOwner(ctx context.Context, ownerID string) (domain.UserSummary, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return domain.UserSummary{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", ownerID))
	}
	user, err := s.users.FindByID(ctx, ownerID)
	if err != nil {
		return domain.UserSummary{}, apperror.OrInternal(err, "Falha interna ao buscar dono do produto.")
	}
	return user.Summary(), nil
}

// resolveCategories garante que todas as categorias existem. A ordem do pedido é preservada
// e ids repetidos são colapsados.
func (s *Service) resolveCategories(ctx context.Context, ids []string) ([]domain.CategorySummary, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if seen[id] {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return nil, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", id))
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []domain.CategorySummary{}, nil
	}

	found, err := s.categories.FindByIDs(ctx, unique)
	if err != nil {
		return nil, apperror.OrInternal(err, "Falha interna ao buscar categorias.")
	}

	byID := make(map[string]domain.Category, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	var missing []string
	out := make([]domain.CategorySummary, 0, len(unique))
	for _, id := range unique {
		c, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, c.Summary())
	}
	if len(missing) > 0 {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("Categorias não encontradas: %s.", strings.Join(missing, ", ")))
	}
	return out, nil
}

// ensureNameAvailable falha com ConflictError se outro produto (id diferente de selfID) já usa o nome.
func (s *Service) ensureNameAvailable(ctx context.Context, name, selfID string) error {
	existing, err := s.products.FindByName(ctx, name)
	if err != nil {
		var notFound *apperror.NotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return apperror.OrInternal(err, "Falha interna ao verificar nome do produto.")
	}
	if existing.ID != selfID {
		s.logger.Warn("Nome de produto já utilizado.", map[string]interface{}{"name": name, "existing_id": existing.ID})
		return apperror.NewConflictError(fmt.Sprintf("Já existe um produto com o nome '%s'.", name))
	}
	return nil
}

// ensureExists converte a ausência de um recurso pai em NotFoundError.
func ensureExists(ctx context.Context, kind, id string, exists func(context.Context, string) (bool, error)) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewNotFoundError(fmt.Sprintf("%s com ID %s não encontrado(a).", kind, id))
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return apperror.OrInternal(err, "Falha interna ao verificar "+strings.ToLower(kind)+".")
	}
	if !ok {
		return apperror.NewNotFoundError(fmt.Sprintf("%s com ID %s não encontrado(a).", kind, id))
	}
	return nil
}
