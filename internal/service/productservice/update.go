package productservice

import (
	"context"
	"fmt"
	"strings"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/optional"
)

// ReplaceProduct substitui todos os campos mutáveis do produto (PUT).
// OwnerID vazio mantém o dono atual.
func (s *Service) ReplaceProduct(ctx context.Context, caller domain.Caller, id string, req domain.ProductRequest) (domain.ProductResponse, error) {
	s.logger.Debug("Iniciando substituição de produto no serviço.", map[string]interface{}{"id": id, "caller_id": caller.ID})

	// 1. Busca
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return domain.ProductResponse{}, err
	}

	// 2. Autorização
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		ownerID = existing.Owner.ID
	}
	if err := s.authorizeUpdate(caller, existing, ownerID); err != nil {
		return domain.ProductResponse{}, err
	}

	// 3. Validação
	req.Name = strings.TrimSpace(req.Name)
	if err := validateFields(req.Name, req.Price, req.Description); err != nil {
		s.logger.Warn("Falha na validação do produto.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.ProductResponse{}, err
	}
	if err := checkVersion(existing, req.Version); err != nil {
		return domain.ProductResponse{}, err
	}

	// 4. Referências
	replacement := domain.ProductReplacement{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
	}
	if ownerID != existing.Owner.ID {
		owner, err := s.resolveOwner(ctx, ownerID)
		if err != nil {
			return domain.ProductResponse{}, err
		}
		replacement.Owner = &owner
	}
	if replacement.Categories, err = s.resolveCategories(ctx, req.CategoryIDs); err != nil {
		return domain.ProductResponse{}, err
	}

	// 5. Unicidade do nome
	if req.Name != existing.Name {
		if err := s.ensureNameAvailable(ctx, req.Name, existing.ID); err != nil {
			return domain.ProductResponse{}, err
		}
	}

	// 6. Merge e persistência
	return s.persist(ctx, existing.Replace(replacement))
}

// PatchProduct aplica uma alteração parcial (PATCH). Um patch vazio devolve o produto sem persistir.
func (s *Service) PatchProduct(ctx context.Context, caller domain.Caller, id string, req domain.ProductPatchRequest) (domain.ProductResponse, error) {
	s.logger.Debug("Iniciando alteração parcial de produto no serviço.", map[string]interface{}{"id": id, "caller_id": caller.ID})

	// 1. Busca
	existing, err := s.fetch(ctx, id)
	if err != nil {
		return domain.ProductResponse{}, err
	}

	// 2. Autorização
	ownerID := existing.Owner.ID
	if v, ok := req.OwnerID.Get(); ok && strings.TrimSpace(v) != "" {
		ownerID = strings.TrimSpace(v)
	}
	if err := s.authorizeUpdate(caller, existing, ownerID); err != nil {
		return domain.ProductResponse{}, err
	}

	// 3. Validação
	if err := validatePatch(&req); err != nil {
		s.logger.Warn("Falha na validação do patch de produto.", map[string]interface{}{"id": id, "error": err.Error()})
		return domain.ProductResponse{}, err
	}
	if err := checkVersion(existing, req.Version); err != nil {
		return domain.ProductResponse{}, err
	}

	// 4. Referências
	patch := domain.ProductPatch{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
	}
	if req.OwnerID.IsPresent() && ownerID != existing.Owner.ID {
		owner, err := s.resolveOwner(ctx, ownerID)
		if err != nil {
			return domain.ProductResponse{}, err
		}
		patch.Owner = optional.Of(owner)
	}
	if req.CategoryIDs.IsPresent() {
		categories, err := s.resolveCategories(ctx, req.CategoryIDs.OrElse(nil))
		if err != nil {
			return domain.ProductResponse{}, err
		}
		patch.Categories = optional.Of(categories)
	}

	if patch.IsEmpty() {
		s.logger.Debug("Patch sem alterações; produto devolvido sem persistir.", map[string]interface{}{"id": id})
		return existing.ToResponse(), nil
	}

	// 5. Unicidade do nome
	if name, ok := patch.Name.Get(); ok && name != existing.Name {
		if err := s.ensureNameAvailable(ctx, name, existing.ID); err != nil {
			return domain.ProductResponse{}, err
		}
	}

	// 6. Merge e persistência
	return s.persist(ctx, existing.ApplyPatch(patch))
}

func (s *Service) authorizeUpdate(caller domain.Caller, existing domain.Product, newOwnerID string) error {
	resource := "produto " + existing.ID
	if err := s.policy.Authorize(caller, resource, existing.Owner.ID); err != nil {
		s.logger.Warn("Alteração de produto negada.", map[string]interface{}{"id": existing.ID, "caller_id": caller.ID})
		return err
	}
	if err := s.policy.AuthorizeReassign(caller, resource, existing.Owner.ID, newOwnerID); err != nil {
		s.logger.Warn("Transferência de dono negada.", map[string]interface{}{"id": existing.ID, "caller_id": caller.ID})
		return err
	}
	return nil
}

func (s *Service) persist(ctx context.Context, product domain.Product) (domain.ProductResponse, error) {
	saved, err := s.products.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return domain.ProductResponse{}, apperror.OrInternal(err, "Falha interna ao atualizar produto.")
	}
	s.logger.Info("Produto atualizado com sucesso.", map[string]interface{}{"id": saved.ID, "version": saved.Version})
	return saved.ToResponse(), nil
}

// validatePatch rejeita null nos campos obrigatórios e valida os valores enviados.
// O nome é normalizado (trim) no próprio request.
func validatePatch(req *domain.ProductPatchRequest) error {
	nulls := []struct {
		field  string
		isNull bool
	}{
		{"name", req.Name.IsNull()},
		{"price", req.Price.IsNull()},
		{"owner_id", req.OwnerID.IsNull()},
	}
	for _, n := range nulls {
		if n.isNull {
			return apperror.NewFieldValidationError(n.field, fmt.Sprintf("O campo '%s' não pode ser nulo.", n.field))
		}
	}

	if name, ok := req.Name.Get(); ok {
		name = strings.TrimSpace(name)
		if msg := domain.ValidateProductName(name); msg != "" {
			return apperror.NewFieldValidationError("name", msg)
		}
		req.Name = optional.Of(name)
	}
	if price, ok := req.Price.Get(); ok {
		if msg := domain.ValidateProductPrice(price); msg != "" {
			return apperror.NewFieldValidationError("price", msg)
		}
	}
	if description, ok := req.Description.Get(); ok {
		if msg := domain.ValidateProductDescription(description); msg != "" {
			return apperror.NewFieldValidationError("description", msg)
		}
	}
	return nil
}

// checkVersion compara a versão enviada pelo cliente com a atual. Ausente dispensa a verificação;
// a condição do UPDATE ainda protege contra escritas concorrentes.
func checkVersion(existing domain.Product, version *int) error {
	if version != nil && *version != existing.Version {
		return apperror.NewConflictError(fmt.Sprintf(
			"Versão %d do produto está desatualizada (atual: %d). Recarregue e tente novamente.", *version, existing.Version))
	}
	return nil
}
