package userservice

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
)

// ListUsers lista todas as contas. Restrito a administradores.
func (s *Service) ListUsers(ctx context.Context, caller domain.Caller) ([]domain.User, error) {
	if !caller.HasRole(domain.RoleAdmin) {
		s.logger.Warn("Listagem de usuários negada.", map[string]interface{}{"caller": caller.ID})
		return nil, apperror.NewForbiddenError("Somente administradores podem listar usuários.")
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.OrInternal(err, "Falha interna ao listar usuários.")
	}
	return users, nil
}

// ReplaceUser substitui nome e email da conta. Password vazio mantém a senha atual; os papéis não mudam.
func (s *Service) ReplaceUser(ctx context.Context, caller domain.Caller, id string, req domain.UserUpdate) (domain.User, error) {
	existing, err := s.fetchForUpdate(ctx, caller, id)
	if err != nil {
		return domain.User{}, err
	}

	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if err := validateName(name); err != nil {
		return domain.User{}, err
	}
	if err := validateEmail(email); err != nil {
		return domain.User{}, err
	}

	updated := existing
	updated.Name = name
	updated.Email = email
	if req.Password != "" {
		if err := validatePassword(req.Password); err != nil {
			return domain.User{}, err
		}
		if updated.PasswordHash, err = hashPassword(req.Password); err != nil {
			return domain.User{}, err
		}
	}

	return s.update(ctx, updated)
}

// PatchUser altera apenas os campos enviados. null em qualquer campo é ValidationError;
// um patch vazio devolve a conta sem gravar.
func (s *Service) PatchUser(ctx context.Context, caller domain.Caller, id string, req domain.UserPatchRequest) (domain.User, error) {
	existing, err := s.fetchForUpdate(ctx, caller, id)
	if err != nil {
		return domain.User{}, err
	}

	nulls := []struct {
		field  string
		isNull bool
	}{
		{"name", req.Name.IsNull()},
		{"email", req.Email.IsNull()},
		{"password", req.Password.IsNull()},
	}
	for _, n := range nulls {
		if n.isNull {
			return domain.User{}, apperror.NewFieldValidationError(n.field, "O campo '"+n.field+"' não pode ser nulo.")
		}
	}

	if req.IsEmpty() {
		s.logger.Debug("Patch de usuário sem alterações.", map[string]interface{}{"user_id": id})
		return existing, nil
	}

	updated := existing
	if name, ok := req.Name.Get(); ok {
		updated.Name = strings.TrimSpace(name)
		if err := validateName(updated.Name); err != nil {
			return domain.User{}, err
		}
	}
	if email, ok := req.Email.Get(); ok {
		updated.Email = normalizeEmail(email)
		if err := validateEmail(updated.Email); err != nil {
			return domain.User{}, err
		}
	}
	if password, ok := req.Password.Get(); ok {
		if err := validatePassword(password); err != nil {
			return domain.User{}, err
		}
		if updated.PasswordHash, err = hashPassword(password); err != nil {
			return domain.User{}, err
		}
	}

	return s.update(ctx, updated)
}

// DeleteUser remove a conta. Contas que ainda possuem produtos retornam ConflictError do repositório.
func (s *Service) DeleteUser(ctx context.Context, caller domain.Caller, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(id)
	}
	if err := s.policy.AuthorizeAccount(caller, id); err != nil {
		s.logger.Warn("Remoção de usuário negada.", map[string]interface{}{"caller": caller.ID, "user_id": id})
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return apperror.OrInternal(err, "Falha interna ao remover usuário.")
	}

	s.logger.Info("Usuário removido.", map[string]interface{}{"user_id": id, "caller": caller.ID})
	return nil
}

// fetchForUpdate valida o id, autoriza antes de consultar e busca a conta.
func (s *Service) fetchForUpdate(ctx context.Context, caller domain.Caller, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, notFound(id)
	}
	if err := s.policy.AuthorizeAccount(caller, id); err != nil {
		s.logger.Warn("Alteração de usuário negada.", map[string]interface{}{"caller": caller.ID, "user_id": id})
		return domain.User{}, err
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, apperror.OrInternal(err, "Falha interna ao buscar usuário.")
	}
	return user, nil
}

func (s *Service) update(ctx context.Context, user domain.User) (domain.User, error) {
	saved, err := s.repo.Update(ctx, user)
	if err != nil {
		return domain.User{}, apperror.OrInternal(err, "Falha interna ao atualizar usuário.")
	}
	s.logger.Info("Usuário atualizado.", map[string]interface{}{"user_id": saved.ID})
	return saved, nil
}
