package userservice

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

const (
	minPasswordLength = 8
	maxNameLength     = 100
)

// UserRepository define o contrato de persistência esperado pelo serviço de usuários.
type UserRepository interface {
	Save(ctx context.Context, user domain.User) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	UpdateRoles(ctx context.Context, id string, roles []domain.Role) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Policy decide quem pode alterar uma conta (authz.OwnershipPolicy).
type Policy interface {
	AuthorizeAccount(caller domain.Caller, userID string) error
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateToken(userID string, roles []domain.Role) (string, time.Time, error)
}

// Service implementa registro, login e administração de papéis.
type Service struct {
	repo   UserRepository
	tokens TokenService
	policy Policy
	logger logger.Logger
}

// NewService cria uma nova instância do serviço de usuários.
func NewService(repo UserRepository, tokens TokenService, policy Policy, logger logger.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, policy: policy, logger: logger}
}

// Register registra um novo usuário com o papel base. Email duplicado retorna ConflictError.
func (s *Service) Register(ctx context.Context, registration domain.UserRegistration) (domain.User, error) {
	registration.Email = normalizeEmail(registration.Email)
	registration.Name = strings.TrimSpace(registration.Name)
	s.logger.Debug("Iniciando registro de usuário.", map[string]interface{}{"email": registration.Email})

	// 1. Validação
	if err := validateRegistration(registration); err != nil {
		s.logger.Warn("Registro rejeitado.", map[string]interface{}{"email": registration.Email, "error": err.Error()})
		return domain.User{}, err
	}

	// 2. Hashing da Senha
	hashedPassword, err := hashPassword(registration.Password)
	if err != nil {
		return domain.User{}, err
	}

	// 3. Persistência
	user, err := s.repo.Save(ctx, domain.User{
		Name:         registration.Name,
		Email:        registration.Email,
		PasswordHash: hashedPassword,
		Roles:        []domain.Role{domain.RoleUser},
	})
	if err != nil {
		return domain.User{}, apperror.OrInternal(err, "Falha interna ao registrar usuário.")
	}

	s.logger.Info("Usuário registrado.", map[string]interface{}{"user_id": user.ID})
	return user, nil
}

// Login autentica um usuário, verifica a senha e gera um JWT.
// Email inexistente e senha incorreta produzem o mesmo UnauthorizedError.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return domain.TokenResponse{}, apperror.NewUnauthorizedError("Email e senha são obrigatórios.")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.TokenResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
		}
		return domain.TokenResponse{}, apperror.OrInternal(err, "Falha interna ao autenticar.")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("Senha incorreta.", map[string]interface{}{"user_id": user.ID})
		return domain.TokenResponse{}, apperror.NewUnauthorizedError("Credenciais inválidas.")
	}

	tokenString, expiresAt, err := s.tokens.GenerateToken(user.ID, user.Roles)
	if err != nil {
		return domain.TokenResponse{}, apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}

	s.logger.Info("Login efetuado.", map[string]interface{}{"user_id": user.ID})
	return domain.TokenResponse{Token: tokenString, ExpiresAt: expiresAt}, nil
}

// GetUser busca um usuário pelo ID.
func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, notFound(id)
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, apperror.OrInternal(err, "Falha interna ao buscar usuário.")
	}
	return user, nil
}

// AssignRoles substitui os papéis do usuário. O conjunto não pode ser vazio e só aceita papéis conhecidos.
func (s *Service) AssignRoles(ctx context.Context, id string, assignment domain.RoleAssignment) (domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.User{}, notFound(id)
	}
	if len(assignment.Roles) == 0 {
		return domain.User{}, apperror.NewFieldValidationError("roles", "O usuário deve ter ao menos um papel.")
	}

	roles := make([]domain.Role, 0, len(assignment.Roles))
	seen := make(map[domain.Role]bool, len(assignment.Roles))
	for _, raw := range assignment.Roles {
		role, ok := domain.ParseRole(strings.ToLower(strings.TrimSpace(raw)))
		if !ok {
			return domain.User{}, apperror.NewFieldValidationError("roles", fmt.Sprintf("Papel desconhecido: '%s'.", raw))
		}
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}

	user, err := s.repo.UpdateRoles(ctx, id, roles)
	if err != nil {
		return domain.User{}, apperror.OrInternal(err, "Falha interna ao atualizar papéis.")
	}

	s.logger.Info("Papéis atribuídos.", map[string]interface{}{"user_id": id, "roles": roles})
	return user, nil
}

func validateRegistration(r domain.UserRegistration) error {
	if err := validateName(r.Name); err != nil {
		return err
	}
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

func validateName(name string) error {
	if name == "" || len([]rune(name)) > maxNameLength {
		return apperror.NewFieldValidationError("name", "O nome é obrigatório e deve ter no máximo 100 caracteres.")
	}
	return nil
}

func validateEmail(email string) error {
	if _, err := mail.ParseAddress(email); err != nil {
		return apperror.NewFieldValidationError("email", "Email inválido.")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperror.NewFieldValidationError("password", fmt.Sprintf("A senha deve ter ao menos %d caracteres.", minPasswordLength))
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFound(id string) error {
	return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", id))
}
