package categoryservice

import (
	"context"

	"github.com/google/uuid"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// CategoryRepository define o contrato que o Serviço de Categorias espera da camada de Persistência.
type CategoryRepository interface {
	Save(ctx context.Context, category domain.Category) (domain.Category, error)
	FindByID(ctx context.Context, id string) (domain.Category, error)
	FindAll(ctx context.Context) ([]domain.Category, error)
}

// Service implementa as regras de negócio de categorias.
type Service struct {
	repo   CategoryRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Categorias.
func NewService(repo CategoryRepository, logger logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateCategory cria uma nova categoria. Nome duplicado retorna ConflictError.
func (s *Service) CreateCategory(ctx context.Context, req domain.CategoryRequest) (domain.Category, error) {
	req = req.Normalize()
	s.logger.Debug("Iniciando criação de categoria no serviço.", map[string]interface{}{"name": req.Name})

	if !domain.CategoryNameValid(req.Name) {
		s.logger.Warn("Falha na validação do nome da categoria.", map[string]interface{}{"name": req.Name})
		return domain.Category{}, apperror.NewFieldValidationError("name", "O nome da categoria deve ter entre 1 e 100 caracteres.")
	}
	if len([]rune(req.Description)) > domain.MaxCategoryDescriptionLength {
		return domain.Category{}, apperror.NewFieldValidationError("description", "A descrição deve ter no máximo 500 caracteres.")
	}

	created, err := s.repo.Save(ctx, domain.Category{Name: req.Name, Description: req.Description})
	if err != nil {
		s.logger.Error("Falha ao criar categoria no repositório.", err)
		return domain.Category{}, apperror.OrInternal(err, "Falha interna ao criar categoria.")
	}

	s.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"id": created.ID, "name": created.Name})
	return created, nil
}

// GetCategory busca uma categoria pelo ID. IDs fora do formato UUID não existem.
func (s *Service) GetCategory(ctx context.Context, id string) (domain.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		s.logger.Warn("ID de categoria inválido fornecido.", map[string]interface{}{"id": id})
		return domain.Category{}, apperror.NewNotFoundError("Categoria com ID " + id + " não encontrada.")
	}

	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.Category{}, apperror.OrInternal(err, "Falha interna ao buscar categoria.")
	}
	return category, nil
}

// ListCategories retorna todas as categorias.
func (s *Service) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("Falha ao listar categorias no repositório.", err)
		return nil, apperror.OrInternal(err, "Falha interna ao buscar categorias.")
	}
	return categories, nil
}
