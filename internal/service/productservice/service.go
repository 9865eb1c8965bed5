package productservice

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gocatalog/internal/authz"
	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/query"
)

// ProductRepository define o contrato (interface) que este Serviço espera
// da camada de Persistência (DB, Cache).
type ProductRepository interface {
	query.Source[domain.Product]

	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindAll(ctx context.Context, filter query.FilterSpec, sort query.SortSpec) ([]domain.Product, error)
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
	FindByName(ctx context.Context, name string) (domain.Product, error)
}

// UserRepository resolve donos de produtos.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// CategoryRepository resolve categorias referenciadas por produtos.
type CategoryRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Category, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// Service orquestra autorização, validação, ordenação, filtros e paginação de produtos.
type Service struct {
	products   ProductRepository
	users      UserRepository
	categories CategoryRepository
	policy     authz.Policy
	logger     logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(products ProductRepository, users UserRepository, categories CategoryRepository, policy authz.Policy, logger logger.Logger) *Service {
	return &Service{
		products:   products,
		users:      users,
		categories: categories,
		policy:     policy,
		logger:     logger,
	}
}

// CreateProduct cria um produto para o chamador ou, com OwnerID, para outro dono.
// Ordem: campos → dono existe → categorias existem → nome único → chamador pode agir pelo dono.
func (s *Service) CreateProduct(ctx context.Context, caller domain.Caller, req domain.ProductRequest) (domain.ProductResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	s.logger.Debug("Iniciando criação de produto no serviço.", map[string]interface{}{"name": req.Name, "caller_id": caller.ID})

	// 1. Validação de campos
	if err := validateFields(req.Name, req.Price, req.Description); err != nil {
		s.logger.Warn("Falha na validação do produto.", map[string]interface{}{"name": req.Name, "error": err.Error()})
		return domain.ProductResponse{}, err
	}

	// 2. Dono
	ownerID := strings.TrimSpace(req.OwnerID)
	if ownerID == "" {
		ownerID = caller.ID
	}
	owner, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return domain.ProductResponse{}, err
	}

	// 3. Categorias
	categories, err := s.resolveCategories(ctx, req.CategoryIDs)
	if err != nil {
		return domain.ProductResponse{}, err
	}

	// 4. Unicidade do nome
	if err := s.ensureNameAvailable(ctx, req.Name, ""); err != nil {
		return domain.ProductResponse{}, err
	}

	// 5. Autorização: papel base só cria para si mesmo
	if err := s.policy.Authorize(caller, "produtos do usuário "+owner.ID, owner.ID); err != nil {
		s.logger.Warn("Criação de produto negada.", map[string]interface{}{"caller_id": caller.ID, "owner_id": owner.ID})
		return domain.ProductResponse{}, err
	}

	// 6. Persistência
	created, err := s.products.Save(ctx, domain.Product{
		Name:        req.Name,
		Price:       req.Price,
		Description: req.Description,
		Owner:       owner,
		Categories:  categories,
	})
	if err != nil {
		s.logger.Error("Falha ao salvar produto no repositório.", err)
		return domain.ProductResponse{}, apperror.OrInternal(err, "Falha interna ao criar produto.")
	}

	s.logger.Info("Produto criado com sucesso.", map[string]interface{}{"id": created.ID, "owner_id": owner.ID})
	return created.ToResponse(), nil
}

// GetProduct busca um produto pelo ID.
func (s *Service) GetProduct(ctx context.Context, id string) (domain.ProductResponse, error) {
	product, err := s.fetch(ctx, id)
	if err != nil {
		return domain.ProductResponse{}, err
	}
	return product.ToResponse(), nil
}

// DeleteProduct remove um produto. Todo delete passa pela verificação de posse.
func (s *Service) DeleteProduct(ctx context.Context, caller domain.Caller, id string) error {
	s.logger.Debug("Iniciando exclusão de produto no serviço.", map[string]interface{}{"id": id, "caller_id": caller.ID})

	product, err := s.fetch(ctx, id)
	if err != nil {
		return err
	}

	if err := s.policy.Authorize(caller, "produto "+id, product.Owner.ID); err != nil {
		s.logger.Warn("Exclusão de produto negada.", map[string]interface{}{"id": id, "caller_id": caller.ID})
		return err
	}

	if err := s.products.Delete(ctx, id); err != nil {
		s.logger.Error("Falha ao deletar produto no repositório.", err)
		return apperror.OrInternal(err, "Falha interna ao deletar produto.")
	}

	s.logger.Info("Produto deletado com sucesso.", map[string]interface{}{"id": id})
	return nil
}

// fetch carrega o produto; IDs fora do formato UUID não existem.
func (s *Service) fetch(ctx context.Context, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado.", id))
	}
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return domain.Product{}, apperror.OrInternal(err, "Falha interna ao buscar produto.")
	}
	return product, nil
}

func validateFields(name string, price float64, description string) error {
	if msg := domain.ValidateProductName(name); msg != "" {
		return apperror.NewFieldValidationError("name", msg)
	}
	if msg := domain.ValidateProductPrice(price); msg != "" {
		return apperror.NewFieldValidationError("price", msg)
	}
	if msg := domain.ValidateProductDescription(description); msg != "" {
		return apperror.NewFieldValidationError("description", msg)
	}
	return nil
}
