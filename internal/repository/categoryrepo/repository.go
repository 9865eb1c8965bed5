package categoryrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// CategoryRepository implementa o acesso a dados de categorias.
type CategoryRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCategoryRepository cria e retorna uma nova instância do Repositório de Categorias.
func NewCategoryRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CategoryRepository {
	return &CategoryRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere uma nova categoria. Nome duplicado retorna ConflictError.
func (r *CategoryRepository) Save(ctx context.Context, category domain.Category) (domain.Category, error) {
	r.logger.Debug("Iniciando Save de categoria no repositório.", map[string]interface{}{"name": category.Name})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if category.ID == "" {
		category.ID = uuid.NewString()
	}

	query := `
        INSERT INTO categories (id, name, description)
        VALUES ($1, $2, $3)
        RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query, category.ID, category.Name, category.Description).
		Scan(&category.CreatedAt, &category.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return domain.Category{}, apperror.NewConflictError(fmt.Sprintf("Já existe uma categoria com o nome '%s'.", category.Name))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao criar categoria", err)
	}

	r.logger.Info("Categoria criada com sucesso.", map[string]interface{}{"id": category.ID, "name": category.Name})
	return category, nil
}

// FindByID busca uma categoria pelo ID.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, description, created_at, updated_at
        FROM categories
        WHERE id = $1`

	var c domain.Category
	err := r.DB.QueryRowContext(ctxTimeout, query, id).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Category{}, apperror.NewNotFoundError(fmt.Sprintf("Categoria com ID %s não encontrada.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar categoria no DB.", err)
		return domain.Category{}, apperror.NewDBError("Falha ao buscar categoria", err)
	}
	return c, nil
}

// FindByIDs busca várias categorias de uma vez. Ids inexistentes são simplesmente omitidos;
// cabe ao chamador comparar o resultado com o pedido.
func (r *CategoryRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Category, error) {
	if len(ids) == 0 {
		return []domain.Category{}, nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, description, created_at, updated_at
        FROM categories
        WHERE id = ANY($1)
        ORDER BY name`

	return r.list(ctxTimeout, query, pq.Array(ids))
}

// FindAll busca todas as categorias ordenadas por nome.
func (r *CategoryRepository) FindAll(ctx context.Context) ([]domain.Category, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, description, created_at, updated_at
        FROM categories
        ORDER BY name`

	categories, err := r.list(ctxTimeout, query)
	if err != nil {
		return nil, err
	}
	r.logger.Info("FindAll de categorias concluído.", map[string]interface{}{"total": len(categories)})
	return categories, nil
}

// ExistsByID verifica se a categoria existe.
func (r *CategoryRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.logger.Error("Falha ao verificar existência de categoria.", err)
		return false, apperror.NewDBError("Falha ao verificar existência de categoria", err)
	}
	return exists, nil
}

func (r *CategoryRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Category, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Falha ao executar consulta de categorias.", err)
		return nil, apperror.NewDBError("Falha ao buscar categorias", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			r.logger.Error("Falha ao mapear categoria.", err)
			return nil, apperror.NewDBError("Falha ao mapear categorias do DB", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro após iteração das linhas de categorias.", err)
		return nil, apperror.NewDBError("Erro após iteração de categorias", err)
	}
	return categories, nil
}
