package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
)

// productCacheKey é a chave de cache de um produto individual.
const productCacheKey = "product:%s"

// ProductRepository persiste produtos no PostgreSQL e mantém o cache de leitura individual no Redis.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client // opcional; nil desativa o cache
	CacheTTL  time.Duration
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, cacheTTL, dbTimeout time.Duration, logger logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		CacheTTL:  cacheTTL,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	// 1. Contexto
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)

	// 2. Cache-Aside (READ)
	if product, ok := r.readCache(ctxTimeout, key); ok {
		return product, nil
	}

	// 3. Busca no Banco de Dados
	row := r.DB.QueryRowContext(ctxTimeout, selectProductSQL+` WHERE p.id = $1`, id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto no DB", err)
	}

	products := []domain.Product{product}
	if err := r.hydrateCategories(ctxTimeout, products); err != nil {
		return domain.Product{}, err
	}
	product = products[0]

	// 4. Cache-Aside (WRITE)
	r.writeCache(ctxTimeout, key, product)

	return product, nil
}

// FindByName busca um produto pelo nome exato. Usado na verificação de unicidade.
func (r *ProductRepository) FindByName(ctx context.Context, name string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	row := r.DB.QueryRowContext(ctxTimeout, selectProductSQL+` WHERE p.name = $1`, name)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, apperror.NewNotFoundError(fmt.Sprintf("Produto com nome '%s' não encontrado.", name))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto por nome no DB.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao buscar produto por nome", err)
	}
	return product, nil
}

// ExistsByID verifica a existência de um produto sem carregá-lo.
func (r *ProductRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		r.logger.Error("Falha ao verificar existência de produto.", err)
		return false, apperror.NewDBError("Falha ao verificar existência de produto", err)
	}
	return exists, nil
}

// Save insere (Version == 0) ou atualiza o produto com controle de concorrência otimista.
// As categorias são reescritas na mesma transação.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de produto.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	if product.Version == 0 {
		product, err = r.insert(ctxTimeout, tx, product)
	} else {
		product, err = r.update(ctxTimeout, tx, product)
	}
	if err != nil {
		return domain.Product{}, err
	}

	if err := r.replaceCategories(ctxTimeout, tx, product); err != nil {
		return domain.Product{}, err
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de produto.", err)
		return domain.Product{}, apperror.NewDBError("Falha ao commitar transação", err)
	}

	r.invalidate(ctx, product.ID)

	r.logger.Info("Produto persistido.", map[string]interface{}{"product_id": product.ID, "version": product.Version})
	return product, nil
}

func (r *ProductRepository) insert(ctx context.Context, tx *sql.Tx, product domain.Product) (domain.Product, error) {
	if product.ID == "" {
		product.ID = uuid.NewString()
	}

	const insertSQL = `
		INSERT INTO products (id, name, price, description, owner_id, version)
		VALUES ($1, $2, $3, $4, $5, 1)
		RETURNING version, created_at, updated_at`

	err := tx.QueryRowContext(ctx, insertSQL,
		product.ID, product.Name, product.Price, product.Description, product.Owner.ID,
	).Scan(&product.Version, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return domain.Product{}, r.mapWriteError("inserir", product, err)
	}
	return product, nil
}

func (r *ProductRepository) update(ctx context.Context, tx *sql.Tx, product domain.Product) (domain.Product, error) {
	const updateSQL = `
		UPDATE products
		SET name = $1, price = $2, description = $3, owner_id = $4, version = version + 1, updated_at = NOW()
		WHERE id = $5 AND version = $6
		RETURNING version, updated_at`

	err := tx.QueryRowContext(ctx, updateSQL,
		product.Name, product.Price, product.Description, product.Owner.ID, product.ID, product.Version,
	).Scan(&product.Version, &product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Warn("Falha no controle de concorrência otimista (OCC). Versão do registro desatualizada.", map[string]interface{}{
			"product_id":       product.ID,
			"expected_version": product.Version,
		})
		return domain.Product{}, apperror.NewConflictError("O produto foi modificado por outra operação. Recarregue e tente novamente.")
	}
	if err != nil {
		return domain.Product{}, r.mapWriteError("atualizar", product, err)
	}
	return product, nil
}

func (r *ProductRepository) replaceCategories(ctx context.Context, tx *sql.Tx, product domain.Product) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM product_categories WHERE product_id = $1`, product.ID); err != nil {
		r.logger.Error("Falha ao limpar categorias do produto.", err)
		return apperror.NewDBError("Falha ao atualizar categorias do produto", err)
	}

	ids := product.CategoryIDs()
	if len(ids) == 0 {
		return nil
	}

	const linkSQL = `
		INSERT INTO product_categories (product_id, category_id)
		SELECT $1, unnest($2::uuid[])`

	if _, err := tx.ExecContext(ctx, linkSQL, product.ID, pq.Array(ids)); err != nil {
		return r.mapWriteError("vincular categorias de", product, err)
	}
	return nil
}

// Delete remove o produto. As associações com categorias caem em cascata.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Falha ao deletar produto no DB.", err)
		return apperror.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Produto com ID %s não encontrado para exclusão.", id))
	}

	r.invalidate(ctx, id)
	return nil
}

func (r *ProductRepository) mapWriteError(action string, product domain.Product, err error) error {
	switch {
	case database.IsUniqueViolation(err):
		return apperror.NewConflictError(fmt.Sprintf("Já existe um produto com o nome '%s'.", product.Name))
	case database.IsForeignKeyViolation(err):
		return apperror.NewNotFoundError("Dono ou categoria referenciados pelo produto não existem mais.")
	default:
		r.logger.Error(fmt.Sprintf("Falha ao %s produto no DB.", action), err)
		return apperror.NewDBError(fmt.Sprintf("Falha ao %s produto", action), err)
	}
}

// --- Cache ---

func (r *ProductRepository) readCache(ctx context.Context, key string) (domain.Product, bool) {
	if r.Cache == nil {
		return domain.Product{}, false
	}

	cached, err := r.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			r.logger.Warn("Falha ao ler do cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return domain.Product{}, false
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(cached), &product); err != nil {
		r.logger.Warn("Entrada de cache corrompida; consultando o DB.", map[string]interface{}{"key": key})
		return domain.Product{}, false
	}
	return product, true
}

func (r *ProductRepository) writeCache(ctx context.Context, key string, product domain.Product) {
	if r.Cache == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, r.CacheTTL); err != nil {
		r.logger.Warn("Falha ao gravar no cache Redis.", map[string]interface{}{"key": key, "error": err.Error()})
	}
}

// invalidate remove a entrada de cache do produto. Uma leitura obsoleta entre o commit
// e a invalidação é aceita.
func (r *ProductRepository) invalidate(ctx context.Context, id string) {
	if r.Cache == nil {
		return
	}
	if err := r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id)); err != nil {
		r.logger.Warn("Falha ao invalidar cache do produto.", map[string]interface{}{"product_id": id, "error": err.Error()})
	}
}
