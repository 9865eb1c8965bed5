package productrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/query"
)

const selectProductSQL = `
	SELECT p.id, p.name, p.price, p.description, p.version, p.created_at, p.updated_at,
	       u.id, u.name, u.email
	FROM products p
	JOIN users u ON u.id = p.owner_id`

// sortColumns traduz os campos da whitelist em expressões SQL fixas.
// Nenhum texto vindo da requisição chega ao ORDER BY.
var sortColumns = map[string]string{
	"id":          "p.id",
	"name":        "p.name",
	"price":       "p.price",
	"createdAt":   "p.created_at",
	"updatedAt":   "p.updated_at",
	"owner.name":  "u.name",
	"owner.email": "u.email",
	// Produto com várias categorias ordena pela primeira em ordem alfabética.
	"category.name": "(SELECT MIN(c.name) FROM product_categories pc JOIN categories c ON c.id = pc.category_id WHERE pc.product_id = p.id)",
}

// FindAll retorna todos os produtos que satisfazem o filtro, sem paginação.
func (r *ProductRepository) FindAll(ctx context.Context, filter query.FilterSpec, sort query.SortSpec) ([]domain.Product, error) {
	where, args := buildWhere(filter)
	orderBy, err := buildOrderBy(sort)
	if err != nil {
		return nil, err
	}

	stmt := selectProductSQL + where + orderBy
	return r.list(ctx, stmt, args)
}

// FindPage retorna a janela solicitada e o total de itens (segunda consulta COUNT).
func (r *ProductRepository) FindPage(ctx context.Context, filter query.FilterSpec, sort query.SortSpec, offset, limit int) ([]domain.Product, int64, error) {
	where, args := buildWhere(filter)
	orderBy, err := buildOrderBy(sort)
	if err != nil {
		return nil, 0, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var total int64
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT COUNT(*) FROM products p`+where, args...).Scan(&total); err != nil {
		r.logger.Error("Falha ao contar produtos no DB.", err)
		return nil, 0, apperror.NewDBError("Falha ao contar produtos", err)
	}

	if total == 0 || int64(offset) >= total {
		return []domain.Product{}, total, nil
	}

	stmt, args := withWindow(selectProductSQL+where+orderBy, args, offset, limit)
	items, err := r.list(ctxTimeout, stmt, args)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// FindSlice retorna no máximo limit produtos, sem COUNT.
func (r *ProductRepository) FindSlice(ctx context.Context, filter query.FilterSpec, sort query.SortSpec, offset, limit int) ([]domain.Product, error) {
	where, args := buildWhere(filter)
	orderBy, err := buildOrderBy(sort)
	if err != nil {
		return nil, err
	}

	stmt, args := withWindow(selectProductSQL+where+orderBy, args, offset, limit)
	return r.list(ctx, stmt, args)
}

func (r *ProductRepository) list(ctx context.Context, stmt string, args []interface{}) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, stmt, args...)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error("Falha ao ler linha de produto.", err)
			return nil, apperror.NewDBError("Falha ao ler produtos", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Erro durante a iteração de produtos.", err)
		return nil, apperror.NewDBError("Falha ao ler produtos", err)
	}

	if err := r.hydrateCategories(ctxTimeout, products); err != nil {
		return nil, err
	}
	return products, nil
}

// hydrateCategories carrega as categorias de todos os produtos em uma única consulta.
func (r *ProductRepository) hydrateCategories(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
		products[i].Categories = []domain.CategorySummary{}
	}

	const categoriesSQL = `
		SELECT pc.product_id, c.id, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ANY($1)
		ORDER BY c.name`

	rows, err := r.DB.QueryContext(ctx, categoriesSQL, pq.Array(ids))
	if err != nil {
		r.logger.Error("Falha ao carregar categorias dos produtos.", err)
		return apperror.NewDBError("Falha ao carregar categorias", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID string
		var c domain.CategorySummary
		if err := rows.Scan(&productID, &c.ID, &c.Name); err != nil {
			return apperror.NewDBError("Falha ao ler categorias", err)
		}
		if i, ok := index[productID]; ok {
			products[i].Categories = append(products[i].Categories, c)
		}
	}
	if err := rows.Err(); err != nil {
		return apperror.NewDBError("Falha ao ler categorias", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	err := s.Scan(
		&p.ID, &p.Name, &p.Price, &p.Description, &p.Version, &p.CreatedAt, &p.UpdatedAt,
		&p.Owner.ID, &p.Owner.Name, &p.Owner.Email,
	)
	return p, err
}

// --- Montagem de SQL ---

// buildWhere monta o WHERE parametrizado a partir do filtro validado.
func buildWhere(f query.FilterSpec) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.NamePattern != nil {
		add(`p.name ILIKE $%d ESCAPE '\'`, *f.NamePattern)
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if f.CategoryID != nil {
		add("EXISTS (SELECT 1 FROM product_categories fc WHERE fc.product_id = p.id AND fc.category_id = $%d)", *f.CategoryID)
	}
	if f.OwnerID != nil {
		add("p.owner_id = $%d", *f.OwnerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// buildOrderBy traduz o SortSpec. Um desempate por p.id é sempre anexado quando id
// não foi pedido, para que a paginação seja estável.
func buildOrderBy(spec query.SortSpec) (string, error) {
	parts := make([]string, 0, len(spec)+1)
	for _, o := range spec {
		col, ok := sortColumns[o.Field]
		if !ok {
			return "", apperror.NewFieldValidationError(o.Field, fmt.Sprintf("campo de ordenação desconhecido: '%s'", o.Field))
		}
		dir := "ASC"
		if o.Direction == query.DESC {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if !spec.Has("id") {
		parts = append(parts, "p.id ASC")
	}
	return " ORDER BY " + strings.Join(parts, ", "), nil
}

func withWindow(stmt string, args []interface{}, offset, limit int) (string, []interface{}) {
	args = append(args, limit, offset)
	return fmt.Sprintf("%s LIMIT $%d OFFSET $%d", stmt, len(args)-1, len(args)), args
}

var (
	_ query.Source[domain.Product] = (*ProductRepository)(nil)
	_ scanner                      = (*sql.Row)(nil)
	_ scanner                      = (*sql.Rows)(nil)
)
