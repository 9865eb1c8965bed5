package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/query"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func (m *MockCache) Incr(ctx context.Context, key string) (int64, time.Duration, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}

func (m *MockCache) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.Called(ctx, key, expiration).Error(0)
}

func (m *MockCache) Close() error { return nil }

var productColumns = []string{"id", "name", "price", "description", "version", "created_at", "updated_at", "id", "name", "email"}

func newRepo(t *testing.T, c cache.Client) (*ProductRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductRepository(db, c, time.Minute, time.Second, logger.NewNop()), sqlMock
}

func productRow(rows *sqlmock.Rows, id, name string, price float64) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return rows.AddRow(id, name, price, "", 1, now, now, "u-1", "Ana", "ana@example.com")
}

func TestBuildOrderBy(t *testing.T) {
	got, err := buildOrderBy(query.SortSpec{{Field: "price", Direction: query.DESC}, {Field: "category.name", Direction: query.ASC}})
	require.NoError(t, err)
	assert.Contains(t, got, "p.price DESC, (SELECT MIN(c.name)")
	assert.True(t, strings.HasSuffix(got, ", p.id ASC"))

	got, err = buildOrderBy(query.SortSpec{{Field: "id", Direction: query.DESC}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY p.id DESC", got)

	_, err = buildOrderBy(query.SortSpec{{Field: "p.id; --", Direction: query.ASC}})
	assert.IsType(t, &apperror.ValidationError{}, err)
}

func TestBuildWhere(t *testing.T) {
	name, minPrice, cat := `%bol\_a%`, 10.0, "c-1"
	where, args := buildWhere(query.FilterSpec{NamePattern: &name, MinPrice: &minPrice, CategoryID: &cat})

	assert.Equal(t,
		` WHERE p.name ILIKE $1 ESCAPE '\' AND p.price >= $2 AND EXISTS (SELECT 1 FROM product_categories fc WHERE fc.product_id = p.id AND fc.category_id = $3)`,
		where)
	assert.Equal(t, []interface{}{name, minPrice, cat}, args)

	where, args = buildWhere(query.FilterSpec{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestFindSlice_ReadsLimitWithoutCounting(t *testing.T) {
	repo, sqlMock := newRepo(t, nil)

	sqlMock.ExpectQuery(`FROM products p JOIN users u ON u.id = p.owner_id ORDER BY p.id ASC LIMIT \$1 OFFSET \$2`).
		WithArgs(3, 0).
		WillReturnRows(productRow(productRow(sqlmock.NewRows(productColumns), "p-1", "A", 1), "p-2", "B", 2))
	sqlMock.ExpectQuery(`FROM product_categories pc`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name"}).AddRow("p-2", "c-1", "Casa"))

	items, err := repo.FindSlice(context.Background(), query.FilterSpec{}, query.SortSpec{{Field: "id", Direction: query.ASC}}, 0, 3)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Empty(t, items[0].Categories)
	assert.Equal(t, []domain.CategorySummary{{ID: "c-1", Name: "Casa"}}, items[1].Categories)
	assert.Equal(t, "ana@example.com", items[1].Owner.Email)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindPage_CountsThenReadsWindow(t *testing.T) {
	repo, sqlMock := newRepo(t, nil)
	maxPrice := 50.0

	sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products p WHERE p.price <= $1`)).
		WithArgs(maxPrice).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	sqlMock.ExpectQuery(regexp.QuoteMeta(`WHERE p.price <= $1 ORDER BY p.name DESC, p.id ASC LIMIT $2 OFFSET $3`)).
		WithArgs(maxPrice, 2, 2).
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), "p-3", "C", 3))
	sqlMock.ExpectQuery(`FROM product_categories pc`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name"}))

	items, total, err := repo.FindPage(context.Background(), query.FilterSpec{MaxPrice: &maxPrice},
		query.SortSpec{{Field: "name", Direction: query.DESC}}, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindPage_EmptyTotalSkipsWindowQuery(t *testing.T) {
	repo, sqlMock := newRepo(t, nil)

	sqlMock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM products p`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	items, total, err := repo.FindPage(context.Background(), query.FilterSpec{}, query.SortSpec{{Field: "id", Direction: query.ASC}}, 0, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindByID_CacheHitSkipsDB(t *testing.T) {
	c := new(MockCache)
	repo, sqlMock := newRepo(t, c)

	cached, _ := json.Marshal(domain.Product{ID: "p-1", Name: "Cacheado", Version: 2})
	c.On("Get", mock.Anything, "product:p-1").Return(string(cached), nil).Once()

	p, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Cacheado", p.Name)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	c.AssertExpectations(t)
}

func TestFindByID_CacheMissLoadsAndPopulates(t *testing.T) {
	c := new(MockCache)
	repo, sqlMock := newRepo(t, c)

	c.On("Get", mock.Anything, "product:p-1").Return("", cache.ErrCacheMiss).Once()
	c.On("Set", mock.Anything, "product:p-1", mock.Anything, time.Minute).Return(nil).Once()

	sqlMock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1`)).
		WithArgs("p-1").
		WillReturnRows(productRow(sqlmock.NewRows(productColumns), "p-1", "Banco", 9.9))
	sqlMock.ExpectQuery(`FROM product_categories pc`).
		WillReturnRows(sqlmock.NewRows([]string{"product_id", "id", "name"}))

	p, err := repo.FindByID(context.Background(), "p-1")
	require.NoError(t, err)
	assert.Equal(t, 9.9, p.Price)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	c.AssertExpectations(t)
}

func TestFindByID_NotFound(t *testing.T) {
	repo, sqlMock := newRepo(t, nil)

	sqlMock.ExpectQuery(regexp.QuoteMeta(`WHERE p.id = $1`)).
		WithArgs("nope").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "nope")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestSave_InsertWritesCategoriesInSameTx(t *testing.T) {
	c := new(MockCache)
	repo, sqlMock := newRepo(t, c)
	now := time.Now()

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`INSERT INTO products`).
		WithArgs(sqlmock.AnyArg(), "Novo", 12.5, "", "u-1").
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at", "updated_at"}).AddRow(1, now, now))
	sqlMock.ExpectExec(`DELETE FROM product_categories WHERE product_id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	sqlMock.ExpectExec(`INSERT INTO product_categories`).
		WithArgs(sqlmock.AnyArg(), pq.Array([]string{"c-1", "c-2"})).
		WillReturnResult(sqlmock.NewResult(0, 2))
	sqlMock.ExpectCommit()
	c.On("Delete", mock.Anything, mock.Anything).Return(nil).Once()

	saved, err := repo.Save(context.Background(), domain.Product{
		Name:       "Novo",
		Price:      12.5,
		Owner:      domain.UserSummary{ID: "u-1"},
		Categories: []domain.CategorySummary{{ID: "c-1"}, {ID: "c-2"}},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 1, saved.Version)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	c.AssertExpectations(t)
}

func TestSave_StaleVersionIsConflict(t *testing.T) {
	c := new(MockCache)
	repo, sqlMock := newRepo(t, c)

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`UPDATE products`).
		WithArgs("Velho", 10.0, "", "u-1", "p-1", 4).
		WillReturnRows(sqlmock.NewRows([]string{"version", "updated_at"}))
	sqlMock.ExpectRollback()

	_, err := repo.Save(context.Background(), domain.Product{
		ID: "p-1", Name: "Velho", Price: 10, Owner: domain.UserSummary{ID: "u-1"}, Version: 4,
	})

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	c.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSave_DuplicateNameIsConflict(t *testing.T) {
	repo, sqlMock := newRepo(t, nil)

	sqlMock.ExpectBegin()
	sqlMock.ExpectQuery(`INSERT INTO products`).
		WillReturnError(&pq.Error{Code: "23505"})
	sqlMock.ExpectRollback()

	_, err := repo.Save(context.Background(), domain.Product{Name: "Duplicado", Price: 1, Owner: domain.UserSummary{ID: "u-1"}})

	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	c := new(MockCache)
	repo, sqlMock := newRepo(t, c)

	sqlMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id = $1`)).
		WithArgs("p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	c.On("Delete", mock.Anything, []string{"product:p-1"}).Return(nil).Once()

	require.NoError(t, repo.Delete(context.Background(), "p-1"))

	sqlMock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id = $1`)).
		WithArgs("p-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "p-2")
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
	c.AssertExpectations(t)
}
