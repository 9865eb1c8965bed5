package categoryrepo_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/categoryrepo"
)

func newRepo(t *testing.T) (*categoryrepo.CategoryRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return categoryrepo.NewCategoryRepository(db, time.Second, logger.NewNop()), sqlMock
}

var categoryColumns = []string{"id", "name", "description", "created_at", "updated_at"}

func TestSave_DuplicateNameIsConflict(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`INSERT INTO categories`).
		WithArgs(sqlmock.AnyArg(), "Livros", "").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Save(context.Background(), domain.Category{Name: "Livros"})
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestSave_AssignsID(t *testing.T) {
	repo, sqlMock := newRepo(t)
	now := time.Now()

	sqlMock.ExpectQuery(`INSERT INTO categories`).
		WithArgs(sqlmock.AnyArg(), "Livros", "papel").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c, err := repo.Save(context.Background(), domain.Category{Name: "Livros", Description: "papel"})
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, now, c.CreatedAt)
}

func TestFindByIDs_UsesArrayParameter(t *testing.T) {
	repo, sqlMock := newRepo(t)
	now := time.Now()

	sqlMock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ANY($1)`)).
		WithArgs(pq.Array([]string{"c-1", "c-2"})).
		WillReturnRows(sqlmock.NewRows(categoryColumns).AddRow("c-1", "A", "", now, now))

	got, err := repo.FindByIDs(context.Background(), []string{"c-1", "c-2"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindByIDs_EmptyInputSkipsQuery(t *testing.T) {
	repo, sqlMock := newRepo(t)

	got, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`FROM categories`).
		WithArgs("c-9").
		WillReturnRows(sqlmock.NewRows(categoryColumns))

	_, err := repo.FindByID(context.Background(), "c-9")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestExistsByID(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.ExistsByID(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, ok)
}
