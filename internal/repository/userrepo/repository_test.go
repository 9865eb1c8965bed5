package userrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/repository/userrepo"
)

var userColumns = []string{"id", "name", "email", "password_hash", "roles", "created_at", "updated_at"}

func newRepo(t *testing.T) (*userrepo.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return userrepo.NewUserRepository(db, time.Second, logger.NewNop()), sqlMock
}

func TestSave_DuplicateEmailIsConflict(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "Ana", "ana@example.com", "hash", pq.Array([]string{"user"})).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Save(context.Background(), domain.User{
		Name: "Ana", Email: "ana@example.com", PasswordHash: "hash", Roles: []domain.Role{domain.RoleUser},
	})
	assert.IsType(t, &apperror.ConflictError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindByID_ParsesRoleArray(t *testing.T) {
	repo, sqlMock := newRepo(t)
	now := time.Now()

	sqlMock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow("u-1", "Ana", "ana@example.com", "hash", "{user,admin}", now, now))

	u, err := repo.FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, []domain.Role{domain.RoleUser, domain.RoleAdmin}, u.Roles)
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("x@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.FindByEmail(context.Background(), "x@example.com")
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

func TestUpdateRoles_MissingUser(t *testing.T) {
	repo, sqlMock := newRepo(t)

	sqlMock.ExpectQuery(`UPDATE users SET roles`).
		WithArgs(pq.Array([]string{"moderator"}), "u-404").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.UpdateRoles(context.Background(), "u-404", []domain.Role{domain.RoleModerator})
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestFindAll_OrdersByCreation(t *testing.T) {
	repo, sqlMock := newRepo(t)
	now := time.Now()

	sqlMock.ExpectQuery(`FROM users ORDER BY created_at, id`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow("u-1", "Ana", "ana@example.com", "h1", "{user}", now, now).
			AddRow("u-2", "Bia", "bia@example.com", "h2", "{admin}", now, now))

	users, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u-2", users[1].ID)
	assert.Equal(t, []domain.Role{domain.RoleAdmin}, users[1].Roles)
}

func TestUpdate(t *testing.T) {
	t.Run("email duplicado é conflito", func(t *testing.T) {
		repo, sqlMock := newRepo(t)
		sqlMock.ExpectQuery(`UPDATE users SET name = \$1, email = \$2, password_hash = \$3`).
			WithArgs("Ana", "bia@example.com", "hash", "u-1").
			WillReturnError(&pq.Error{Code: "23505"})

		_, err := repo.Update(context.Background(), domain.User{ID: "u-1", Name: "Ana", Email: "bia@example.com", PasswordHash: "hash"})
		assert.IsType(t, &apperror.ConflictError{}, err)
	})

	t.Run("usuário inexistente", func(t *testing.T) {
		repo, sqlMock := newRepo(t)
		sqlMock.ExpectQuery(`UPDATE users SET name`).WillReturnRows(sqlmock.NewRows(userColumns))

		_, err := repo.Update(context.Background(), domain.User{ID: "u-404"})
		assert.IsType(t, &apperror.NotFoundError{}, err)
	})
}

func TestDelete(t *testing.T) {
	t.Run("dono de produtos é conflito", func(t *testing.T) {
		repo, sqlMock := newRepo(t)
		sqlMock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
			WithArgs("u-1").
			WillReturnError(&pq.Error{Code: "23503"})

		err := repo.Delete(context.Background(), "u-1")
		assert.IsType(t, &apperror.ConflictError{}, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("nenhuma linha é não encontrado", func(t *testing.T) {
		repo, sqlMock := newRepo(t)
		sqlMock.ExpectExec(`DELETE FROM users`).WithArgs("u-404").WillReturnResult(sqlmock.NewResult(0, 0))

		assert.IsType(t, &apperror.NotFoundError{}, repo.Delete(context.Background(), "u-404"))
	})

	t.Run("sucesso", func(t *testing.T) {
		repo, sqlMock := newRepo(t)
		sqlMock.ExpectExec(`DELETE FROM users`).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(context.Background(), "u-1"))
	})
}
