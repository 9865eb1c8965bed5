package userrepo

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

const selectUserSQL = `SELECT id, name, email, password_hash, roles, created_at, updated_at FROM users`

// UserRepository implementa o acesso a dados de usuários.
type UserRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewUserRepository cria uma nova instância do UserRepository, injetando o DB.
func NewUserRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *UserRepository {
	return &UserRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Save insere um novo usuário no banco de dados.
func (r *UserRepository) Save(ctx context.Context, user domain.User) (domain.User, error) {
	r.logger.Debug("Iniciando Save de usuário no repositório.", map[string]interface{}{"email": user.Email})

	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Prepara dados e ID
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	// 3. Executa o INSERT
	query := `
        INSERT INTO users (id, name, email, password_hash, roles)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING created_at, updated_at`

	err := r.DB.QueryRowContext(ctxTimeout, query,
		user.ID, user.Name, user.Email, user.PasswordHash, pq.Array(rolesToStrings(user.Roles)),
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if database.IsUniqueViolation(err) {
		r.logger.Warn("Email já cadastrado.", map[string]interface{}{"email": user.Email})
		return domain.User{}, apperror.NewConflictError(fmt.Sprintf("Email '%s' já está em uso.", user.Email))
	}
	if err != nil {
		r.logger.Error("Falha ao inserir usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao inserir usuário", err)
	}

	r.logger.Info("Usuário salvo com sucesso no repositório.", map[string]interface{}{"user_id": user.ID, "email": user.Email})
	return user, nil
}

// FindByEmail busca um usuário pelo endereço de e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, selectUserSQL+` WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Usuário não encontrado no DB por email.", map[string]interface{}{"email": email})
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com email '%s' não encontrado", email))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por email no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário por email", err)
	}
	return user, nil
}

// FindByID busca um usuário pelo ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, selectUserSQL+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar usuário por ID no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao buscar usuário", err)
	}
	return user, nil
}

// ExistsByID verifica se o usuário existe.
func (r *UserRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		r.logger.Error("Falha ao verificar existência de usuário.", err)
		return false, apperror.NewDBError("Falha ao verificar existência de usuário", err)
	}
	return exists, nil
}

// UpdateRoles substitui o conjunto de papéis do usuário.
func (r *UserRepository) UpdateRoles(ctx context.Context, id string, roles []domain.Role) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE users SET roles = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING id, name, email, password_hash, roles, created_at, updated_at`

	user, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, pq.Array(rolesToStrings(roles)), id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar papéis do usuário.", err)
		return domain.User{}, apperror.NewDBError("Falha ao atualizar papéis", err)
	}

	r.logger.Info("Papéis do usuário atualizados.", map[string]interface{}{"user_id": id, "roles": roles})
	return user, nil
}

// FindAll lista todos os usuários em ordem de cadastro.
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, selectUserSQL+` ORDER BY created_at, id`)
	if err != nil {
		r.logger.Error("Falha ao listar usuários no DB.", err)
		return nil, apperror.NewDBError("Falha ao listar usuários", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			r.logger.Error("Falha ao ler usuário da listagem.", err)
			return nil, apperror.NewDBError("Falha ao ler usuários", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Falha ao iterar usuários.", err)
		return nil, apperror.NewDBError("Falha ao listar usuários", err)
	}
	return users, nil
}

// Update grava nome, email e hash de senha. Os papéis só mudam por UpdateRoles.
func (r *UserRepository) Update(ctx context.Context, user domain.User) (domain.User, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        UPDATE users SET name = $1, email = $2, password_hash = $3, updated_at = NOW()
        WHERE id = $4
        RETURNING id, name, email, password_hash, roles, created_at, updated_at`

	updated, err := scanUser(r.DB.QueryRowContext(ctxTimeout, query, user.Name, user.Email, user.PasswordHash, user.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", user.ID))
	}
	if database.IsUniqueViolation(err) {
		r.logger.Warn("Email já cadastrado.", map[string]interface{}{"email": user.Email})
		return domain.User{}, apperror.NewConflictError(fmt.Sprintf("Email '%s' já está em uso.", user.Email))
	}
	if err != nil {
		r.logger.Error("Falha ao atualizar usuário no DB.", err)
		return domain.User{}, apperror.NewDBError("Falha ao atualizar usuário", err)
	}

	r.logger.Info("Usuário atualizado no repositório.", map[string]interface{}{"user_id": user.ID})
	return updated, nil
}

// Delete remove o usuário. Um usuário que ainda é dono de produtos não pode ser removido (ConflictError).
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout, `DELETE FROM users WHERE id = $1`, id)
	if database.IsForeignKeyViolation(err) {
		r.logger.Warn("Usuário ainda possui produtos.", map[string]interface{}{"user_id": id})
		return apperror.NewConflictError(fmt.Sprintf("Usuário %s ainda é dono de produtos; transfira ou remova os produtos antes.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao remover usuário no DB.", err)
		return apperror.NewDBError("Falha ao remover usuário", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar remoção de usuário", err)
	}
	if affected == 0 {
		return apperror.NewNotFoundError(fmt.Sprintf("Usuário com ID %s não encontrado.", id))
	}

	r.logger.Info("Usuário removido.", map[string]interface{}{"user_id": id})
	return nil
}

// rowScanner cobre *sql.Row e *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		user  domain.User
		roles pq.StringArray
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &roles, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return domain.User{}, err
	}
	user.Roles = make([]domain.Role, 0, len(roles))
	for _, r := range roles {
		user.Roles = append(user.Roles, domain.Role(r))
	}
	return user, nil
}

func rolesToStrings(roles []domain.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
