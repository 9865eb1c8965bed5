package domain

import (
	"slices"
	"time"

	"gocatalog/internal/pkg/optional"
)

// Role é um papel do usuário. O conjunto é fixo.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
	RoleAdmin     Role = "admin"
)

// ParseRole valida uma string contra os papéis conhecidos.
func ParseRole(s string) (Role, bool) {
	switch r := Role(s); r {
	case RoleUser, RoleModerator, RoleAdmin:
		return r, true
	}
	return "", false
}

// Elevated indica papéis que dominam o papel base na autorização de mutações.
func (r Role) Elevated() bool {
	return r == RoleModerator || r == RoleAdmin
}

// User representa a entidade do usuário no sistema.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // nunca serializado
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Summary retorna a projeção pública do usuário usada como dono de produto.
func (u User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// UserSummary identifica o dono de um produto.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Caller é a identidade já autenticada que executa uma operação.
type Caller struct {
	ID    string
	Roles []Role
}

// HasRole verifica pertencimento ao conjunto de papéis.
func (c Caller) HasRole(role Role) bool {
	return slices.Contains(c.Roles, role)
}

// Elevated indica se o chamador possui algum papel elevado.
func (c Caller) Elevated() bool {
	return slices.ContainsFunc(c.Roles, Role.Elevated)
}

// UserRegistration representa o payload de entrada para o registro.
type UserRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest é o payload de autenticação.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse é devolvido após um login bem-sucedido.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoleAssignment é o payload de atribuição de papéis (admin).
type RoleAssignment struct {
	Roles []string `json:"roles"`
}

// UserUpdate é o payload de substituição (PUT). Password vazio mantém a senha atual.
type UserUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// UserPatchRequest é o payload do PATCH. Campo ausente não altera nada; null é rejeitado.
type UserPatchRequest struct {
	Name     optional.Value[string] `json:"name" swaggertype:"string"`
	Email    optional.Value[string] `json:"email" swaggertype:"string"`
	Password optional.Value[string] `json:"password" swaggertype:"string"`
}

// IsEmpty indica um patch sem nenhum campo informado.
func (p UserPatchRequest) IsEmpty() bool {
	return !p.Name.IsPresent() && !p.Email.IsPresent() && !p.Password.IsPresent()
}
