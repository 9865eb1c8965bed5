package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxCategoryNameLength        = 100
	MaxCategoryDescriptionLength = 500
)

// Category agrupa produtos. Relação N:N com Product.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategorySummary é a forma resumida embutida em Product.
type CategorySummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c Category) Summary() CategorySummary {
	return CategorySummary{ID: c.ID, Name: c.Name}
}

// CategoryRequest é o payload de criação de categoria.
type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Normalize remove espaços das bordas dos campos de texto.
func (r CategoryRequest) Normalize() CategoryRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	return r
}

// CategoryNameValid verifica nome não vazio e dentro do limite.
func CategoryNameValid(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n > 0 && n <= MaxCategoryNameLength
}
