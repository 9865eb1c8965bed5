package query

import (
	"fmt"
	"strings"

	apperror "gocatalog/internal/errors"
)

// FilterParams são os filtros brutos vindos da requisição. nil significa "não informado".
type FilterParams struct {
	Name       *string
	MinPrice   *float64
	MaxPrice   *float64
	CategoryID *string
	OwnerID    *string
}

// FilterSpec é o predicado validado. Campos nil não restringem o resultado.
type FilterSpec struct {
	// NamePattern já está escapado para uso em ILIKE.
	NamePattern *string
	MinPrice    *float64
	MaxPrice    *float64
	CategoryID  *string
	OwnerID     *string
}

// IsEmpty indica ausência de qualquer restrição.
func (f FilterSpec) IsEmpty() bool {
	return f.NamePattern == nil && f.MinPrice == nil && f.MaxPrice == nil && f.CategoryID == nil && f.OwnerID == nil
}

// BuildFilter valida e normaliza os filtros.
// Preço negativo ou min > max falham; min == max é válido. Nome vazio é tratado como ausente.
// A existência da categoria não é verificada aqui.
func BuildFilter(p FilterParams) (FilterSpec, error) {
	if p.MinPrice != nil && *p.MinPrice < 0 {
		return FilterSpec{}, apperror.NewFieldValidationError("minPrice", "O preço mínimo não pode ser negativo.")
	}
	if p.MaxPrice != nil && *p.MaxPrice < 0 {
		return FilterSpec{}, apperror.NewFieldValidationError("maxPrice", "O preço máximo não pode ser negativo.")
	}
	if p.MinPrice != nil && p.MaxPrice != nil && *p.MinPrice > *p.MaxPrice {
		return FilterSpec{}, apperror.NewFieldValidationError("minPrice",
			fmt.Sprintf("O preço mínimo (%.2f) não pode ser maior que o máximo (%.2f).", *p.MinPrice, *p.MaxPrice))
	}

	spec := FilterSpec{
		MinPrice:   p.MinPrice,
		MaxPrice:   p.MaxPrice,
		CategoryID: nonBlank(p.CategoryID),
		OwnerID:    nonBlank(p.OwnerID),
	}
	if name := nonBlank(p.Name); name != nil {
		pattern := "%" + EscapeLike(*name) + "%"
		spec.NamePattern = &pattern
	}
	return spec, nil
}

// EscapeLike escapa os metacaracteres de LIKE para que a entrada seja uma substring literal.
// Usa '\' como caractere de escape (padrão do PostgreSQL).
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
