// Package query traduz parâmetros de consulta não confiáveis (ordenação, filtros e
// paginação) em especificações validadas que o repositório pode executar com segurança.
package query

import (
	"fmt"
	"strings"

	apperror "gocatalog/internal/errors"
)

// Direction é a direção de ordenação.
type Direction string

const (
	ASC  Direction = "ASC"
	DESC Direction = "DESC"
)

// Order é um par (campo, direção) já validado.
type Order struct {
	Field     string
	Direction Direction
}

// SortSpec é a lista ordenada de critérios. Nunca vazia quando produzida por BuildSort.
type SortSpec []Order

// Has indica se o campo já aparece na especificação.
func (s SortSpec) Has(field string) bool {
	for _, o := range s {
		if o.Field == field {
			return true
		}
	}
	return false
}

// Whitelist é o conjunto fechado de campos ordenáveis.
type Whitelist map[string]struct{}

// NewWhitelist monta uma whitelist a partir dos nomes de campo.
func NewWhitelist(fields ...string) Whitelist {
	w := make(Whitelist, len(fields))
	for _, f := range fields {
		w[f] = struct{}{}
	}
	return w
}

func (w Whitelist) Allows(field string) bool {
	_, ok := w[field]
	return ok
}

// DefaultSortField é usado quando nenhum critério é informado.
const DefaultSortField = "id"

// ProductSortFields são os campos ordenáveis de produto.
var ProductSortFields = NewWhitelist(
	"id", "name", "price", "createdAt", "updatedAt",
	"owner.name", "owner.email", "category.name",
)

// BuildSort converte tokens "campo" ou "campo,direção" em um SortSpec.
// A direção só é DESC quando igual a "desc" (sem diferenciar maiúsculas); qualquer outro valor é ASC.
// Um campo fora da whitelist falha a operação inteira com ValidationError.Field igual ao campo.
// Tokens em branco são ignorados e a ausência de tokens produz [(id, ASC)].
func BuildSort(tokens []string, allowed Whitelist) (SortSpec, error) {
	spec := make(SortSpec, 0, len(tokens))

	for _, raw := range tokens {
		token := strings.TrimSpace(raw)
		if token == "" {
			continue
		}

		field, dir, _ := strings.Cut(token, ",")
		field = strings.TrimSpace(field)

		if !allowed.Allows(field) {
			return nil, apperror.NewFieldValidationError(field,
				fmt.Sprintf("campo de ordenação desconhecido: '%s'", field))
		}

		direction := ASC
		if strings.EqualFold(strings.TrimSpace(dir), "desc") {
			direction = DESC
		}
		spec = append(spec, Order{Field: field, Direction: direction})
	}

	if len(spec) == 0 {
		return SortSpec{{Field: DefaultSortField, Direction: ASC}}, nil
	}
	return spec, nil
}
