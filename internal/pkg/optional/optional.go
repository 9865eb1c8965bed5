// Package optional modela campos tri-estado de um PATCH: ausente, presente com null
// e presente com valor.
package optional

import (
	"bytes"
	"encoding/json"
)

// Value é um campo opcional. O valor zero é "ausente".
//
// Ao decodificar JSON, uma chave omitida mantém o campo ausente e `null` o marca como
// presente-nulo. Isso só funciona com o campo declarado por valor (não ponteiro) na struct.
type Value[T any] struct {
	present bool
	null    bool
	value   T
}

// Of cria um valor presente.
func Of[T any](v T) Value[T] {
	return Value[T]{present: true, value: v}
}

// Null cria um valor presente e explicitamente nulo.
func Null[T any]() Value[T] {
	return Value[T]{present: true, null: true}
}

// IsPresent indica se o campo foi enviado (com valor ou null).
func (v Value[T]) IsPresent() bool { return v.present }

// IsNull indica se o campo foi enviado como null.
func (v Value[T]) IsNull() bool { return v.present && v.null }

// HasValue indica se o campo foi enviado com um valor não nulo.
func (v Value[T]) HasValue() bool { return v.present && !v.null }

// Get retorna o valor e se ele existe.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.HasValue()
}

// OrElse retorna o valor ou o fallback quando ausente ou nulo.
func (v Value[T]) OrElse(fallback T) T {
	if v.HasValue() {
		return v.value
	}
	return fallback
}

func (v *Value[T]) UnmarshalJSON(data []byte) error {
	v.present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		v.null = true
		var zero T
		v.value = zero
		return nil
	}
	v.null = false
	return json.Unmarshal(data, &v.value)
}

// MarshalJSON serializa ausente e nulo como null.
func (v Value[T]) MarshalJSON() ([]byte, error) {
	if !v.HasValue() {
		return []byte("null"), nil
	}
	return json.Marshal(v.value)
}
