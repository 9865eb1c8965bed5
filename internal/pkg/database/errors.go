package database

import (
	"errors"

	"github.com/lib/pq"
)

// Códigos SQLSTATE do PostgreSQL tratados pelos repositórios.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// IsUniqueViolation indica violação de UNIQUE (e.g., nome ou email duplicado).
func IsUniqueViolation(err error) bool {
	return pqCode(err) == uniqueViolation
}

// IsForeignKeyViolation indica referência a uma linha inexistente.
func IsForeignKeyViolation(err error) bool {
	return pqCode(err) == foreignKeyViolation
}

func pqCode(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
