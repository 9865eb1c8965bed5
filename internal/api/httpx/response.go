// Package httpx concentra a escrita de respostas JSON compartilhada pelos handlers.
package httpx

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"gocatalog/internal/domain"
	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/logger"
)

// Responder padroniza respostas de sucesso e de erro.
type Responder struct {
	Logger logger.Logger
}

func NewResponder(log logger.Logger) *Responder {
	return &Responder{Logger: log}
}

// Respond processa erros de serviço e envia respostas padronizadas ao cliente.
// Com err nil, data é codificado com successStatus (204 não tem corpo).
func (rs *Responder) Respond(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err != nil {
		rs.Error(w, r, err)
		return
	}
	rs.JSON(w, r, successStatus, data)
}

// JSON escreve uma resposta de sucesso.
func (rs *Responder) JSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	rs.Logger.Info("Requisição concluída com sucesso", map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})

	if status == http.StatusNoContent || data == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rs.Logger.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz o erro para {code, category, message, field}.
func (rs *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= http.StatusInternalServerError {
		rs.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		rs.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		})
	}

	WriteError(w, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
		Field:    apperror.FieldOf(err),
	})
}

// WriteError escreve o corpo de erro sem logar. Usado pelos middlewares.
func WriteError(w http.ResponseWriter, body domain.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(body.Code)
	_ = json.NewEncoder(w).Encode(body)
}

// Decode lê o corpo JSON em dst. Falhas de sintaxe viram ValidationError.
func Decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}
	return nil
}

// --- Parâmetros de consulta ---

// QueryInt lê um inteiro opcional. Ausente devolve fallback.
func QueryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.NewFieldValidationError(name, fmt.Sprintf("O parâmetro '%s' deve ser um número inteiro.", name))
	}
	return v, nil
}

// QueryFloat lê um decimal finito opcional. Ausente ou em branco devolve nil.
func QueryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, apperror.NewFieldValidationError(name, fmt.Sprintf("O parâmetro '%s' deve ser numérico.", name))
	}
	return &v, nil
}

// QueryString lê um texto opcional. Ausente devolve nil.
func QueryString(r *http.Request, name string) *string {
	if !r.URL.Query().Has(name) {
		return nil
	}
	v := r.URL.Query().Get(name)
	return &v
}
