package query

import (
	"context"
	"fmt"
	"math"
	"strings"

	apperror "gocatalog/internal/errors"
)

const (
	MinPageSize     = 1
	MaxPageSize     = 100
	DefaultPageSize = 10
)

// PageRequest é a janela solicitada: página (base zero) e tamanho.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest cria e valida uma PageRequest. Valores fora da faixa são erro, nunca ajustados.
func NewPageRequest(page, size int) (PageRequest, error) {
	pr := PageRequest{Page: page, Size: size}
	if err := pr.Validate(); err != nil {
		return PageRequest{}, err
	}
	return pr, nil
}

func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return apperror.NewFieldValidationError("page", "O número da página não pode ser negativo.")
	}
	if p.Size < MinPageSize || p.Size > MaxPageSize {
		return apperror.NewFieldValidationError("size",
			fmt.Sprintf("O tamanho da página deve estar entre %d e %d.", MinPageSize, MaxPageSize))
	}
	// Offset() + Size precisa caber em int.
	if p.Page > (math.MaxInt-p.Size)/p.Size {
		return apperror.NewFieldValidationError("page", "O número da página é grande demais.")
	}
	return nil
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Request agrupa tudo o que uma estratégia precisa para executar uma listagem.
type Request struct {
	Filter FilterSpec
	Sort   SortSpec
	Page   PageRequest
}

// Source é o lado de armazenamento de uma listagem paginada.
type Source[T any] interface {
	// FindPage retorna a janela e o total de itens que satisfazem o filtro.
	FindPage(ctx context.Context, filter FilterSpec, sort SortSpec, offset, limit int) ([]T, int64, error)
	// FindSlice retorna no máximo limit itens, sem contar o total.
	FindSlice(ctx context.Context, filter FilterSpec, sort SortSpec, offset, limit int) ([]T, error)
}

// Result é um dos dois formatos de resposta: *Page[T] ou *Slice[T].
type Result[T any] interface {
	Elements() []T
	isResult()
}

// Page é o resultado contado, com totais exatos.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	First      bool  `json:"first"`
	Last       bool  `json:"last"`
}

func (p *Page[T]) Elements() []T { return p.Items }
func (*Page[T]) isResult()       {}

// Slice é o resultado sem contagem: só sabe se existe próxima página.
type Slice[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	HasNext bool `json:"has_next"`
	First   bool `json:"first"`
}

func (s *Slice[T]) Elements() []T { return s.Items }
func (*Slice[T]) isResult()       {}

// NewPage calcula os metadados de uma página contada.
func NewPage[T any](items []T, req PageRequest, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return &Page[T]{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: totalPages,
		First:      req.Page == 0,
		Last:       req.Page >= totalPages-1,
	}
}

// MapResult converte os itens mantendo a variante (Page ou Slice) e seus metadados.
func MapResult[T, U any](r Result[T], f func(T) U) Result[U] {
	mapItems := func(in []T) []U {
		out := make([]U, 0, len(in))
		for _, item := range in {
			out = append(out, f(item))
		}
		return out
	}

	switch v := r.(type) {
	case *Page[T]:
		return &Page[U]{
			Items:      mapItems(v.Items),
			Page:       v.Page,
			Size:       v.Size,
			TotalItems: v.TotalItems,
			TotalPages: v.TotalPages,
			First:      v.First,
			Last:       v.Last,
		}
	case *Slice[T]:
		return &Slice[U]{
			Items:   mapItems(v.Items),
			Page:    v.Page,
			Size:    v.Size,
			HasNext: v.HasNext,
			First:   v.First,
		}
	default:
		panic(fmt.Sprintf("query: variante de resultado desconhecida %T", r))
	}
}

// --- Estratégias ---

// Mode seleciona a estratégia de paginação.
type Mode string

const (
	ModeCounted   Mode = "counted"
	ModeUncounted Mode = "uncounted"
)

// ParseMode aceita "counted", "uncounted" ou vazio (counted).
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeCounted, nil
	case ModeCounted, ModeUncounted:
		return m, nil
	default:
		return "", apperror.NewFieldValidationError("mode",
			fmt.Sprintf("modo de paginação desconhecido: '%s'", s))
	}
}

// Strategy executa uma listagem paginada sobre uma Source.
type Strategy[T any] interface {
	Execute(ctx context.Context, src Source[T], req Request) (Result[T], error)
}

// Counted faz a consulta da janela e uma contagem. Custo proporcional ao predicado inteiro.
type Counted[T any] struct{}

func (Counted[T]) Execute(ctx context.Context, src Source[T], req Request) (Result[T], error) {
	if err := req.Page.Validate(); err != nil {
		return nil, err
	}
	items, total, err := src.FindPage(ctx, req.Filter, req.Sort, req.Page.Offset(), req.Page.Size)
	if err != nil {
		return nil, err
	}
	return NewPage(items, req.Page, total), nil
}

// Uncounted lê size+1 itens para descobrir se há próxima página, sem contar o total.
type Uncounted[T any] struct{}

func (Uncounted[T]) Execute(ctx context.Context, src Source[T], req Request) (Result[T], error) {
	if err := req.Page.Validate(); err != nil {
		return nil, err
	}
	items, err := src.FindSlice(ctx, req.Filter, req.Sort, req.Page.Offset(), req.Page.Size+1)
	if err != nil {
		return nil, err
	}

	hasNext := len(items) > req.Page.Size
	if hasNext {
		items = items[:req.Page.Size]
	}
	if items == nil {
		items = []T{}
	}
	return &Slice[T]{
		Items:   items,
		Page:    req.Page.Page,
		Size:    req.Page.Size,
		HasNext: hasNext,
		First:   req.Page.Page == 0,
	}, nil
}

// StrategyFor devolve a estratégia do modo informado.
func StrategyFor[T any](mode Mode) (Strategy[T], error) {
	switch mode {
	case ModeCounted, "":
		return Counted[T]{}, nil
	case ModeUncounted:
		return Uncounted[T]{}, nil
	default:
		return nil, apperror.NewFieldValidationError("mode",
			fmt.Sprintf("modo de paginação desconhecido: '%s'", mode))
	}
}
