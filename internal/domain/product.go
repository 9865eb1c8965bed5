package domain

import (
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"gocatalog/internal/pkg/optional"
)

const (
	MaxProductNameLength        = 150
	MaxProductDescriptionLength = 500
	// MaxProductPrice é o maior valor que cabe em NUMERIC(12, 2).
	MaxProductPrice = 9999999999.99
)

// Product representa o item principal do catálogo (a Entidade).
// Version é o token de concorrência otimista: 0 indica produto ainda não persistido.
type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Price       float64           `json:"price"`
	Description string            `json:"description"`
	Owner       UserSummary       `json:"owner"`
	Categories  []CategorySummary `json:"categories"`
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// CategoryIDs retorna os ids das categorias do produto, na ordem atual.
func (p Product) CategoryIDs() []string {
	ids := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		ids = append(ids, c.ID)
	}
	return ids
}

// ProductPatch é um conjunto de alterações esparso já resolvido (dono e categorias
// como entidades existentes). Campos ausentes não alteram o produto.
type ProductPatch struct {
	Name        optional.Value[string]
	Price       optional.Value[float64]
	Description optional.Value[string]
	Categories  optional.Value[[]CategorySummary]
	Owner       optional.Value[UserSummary]
}

// IsEmpty indica que nenhum campo foi enviado.
func (p ProductPatch) IsEmpty() bool {
	return !p.Name.IsPresent() && !p.Price.IsPresent() && !p.Description.IsPresent() &&
		!p.Categories.IsPresent() && !p.Owner.IsPresent()
}

// ApplyPatch devolve uma cópia do produto com os campos presentes sobrescritos.
// Null limpa a descrição e as categorias. Name, price e owner nulos são ignorados aqui;
// o serviço os rejeita antes do merge.
func (p Product) ApplyPatch(patch ProductPatch) Product {
	out := p
	out.Categories = slices.Clone(p.Categories)

	if v, ok := patch.Name.Get(); ok {
		out.Name = v
	}
	if v, ok := patch.Price.Get(); ok {
		out.Price = v
	}
	if patch.Description.IsPresent() {
		out.Description = patch.Description.OrElse("")
	}
	if patch.Categories.IsPresent() {
		out.Categories = dedupeCategories(patch.Categories.OrElse(nil))
	}
	if v, ok := patch.Owner.Get(); ok {
		out.Owner = v
	}
	return out
}

// ProductReplacement carrega todos os campos mutáveis de uma substituição completa (PUT).
// Owner nil mantém o dono atual.
type ProductReplacement struct {
	Name        string
	Price       float64
	Description string
	Categories  []CategorySummary
	Owner       *UserSummary
}

// Replace sobrescreve incondicionalmente os campos mutáveis.
func (p Product) Replace(r ProductReplacement) Product {
	out := p
	out.Name = r.Name
	out.Price = r.Price
	out.Description = r.Description
	out.Categories = dedupeCategories(r.Categories)
	if r.Owner != nil {
		out.Owner = *r.Owner
	}
	return out
}

func dedupeCategories(in []CategorySummary) []CategorySummary {
	out := make([]CategorySummary, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, c := range in {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		seen[c.ID] = struct{}{}
		out = append(out, c)
	}
	return out
}

// --- Validação de campos ---

// ValidateProductName retorna uma mensagem de erro ou "" se o nome é válido.
func ValidateProductName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "O nome do produto não pode ser vazio."
	}
	if utf8.RuneCountInString(trimmed) > MaxProductNameLength {
		return "O nome do produto deve ter no máximo 150 caracteres."
	}
	return ""
}

func ValidateProductPrice(price float64) string {
	if !(price > 0) {
		return "O preço deve ser maior que zero."
	}
	if price > MaxProductPrice {
		return "O preço deve ser no máximo 9999999999.99."
	}
	// Menor representação decimal que reproduz o float; NUMERIC(12, 2) guarda só centavos.
	formatted := strconv.FormatFloat(price, 'f', -1, 64)
	if _, frac, ok := strings.Cut(formatted, "."); ok && len(frac) > 2 {
		return "O preço deve ter no máximo 2 casas decimais."
	}
	return ""
}

func ValidateProductDescription(description string) string {
	if utf8.RuneCountInString(description) > MaxProductDescriptionLength {
		return "A descrição deve ter no máximo 500 caracteres."
	}
	return ""
}

// --- Representação de resposta ---

// ProductResponse é a forma devolvida pela API.
type ProductResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Price       float64           `json:"price"`
	Description string            `json:"description,omitempty"`
	Owner       UserSummary       `json:"owner"`
	Categories  []CategorySummary `json:"categories"`
	Version     int               `json:"version"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToResponse converte a entidade para a representação de API.
func (p Product) ToResponse() ProductResponse {
	cats := p.Categories
	if cats == nil {
		cats = []CategorySummary{}
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		Owner:       p.Owner,
		Categories:  cats,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// --- Payloads de entrada ---

// ProductRequest é o payload de criação (POST) e de substituição completa (PUT).
// OwnerID vazio significa "o próprio chamador" na criação e "manter o dono" no PUT.
// Version, quando enviado no PUT, precisa coincidir com a versão atual.
type ProductRequest struct {
	Name        string   `json:"name" example:"Teclado Mecânico"`
	Price       float64  `json:"price" example:"249.90"`
	Description string   `json:"description" example:"Switches marrons, layout ABNT2"`
	CategoryIDs []string `json:"category_ids"`
	OwnerID     string   `json:"owner_id,omitempty"`
	Version     *int     `json:"version,omitempty"`
}

// ProductPatchRequest é o payload do PATCH. Chave ausente não altera o campo; null limpa
// description e category_ids e é rejeitado para name, price e owner_id.
type ProductPatchRequest struct {
	Name        optional.Value[string]   `json:"name" swaggertype:"string"`
	Price       optional.Value[float64]  `json:"price" swaggertype:"number"`
	Description optional.Value[string]   `json:"description" swaggertype:"string"`
	CategoryIDs optional.Value[[]string] `json:"category_ids" swaggertype:"array,string"`
	OwnerID     optional.Value[string]   `json:"owner_id" swaggertype:"string"`
	Version     *int                     `json:"version,omitempty"`
}
