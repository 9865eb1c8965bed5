package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "gocatalog/internal/api/docs" // registra a especificação OpenAPI
	"gocatalog/internal/api/category"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/user"
	"gocatalog/internal/domain"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
)

// Dependencies são os Handlers e a infraestrutura já inicializados por injeção de dependências.
type Dependencies struct {
	Products   *product.Handler
	Users      *user.Handler
	Categories *category.Handler
	Tokens     middleware.TokenService

	// Cache nil desativa o rate limiter.
	Cache           cache.Client
	RateLimit       int
	RateLimitPeriod time.Duration

	// Metrics nil desativa a instrumentação; MetricsHandler expõe /metrics.
	Metrics        *middleware.Metrics
	MetricsHandler http.Handler

	Logger logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(d Dependencies) http.Handler {
	mux := http.NewServeMux()

	auth := middleware.NewAuthMiddleware(d.Tokens)
	elevated := middleware.PermissionMiddleware(domain.RoleModerator, domain.RoleAdmin)
	admin := middleware.PermissionMiddleware(domain.RoleAdmin)

	// --- 1. Infraestrutura ---
	mux.HandleFunc("GET /ping", PingHandler)
	if d.MetricsHandler != nil {
		mux.Handle("GET /metrics", d.MetricsHandler)
	}
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Usuários ---
	mux.HandleFunc("POST /v1/register", d.Users.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", d.Users.LoginUserHandler)
	mux.HandleFunc("GET /v1/users", auth(admin(d.Users.ListUsersHandler)))
	mux.HandleFunc("GET /v1/users/{id}", auth(d.Users.GetUserHandler))
	mux.HandleFunc("PUT /v1/users/{id}", auth(d.Users.ReplaceUserHandler))
	mux.HandleFunc("PATCH /v1/users/{id}", auth(d.Users.PatchUserHandler))
	mux.HandleFunc("DELETE /v1/users/{id}", auth(d.Users.DeleteUserHandler))
	mux.HandleFunc("PUT /v1/users/{id}/roles", auth(admin(d.Users.AssignRolesHandler)))
	mux.HandleFunc("GET /v1/users/{id}/products", d.Products.ListUserProductsHandler)

	// --- 3. Categorias ---
	mux.HandleFunc("GET /v1/categories", d.Categories.ListCategoriesHandler)
	mux.HandleFunc("GET /v1/categories/{id}", d.Categories.GetCategoryByIDHandler)
	mux.HandleFunc("POST /v1/categories", auth(elevated(d.Categories.CreateCategoryHandler)))
	mux.HandleFunc("GET /v1/categories/{id}/products", d.Products.ListCategoryProductsHandler)

	// --- 4. Produtos ---
	mux.HandleFunc("POST /v1/products", auth(d.Products.CreateProductHandler))
	mux.HandleFunc("GET /v1/products", d.Products.ListProductsHandler)
	mux.HandleFunc("GET /v1/products/slice", d.Products.ListProductsSliceHandler)
	mux.HandleFunc("GET /v1/products/all", auth(admin(d.Products.ListAllProductsHandler)))
	mux.HandleFunc("GET /v1/products/{id}", d.Products.GetProductByIDHandler)
	mux.HandleFunc("PUT /v1/products/{id}", auth(d.Products.ReplaceProductHandler))
	mux.HandleFunc("PATCH /v1/products/{id}", auth(d.Products.PatchProductHandler))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(d.Products.DeleteProductHandler))

	// --- 5. Middlewares globais (o mais externo por último) ---
	var handler http.Handler = mux
	if d.Cache != nil && d.RateLimit > 0 {
		handler = middleware.RateLimiter(d.Cache, d.RateLimit, d.RateLimitPeriod, d.Logger)(handler)
	}
	if d.Metrics != nil {
		handler = d.Metrics.Middleware(handler)
	}
	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
