package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Nossos pacotes de infraestrutura e utilitários
	"gocatalog/config"
	"gocatalog/internal/authz"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/database"
	"gocatalog/internal/pkg/logger"
	"gocatalog/internal/pkg/middleware"
	"gocatalog/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"gocatalog/internal/api/category"
	"gocatalog/internal/api/product"
	"gocatalog/internal/api/router"
	"gocatalog/internal/api/user"
	"gocatalog/internal/repository/categoryrepo"
	"gocatalog/internal/repository/productrepo"
	"gocatalog/internal/repository/userrepo"
	"gocatalog/internal/service/categoryservice"
	"gocatalog/internal/service/productservice"
	"gocatalog/internal/service/userservice"
)

// @title GoCatalog API
// @version 1.0
// @description Catálogo de produtos com donos, categorias, ordenação, filtros e paginação.
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Sem .env seguimos apenas com o ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}

	appLog, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Falha ao inicializar o logger: %v", err)
	}
	if zl, ok := appLog.(*logger.ZapLogger); ok {
		defer zl.Sync()
	}
	appLog.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "port": cfg.Port})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL) + migrações embutidas
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	if err := database.Migrate(ctx, db); err != nil {
		appLog.Fatal("Falha ao aplicar migrações.", err)
	}

	// B. Cache (Redis). Sem Redis o serviço funciona sem cache e sem rate limiting.
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			appLog.Warn("Redis indisponível; cache e rate limiting desativados.", map[string]interface{}{"addr": cfg.RedisAddr, "error": err.Error()})
		} else {
			cacheClient = redisClient
			defer redisClient.Close()
			appLog.Info("Conexão Redis estabelecida.", nil)
		}
	}

	// C. Serviço de Tokens (JWT)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	// D. Métricas (Prometheus)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(registry)

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.CacheTTL, cfg.DBTimeout, appLog)
	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	categoryRepo := categoryrepo.NewCategoryRepository(db, cfg.DBTimeout, appLog)

	policy := authz.NewOwnershipPolicy()
	productSvc := productservice.NewService(productRepo, userRepo, categoryRepo, policy, appLog)
	userSvc := userservice.NewService(userRepo, tokenSvc, policy, appLog)
	categorySvc := categoryservice.NewService(categoryRepo, appLog)

	handler := router.NewRouter(router.Dependencies{
		Products:        product.NewHandler(productSvc, appLog, cfg.DefaultPageSize),
		Users:           user.NewHandler(userSvc, appLog),
		Categories:      category.NewHandler(categorySvc, appLog),
		Tokens:          tokenSvc,
		Cache:           cacheClient,
		RateLimit:       cfg.RateLimitMaxRequests,
		RateLimitPeriod: cfg.RateLimitPeriod,
		Metrics:         metrics,
		MetricsHandler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Logger:          appLog,
	})
	appLog.Debug("Dependências inicializadas.", nil)

	// 4. Servidor
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor GoCatalog ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
