package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config armazena todas as configurações do aplicativo GoCatalog.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Paginação
	DefaultPageSize int
}

// defaults são aplicados quando a variável de ambiente não está definida.
var defaults = map[string]interface{}{
	"PORT":                    "8080",
	"ENV":                     "development",
	"LOG_LEVEL":               "info",
	"DB_TIMEOUT":              "5s",
	"REDIS_ADDR":              "localhost:6379",
	"REDIS_PASSWORD":          "",
	"CACHE_TTL":               "5m",
	"JWT_EXPIRY":              "60m",
	"RATE_LIMIT_MAX_REQUESTS": 100,
	"RATE_LIMIT_PERIOD":       "1m",
	"DEFAULT_PAGE_SIZE":       10,
}

// required são as chaves sem as quais a aplicação não inicia.
var required = []string{"DATABASE_URL", "JWT_SECRET_KEY"}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// O .env (se existir) deve ser carregado antes, no main.go, via godotenv.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper monta a Config a partir de uma instância viper já populada.
func FromViper(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// AutomaticEnv só resolve chaves conhecidas; as obrigatórias precisam ser registradas.
	for _, key := range required {
		_ = v.BindEnv(key)
	}

	for _, key := range required {
		if v.GetString(key) == "" {
			return nil, fmt.Errorf("erro de configuração: a variável de ambiente %s deve ser definida", key)
		}
	}

	cfg := &Config{
		Port:        v.GetString("PORT"),
		Environment: v.GetString("ENV"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		DatabaseURL: v.GetString("DATABASE_URL"),
		DBTimeout:   v.GetDuration("DB_TIMEOUT"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		CacheTTL:      v.GetDuration("CACHE_TTL"),

		JWTSecretKey: v.GetString("JWT_SECRET_KEY"),
		TokenExpiry:  v.GetDuration("JWT_EXPIRY"),

		RateLimitMaxRequests: v.GetInt("RATE_LIMIT_MAX_REQUESTS"),
		RateLimitPeriod:      v.GetDuration("RATE_LIMIT_PERIOD"),

		DefaultPageSize: v.GetInt("DEFAULT_PAGE_SIZE"),
	}

	if cfg.DBTimeout <= 0 {
		return nil, fmt.Errorf("erro de configuração: DB_TIMEOUT inválido (%q)", v.GetString("DB_TIMEOUT"))
	}
	if cfg.DefaultPageSize < 1 || cfg.DefaultPageSize > 100 {
		return nil, fmt.Errorf("erro de configuração: DEFAULT_PAGE_SIZE deve estar entre 1 e 100, recebido %d", cfg.DefaultPageSize)
	}

	return cfg, nil
}
