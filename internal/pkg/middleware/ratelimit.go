package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "gocatalog/internal/errors"
	"gocatalog/internal/pkg/cache"
	"gocatalog/internal/pkg/logger"
)

const rateLimitKeyPrefix = "rate-limit:"

// RateLimiter limita requisições por IP em janelas fixas de duration, com contador no Redis.
// Falhas do Redis não bloqueiam a requisição.
func RateLimiter(client cache.Client, limit int, duration time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := rateLimitKeyPrefix + ip
			ctx := r.Context()

			count, ttl, err := client.Incr(ctx, key)
			if err != nil {
				log.Warn("Falha ao consultar o limitador no Redis; requisição liberada.", map[string]interface{}{"ip": ip, "error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}
			// Chave sem expiração (janela nova ou Expire anterior falhou) recebe a janela.
			if ttl < 0 {
				if err := client.Expire(ctx, key, duration); err != nil {
					log.Warn("Falha ao definir expiração do limitador.", map[string]interface{}{"ip": ip, "error": err.Error()})
				}
			}

			remaining := int64(limit) - count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if count > int64(limit) {
				w.Header().Set("Retry-After", strconv.Itoa(int(duration.Seconds())))
				writeError(w, apperror.NewTooManyRequestsError("Limite de requisições excedido. Tente novamente mais tarde."))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
