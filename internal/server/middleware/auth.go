package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/iudanet/notifsync/internal/server/handlers"
)

// AuthMiddleware создает middleware для проверки JWT токена
func AuthMiddleware(logger *zap.Logger, jwtConfig handlers.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("Missing Authorization header", zap.String("path", r.URL.Path))
				handlers.WriteError(w, http.StatusUnauthorized, "missing token")
				return
			}

			// Ожидаем формат: "Bearer <token>"
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				// Сам заголовок не логируем, в нем может быть секрет
				logger.Warn("Invalid Authorization header format", zap.String("path", r.URL.Path))
				handlers.WriteError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			claims, err := handlers.ValidateAccessToken(jwtConfig, strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Warn("Invalid access token", zap.Error(err))
				handlers.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			logger.Debug("Client authenticated", zap.String("client_id", claims.ClientID))

			next.ServeHTTP(w, r.WithContext(handlers.WithClientID(r.Context(), claims.ClientID)))
		})
	}
}
