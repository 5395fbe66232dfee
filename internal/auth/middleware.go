package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"transparencia/internal/domain"
)

type callerKey struct{}

// WithCaller кладет вызывающего в контекст запроса
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext возвращает вызывающего; false для анонимного запроса
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Caller)
	return caller, ok
}

// Middleware пропускает анонимные запросы (чтение портала), а неверный токен отклоняет с 401
func Middleware(v *Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := v.VerifyRequest(r)
			if errors.Is(err, ErrNoToken) {
				next.ServeHTTP(w, r)
				return
			}
			if err != nil {
				logger.Info("rejected token", zap.String("path", r.URL.Path), zap.Error(err))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"kind":    "Unauthenticated",
					"message": "invalid or expired token",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
