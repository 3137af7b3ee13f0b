package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/storefront/internal/application"
	"github.com/DanielPopoola/storefront/internal/config"
	"github.com/DanielPopoola/storefront/internal/interfaces/rest"
	"github.com/golang-jwt/jwt/v4"
)

type staffKey struct{}

// StaffFromContext returns the subject of the authenticated staff token.
func StaffFromContext(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(staffKey{}).(string)
	return sub, ok && sub != ""
}

// StaffAuth admits requests carrying a valid HS256 bearer token issued by cfg.Issuer.
func StaffAuth(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	secret := []byte(cfg.StaffJWTSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || raw == "" {
				unauthorized(w)
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid || !claims.VerifyIssuer(cfg.Issuer, true) || claims.Subject == "" {
				logger.Debug("staff token rejected", "error", err)
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), staffKey{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	err := application.NewUnauthorizedError("Staff authentication required")
	rest.WriteJSON(w, err.HTTPStatus, rest.APIResponse{
		Error: &rest.ErrorDetail{Code: err.Code, Message: err.Message},
	})
}
