// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/proofmeet/court-card-service/internal/infrastructure/auth"
	"github.com/proofmeet/court-card-service/internal/logging"
	"github.com/proofmeet/court-card-service/pkg/constants"
)

// AuthMiddleware validates the bearer token on API routes and stores the
// authenticated principal and raw authorization header in the request context.
func AuthMiddleware(jwtAuth *auth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authorization := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authorization, "Bearer ")
			if token == "" || token == authorization {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			principal, err := jwtAuth.ParsePrincipal(ctx, token, slog.Default())
			if err != nil {
				slog.DebugContext(ctx, "rejecting request with invalid token", logging.ErrKey, err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, constants.AuthorizationContextID, authorization)
			ctx = context.WithValue(ctx, constants.PrincipalContextID, principal)
			ctx = logging.AppendCtx(ctx, slog.String("principal", principal))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal returns the authenticated principal stored by AuthMiddleware.
func GetPrincipal(ctx context.Context) (string, bool) {
	principal, ok := ctx.Value(constants.PrincipalContextID).(string)
	return principal, ok
}
