package api

import (
	"context"
	"net/http"
	"strings"

	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/auth/jwt"
	"campus-rickshaw/internal/shared/apperrors"
	"campus-rickshaw/internal/shared/util"
)

type contextKey string

const principalKey contextKey = "principal"

// PrincipalFrom returns the verified identity the middleware attached, or
// nil on unauthenticated requests.
func PrincipalFrom(ctx context.Context) *domain.Principal {
	p, _ := ctx.Value(principalKey).(*domain.Principal)
	return p
}

// AuthMiddleware verifies the bearer token and attaches the principal to the
// request context. Verification is pure; no session state is consulted.
func AuthMiddleware(tokens *jwt.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				util.ErrResponseInJSON(w, apperrors.ErrTokenMalformed)
				return
			}
			parts := strings.Split(header, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				util.ErrResponseInJSON(w, apperrors.ErrTokenMalformed)
				return
			}

			principal, err := tokens.Verify(parts[1])
			if err != nil {
				util.ErrResponseInJSON(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not in the allow
// list. It composes after AuthMiddleware.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFrom(r.Context())
			if principal == nil {
				util.ErrResponseInJSON(w, apperrors.ErrTokenMalformed)
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			util.ErrResponseInJSON(w, apperrors.ErrForbidden)
		})
	}
}
