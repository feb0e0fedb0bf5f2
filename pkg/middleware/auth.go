package middleware

import (
	"net/http"

	"github.com/shashiranjanraj/storefront/pkg/apperr"
	"github.com/shashiranjanraj/storefront/pkg/auth"
	"github.com/shashiranjanraj/storefront/pkg/ctx"
	"github.com/shashiranjanraj/storefront/pkg/response"
)

// RequireAuth rejects requests without a valid identity token. The token is
// read from the token cookie or an "Authorization: Bearer" header. Verified
// claims are stored in the request context for auth.ClaimsFromContext.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if c, err := r.Cookie(ctx.TokenCookie); err == nil {
				token = c.Value
			}
			if token == "" {
				token, _ = auth.BearerToken(r.Header.Get("Authorization"))
			}
			if token == "" {
				response.Fail(w, apperr.KindUnauthorized, "Authentication required")
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				response.Fail(w, apperr.KindUnauthorized, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
		})
	}
}
