package middleware

import (
	"net/http"

	"maillot-be/internal/logger"
	"maillot-be/internal/user"
	"maillot-be/internal/utils"

	"go.uber.org/zap"
)

// AuthMiddleware populates the user context from a bearer token. Requests
// without a token pass through anonymously; a bad token is rejected.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := ExtractAccessToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := user.ParseJWT(tokenStr)
		if err != nil {
			logger.FromCtx(r.Context()).Info("rejected token", zap.Error(err))
			utils.WriteJSONError(w, "Not authorized, token failed", http.StatusUnauthorized)
			return
		}

		ctx := utils.SetUserContext(r.Context(), claims.UserID, claims.Email, claims.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards a handler behind an authenticated ADMIN identity.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
			utils.WriteJSONError(w, "Not authorized, no token", http.StatusUnauthorized)
			return
		}
		if !utils.IsAdmin(r.Context()) {
			utils.WriteJSONError(w, "Not authorized as an admin", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
