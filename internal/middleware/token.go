package middleware

import (
	"net/http"
	"strings"
)

const accessTokenCookie = "access_token"

// ExtractAccessToken reads the bearer token from the Authorization header,
// falling back to the access_token cookie.
func ExtractAccessToken(r *http.Request) string {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}

	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
