package auth

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const tokenKey contextKey = "sessionToken"

// ExtractToken copies the presented session token into the request
// context. It accepts "Authorization: Bearer <token>" and falls back to the
// "token" query parameter.
//
// It never rejects a request. A missing or bad token is reported by the
// SessionResolver when a handler needs the caller, which lets public
// routes such as register and login share the same router group.
func ExtractToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tok := tokenFromRequest(r); tok != "" {
			r = r.WithContext(context.WithValue(r.Context(), tokenKey, tok))
		}
		next.ServeHTTP(w, r)
	})
}

// TokenFromContext returns the token stored by ExtractToken, or "".
func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	return r.URL.Query().Get("token")
}
