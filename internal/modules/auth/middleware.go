package auth

import (
	"encoding/json"
	"net/http"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-Session-Token"

// Middleware rejects requests without a live session token. When no
// password is configured the middleware is a pass-through.
func Middleware(state *State) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !state.Enabled() || state.Valid(r.Header.Get(TokenHeader)) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid or missing session token"})
		})
	}
}
