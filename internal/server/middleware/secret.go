package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/balkashynov/nannyclock/internal/server/response"
)

// BearerSecret only lets through requests carrying "Authorization: Bearer <secret>".
// The comparison is constant time.
func BearerSecret(secret string) func(http.Handler) http.Handler {
	expected := []byte(secret)
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), expected) != 1 {
				response.Unauthorized(w, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(hfn)
	}
}
