package httpadmin

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// BearerAuth requires requests to carry "Authorization: Bearer
// <token>" matching one of expectedTokens, using a constant-time
// comparison. An empty expectedTokens list disables the check
// entirely (useful for local development).
func BearerAuth(expectedTokens []string, next http.Handler) http.Handler {
	if len(expectedTokens) == 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || !matchesAny(token, expectedTokens) {
			WriteError(w, http.StatusUnauthorized, fulmenerrors.New(fulmenerrors.CodeHTTPAuthFailed, "missing or invalid bearer token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func matchesAny(token string, expected []string) bool {
	for _, e := range expected {
		if subtle.ConstantTimeCompare([]byte(token), []byte(e)) == 1 {
			return true
		}
	}
	return false
}
