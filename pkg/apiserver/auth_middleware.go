package apiserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/grlabs/grepp/pkg/backend"
	"golang.org/x/crypto/bcrypt"
)

// tokenAuthMiddleware verifies the bearer token against the configured
// bcrypt hash. One shared operator token guards every registry-touching
// route.
func tokenAuthMiddleware(b backend.Backend) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get("Authorization")
			token := strings.TrimPrefix(authorization, "Bearer ")

			hash := b.TokenHash()
			if hash == "" || token == "" {
				writeError(w, http.StatusForbidden, errors.New("forbidden to use"))
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
				writeError(w, http.StatusForbidden, errors.New("forbidden to use"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
