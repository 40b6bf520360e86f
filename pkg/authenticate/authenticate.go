// Package authenticate guards a hub stub with token auth. Requests may
// carry the token as a Bearer header or as the password of basic auth,
// which is how git sends credentials.
package authenticate

import (
	"net/http"
	"strings"

	"github.com/gorilla/context"
)

// UserKey is the request-context key holding the authenticated user.
const UserKey = "USER"

func Authenticate(u, token string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if bearer := r.Header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
			if strings.TrimPrefix(bearer, "Bearer ") == token {
				context.Set(r, UserKey, u)
				h.ServeHTTP(w, r)
				return
			}
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="hub"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Basic auth carries the token as the password; the username
		// is a placeholder and is not checked.
		if password != token {
			w.Header().Set("WWW-Authenticate", `Basic realm="hub"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		context.Set(r, UserKey, username)
		h.ServeHTTP(w, r)
	})
}
