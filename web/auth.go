// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"go.astrophena.name/adhoc/logger"
)

// BasicAuth returns a [Middleware] that requires HTTP basic authentication
// for every request. Requests that fail validation get a 401 response with a
// WWW-Authenticate challenge for realm. Authenticated requests are marked as
// trusted (see [TrustRequest]).
func BasicAuth(realm string, validate func(user, pass string) bool) Middleware {
	challenge := "Basic realm=" + strconv.Quote(realm)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !validate(user, pass) {
				if ok {
					logger.Warn(r.Context(), "basic auth failed",
						slog.String("user", user),
						slog.String("remote_addr", r.RemoteAddr),
					)
				}
				w.Header().Set("WWW-Authenticate", challenge)
				RespondError(w, r, fmt.Errorf("%w: valid credentials are required", ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, TrustRequest(r))
		})
	}
}

// PasswordOnly returns a validation function for [BasicAuth] that accepts any
// user name with password. An empty password never validates.
func PasswordOnly(password string) func(user, pass string) bool {
	want := sha256.Sum256([]byte(password))
	return func(_, pass string) bool {
		if password == "" {
			return false
		}
		got := sha256.Sum256([]byte(pass))
		return subtle.ConstantTimeCompare(got[:], want[:]) == 1
	}
}
