/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/yomguy/servestream-sub001/pkg/auth"
)

type contextKey string

const (
	tokenKey contextKey = "token"
	roleKey  contextKey = "role"
	userKey  contextKey = "user"
)

func unauthorized(w http.ResponseWriter, scheme string) {
	w.Header().Set("WWW-Authenticate", scheme+` realm="Restricted"`)
	http.Error(w, "Forbidden", http.StatusUnauthorized)
}

func withIdentity(r *http.Request, token, user, role string) *http.Request {
	ctx := context.WithValue(r.Context(), tokenKey, token)
	ctx = context.WithValue(ctx, userKey, user)
	ctx = context.WithValue(ctx, roleKey, role)
	return r.WithContext(ctx)
}

func roleOf(r *http.Request) string {
	role, _ := r.Context().Value(roleKey).(string)
	return role
}

func (s *Server) bearerAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Bearer")
			return
		}

		authParts := strings.SplitN(authHeader, " ", 2)
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			unauthorized(w, "Bearer")
			return
		}

		token := authParts[1]
		role, err := s.authority.GetRoleFromToken(token)
		if err != nil {
			unauthorized(w, "Bearer")
			return
		}
		user, err := s.authority.GetUserFromToken(token)
		if err != nil {
			unauthorized(w, "Bearer")
			return
		}

		next(w, withIdentity(r, token, user, role))
	}
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Basic")
			return
		}

		authParts := strings.SplitN(authHeader, " ", 2)
		if len(authParts) != 2 || authParts[0] != "Basic" {
			unauthorized(w, "Basic")
			return
		}

		decoded, err := base64.StdEncoding.DecodeString(authParts[1])
		if err != nil {
			unauthorized(w, "Basic")
			return
		}

		credentials := strings.SplitN(string(decoded), ":", 2)
		if len(credentials) != 2 {
			unauthorized(w, "Basic")
			return
		}

		token, err := s.authority.CreateToken(credentials[0], credentials[1])
		if err != nil {
			unauthorized(w, "Basic")
			return
		}
		role, _ := s.authority.GetRoleFromToken(token)

		next(w, withIdentity(r, token, credentials[0], role))
	}
}

func (s *Server) adminAccess(next http.HandlerFunc) http.HandlerFunc {
	return s.bearerAuth(func(w http.ResponseWriter, r *http.Request) {
		if roleOf(r) != auth.RoleAdmin {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next(w, r)
	})
}

// requireAdmin is used by handlers that mix read and write methods.
func requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if roleOf(r) != auth.RoleAdmin {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return false
	}
	return true
}
