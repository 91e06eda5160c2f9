package middleware

import (
	"crypto/rsa"
	"net/http"
	"strings"

	"github.com/vinoprice/pricesync/internal/api/auth"
)

type AuthMiddleware struct {
	Env       string
	PublicKey *rsa.PublicKey
	Next      http.Handler
}

func (m AuthMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if m.Next == nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// In dev, requests without an Authorization header pass through so local
	// tooling is not blocked.
	if strings.EqualFold(strings.TrimSpace(m.Env), "dev") &&
		strings.TrimSpace(r.Header.Get("Authorization")) == "" {
		m.Next.ServeHTTP(w, r)
		return
	}

	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(authz, "Bearer ") {
		unauthorized(w, "missing bearer token")
		return
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	if tokenString == "" {
		unauthorized(w, "empty bearer token")
		return
	}

	if _, err := auth.ParseAndValidateRS256(tokenString, m.PublicKey); err != nil {
		unauthorized(w, "invalid token")
		return
	}

	m.Next.ServeHTTP(w, r)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
