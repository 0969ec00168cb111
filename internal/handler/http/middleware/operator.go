package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
)

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

// OperatorAuthenticator rejects requests whose token is missing,
// invalid, or not an operator token.
func OperatorAuthenticator(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				unauthorized(w, "invalid or missing token")
				return
			}
			if kind, _ := claims["type"].(string); kind != "operator" {
				unauthorized(w, "operator token required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OperatorID extracts the operator id claim from an authenticated request.
func OperatorID(r *http.Request) string {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return ""
	}
	id, _ := claims["operator_id"].(string)
	return id
}
