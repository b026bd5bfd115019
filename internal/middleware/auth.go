package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/Lixing-Zhang/trattoria/backend/internal/config"
)

// APIKeyHeader carries the key for admin routes.
const APIKeyHeader = "api_key"

// APIKeyAuth guards catalog and settings mutations. A missing key is 401,
// an unknown key 403.
func APIKeyAuth(cfg config.AuthConfig) func(next http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				deny(w, http.StatusUnauthorized, "API key required")
				return
			}

			valid := false
			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(apiKey), k) == 1 {
					valid = true
					break
				}
			}
			if !valid {
				deny(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
