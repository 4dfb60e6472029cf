package middleware

import (
	"net/http"

	"github.com/querydesk/querydesk/internal/models"
)

// APIKeyCookie carries the key for browser sessions of the dashboard.
const APIKeyCookie = "api_key"

var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
	"/ui":      true,
}

func Auth(apiKeys []string, headerName string) func(http.Handler) http.Handler {
	keySet := make(map[string]bool, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keySet[k] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] && r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			key := APIKey(r, headerName)
			if key == "" {
				models.WriteError(w, http.StatusUnauthorized, "API key required")
				return
			}
			if !keySet[key] {
				models.WriteError(w, http.StatusForbidden, "invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIKey reads the caller's key from the header, the dashboard cookie or,
// for dashboard form posts, the api_key form field.
func APIKey(r *http.Request, headerName string) string {
	if key := r.Header.Get(headerName); key != "" {
		return key
	}
	if c, err := r.Cookie(APIKeyCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if r.Method == http.MethodPost && r.Header.Get("Content-Type") == "application/x-www-form-urlencoded" {
		return r.PostFormValue("api_key")
	}
	return ""
}
