package router

import (
	"net/http"
	"strings"
)

// corsPolicy admits browser calls from a fixed origin list. Credentials
// are allowed because the web client authenticates the notification
// stream with the access token cookie.
type corsPolicy struct {
	origins map[string]bool
}

func newCORSPolicy(allowOriginsCSV string) corsPolicy {
	policy := corsPolicy{origins: make(map[string]bool)}
	for _, raw := range strings.Split(allowOriginsCSV, ",") {
		if origin := strings.TrimSpace(raw); origin != "" {
			policy.origins[origin] = true
		}
	}
	return policy
}

func (p corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !p.origins[origin] {
			if preflight {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		header := w.Header()
		header.Set("Access-Control-Allow-Origin", origin)
		header.Add("Vary", "Origin")
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Expose-Headers", "Content-Disposition,Retry-After,X-Request-Id")

		if preflight {
			header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			header.Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Last-Event-ID")
			header.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
