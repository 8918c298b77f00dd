package middleware

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// CORSConfig controls which browser origins may call the API.
// Clients authenticate with bearer tokens, so credentials are never allowed.
type CORSConfig struct {
	// AllowedOrigins entries are exact origins ("https://app.example.com"),
	// subdomain patterns ("*.example.com") or "*" for any origin.
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	ExposedHeaders []string
	// MaxAge caches preflight results, in seconds.
	MaxAge int
}

// DefaultCORSConfig returns the expense API's methods and headers with no origins allowed.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", RequestIDHeader, "Accept"},
		ExposedHeaders: []string{
			RequestIDHeader,
			"X-RateLimit-Limit",
			"X-RateLimit-Remaining",
			"X-RateLimit-Reset",
			"Retry-After",
		},
		MaxAge: 86400,
	}
}

// originPolicy is the parsed form of CORSConfig.AllowedOrigins.
type originPolicy struct {
	any      bool
	exact    map[string]bool
	suffixes []string
}

func newOriginPolicy(origins []string) originPolicy {
	p := originPolicy{exact: make(map[string]bool, len(origins))}
	for _, o := range origins {
		o = strings.ToLower(strings.TrimSpace(o))
		switch {
		case o == "*":
			p.any = true
		case strings.HasPrefix(o, "*."):
			p.suffixes = append(p.suffixes, o[1:])
		case o != "":
			p.exact[strings.TrimSuffix(o, "/")] = true
		}
	}
	return p
}

func (p originPolicy) enabled() bool {
	return p.any || len(p.exact) > 0 || len(p.suffixes) > 0
}

// allows matches origin exactly, or its host against a "*.domain" pattern.
// The bare domain itself is not matched by its pattern.
func (p originPolicy) allows(origin string) bool {
	if p.any {
		return true
	}
	origin = strings.ToLower(origin)
	if p.exact[origin] {
		return true
	}
	if len(p.suffixes) == 0 {
		return false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := u.Hostname()
	for _, suffix := range p.suffixes {
		if strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			return true
		}
	}
	return false
}

// CORS answers preflight requests and decorates responses for allowed origins.
// Preflights from other origins get 403; plain requests pass through without
// CORS headers and the browser withholds the response.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	policy := newOriginPolicy(cfg.AllowedOrigins)
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		if !policy.enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""
			h := w.Header()
			if !policy.any {
				h.Add("Vary", "Origin")
			}

			if !policy.allows(origin) {
				if preflight {
					writeMessage(w, http.StatusForbidden, "Origin not allowed")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if policy.any {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if !preflight {
				next.ServeHTTP(w, r)
				return
			}

			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			if cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
