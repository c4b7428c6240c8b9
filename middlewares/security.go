package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityHeaders hardens every response. Dashboards and the tracking page may
// be served from one of allowedOrigins and open WebSockets back to this API,
// so connect-src lists those origins and their ws/wss forms.
func SecurityHeaders(allowedOrigins []string) gin.HandlerFunc {
	csp := contentSecurityPolicy(allowedOrigins)
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", csp)
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		// Browsers ignore HSTS on plain HTTP.
		if isHTTPS(c.Request) {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

func contentSecurityPolicy(allowedOrigins []string) string {
	connect := []string{"'self'"}
	seen := map[string]bool{}
	add := func(src string) {
		if !seen[src] {
			seen[src] = true
			connect = append(connect, src)
		}
	}
	for _, origin := range allowedOrigins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		switch {
		case origin == "":
		case origin == "*":
			add("ws:")
			add("wss:")
		case strings.HasPrefix(origin, "https://"):
			add(origin)
			add("wss://" + strings.TrimPrefix(origin, "https://"))
		case strings.HasPrefix(origin, "http://"):
			add(origin)
			add("ws://" + strings.TrimPrefix(origin, "http://"))
		}
	}
	// Product photos are usually hosted elsewhere.
	return "default-src 'self'; img-src 'self' data: https:; connect-src " + strings.Join(connect, " ")
}

func isHTTPS(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
