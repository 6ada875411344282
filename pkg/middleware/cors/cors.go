package cors

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	allowHeaders  = "Authorization, Content-Type, If-Match, X-Request-ID"
	exposeHeaders = "ETag, X-Request-ID"
	allowMethods  = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	maxAge        = "600"
)

// Origins is the parsed allow list. An empty list or a "*" entry admits any origin.
type Origins struct {
	any   bool
	exact map[string]struct{}
}

// ParseOrigins normalizes configured origins. Trailing slashes and case are ignored.
func ParseOrigins(allowed []string) Origins {
	o := Origins{exact: make(map[string]struct{}, len(allowed))}
	for _, raw := range allowed {
		origin := normalize(raw)
		switch origin {
		case "":
			continue
		case "*":
			o.any = true
		default:
			o.exact[origin] = struct{}{}
		}
	}
	if len(o.exact) == 0 {
		o.any = true
	}
	return o
}

// Allows reports whether a browser origin may call the API. An empty origin is a
// same-origin or non-browser request and is always allowed.
func (o Origins) Allows(origin string) bool {
	if origin == "" || o.any {
		return true
	}
	_, ok := o.exact[normalize(origin)]
	return ok
}

// New returns the CORS middleware for the given allow list.
func New(allowedOrigins []string) gin.HandlerFunc {
	origins := ParseOrigins(allowedOrigins)

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.GetHeader("Origin")
		if origin != "" && origins.Allows(origin) {
			h.Set("Access-Control-Allow-Origin", origin)
			// Credentials are only meaningful with an echoed origin, never with "*".
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Expose-Headers", exposeHeaders)
		}

		if c.Request.Method != http.MethodOptions {
			c.Next()
			return
		}

		if origin != "" && !origins.Allows(origin) {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		h.Set("Access-Control-Allow-Headers", allowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		h.Set("Access-Control-Max-Age", maxAge)
		c.AbortWithStatus(http.StatusNoContent)
	}
}

func normalize(origin string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(origin), "/"))
}
