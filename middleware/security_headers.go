package middleware

import (
	"github.com/devfolio/portfolio-backend/config"
	"github.com/gin-gonic/gin"
)

// SecurityHeadersMiddleware sets the headers a JSON-only API should always
// send. HSTS is production-only so local HTTP keeps working.
func SecurityHeadersMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		if cfg.IsProduction() {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
