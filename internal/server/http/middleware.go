package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"viewsync/internal/auth"
	"viewsync/internal/logging"
)

const claimsContextKey = "authClaims"

// RequestLogger logs each request with method, path, status and client IP.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("%s %s -> %d from %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP())
	}
}

// AuthRequired enforces a bearer access token on admin routes. When service
// is nil (auth disabled) the middleware passes everything through, matching
// the kiosk-LAN deployment profile.
func AuthRequired(service *auth.Service) gin.HandlerFunc {
	if service == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			respondError(c, http.StatusUnauthorized, "authorization required")
			c.Abort()
			return
		}
		claims, err := service.VerifyAccess(token)
		if err != nil {
			respondError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

func extractBearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// currentClaims returns the verified claims set by AuthRequired, if any.
func currentClaims(c *gin.Context) (*auth.Claims, bool) {
	value, ok := c.Get(claimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := value.(*auth.Claims)
	return claims, ok
}
