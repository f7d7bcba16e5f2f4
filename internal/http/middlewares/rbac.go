package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/apperr"
	"github.com/geocoder89/learnhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// RequireRoles gates a route on the caller's role using access.Authorize.
// It must run after RequireAuth.
func RequireRoles(prom *observability.Prom, roles ...access.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := access.Authorize(IdentityFrom(c), roles...)
		if err == nil {
			c.Next()
			return
		}

		route := c.FullPath()

		if errors.Is(err, apperr.ErrUnauthenticated) {
			prom.ObserveDenied(route, "unauthenticated")
			abortWithError(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}

		prom.ObserveDenied(route, "forbidden")
		abortWithError(c, http.StatusForbidden, "forbidden", err.Error())
	}
}
