package http

import (
	"github.com/geocoder89/learnhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "learnhub-api"

// baseChain is the ordered middleware every route runs through. Request id
// comes first so every later log line and error envelope can carry it, and
// otelgin runs before the logger finishes so the span is on the context.
func baseChain(d Deps) []gin.HandlerFunc {
	chain := []gin.HandlerFunc{
		middlewares.RequestID(),
		otelgin.Middleware(serviceName),
		middlewares.RequestLogger(),
		gin.Recovery(),
	}

	if d.Prom != nil {
		chain = append(chain, d.Prom.GinHandleMiddleware())
	}

	return append(chain,
		middlewares.SecurityHeaders(),
		middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins),
		middlewares.MaxBodyBytes(d.Cfg.MaxBodyBytes),
		middlewares.RequireJSON(),
	)
}
