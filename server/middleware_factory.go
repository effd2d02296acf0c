package server

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/backendkit/core"
	"github.com/kbukum/backendkit/logger"
	"github.com/kbukum/backendkit/observability"
	"github.com/kbukum/backendkit/server/middleware"
)

// MiddlewareFactory builds the standard gin middleware from configuration.
type MiddlewareFactory struct {
	config  Config
	log     *logger.Logger
	metrics *observability.Metrics
}

// NewMiddlewareFactory reads server configuration from cfg. Request metrics
// go to the global meter provider.
func NewMiddlewareFactory(cfg core.Config, log *logger.Logger) (*MiddlewareFactory, error) {
	c, err := ReadConfig(cfg)
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewMetrics(observability.Meter())
	if err != nil {
		return nil, err
	}
	return &MiddlewareFactory{config: c, log: log, metrics: metrics}, nil
}

// Config returns the configuration the factory was built from.
func (f *MiddlewareFactory) Config() Config { return f.config }

// Recovery turns panics into 500 responses.
func (f *MiddlewareFactory) Recovery() gin.HandlerFunc {
	return middleware.GinRecovery(f.log)
}

// RequestID assigns X-Request-Id.
func (f *MiddlewareFactory) RequestID() gin.HandlerFunc {
	return middleware.GinWrap(middleware.RequestID())
}

// Tracing starts a server span and records request metrics.
func (f *MiddlewareFactory) Tracing() gin.HandlerFunc {
	return middleware.GinWrap(middleware.Tracing(f.metrics))
}

// Logging logs completed requests.
func (f *MiddlewareFactory) Logging() gin.HandlerFunc {
	return middleware.GinWrap(middleware.RequestLogger(f.log))
}

// CORS applies backend.cors.
func (f *MiddlewareFactory) CORS() gin.HandlerFunc {
	cors := f.config.CORS
	return middleware.GinWrap(middleware.CORS(&cors))
}

// BodySize limits request bodies to backend.maxBodySize.
func (f *MiddlewareFactory) BodySize() gin.HandlerFunc {
	return middleware.GinWrap(middleware.BodySizeLimit(f.config.MaxBodySize))
}

// NotFound responds 404 with an error body.
func (f *MiddlewareFactory) NotFound() gin.HandlerFunc {
	return middleware.NotFound()
}

// Error renders errors attached to the gin context.
func (f *MiddlewareFactory) Error() gin.HandlerFunc {
	return middleware.ErrorHandler(f.log)
}

// Defaults returns the middleware every request goes through, outermost
// first.
func (f *MiddlewareFactory) Defaults() []gin.HandlerFunc {
	return []gin.HandlerFunc{
		f.Recovery(),
		f.RequestID(),
		f.Tracing(),
		f.Logging(),
		f.CORS(),
		f.BodySize(),
	}
}
