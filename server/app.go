package server

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// NewApp creates the gin application for a root router. The router runs
// after the default middleware and before the error and not-found handlers.
func NewApp(router *Router, mf *MiddlewareFactory) *gin.Engine {
	engine := gin.New()
	engine.Use(mf.Defaults()...)
	engine.Use(router.GinHandler())
	engine.Use(mf.Error())
	engine.NoRoute(mf.NotFound())
	return engine
}
