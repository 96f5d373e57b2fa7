package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/geotagger/infrastructure/gin"
)

// SetupRoutes registers the public and JWT-protected routes. /health is
// registered by the server builder.
func SetupRoutes(router *gin.Engine, handler *Handler, jwtSecret string, metrics http.Handler) {
	router.POST("/predict", handler.Predict)
	router.GET("/ping", handler.Ping)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := infragin.ProtectedGroup(router, "/api/v1", jwtSecret)
	{
		v1.POST("/tag", handler.Tag)
		v1.POST("/tag/batch", handler.TagBatch)
		v1.POST("/featurize", handler.Featurize)
		v1.GET("/reference/same-name/:name", handler.SameName)
	}
}
