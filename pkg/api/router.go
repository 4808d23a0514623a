// Package api exposes the routing engine over HTTP.
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/1F47E/camina-segura/pkg/saferoute"
)

// NewRouter builds the gin engine with every route registered
func NewRouter(engine *saferoute.Engine, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong", "status": "ok"})
	})

	h := NewHandler(engine, log)
	api := router.Group("/api")
	{
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(200, gin.H{"message": "pong", "status": "ok"})
		})

		api.POST("/routes", h.CalculateRoutes)
		api.POST("/routes/recommendations", h.Recommendations)

		api.GET("/history", h.ListHistory)
		api.POST("/history", h.SaveHistory)
		api.GET("/history/stats", h.Statistics)

		api.GET("/score", h.Score)

		api.GET("/reports", h.ListReports)
		api.POST("/reports", h.CreateReport)
		api.POST("/reports/:id/helpful", h.MarkHelpful)
		api.POST("/reports/:id/verify", h.VerifyReport)

		api.POST("/evaluations", h.SubmitEvaluation)
	}

	return router
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start),
		}).Debug("request")
	}
}
