package gateway

import "github.com/gin-gonic/gin"

// NewEngine builds the gin.Engine exposing spec.md §6's HTTP surface,
// wired with the teacher's request-ID and logging middleware plus
// panic recovery.
func NewEngine(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	r.GET("/health", h.Health)

	api := r.Group("/api/ai")
	{
		api.POST("/generate", h.Generate)
		api.GET("/status", h.Status)
		api.GET("/spend", h.Spend)
		api.POST("/health", h.HealthCheck)
		api.GET("/history", h.History)
		api.POST("/rollover", h.Rollover)
		api.GET("/usage/weekly", h.WeeklyUsage)
	}

	return r
}
