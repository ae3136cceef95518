package approuters

import (
	"github.com/MaryRatiary/back-rise/internal/configuration"
	"github.com/MaryRatiary/back-rise/internal/handler"
	"github.com/MaryRatiary/back-rise/internal/hub"

	"github.com/gin-gonic/gin"
)

// MonitorRouters sets up monitoring API routes
func MonitorRouters(router *gin.Engine, container *configuration.Container) {
	monitorService := hub.NewMonitorService(container.Hub)
	monitorHandler := handler.NewMonitorHandler(monitorService)

	// Stats expose user ids and room membership, so the group is gated
	// like the rest of the API.
	monitorGroup := router.Group("/cf/api/monitor")
	monitorGroup.Use(handler.AuthMiddleware(container.Tokens))
	{
		monitorGroup.GET("", monitorHandler.GetHubStats)
		monitorGroup.GET("/stats", monitorHandler.GetHubStats)
	}
}
