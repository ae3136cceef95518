package approuters

import (
	"github.com/MaryRatiary/back-rise/internal/configuration"
	"github.com/MaryRatiary/back-rise/internal/handler"

	"github.com/gin-gonic/gin"
)

func NotificationRouters(router *gin.Engine, container *configuration.Container) {
	notificationRoute := router.Group("/api/notifications")
	notificationRoute.Use(handler.AuthMiddleware(container.Tokens))
	{
		notificationRoute.GET("", container.NotificationHandler.GetNotifications)
		notificationRoute.PUT("/:id/read", container.NotificationHandler.MarkNotificationRead)
		notificationRoute.POST("/fanout", container.NotificationHandler.Fanout)
	}
}
