package approuters

import (
	"github.com/MaryRatiary/back-rise/internal/configuration"
	"github.com/MaryRatiary/back-rise/internal/handler"

	"github.com/gin-gonic/gin"
)

func MessageRouters(router *gin.Engine, container *configuration.Container) {
	messageRoute := router.Group("/api/messages")
	messageRoute.Use(handler.AuthMiddleware(container.Tokens))
	{
		messageRoute.GET("/conversations", container.MessageHandler.GetConversations)
		messageRoute.POST("/conversations", container.MessageHandler.StartConversation)
		messageRoute.GET("/conversation/:conversationId", container.MessageHandler.GetConversationMessages)
		messageRoute.PUT("/conversation/:conversationId/read", container.MessageHandler.MarkConversationRead)
		messageRoute.POST("/conversation/:conversationId/call-token", container.MessageHandler.IssueCallToken)
		messageRoute.POST("/send", container.MessageHandler.SendMessage)
		messageRoute.POST("/:messageId/reaction", container.MessageHandler.ToggleReaction)
		messageRoute.DELETE("/:messageId", container.MessageHandler.DeleteMessage)
		messageRoute.GET("/users/search", container.MessageHandler.SearchUsers)
	}
}
