package configuration

import (
	"context"
	"fmt"
	"time"

	"github.com/MaryRatiary/back-rise/internal/auth"
	"github.com/MaryRatiary/back-rise/internal/db"
	"github.com/MaryRatiary/back-rise/internal/handler"
	"github.com/MaryRatiary/back-rise/internal/hub"
	"github.com/MaryRatiary/back-rise/internal/model"
	"github.com/MaryRatiary/back-rise/internal/presence"
	"github.com/MaryRatiary/back-rise/internal/repo"
	"github.com/MaryRatiary/back-rise/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	MessageHandler      handler.MessageHandler
	NotificationHandler handler.NotificationHandler
	Hub                 *hub.Hub
	Tokens              *auth.JWTManager
	Users               repo.UserRepository
	Config              Config
	Logger              *zap.Logger

	// private - for cleanup
	mongoDatabase *mongo.Database
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	con, err := db.OpenConnection(config.Mongo.Uri, config.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := db.EnsureIndexes(ctx, con); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	conversationRepo := repo.NewConversationRepository(db.NewRepository[model.Conversation](con, db.ConversationsCollection), logger)
	messageRepo := repo.NewMessageRepository(db.NewRepository[model.Message](con, db.MessagesCollection), logger)
	reactionRepo := repo.NewReactionRepository(db.NewRepository[model.Reaction](con, db.ReactionsCollection), logger)
	notificationRepo := repo.NewNotificationRepository(db.NewRepository[model.Notification](con, db.NotificationsCollection), logger)
	userRepo := repo.NewUserRepository(db.NewRepository[model.User](con, db.UsersCollection), logger)

	messagingService := service.NewMessagingService(conversationRepo, messageRepo, reactionRepo, userRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, userRepo, logger)

	tokens := auth.NewJWTManager(config.Auth.JWTSecret, time.Duration(config.Auth.TokenTTLMinutes)*time.Minute)

	registry := presence.NewRegistry()
	commands := hub.NewCommandHandler(messagingService, logger)
	socketHub := hub.NewHub(registry, logger)
	commands.SetHub(socketHub)
	socketHub.SetCommandHandler(commands)

	return &Container{
		MessageHandler:      handler.NewMessageHandler(messagingService),
		NotificationHandler: handler.NewNotificationHandler(notificationService),
		Hub:                 socketHub,
		Tokens:              tokens,
		Users:               userRepo,
		Config:              *config,
		Logger:              logger,
		mongoDatabase:       con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
