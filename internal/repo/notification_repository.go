package repo

import (
	"context"
	"fmt"

	"github.com/MaryRatiary/back-rise/internal/db"
	"github.com/MaryRatiary/back-rise/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type NotificationRepository interface {
	InsertMany(ctx context.Context, notifications []model.Notification) error
	ListForRecipient(ctx context.Context, recipientID string, limit int64) ([]model.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
}

type notificationRepository struct {
	mongoRepo *db.Repository[model.Notification]
	logger    *zap.Logger
}

func NewNotificationRepository(mongoRepo *db.Repository[model.Notification], logger *zap.Logger) NotificationRepository {
	return &notificationRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *notificationRepository) InsertMany(ctx context.Context, notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.CreateMany(ctx, notifications)
	if err != nil {
		r.logger.Error("failed to insert notifications",
			zap.Int("count", len(notifications)),
			zap.Error(err),
		)
		return fmt.Errorf("insert notifications: %w", err)
	}

	r.logger.Info("notifications inserted", zap.Int("count", len(notifications)))
	return nil
}

func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit int64) ([]model.Notification, error) {
	if recipientID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Eq("recipient_id", recipientID).Build()
	notifications, err := r.mongoRepo.FindAllSorted(ctx, filter, bson.D{{Key: "created_at", Value: -1}}, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	res, err := r.mongoRepo.UpdateByID(ctx, notificationID, bson.M{"is_read": true})
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrDocumentNotFound
	}
	return nil
}
