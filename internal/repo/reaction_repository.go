package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/MaryRatiary/back-rise/internal/db"
	"github.com/MaryRatiary/back-rise/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ReactionRepository interface {
	// Toggle flips the reaction state for the (message, user, emoji)
	// key and reports whether the reaction exists after the call.
	Toggle(ctx context.Context, messageID, userID, emoji string) (added bool, err error)
	ListByMessages(ctx context.Context, messageIDs []primitive.ObjectID) ([]model.Reaction, error)
	DeleteByMessage(ctx context.Context, messageID string) error
}

type reactionRepository struct {
	mongoRepo *db.Repository[model.Reaction]
	logger    *zap.Logger
}

func NewReactionRepository(mongoRepo *db.Repository[model.Reaction], logger *zap.Logger) ReactionRepository {
	return &reactionRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// Toggle is delete-first: when a row exists it is removed, otherwise an
// insert is attempted. The unique index on (message_id, user_id, emoji)
// guarantees that two concurrent toggles can never produce duplicate
// rows; losing the insert race surfaces as a duplicate-key error, which
// means the reaction exists, so the loser reports added=true instead of
// an error.
func (r *reactionRepository) Toggle(ctx context.Context, messageID, userID, emoji string) (bool, error) {
	msgID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return false, ErrInvalidObjectID
	}
	if userID == "" {
		return false, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("message_id", msgID).
		Eq("user_id", userID).
		Eq("emoji", emoji).
		Build()

	res, err := r.mongoRepo.Delete(ctx, filter)
	if err != nil {
		return false, fmt.Errorf("toggle reaction (delete): %w", err)
	}
	if res.DeletedCount > 0 {
		r.logger.Debug("reaction removed",
			zap.String("message_id", messageID),
			zap.String("user_id", userID),
			zap.String("emoji", emoji),
		)
		return false, nil
	}

	_, err = r.mongoRepo.Create(ctx, model.Reaction{
		MessageID: msgID,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// A concurrent toggle inserted the same key first; the
			// reaction exists, which is a consistent final state.
			r.logger.Debug("reaction insert lost race, key already present",
				zap.String("message_id", messageID),
				zap.String("user_id", userID),
				zap.String("emoji", emoji),
			)
			return true, nil
		}
		return false, fmt.Errorf("toggle reaction (insert): %w", err)
	}

	r.logger.Debug("reaction added",
		zap.String("message_id", messageID),
		zap.String("user_id", userID),
		zap.String("emoji", emoji),
	)
	return true, nil
}

func (r *reactionRepository) ListByMessages(ctx context.Context, messageIDs []primitive.ObjectID) ([]model.Reaction, error) {
	if len(messageIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().In("message_id", messageIDs).Build()
	reactions, err := r.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reactions: %w", err)
	}
	return reactions, nil
}

// DeleteByMessage removes every reaction of a hard-deleted message.
func (r *reactionRepository) DeleteByMessage(ctx context.Context, messageID string) error {
	msgID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return ErrInvalidObjectID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err = r.mongoRepo.DeleteMany(ctx, db.NewFilter().Eq("message_id", msgID).Build())
	if err != nil {
		return fmt.Errorf("delete reactions of message: %w", err)
	}
	return nil
}
