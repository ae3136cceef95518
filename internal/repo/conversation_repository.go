package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/MaryRatiary/back-rise/internal/db"
	"github.com/MaryRatiary/back-rise/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

type ConversationRepository interface {
	// FindOrCreate returns the conversation for the unordered user pair,
	// creating it atomically when absent. created reports whether a new
	// document was inserted.
	FindOrCreate(ctx context.Context, userA, userB string) (conv *model.Conversation, created bool, err error)
	GetByID(ctx context.Context, conversationID string) (*model.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]model.Conversation, error)
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
}

type conversationRepository struct {
	mongoRepo *db.Repository[model.Conversation]
	logger    *zap.Logger
}

func NewConversationRepository(mongoRepo *db.Repository[model.Conversation], logger *zap.Logger) ConversationRepository {
	return &conversationRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

// FindOrCreate upserts on the canonical pair key. The unique index on
// (user_a_id, user_b_id) plus $setOnInsert make concurrent first
// messages between the same two users converge on a single document.
func (r *conversationRepository) FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, bool, error) {
	if userA == "" || userB == "" {
		return nil, false, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	a, b := model.CanonicalPair(userA, userB)
	now := time.Now().UTC()

	filter := db.NewFilter().Eq("user_a_id", a).Eq("user_b_id", b).Build()
	update := bson.M{"$setOnInsert": bson.M{
		"user_a_id":       a,
		"user_b_id":       b,
		"created_at":      now,
		"last_message_at": now,
	}}
	res, err := r.mongoRepo.Collection().UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		r.logger.Error("failed to find or create conversation",
			zap.String("user_a", a),
			zap.String("user_b", b),
			zap.Error(err),
		)
		return nil, false, fmt.Errorf("find or create conversation: %w", err)
	}
	created := res.UpsertedCount == 1

	conv, err := r.mongoRepo.FindOne(ctx, filter)
	if err != nil {
		return nil, false, fmt.Errorf("load conversation after upsert: %w", err)
	}

	if created {
		r.logger.Info("conversation created",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.String("user_a", a),
			zap.String("user_b", b),
		)
	}
	return conv, created, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, conversationID string) (*model.Conversation, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(conversationID); err != nil {
		return nil, ErrInvalidObjectID
	}

	conv, err := r.mongoRepo.FindByID(ctx, conversationID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("fetch conversation: %w", err)
	}
	return conv, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID string) ([]model.Conversation, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"user_a_id": userID},
		bson.M{"user_b_id": userID},
	).Build()

	convs, err := r.mongoRepo.FindAllSorted(ctx, filter, bson.D{{Key: "last_message_at", Value: -1}}, 0)
	if err != nil {
		r.logger.Error("failed to list conversations",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func (r *conversationRepository) TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	ctx, cancel := ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := r.mongoRepo.UpdateByID(ctx, conversationID, bson.M{"last_message_at": at})
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}
