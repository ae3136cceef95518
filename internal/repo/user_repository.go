package repo

import (
	"context"
	"fmt"

	"github.com/MaryRatiary/back-rise/internal/db"
	"github.com/MaryRatiary/back-rise/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const searchResultLimit = 10

// UserRepository is the read-only view of the user directory owned by
// the user-management service.
type UserRepository interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error)
	ListAdmins(ctx context.Context) ([]model.User, error)
	Search(ctx context.Context, query, excludeUserID string) ([]model.User, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(mongoRepo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: mongoRepo,
		logger:    logger,
	}
}

func (r *userRepository) GetByID(ctx context.Context, userID string) (*model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	if _, err := primitive.ObjectIDFromHex(userID); err != nil {
		return nil, ErrInvalidObjectID
	}

	user, err := r.mongoRepo.FindByID(ctx, userID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	return user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error) {
	if len(userIDs) == 0 {
		return map[string]model.User{}, nil
	}

	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(userIDs))
	for _, id := range userIDs {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("_id", objectIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	byID := make(map[string]model.User, len(users))
	for _, u := range users {
		byID[u.ID.Hex()] = u
	}
	return byID, nil
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	admins, err := r.mongoRepo.FindAll(ctx, db.NewFilter().Eq("role", model.RoleAdmin).Build())
	if err != nil {
		r.logger.Error("failed to list admins", zap.Error(err))
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

func (r *userRepository) Search(ctx context.Context, query, excludeUserID string) ([]model.User, error) {
	ctx, cancel := ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		db.NewFilter().Contains("first_name", query).Build(),
		db.NewFilter().Contains("last_name", query).Build(),
		db.NewFilter().Contains("email", query).Build(),
	)
	if oid, err := primitive.ObjectIDFromHex(excludeUserID); err == nil {
		filter.Ne("_id", oid)
	}

	users, err := r.mongoRepo.FindAllSorted(ctx, filter.Build(), bson.D{{Key: "first_name", Value: 1}}, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}
