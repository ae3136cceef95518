package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MaryRatiary/back-rise/internal/model"
	"github.com/MaryRatiary/back-rise/internal/repo"

	"go.uber.org/zap"
)

// adminCacheTTL bounds how stale the cached admin directory may get.
// Role changes are rare and notifications are advisory, so a short TTL
// keeps admin lookups off the fanout hot path.
const adminCacheTTL = 30 * time.Second

// FanoutTrigger describes one social action to fan out: who did what
// to whose content, and who was mentioned in it.
type FanoutTrigger struct {
	Type          string // model.NotificationComment, Reaction, Mention, Reply
	ActorID       string
	OwnerID       string // author of the affected post or comment
	TaggedUserIDs []string
	PostID        *string
	CommentID     *string
}

// NotificationService computes recipient sets for social actions and
// persists one notification record per distinct recipient. It only
// persists; live toast delivery is a separate gateway concern.
type NotificationService interface {
	Fanout(ctx context.Context, trigger FanoutTrigger) (int, error)
	ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

type notificationService struct {
	notifications repo.NotificationRepository
	users         repo.UserRepository
	logger        *zap.Logger

	adminMu        sync.Mutex
	cachedAdminIDs []string
	adminsFetched  time.Time
}

func NewNotificationService(
	notifications repo.NotificationRepository,
	users repo.UserRepository,
	logger *zap.Logger,
) NotificationService {
	return &notificationService{
		notifications: notifications,
		users:         users,
		logger:        logger,
	}
}

// Fanout builds the deduplicated recipient set in order: content owner,
// tagged users, then every admin (always excluding the actor) and
// inserts one record per recipient. An empty set is a no-op.
func (s *notificationService) Fanout(ctx context.Context, trigger FanoutTrigger) (int, error) {
	switch trigger.Type {
	case model.NotificationComment, model.NotificationReaction,
		model.NotificationMention, model.NotificationReply:
	default:
		return 0, fmt.Errorf("%w: unknown trigger type %q", ErrValidation, trigger.Type)
	}
	if trigger.ActorID == "" {
		return 0, fmt.Errorf("%w: missing actor", ErrValidation)
	}

	actor, err := s.users.GetByID(ctx, trigger.ActorID)
	if err != nil {
		return 0, wrapRepoErr(err)
	}
	actorName := actor.FullName()

	adminIDs, err := s.adminIDs(ctx)
	if err != nil {
		return 0, err
	}

	type recipient struct {
		userID   string
		category string // "owner", "mention" or "admin"
	}

	seen := map[string]struct{}{trigger.ActorID: {}}
	var recipients []recipient
	add := func(userID, category string) {
		if userID == "" {
			return
		}
		if _, dup := seen[userID]; dup {
			return
		}
		seen[userID] = struct{}{}
		recipients = append(recipients, recipient{userID: userID, category: category})
	}

	add(trigger.OwnerID, "owner")
	for _, tagged := range Filter(trigger.TaggedUserIDs, func(id string) bool { return id != trigger.ActorID }) {
		add(tagged, "mention")
	}
	for _, adminID := range adminIDs {
		add(adminID, "admin")
	}

	if len(recipients) == 0 {
		s.logger.Debug("fanout resolved to empty recipient set",
			zap.String("type", trigger.Type),
			zap.String("actor_id", trigger.ActorID),
		)
		return 0, nil
	}

	now := time.Now().UTC()
	records := make([]model.Notification, 0, len(recipients))
	for _, rcpt := range recipients {
		notifType := trigger.Type
		if rcpt.category == "mention" {
			notifType = model.NotificationMention
		}
		records = append(records, model.Notification{
			RecipientID:       rcpt.userID,
			TriggeredByUserID: trigger.ActorID,
			Type:              notifType,
			PostID:            trigger.PostID,
			CommentID:         trigger.CommentID,
			Message:           notificationText(trigger.Type, rcpt.category, actorName),
			IsRead:            false,
			CreatedAt:         now,
		})
	}

	if err := s.notifications.InsertMany(ctx, records); err != nil {
		return 0, wrapRepoErr(err)
	}

	s.logger.Info("notifications fanned out",
		zap.String("type", trigger.Type),
		zap.String("actor_id", trigger.ActorID),
		zap.Int("recipients", len(records)),
	)
	return len(records), nil
}

func (s *notificationService) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	notifications, err := s.notifications.ListForRecipient(ctx, recipientID, 0)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return notifications, nil
}

func (s *notificationService) MarkNotificationRead(ctx context.Context, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID); err != nil {
		return wrapRepoErr(err)
	}
	return nil
}

// adminIDs returns the admin directory through a short-lived cache.
func (s *notificationService) adminIDs(ctx context.Context) ([]string, error) {
	s.adminMu.Lock()
	defer s.adminMu.Unlock()

	if time.Since(s.adminsFetched) < adminCacheTTL && s.cachedAdminIDs != nil {
		return s.cachedAdminIDs, nil
	}

	admins, err := s.users.ListAdmins(ctx)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	ids := make([]string, 0, len(admins))
	for _, a := range admins {
		ids = append(ids, a.ID.Hex())
	}
	s.cachedAdminIDs = ids
	s.adminsFetched = time.Now()
	return ids, nil
}

// notificationText builds the per-category French message, matching
// the copy of the rest of the product.
func notificationText(triggerType, category, actorName string) string {
	if category == "mention" {
		return actorName + " vous a mentionné"
	}

	owner := category == "owner"
	switch triggerType {
	case model.NotificationComment:
		if owner {
			return actorName + " a commenté votre post"
		}
		return actorName + " a commenté un post"
	case model.NotificationReaction:
		if owner {
			return actorName + " a aimé votre contenu"
		}
		return actorName + " a aimé un contenu"
	case model.NotificationReply:
		if owner {
			return actorName + " a répondu à votre commentaire"
		}
		return actorName + " a répondu à un commentaire"
	case model.NotificationMention:
		return actorName + " vous a mentionné"
	}
	return actorName
}
