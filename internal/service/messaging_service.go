package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/MaryRatiary/back-rise/internal/model"
	"github.com/MaryRatiary/back-rise/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MessagingService implements the direct-messaging operations exposed
// to both the REST surface and the realtime gateway. It never holds
// in-process locks across its persistence calls; message ordering
// within a conversation comes from the store's write path.
type MessagingService interface {
	ListConversations(ctx context.Context, userID string) ([]ConversationView, error)
	GetMessages(ctx context.Context, conversationID, requesterID string) ([]MessageView, error)
	SendMessage(ctx context.Context, senderID, conversationID, content string, replyToID *string) (*MessageView, error)
	StartOrGetConversation(ctx context.Context, userID, recipientID string) (*ConversationView, error)
	ToggleReaction(ctx context.Context, messageID, userID, emoji string) (added bool, conversationID string, err error)
	MarkConversationRead(ctx context.Context, conversationID, requesterID string) error
	DeleteMessage(ctx context.Context, messageID, requesterID string) (conversationID string, err error)
	IssueCallToken(ctx context.Context, conversationID, requesterID string) (string, error)
	SearchUsers(ctx context.Context, query, excludeUserID string) ([]SearchUserView, error)
}

type messagingService struct {
	conversations repo.ConversationRepository
	messages      repo.MessageRepository
	reactions     repo.ReactionRepository
	users         repo.UserRepository
	logger        *zap.Logger
}

func NewMessagingService(
	conversations repo.ConversationRepository,
	messages repo.MessageRepository,
	reactions repo.ReactionRepository,
	users repo.UserRepository,
	logger *zap.Logger,
) MessagingService {
	return &messagingService{
		conversations: conversations,
		messages:      messages,
		reactions:     reactions,
		users:         users,
		logger:        logger,
	}
}

func (s *messagingService) ListConversations(ctx context.Context, userID string) ([]ConversationView, error) {
	convs, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	counterpartIDs := make([]string, 0, len(convs))
	for _, c := range convs {
		counterpartIDs = append(counterpartIDs, c.Counterpart(userID))
	}
	counterparts, err := s.users.GetByIDs(ctx, counterpartIDs)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	views := make([]ConversationView, 0, len(convs))
	for _, conv := range convs {
		counterpartID := conv.Counterpart(userID)
		counterpart, ok := counterparts[counterpartID]
		if !ok {
			s.logger.Warn("conversation counterpart missing from directory",
				zap.String("conversation_id", conv.ID.Hex()),
				zap.String("user_id", counterpartID),
			)
			continue
		}

		preview := noMessagePreview
		lastAt := conv.CreatedAt
		if last, err := s.messages.LastMessage(ctx, conv.ID.Hex()); err == nil {
			preview = last.Content
			lastAt = last.SentAt
		} else if !errors.Is(err, repo.ErrDocumentNotFound) {
			return nil, wrapRepoErr(err)
		}

		unread, err := s.messages.CountUnreadFrom(ctx, conv.ID.Hex(), counterpartID)
		if err != nil {
			return nil, wrapRepoErr(err)
		}

		views = append(views, ConversationView{
			ID:                    conv.ID.Hex(),
			Sender:                counterpart.FullName(),
			SenderProfileImageURL: counterpart.ProfileImageURL,
			LastMessage:           preview,
			Time:                  lastAt,
			Unread:                unread,
		})
	}
	return views, nil
}

func (s *messagingService) GetMessages(ctx context.Context, conversationID, requesterID string) ([]MessageView, error) {
	conv, err := s.authorizedConversation(ctx, conversationID, requesterID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messages.ListByConversation(ctx, conv.ID.Hex())
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	return s.projectMessages(ctx, msgs, requesterID)
}

func (s *messagingService) SendMessage(ctx context.Context, senderID, conversationID, content string, replyToID *string) (*MessageView, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty message content", ErrValidation)
	}

	conv, err := s.authorizedConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	var replyRef *primitive.ObjectID
	if replyToID != nil && *replyToID != "" {
		target, err := s.messages.GetByID(ctx, *replyToID)
		if err != nil {
			if errors.Is(err, repo.ErrDocumentNotFound) || errors.Is(err, repo.ErrInvalidObjectID) {
				return nil, fmt.Errorf("%w: reply target", ErrNotFound)
			}
			return nil, wrapRepoErr(err)
		}
		if target.ConversationID != conv.ID {
			return nil, fmt.Errorf("%w: reply target belongs to another conversation", ErrNotFound)
		}
		replyRef = &target.ID
	}

	now := time.Now().UTC()
	msg := &model.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		SentAt:         now,
		IsRead:         false,
		ReplyToID:      replyRef,
	}
	if _, err := s.messages.Insert(ctx, msg); err != nil {
		return nil, wrapRepoErr(err)
	}

	if err := s.conversations.TouchLastMessage(ctx, conv.ID.Hex(), now); err != nil {
		// The message is already persisted; a stale activity timestamp
		// only affects list ordering.
		s.logger.Warn("failed to bump conversation activity",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.Error(err),
		)
	}

	views, err := s.projectMessages(ctx, []model.Message{*msg}, senderID)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *messagingService) StartOrGetConversation(ctx context.Context, userID, recipientID string) (*ConversationView, error) {
	if userID == recipientID {
		return nil, fmt.Errorf("%w: cannot start a conversation with yourself", ErrValidation)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	conv, created, err := s.conversations.FindOrCreate(ctx, userID, recipientID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	if created {
		s.logger.Info("conversation started",
			zap.String("conversation_id", conv.ID.Hex()),
			zap.String("user_id", userID),
			zap.String("recipient_id", recipientID),
		)
	}

	preview := noMessagePreview
	if last, err := s.messages.LastMessage(ctx, conv.ID.Hex()); err == nil {
		preview = last.Content
	} else if !errors.Is(err, repo.ErrDocumentNotFound) {
		return nil, wrapRepoErr(err)
	}

	unread, err := s.messages.CountUnreadFrom(ctx, conv.ID.Hex(), recipientID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	return &ConversationView{
		ID:                    conv.ID.Hex(),
		Sender:                recipient.FullName(),
		SenderProfileImageURL: recipient.ProfileImageURL,
		LastMessage:           preview,
		Time:                  conv.LastMessageAt,
		Unread:                unread,
	}, nil
}

func (s *messagingService) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (bool, string, error) {
	if strings.TrimSpace(emoji) == "" {
		return false, "", fmt.Errorf("%w: empty emoji", ErrValidation)
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return false, "", wrapRepoErr(err)
	}

	conv, err := s.conversations.GetByID(ctx, msg.ConversationID.Hex())
	if err != nil {
		return false, "", wrapRepoErr(err)
	}
	if !conv.HasParticipant(userID) {
		return false, "", ErrUnauthorized
	}

	added, err := s.reactions.Toggle(ctx, messageID, userID, emoji)
	if err != nil {
		return false, "", wrapRepoErr(err)
	}
	return added, conv.ID.Hex(), nil
}

func (s *messagingService) MarkConversationRead(ctx context.Context, conversationID, requesterID string) error {
	conv, err := s.authorizedConversation(ctx, conversationID, requesterID)
	if err != nil {
		return err
	}

	if _, err := s.messages.MarkRead(ctx, conv.ID.Hex(), requesterID); err != nil {
		return wrapRepoErr(err)
	}
	return nil
}

func (s *messagingService) DeleteMessage(ctx context.Context, messageID, requesterID string) (string, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return "", wrapRepoErr(err)
	}
	if msg.SenderID != requesterID {
		return "", ErrUnauthorized
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return "", wrapRepoErr(err)
	}
	// Reply references to the deleted message stay in place and resolve
	// to an unavailable placeholder at read time.
	if err := s.reactions.DeleteByMessage(ctx, messageID); err != nil {
		s.logger.Warn("failed to clean reactions of deleted message",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
	}
	return msg.ConversationID.Hex(), nil
}

// IssueCallToken returns an opaque capability token binding the
// conversation, the caller and the issue time. It is encoded, not
// signed, mirroring the reference behavior; switching to the JWT
// manager is the flagged hardening path.
func (s *messagingService) IssueCallToken(ctx context.Context, conversationID, requesterID string) (string, error) {
	conv, err := s.authorizedConversation(ctx, conversationID, requesterID)
	if err != nil {
		return "", err
	}

	raw := fmt.Sprintf("%s:%s:%d", conv.ID.Hex(), requesterID, time.Now().UTC().UnixNano())
	return base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

func (s *messagingService) SearchUsers(ctx context.Context, query, excludeUserID string) ([]SearchUserView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrValidation)
	}

	users, err := s.users.Search(ctx, query, excludeUserID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	views := make([]SearchUserView, 0, len(users))
	for _, u := range users {
		views = append(views, SearchUserView{
			ID:        u.ID.Hex(),
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
		})
	}
	return views, nil
}

// authorizedConversation loads a conversation and rejects requesters
// that are not one of its two participants.
func (s *messagingService) authorizedConversation(ctx context.Context, conversationID, requesterID string) (*model.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	if !conv.HasParticipant(requesterID) {
		return nil, ErrUnauthorized
	}
	return conv, nil
}

// projectMessages maps raw messages to their read projection: sender
// display info, isMine relative to requesterID, resolved reply preview
// and reactions grouped by emoji.
func (s *messagingService) projectMessages(ctx context.Context, msgs []model.Message, requesterID string) ([]MessageView, error) {
	if len(msgs) == 0 {
		return []MessageView{}, nil
	}

	byID := make(map[primitive.ObjectID]model.Message, len(msgs))
	msgIDs := make([]primitive.ObjectID, 0, len(msgs))
	userIDSet := make(map[string]struct{})
	for _, m := range msgs {
		byID[m.ID] = m
		msgIDs = append(msgIDs, m.ID)
		userIDSet[m.SenderID] = struct{}{}
	}

	reactions, err := s.reactions.ListByMessages(ctx, msgIDs)
	if err != nil {
		return nil, wrapRepoErr(err)
	}
	for _, r := range reactions {
		userIDSet[r.UserID] = struct{}{}
	}

	// Reply targets may live outside the listed slice (single-message
	// projection after a send); fetch the missing ones individually.
	replyTargets := make(map[primitive.ObjectID]model.Message)
	for _, m := range msgs {
		if m.ReplyToID == nil {
			continue
		}
		if target, ok := byID[*m.ReplyToID]; ok {
			replyTargets[*m.ReplyToID] = target
			userIDSet[target.SenderID] = struct{}{}
			continue
		}
		target, err := s.messages.GetByID(ctx, m.ReplyToID.Hex())
		if err != nil {
			if errors.Is(err, repo.ErrDocumentNotFound) {
				continue // deleted target, resolved as unavailable below
			}
			return nil, wrapRepoErr(err)
		}
		replyTargets[*m.ReplyToID] = *target
		userIDSet[target.SenderID] = struct{}{}
	}

	userIDs := make([]string, 0, len(userIDSet))
	for id := range userIDSet {
		userIDs = append(userIDs, id)
	}
	users, err := s.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	displayName := func(userID string) string {
		if u, ok := users[userID]; ok {
			return u.FullName()
		}
		return unknownUserName
	}

	reactionsByMsg := make(map[primitive.ObjectID][]model.Reaction)
	for _, r := range reactions {
		reactionsByMsg[r.MessageID] = append(reactionsByMsg[r.MessageID], r)
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		var replyTo *ReplyView
		if m.ReplyToID != nil {
			if target, ok := replyTargets[*m.ReplyToID]; ok {
				replyTo = &ReplyView{
					ID:      target.ID.Hex(),
					Sender:  displayName(target.SenderID),
					Content: target.Content,
				}
			} else {
				replyTo = &ReplyView{
					Content:     unavailableMessage,
					Unavailable: true,
				}
			}
		}

		sender, hasSender := users[m.SenderID]
		senderAvatar := ""
		if hasSender {
			senderAvatar = sender.ProfileImageURL
		}

		views = append(views, MessageView{
			ID:                    m.ID.Hex(),
			ConversationID:        m.ConversationID.Hex(),
			SenderID:              m.SenderID,
			SenderName:            displayName(m.SenderID),
			SenderProfileImageURL: senderAvatar,
			Content:               m.Content,
			SentAt:                m.SentAt,
			IsRead:                m.IsRead,
			IsMine:                m.SenderID == requesterID,
			ReplyTo:               replyTo,
			Reactions:             groupReactions(reactionsByMsg[m.ID], displayName),
		})
	}
	return views, nil
}

// groupReactions aggregates raw reaction rows per emoji, with a stable
// emoji order for deterministic payloads.
func groupReactions(reactions []model.Reaction, displayName func(string) string) []ReactionView {
	if len(reactions) == 0 {
		return []ReactionView{}
	}

	byEmoji := make(map[string][]string)
	for _, r := range reactions {
		byEmoji[r.Emoji] = append(byEmoji[r.Emoji], displayName(r.UserID))
	}

	emojis := make([]string, 0, len(byEmoji))
	for e := range byEmoji {
		emojis = append(emojis, e)
	}
	sort.Strings(emojis)

	views := make([]ReactionView, 0, len(emojis))
	for _, e := range emojis {
		views = append(views, ReactionView{
			Emoji: e,
			Count: len(byEmoji[e]),
			Users: byEmoji[e],
		})
	}
	return views
}
