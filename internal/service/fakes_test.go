package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/MaryRatiary/back-rise/internal/model"
	"github.com/MaryRatiary/back-rise/internal/repo"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes mirroring the Mongo-backed behavior,
// including the sentinel errors the services branch on.

type fakeConversationRepo struct {
	convs map[primitive.ObjectID]*model.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{convs: make(map[primitive.ObjectID]*model.Conversation)}
}

func (f *fakeConversationRepo) FindOrCreate(_ context.Context, userA, userB string) (*model.Conversation, bool, error) {
	a, b := model.CanonicalPair(userA, userB)
	for _, c := range f.convs {
		if c.UserAID == a && c.UserBID == b {
			return c, false, nil
		}
	}
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:            primitive.NewObjectID(),
		UserAID:       a,
		UserBID:       b,
		CreatedAt:     now,
		LastMessageAt: now,
	}
	f.convs[conv.ID] = conv
	return conv, true, nil
}

func (f *fakeConversationRepo) GetByID(_ context.Context, conversationID string) (*model.Conversation, error) {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, repo.ErrInvalidObjectID
	}
	conv, ok := f.convs[id]
	if !ok {
		return nil, repo.ErrDocumentNotFound
	}
	return conv, nil
}

func (f *fakeConversationRepo) ListForUser(_ context.Context, userID string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, c := range f.convs {
		if c.HasParticipant(userID) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastMessageAt.After(out[j].LastMessageAt) })
	return out, nil
}

func (f *fakeConversationRepo) TouchLastMessage(_ context.Context, conversationID string, at time.Time) error {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return repo.ErrInvalidObjectID
	}
	conv, ok := f.convs[id]
	if !ok {
		return repo.ErrDocumentNotFound
	}
	conv.LastMessageAt = at
	return nil
}

type fakeMessageRepo struct {
	msgs []model.Message
}

func (f *fakeMessageRepo) Insert(_ context.Context, msg *model.Message) (string, error) {
	msg.ID = primitive.NewObjectID()
	f.msgs = append(f.msgs, *msg)
	return msg.ID.Hex(), nil
}

func (f *fakeMessageRepo) GetByID(_ context.Context, messageID string) (*model.Message, error) {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return nil, repo.ErrInvalidObjectID
	}
	for _, m := range f.msgs {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, repo.ErrDocumentNotFound
}

func (f *fakeMessageRepo) ListByConversation(_ context.Context, conversationID string) ([]model.Message, error) {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return nil, repo.ErrInvalidObjectID
	}
	var out []model.Message
	for _, m := range f.msgs {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SentAt.Before(out[j].SentAt) })
	return out, nil
}

func (f *fakeMessageRepo) LastMessage(ctx context.Context, conversationID string) (*model.Message, error) {
	msgs, err := f.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, repo.ErrDocumentNotFound
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

func (f *fakeMessageRepo) CountUnreadFrom(_ context.Context, conversationID, counterpartID string) (int64, error) {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return 0, repo.ErrInvalidObjectID
	}
	var n int64
	for _, m := range f.msgs {
		if m.ConversationID == id && m.SenderID == counterpartID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) MarkRead(_ context.Context, conversationID, readerID string) (int64, error) {
	id, err := primitive.ObjectIDFromHex(conversationID)
	if err != nil {
		return 0, repo.ErrInvalidObjectID
	}
	var n int64
	for i := range f.msgs {
		m := &f.msgs[i]
		if m.ConversationID == id && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) Delete(_ context.Context, messageID string) error {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return repo.ErrInvalidObjectID
	}
	for i, m := range f.msgs {
		if m.ID == id {
			f.msgs = append(f.msgs[:i], f.msgs[i+1:]...)
			return nil
		}
	}
	return repo.ErrDocumentNotFound
}

type fakeReactionRepo struct {
	reactions []model.Reaction
}

func (f *fakeReactionRepo) Toggle(_ context.Context, messageID, userID, emoji string) (bool, error) {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return false, repo.ErrInvalidObjectID
	}
	for i, r := range f.reactions {
		if r.MessageID == id && r.UserID == userID && r.Emoji == emoji {
			f.reactions = append(f.reactions[:i], f.reactions[i+1:]...)
			return false, nil
		}
	}
	f.reactions = append(f.reactions, model.Reaction{
		ID:        primitive.NewObjectID(),
		MessageID: id,
		UserID:    userID,
		Emoji:     emoji,
		CreatedAt: time.Now().UTC(),
	})
	return true, nil
}

func (f *fakeReactionRepo) ListByMessages(_ context.Context, messageIDs []primitive.ObjectID) ([]model.Reaction, error) {
	wanted := make(map[primitive.ObjectID]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}
	var out []model.Reaction
	for _, r := range f.reactions {
		if _, ok := wanted[r.MessageID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeReactionRepo) DeleteByMessage(_ context.Context, messageID string) error {
	id, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return repo.ErrInvalidObjectID
	}
	kept := f.reactions[:0]
	for _, r := range f.reactions {
		if r.MessageID != id {
			kept = append(kept, r)
		}
	}
	f.reactions = kept
	return nil
}

type fakeUserRepo struct {
	users          map[string]model.User
	listAdminCalls int
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]model.User)}
	for _, u := range users {
		f.users[u.ID.Hex()] = u
	}
	return f
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*model.User, error) {
	if userID == "" {
		return nil, repo.ErrInvalidUserID
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, repo.ErrDocumentNotFound
	}
	return &u, nil
}

func (f *fakeUserRepo) GetByIDs(_ context.Context, userIDs []string) (map[string]model.User, error) {
	out := make(map[string]model.User)
	for _, id := range userIDs {
		if u, ok := f.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	f.listAdminCalls++
	var out []model.User
	for _, u := range f.users {
		if u.IsAdmin() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (f *fakeUserRepo) Search(_ context.Context, query, excludeUserID string) ([]model.User, error) {
	q := strings.ToLower(query)
	var out []model.User
	for _, u := range f.users {
		if u.ID.Hex() == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) ||
			strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

type fakeNotificationRepo struct {
	records []model.Notification
}

func (f *fakeNotificationRepo) InsertMany(_ context.Context, notifications []model.Notification) error {
	for i := range notifications {
		notifications[i].ID = primitive.NewObjectID()
	}
	f.records = append(f.records, notifications...)
	return nil
}

func (f *fakeNotificationRepo) ListForRecipient(_ context.Context, recipientID string, limit int64) ([]model.Notification, error) {
	var out []model.Notification
	for _, n := range f.records {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, notificationID string) error {
	id, err := primitive.ObjectIDFromHex(notificationID)
	if err != nil {
		return repo.ErrInvalidObjectID
	}
	for i := range f.records {
		if f.records[i].ID == id {
			f.records[i].IsRead = true
			return nil
		}
	}
	return repo.ErrDocumentNotFound
}
