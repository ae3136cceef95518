package service

import (
	"context"
	"testing"

	"github.com/MaryRatiary/back-rise/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fanoutFixture struct {
	svc     NotificationService
	records *fakeNotificationRepo
	users   *fakeUserRepo

	actor  model.User
	owner  model.User
	tagged model.User
	admin1 model.User
	admin2 model.User
}

func newFanoutFixture(t *testing.T) *fanoutFixture {
	t.Helper()

	actor := model.User{ID: primitive.NewObjectID(), FirstName: "Alice", LastName: "Rakoto", Role: model.RoleStudent}
	owner := model.User{ID: primitive.NewObjectID(), FirstName: "Bob", LastName: "Randria", Role: model.RoleStudent}
	tagged := model.User{ID: primitive.NewObjectID(), FirstName: "Carol", LastName: "Rabe", Role: model.RoleProfessor}
	admin1 := model.User{ID: primitive.NewObjectID(), FirstName: "Dina", LastName: "Ravelo", Role: model.RoleAdmin}
	admin2 := model.User{ID: primitive.NewObjectID(), FirstName: "Eric", LastName: "Rajaona", Role: model.RoleAdmin}

	records := &fakeNotificationRepo{}
	users := newFakeUserRepo(actor, owner, tagged, admin1, admin2)

	return &fanoutFixture{
		svc:     NewNotificationService(records, users, zap.NewNop()),
		records: records,
		users:   users,
		actor:   actor,
		owner:   owner,
		tagged:  tagged,
		admin1:  admin1,
		admin2:  admin2,
	}
}

func recipientSet(records []model.Notification) map[string]model.Notification {
	out := make(map[string]model.Notification, len(records))
	for _, n := range records {
		out[n.RecipientID] = n
	}
	return out
}

func TestFanoutOwnerTaggedAdmins(t *testing.T) {
	fx := newFanoutFixture(t)
	postID := primitive.NewObjectID().Hex()

	count, err := fx.svc.Fanout(context.Background(), FanoutTrigger{
		Type:          model.NotificationComment,
		ActorID:       fx.actor.ID.Hex(),
		OwnerID:       fx.owner.ID.Hex(),
		TaggedUserIDs: []string{fx.tagged.ID.Hex()},
		PostID:        &postID,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count) // owner + tagged + two admins
	require.Len(t, fx.records.records, 4)

	byRecipient := recipientSet(fx.records.records)

	ownerRecord := byRecipient[fx.owner.ID.Hex()]
	assert.Equal(t, model.NotificationComment, ownerRecord.Type)
	assert.Equal(t, "Alice Rakoto a commenté votre post", ownerRecord.Message)
	assert.Equal(t, fx.actor.ID.Hex(), ownerRecord.TriggeredByUserID)
	require.NotNil(t, ownerRecord.PostID)
	assert.Equal(t, postID, *ownerRecord.PostID)

	// Tagged users are notified as mentions regardless of trigger type.
	taggedRecord := byRecipient[fx.tagged.ID.Hex()]
	assert.Equal(t, model.NotificationMention, taggedRecord.Type)
	assert.Equal(t, "Alice Rakoto vous a mentionné", taggedRecord.Message)

	adminRecord := byRecipient[fx.admin1.ID.Hex()]
	assert.Equal(t, "Alice Rakoto a commenté un post", adminRecord.Message)

	_, actorNotified := byRecipient[fx.actor.ID.Hex()]
	assert.False(t, actorNotified)
}

func TestFanoutDeduplicatesRecipients(t *testing.T) {
	fx := newFanoutFixture(t)

	// Owner is also tagged and is an admin target: one record only.
	count, err := fx.svc.Fanout(context.Background(), FanoutTrigger{
		Type:          model.NotificationReaction,
		ActorID:       fx.actor.ID.Hex(),
		OwnerID:       fx.admin1.ID.Hex(),
		TaggedUserIDs: []string{fx.admin1.ID.Hex(), fx.admin1.ID.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count) // admin1 once, admin2 once

	byRecipient := recipientSet(fx.records.records)
	require.Len(t, byRecipient, 2)
	// First category wins: admin1 entered the set as owner.
	assert.Equal(t, "Alice Rakoto a aimé votre contenu", byRecipient[fx.admin1.ID.Hex()].Message)
}

func TestFanoutExcludesActorEverywhere(t *testing.T) {
	fx := newFanoutFixture(t)

	// The actor reacting to their own post, self-tagged: nothing for the
	// actor, admins still notified.
	count, err := fx.svc.Fanout(context.Background(), FanoutTrigger{
		Type:          model.NotificationReaction,
		ActorID:       fx.actor.ID.Hex(),
		OwnerID:       fx.actor.ID.Hex(),
		TaggedUserIDs: []string{fx.actor.ID.Hex()},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	for _, n := range fx.records.records {
		assert.NotEqual(t, fx.actor.ID.Hex(), n.RecipientID)
	}
}

func TestFanoutEmptyRecipientSetIsNoop(t *testing.T) {
	fx := newFanoutFixture(t)

	// An admin acting on their own content with the other admin tagged
	// out of scope: set collapses when everyone resolvable is the actor.
	count, err := fx.svc.Fanout(context.Background(), FanoutTrigger{
		Type:    model.NotificationReply,
		ActorID: fx.admin1.ID.Hex(),
		OwnerID: fx.admin1.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count) // only the other admin remains

	fx.records.records = nil

	// Remove the second admin from the directory: truly empty set now.
	delete(fx.users.users, fx.admin2.ID.Hex())
	fresh := NewNotificationService(fx.records, fx.users, zap.NewNop())
	count, err = fresh.Fanout(context.Background(), FanoutTrigger{
		Type:    model.NotificationReply,
		ActorID: fx.admin1.ID.Hex(),
		OwnerID: fx.admin1.ID.Hex(),
	})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, fx.records.records)
}

func TestFanoutRejectsUnknownTriggerType(t *testing.T) {
	fx := newFanoutFixture(t)

	_, err := fx.svc.Fanout(context.Background(), FanoutTrigger{
		Type:    "poke",
		ActorID: fx.actor.ID.Hex(),
		OwnerID: fx.owner.ID.Hex(),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, fx.records.records)
}

func TestFanoutAdminDirectoryCached(t *testing.T) {
	fx := newFanoutFixture(t)
	ctx := context.Background()

	trigger := FanoutTrigger{
		Type:    model.NotificationComment,
		ActorID: fx.actor.ID.Hex(),
		OwnerID: fx.owner.ID.Hex(),
	}
	_, err := fx.svc.Fanout(ctx, trigger)
	require.NoError(t, err)
	_, err = fx.svc.Fanout(ctx, trigger)
	require.NoError(t, err)

	assert.Equal(t, 1, fx.users.listAdminCalls)
}

func TestListAndMarkNotifications(t *testing.T) {
	fx := newFanoutFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Fanout(ctx, FanoutTrigger{
		Type:    model.NotificationComment,
		ActorID: fx.actor.ID.Hex(),
		OwnerID: fx.owner.ID.Hex(),
	})
	require.NoError(t, err)

	list, err := fx.svc.ListNotifications(ctx, fx.owner.ID.Hex())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].IsRead)

	require.NoError(t, fx.svc.MarkNotificationRead(ctx, list[0].ID.Hex()))

	list, err = fx.svc.ListNotifications(ctx, fx.owner.ID.Hex())
	require.NoError(t, err)
	assert.True(t, list[0].IsRead)

	err = fx.svc.MarkNotificationRead(ctx, primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrNotFound)
}
