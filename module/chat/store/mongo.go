package store

import (
	"context"
	"time"

	"ChatWave/module/chat/model"
	"ChatWave/tools/errs"
	"ChatWave/tools/ids"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func newID() string { return ids.GenerateString() }

// NewMongoStores wires every store onto collections of the given database.
func NewMongoStores(db *mongo.Database) Stores {
	return Stores{
		Users:         &mongoUserStore{coll: db.Collection(model.UserTableName)},
		Messages:      &mongoMessageStore{coll: db.Collection(model.MsgTableName)},
		Conversations: &mongoConversationStore{coll: db.Collection(model.ConversationTableName)},
		Groups:        &mongoGroupStore{coll: db.Collection(model.GroupTableName)},
		Notifications: &mongoNotificationStore{coll: db.Collection(model.NotificationTableName)},
		Sessions:      &mongoSessionStore{coll: db.Collection(model.UserSessionTableName)},
	}
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (*T, error) {
	var out T
	err := coll.FindOne(ctx, filter).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &out, nil
}

// ---- users ----

type mongoUserStore struct{ coll *mongo.Collection }

func (s *mongoUserStore) Find(ctx context.Context, userID string) (*model.User, error) {
	return findOne[model.User](ctx, s.coll, bson.M{"user_id": userID})
}

func (s *mongoUserStore) SetStatus(ctx context.Context, userID, status string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"user_id": userID},
		bson.M{"$set": bson.M{
			"status":          status,
			"last_connection": at,
			"update_time":     at,
		}},
	)
	return errs.Wrap(err)
}

// ---- messages ----

type mongoMessageStore struct{ coll *mongo.Collection }

func (s *mongoMessageStore) Insert(ctx context.Context, msg *model.Message) error {
	_, err := s.coll.InsertOne(ctx, msg)
	return errs.Wrap(err)
}

func (s *mongoMessageStore) Find(ctx context.Context, msgID string) (*model.Message, error) {
	return findOne[model.Message](ctx, s.coll, bson.M{"msg_id": msgID})
}

func (s *mongoMessageStore) SetStatus(ctx context.Context, msgID, status string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"msg_id": msgID},
		bson.M{"$set": bson.M{"status": status, "update_time": time.Now()}},
	)
	return errs.Wrap(err)
}

func (s *mongoMessageStore) SetReactions(ctx context.Context, msgID string, reactions []model.Reaction) error {
	if reactions == nil {
		reactions = []model.Reaction{}
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"msg_id": msgID},
		bson.M{"$set": bson.M{"reactions": reactions, "update_time": time.Now()}},
	)
	return errs.Wrap(err)
}

func (s *mongoMessageStore) SetEdited(ctx context.Context, msgID, content string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"msg_id": msgID},
		bson.M{"$set": bson.M{
			"content":     content,
			"edited":      true,
			"edited_at":   at,
			"update_time": at,
		}},
	)
	return errs.Wrap(err)
}

func (s *mongoMessageStore) SetDeleted(ctx context.Context, msgID string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"msg_id": msgID},
		bson.M{"$set": bson.M{
			"deleted":     true,
			"deleted_at":  at,
			"update_time": at,
		}},
	)
	return errs.Wrap(err)
}

// ---- conversations ----

type mongoConversationStore struct{ coll *mongo.Collection }

func (s *mongoConversationStore) FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	pair := model.ParticipantPair(userA, userB)
	filter := bson.M{"participants": bson.M{"$all": pair, "$size": 2}}

	conv, err := findOne[model.Conversation](ctx, s.coll, filter)
	if err == nil {
		return conv, nil
	}
	if !errs.ErrRecordNotFound.Is(err) {
		return nil, err
	}

	now := time.Now()
	fresh := &model.Conversation{
		ConvID:       newID(),
		Participants: pair,
		UnreadCount:  map[string]int{userA: 0, userB: 0},
		CreateTime:   now,
		UpdateTime:   now,
	}
	if _, err := s.coll.InsertOne(ctx, fresh); err != nil {
		return nil, errs.Wrap(err)
	}
	return fresh, nil
}

func (s *mongoConversationStore) SetLastMessage(ctx context.Context, convID, msgID, unreadFor string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"conv_id": convID},
		bson.M{
			"$set": bson.M{"last_message_id": msgID, "update_time": time.Now()},
			"$inc": bson.M{"unread_count." + unreadFor: 1},
		},
	)
	return errs.Wrap(err)
}

func (s *mongoConversationStore) DecrementUnread(ctx context.Context, convID, userID string) error {
	// $inc cannot floor at zero, so read-modify-write.
	conv, err := findOne[model.Conversation](ctx, s.coll, bson.M{"conv_id": convID})
	if err != nil {
		return err
	}
	n := conv.UnreadCount[userID] - 1
	if n < 0 {
		n = 0
	}
	_, err = s.coll.UpdateOne(ctx,
		bson.M{"conv_id": convID},
		bson.M{"$set": bson.M{"unread_count." + userID: n, "update_time": time.Now()}},
	)
	return errs.Wrap(err)
}

// ---- groups ----

type mongoGroupStore struct{ coll *mongo.Collection }

func (s *mongoGroupStore) Find(ctx context.Context, groupID string) (*model.Group, error) {
	return findOne[model.Group](ctx, s.coll, bson.M{"group_id": groupID})
}

func (s *mongoGroupStore) SetLastMessage(ctx context.Context, groupID, msgID string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"group_id": groupID},
		bson.M{"$set": bson.M{"last_message_id": msgID, "update_time": time.Now()}},
	)
	return errs.Wrap(err)
}

// ---- notifications ----

type mongoNotificationStore struct{ coll *mongo.Collection }

func (s *mongoNotificationStore) Insert(ctx context.Context, n *model.Notification) error {
	_, err := s.coll.InsertOne(ctx, n)
	return errs.Wrap(err)
}

// ---- sessions ----

type mongoSessionStore struct{ coll *mongo.Collection }

func (s *mongoSessionStore) Insert(ctx context.Context, sess *model.UserSession) error {
	_, err := s.coll.InsertOne(ctx, sess)
	return errs.Wrap(err)
}

func (s *mongoSessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error) {
	return findOne[model.UserSession](ctx, s.coll, bson.M{"access_token_hash": tokenHash, "is_valid": true})
}

func (s *mongoSessionStore) Invalidate(ctx context.Context, sessionID, status, reason string, at time.Time) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{
			"is_valid":    false,
			"status":      status,
			"reason":      reason,
			"logout_time": at,
			"update_time": at,
		}},
	)
	return errs.Wrap(err)
}
