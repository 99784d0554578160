package store

import (
	"context"
	"time"

	"ChatWave/module/chat/model"
)

// The gateway only touches durable state through these interfaces; missing
// records come back as errs.ErrRecordNotFound so handlers can map them onto
// client-facing errors.

type UserStore interface {
	Find(ctx context.Context, userID string) (*model.User, error)
	SetStatus(ctx context.Context, userID, status string, at time.Time) error
}

type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) error
	Find(ctx context.Context, msgID string) (*model.Message, error)
	SetStatus(ctx context.Context, msgID, status string) error
	SetReactions(ctx context.Context, msgID string, reactions []model.Reaction) error
	SetEdited(ctx context.Context, msgID, content string, at time.Time) error
	SetDeleted(ctx context.Context, msgID string, at time.Time) error
}

type ConversationStore interface {
	// FindOrCreate resolves the conversation for the unordered user pair,
	// creating it with zeroed unread counters when absent.
	FindOrCreate(ctx context.Context, userA, userB string) (*model.Conversation, error)
	// SetLastMessage records the latest message and increments the unread
	// counter of unreadFor.
	SetLastMessage(ctx context.Context, convID, msgID, unreadFor string) error
	// DecrementUnread lowers the user's unread counter, floored at zero.
	DecrementUnread(ctx context.Context, convID, userID string) error
}

type GroupStore interface {
	Find(ctx context.Context, groupID string) (*model.Group, error)
	SetLastMessage(ctx context.Context, groupID, msgID string) error
}

type NotificationStore interface {
	Insert(ctx context.Context, n *model.Notification) error
}

type SessionStore interface {
	Insert(ctx context.Context, s *model.UserSession) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.UserSession, error)
	Invalidate(ctx context.Context, sessionID, status, reason string, at time.Time) error
}

// Stores bundles everything the gateway is composed with.
type Stores struct {
	Users         UserStore
	Messages      MessageStore
	Conversations ConversationStore
	Groups        GroupStore
	Notifications NotificationStore
	Sessions      SessionStore
}
