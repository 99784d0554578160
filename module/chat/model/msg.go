package model

import "time"

const MsgTableName = "messages"

const (
	MsgStatusPending   = "pending"
	MsgStatusSent      = "sent"
	MsgStatusDelivered = "delivered"
	MsgStatusRead      = "read"
)

const (
	MsgTypeText     = "text"
	MsgTypeImage    = "image"
	MsgTypeVideo    = "video"
	MsgTypeAudio    = "audio"
	MsgTypeDocument = "document"
	MsgTypeSystem   = "system"
)

const (
	MaxContentLen = 5000
	MaxEmojiLen   = 10
)

// Reaction is embedded in a message; at most one per user.
type Reaction struct {
	UserID    string    `bson:"user_id" json:"user_id"`
	Emoji     string    `bson:"emoji" json:"emoji"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Message covers both direct (RecipientID set) and group (GroupID set)
// messages; exactly one of the two is non-empty.
type Message struct {
	MsgID       string `bson:"msg_id" json:"msg_id"`
	SenderID    string `bson:"sender_id" json:"sender_id"`
	RecipientID string `bson:"recipient_id,omitempty" json:"recipient_id,omitempty"`
	GroupID     string `bson:"group_id,omitempty" json:"group_id,omitempty"`

	Type     string `bson:"type" json:"type"`
	Content  string `bson:"content,omitempty" json:"content,omitempty"`
	MediaURL string `bson:"media_url,omitempty" json:"media_url,omitempty"`
	ReplyTo  string `bson:"reply_to,omitempty" json:"reply_to,omitempty"`

	Reactions []Reaction `bson:"reactions,omitempty" json:"reactions,omitempty"`
	Status    string     `bson:"status" json:"status"`

	// Denormalized sender snapshot so emissions don't re-fetch the user.
	SenderName   string `bson:"sender_name,omitempty" json:"sender_name,omitempty"`
	SenderAvatar string `bson:"sender_avatar,omitempty" json:"sender_avatar,omitempty"`

	Edited   bool       `bson:"edited" json:"edited"`
	EditedAt *time.Time `bson:"edited_at,omitempty" json:"edited_at,omitempty"`

	// Soft delete: the flag is set, the content stays.
	Deleted   bool       `bson:"deleted" json:"deleted"`
	DeletedAt *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

func (*Message) TableName() string { return MsgTableName }

func (m *Message) IsDirect() bool { return m.RecipientID != "" }

// ReactionBy returns the caller's reaction, if any.
func (m *Message) ReactionBy(userID string) (Reaction, bool) {
	for _, r := range m.Reactions {
		if r.UserID == userID {
			return r, true
		}
	}
	return Reaction{}, false
}

// OtherParticipant returns the direct-message peer of the given user.
func (m *Message) OtherParticipant(userID string) string {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}
