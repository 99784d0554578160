package model

import (
	"sort"
	"time"
)

const ConversationTableName = "conversations"

// Conversation is the durable 1:1 thread between two users. Participants are
// stored sorted so the unordered pair maps to a single document.
type Conversation struct {
	ConvID        string         `bson:"conv_id" json:"conv_id"`
	Participants  []string       `bson:"participants" json:"participants"`
	LastMessageID string         `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	UnreadCount   map[string]int `bson:"unread_count" json:"unread_count"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

func (*Conversation) TableName() string { return ConversationTableName }

// ParticipantPair returns the two user ids in canonical (sorted) order.
func ParticipantPair(a, b string) []string {
	p := []string{a, b}
	sort.Strings(p)
	return p
}
