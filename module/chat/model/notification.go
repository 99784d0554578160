package model

import "time"

const NotificationTableName = "notifications"

const (
	NotifyTypeMessage     = "message"
	NotifyTypeMessageRead = "message_read"
)

// Content carries at most the first 100 chars of the originating message.
const NotifyContentPreviewLen = 100

type Notification struct {
	NotificationID string `bson:"notification_id" json:"notification_id"`
	RecipientID    string `bson:"recipient_id" json:"recipient_id"`
	SenderID       string `bson:"sender_id" json:"sender_id"`
	Type           string `bson:"type" json:"type"`
	MessageID      string `bson:"message_id,omitempty" json:"message_id,omitempty"`
	Content        string `bson:"content,omitempty" json:"content,omitempty"`
	IsRead         bool   `bson:"is_read" json:"is_read"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
}

func (*Notification) TableName() string { return NotificationTableName }

// Preview truncates message content for notification payloads.
func Preview(content string) string {
	if len(content) > NotifyContentPreviewLen {
		return content[:NotifyContentPreviewLen]
	}
	return content
}
