package gateway

import (
	"encoding/json"
	"fmt"

	"ChatWave/tools/errs"
)

// Client -> server events.
const (
	EvtSendMessage      = "send-message"
	EvtSendGroupMessage = "send-group-message"
	EvtMessageRead      = "message-read"
	EvtTyping           = "typing"
	EvtStopTyping       = "stop-typing"
	EvtGetUserStatus    = "get-user-status"
	EvtJoinGroupRoom    = "join-group-room"
	EvtLeaveGroupRoom   = "leave-group-room"
	EvtAddReaction      = "add-reaction"
	EvtRemoveReaction   = "remove-reaction"
	EvtEditMessage      = "edit-message"
	EvtDeleteMessage    = "delete-message"
)

// Server -> client events.
const (
	EvtMessageSent      = "message-sent"
	EvtNewMessage       = "new-message"
	EvtNotification     = "notification"
	EvtReadConfirmation = "message-read-confirmation"
	EvtUserTyping       = "user-typing"
	EvtUserStopTyping   = "user-stop-typing"
	EvtUserStatus       = "user-status"
	EvtNewGroupMessage  = "new-group-message"
	EvtReactionAdded    = "reaction-added"
	EvtReactionRemoved  = "reaction-removed"
	EvtMessageEdited    = "message-edited"
	EvtMessageDeleted   = "message-deleted"
	EvtUserOnline       = "user-online"
	EvtUserOffline      = "user-offline"
	EvtSessionRevoked   = "session-revoked"
	EvtError            = "error"
)

// Frame is the wire envelope: an event name plus a JSON object payload.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	f := &Frame{}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if f.Event == "" {
		return nil, errs.New("frame event is empty")
	}
	return f, nil
}

func BuildFrame(event string, data any) ([]byte, error) {
	return json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: data})
}

// ---- inbound payloads ----

type SendMessagePayload struct {
	RecipientID string `json:"recipient_id"`
	Content     string `json:"content"`
	Type        string `json:"type"`
	MediaURL    string `json:"mediaUrl"`
}

type SendGroupMessagePayload struct {
	GroupID  string `json:"group_id"`
	Content  string `json:"content"`
	Type     string `json:"type"`
	MediaURL string `json:"mediaUrl"`
	ReplyTo  string `json:"replyTo"`
}

type MessageReadPayload struct {
	MessageID string `json:"message_id"`
}

type TypingPayload struct {
	RecipientID string `json:"recipient_id"`
}

type UserStatusPayload struct {
	UserID string `json:"user_id"`
}

type GroupRoomPayload struct {
	GroupID string `json:"group_id"`
}

type ReactionPayload struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

type EditMessagePayload struct {
	MessageID string `json:"message_id"`
	Content   string `json:"content"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"message_id"`
}
