package gateway

import (
	"context"
	"time"

	"ChatWave/module/chat/model"
	"ChatWave/tools/decode"
	"ChatWave/tools/errs"
	"ChatWave/tools/ids"
	"ChatWave/tools/retry"
)

// handleSendMessage: validate, check blocking both directions, persist the
// message + conversation through the retry wrapper, then ack the sender and
// fan out to the recipient's live connection if there is one.
func (s *Server) handleSendMessage(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[SendMessagePayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode send-message")
	}
	if p.RecipientID == "" {
		return errs.Validation("Recipient is required").Wrap()
	}
	if p.Content == "" && p.MediaURL == "" {
		return errs.Validation("Content or media is required").Wrap()
	}
	if len(p.Content) > model.MaxContentLen {
		return errs.Validation("Message too long").Wrap()
	}

	recipient, err := s.stores.Users.Find(ctx, p.RecipientID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Recipient not found").Wrap()
		}
		return err
	}
	if recipient.HasBlocked(c.UserID) {
		return errs.Forbidden("Cannot send message to this user").Wrap()
	}
	sender, err := s.stores.Users.Find(ctx, c.UserID)
	if err != nil {
		return err
	}
	if sender.HasBlocked(p.RecipientID) {
		return errs.Forbidden("Cannot send message to this user").Wrap()
	}

	msgType := p.Type
	if msgType == "" {
		msgType = model.MsgTypeText
	}
	now := time.Now()
	msg := &model.Message{
		MsgID:        ids.GenerateString(),
		SenderID:     c.UserID,
		RecipientID:  p.RecipientID,
		Type:         msgType,
		Content:      p.Content,
		MediaURL:     p.MediaURL,
		Status:       model.MsgStatusSent,
		SenderName:   sender.Username,
		SenderAvatar: sender.Avatar,
		CreateTime:   now,
		UpdateTime:   now,
	}

	if err := retry.Do(ctx, s.opts.Retry, func() error {
		return s.stores.Messages.Insert(ctx, msg)
	}); err != nil {
		return err
	}

	var conv *model.Conversation
	if err := retry.Do(ctx, s.opts.Retry, func() error {
		var ferr error
		conv, ferr = s.stores.Conversations.FindOrCreate(ctx, c.UserID, p.RecipientID)
		return ferr
	}); err != nil {
		return err
	}
	if err := retry.Do(ctx, s.opts.Retry, func() error {
		return s.stores.Conversations.SetLastMessage(ctx, conv.ConvID, msg.MsgID, p.RecipientID)
	}); err != nil {
		return err
	}

	notif := &model.Notification{
		NotificationID: ids.GenerateString(),
		RecipientID:    p.RecipientID,
		SenderID:       c.UserID,
		Type:           model.NotifyTypeMessage,
		MessageID:      msg.MsgID,
		Content:        model.Preview(p.Content),
		CreateTime:     now,
	}
	if err := s.stores.Notifications.Insert(ctx, notif); err != nil {
		return err
	}

	s.emit(c, EvtMessageSent, msg)

	if rc, ok := s.reg.Resolve(p.RecipientID); ok {
		s.emit(rc, EvtNewMessage, msg)
		s.emit(rc, EvtNotification, map[string]any{
			"type":            model.NotifyTypeMessage,
			"message":         msg,
			"notification_id": notif.NotificationID,
		})
	}
	return nil
}

// handleMessageRead: only the recipient may mark a message read, the status
// transition is idempotent, and the unread counter never goes below zero.
func (s *Server) handleMessageRead(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[MessageReadPayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode message-read")
	}

	msg, err := s.stores.Messages.Find(ctx, p.MessageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Message not found").Wrap()
		}
		return err
	}
	if msg.RecipientID != c.UserID {
		return errs.Forbidden("Not authorized").Wrap()
	}
	if msg.Status == model.MsgStatusRead {
		// already read; counter must not move again
		return nil
	}

	if err := s.stores.Messages.SetStatus(ctx, p.MessageID, model.MsgStatusRead); err != nil {
		return err
	}

	conv, err := s.stores.Conversations.FindOrCreate(ctx, msg.SenderID, msg.RecipientID)
	if err != nil {
		return err
	}
	if err := s.stores.Conversations.DecrementUnread(ctx, conv.ConvID, c.UserID); err != nil {
		return err
	}

	notif := &model.Notification{
		NotificationID: ids.GenerateString(),
		RecipientID:    msg.SenderID,
		SenderID:       c.UserID,
		Type:           model.NotifyTypeMessageRead,
		MessageID:      msg.MsgID,
		CreateTime:     time.Now(),
	}
	if err := s.stores.Notifications.Insert(ctx, notif); err != nil {
		return err
	}

	if sc, ok := s.reg.Resolve(msg.SenderID); ok {
		s.emit(sc, EvtReadConfirmation, map[string]any{
			"message_id": p.MessageID,
			"reader_id":  c.UserID,
		})
		s.emit(sc, EvtNotification, map[string]any{
			"type":            model.NotifyTypeMessageRead,
			"message_id":      p.MessageID,
			"reader_id":       c.UserID,
			"notification_id": notif.NotificationID,
		})
	}
	return nil
}

// handleTyping: best-effort UI hint, no durable state. The immediate signal
// goes out right away; the coordinator owns the auto-expiring stop signal.
func (s *Server) handleTyping(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[TypingPayload](data)
	if err != nil || p.RecipientID == "" {
		return nil
	}

	s.emitTo(p.RecipientID, EvtUserTyping, map[string]any{
		"userId":   c.UserID,
		"username": c.Username,
	})

	senderID, peerID := c.UserID, p.RecipientID
	s.typing.Start(senderID, peerID, func() {
		// resolve the peer at fire time; it may have disconnected
		s.emitTo(peerID, EvtUserStopTyping, map[string]any{"userId": senderID})
	})
	return nil
}

func (s *Server) handleStopTyping(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[TypingPayload](data)
	if err != nil || p.RecipientID == "" {
		return nil
	}

	s.typing.Stop(c.UserID, p.RecipientID)
	s.emitTo(p.RecipientID, EvtUserStopTyping, map[string]any{"userId": c.UserID})
	return nil
}

// handleGetUserStatus: read-only lookup, result goes only to the requester.
func (s *Server) handleGetUserStatus(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[UserStatusPayload](data)
	if err != nil || p.UserID == "" {
		return nil
	}

	u, err := s.stores.Users.Find(ctx, p.UserID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return nil
		}
		return err
	}

	s.emit(c, EvtUserStatus, map[string]any{
		"userId":         p.UserID,
		"status":         u.Status,
		"lastConnection": u.LastConnection,
	})
	return nil
}
