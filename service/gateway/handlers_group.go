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

// handleSendGroupMessage: membership and posting permission gate the write;
// fan-out walks the member list rather than the room, so members who never
// joined the room still get the message on their live connection.
func (s *Server) handleSendGroupMessage(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[SendGroupMessagePayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode send-group-message")
	}
	if p.GroupID == "" {
		return errs.Validation("Group ID is required").Wrap()
	}
	if p.Content == "" && p.MediaURL == "" {
		return errs.Validation("Content or media is required").Wrap()
	}
	if len(p.Content) > model.MaxContentLen {
		return errs.Validation("Message too long").Wrap()
	}

	grp, err := s.stores.Groups.Find(ctx, p.GroupID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Group not found").Wrap()
		}
		return err
	}
	if !grp.IsActive {
		return errs.NotFound("Group not found").Wrap()
	}
	if !grp.IsMember(c.UserID) {
		return errs.Forbidden("Not a member of this group").Wrap()
	}
	if !grp.CanPost(c.UserID) {
		return errs.Forbidden("Not authorized to post in this group").Wrap()
	}

	msgType := p.Type
	if msgType == "" {
		msgType = model.MsgTypeText
	}
	now := time.Now()
	msg := &model.Message{
		MsgID:        ids.GenerateString(),
		SenderID:     c.UserID,
		GroupID:      p.GroupID,
		Type:         msgType,
		Content:      p.Content,
		MediaURL:     p.MediaURL,
		ReplyTo:      p.ReplyTo,
		Status:       model.MsgStatusSent,
		SenderName:   c.Username,
		SenderAvatar: c.Avatar,
		CreateTime:   now,
		UpdateTime:   now,
	}

	if err := retry.Do(ctx, s.opts.Retry, func() error {
		return s.stores.Messages.Insert(ctx, msg)
	}); err != nil {
		return err
	}
	if err := retry.Do(ctx, s.opts.Retry, func() error {
		return s.stores.Groups.SetLastMessage(ctx, p.GroupID, msg.MsgID)
	}); err != nil {
		return err
	}

	s.emit(c, EvtMessageSent, msg)

	payload := map[string]any{
		"group_id": p.GroupID,
		"message":  msg,
	}
	for _, m := range grp.Members {
		if m.UserID == c.UserID {
			continue
		}
		if mc, ok := s.reg.Resolve(m.UserID); ok {
			s.emit(mc, EvtNewGroupMessage, payload)
		}
	}
	return nil
}

// handleJoinGroupRoom: room membership only scopes edit/delete/reaction
// broadcasts; non-members are silently ignored rather than erroring so a
// stale client list cannot spam the error channel.
func (s *Server) handleJoinGroupRoom(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[GroupRoomPayload](data)
	if err != nil || p.GroupID == "" {
		return nil
	}

	grp, err := s.stores.Groups.Find(ctx, p.GroupID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return nil
		}
		return err
	}
	if grp.IsMember(c.UserID) {
		s.rooms.Join(GroupRoom(p.GroupID), c)
	}
	return nil
}

func (s *Server) handleLeaveGroupRoom(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[GroupRoomPayload](data)
	if err != nil || p.GroupID == "" {
		return nil
	}

	s.rooms.Leave(GroupRoom(p.GroupID), c)
	return nil
}
