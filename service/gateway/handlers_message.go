package gateway

import (
	"context"
	"strings"
	"time"

	"ChatWave/module/chat/model"
	"ChatWave/tools/decode"
	"ChatWave/tools/errs"
)

// handleAddReaction enforces one reaction per user per message: reacting with
// the same emoji twice is a conflict, reacting with a different emoji
// replaces the old one and reports it as oldEmoji so clients can swap in
// place.
func (s *Server) handleAddReaction(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[ReactionPayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode add-reaction")
	}
	if p.MessageID == "" || p.Emoji == "" {
		return errs.Validation("Message ID and emoji are required").Wrap()
	}
	if len(p.Emoji) > model.MaxEmojiLen {
		return errs.Validation("Invalid data provided.").Wrap()
	}

	msg, err := s.stores.Messages.Find(ctx, p.MessageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Message not found").Wrap()
		}
		return err
	}

	var oldEmoji string
	if existing, ok := msg.ReactionBy(c.UserID); ok {
		if existing.Emoji == p.Emoji {
			return errs.Conflict("Already reacted with this emoji").Wrap()
		}
		oldEmoji = existing.Emoji
	}

	kept := make([]model.Reaction, 0, len(msg.Reactions)+1)
	for _, r := range msg.Reactions {
		if r.UserID != c.UserID {
			kept = append(kept, r)
		}
	}
	kept = append(kept, model.Reaction{
		UserID:    c.UserID,
		Emoji:     p.Emoji,
		CreatedAt: time.Now(),
	})
	if err := s.stores.Messages.SetReactions(ctx, p.MessageID, kept); err != nil {
		return err
	}

	payload := map[string]any{
		"message_id": p.MessageID,
		"user_id":    c.UserID,
		"username":   c.Username,
		"emoji":      p.Emoji,
	}
	if oldEmoji != "" {
		payload["oldEmoji"] = oldEmoji
	}

	s.emit(c, EvtReactionAdded, payload)
	s.fanOutMessageEvent(msg, c, EvtReactionAdded, payload)
	return nil
}

// handleRemoveReaction is idempotent; removing a reaction that is not there
// still acks and fans out so clients converge.
func (s *Server) handleRemoveReaction(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[ReactionPayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode remove-reaction")
	}
	if p.MessageID == "" {
		return errs.Validation("Message ID and emoji are required").Wrap()
	}

	msg, err := s.stores.Messages.Find(ctx, p.MessageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Message not found").Wrap()
		}
		return err
	}

	kept := make([]model.Reaction, 0, len(msg.Reactions))
	for _, r := range msg.Reactions {
		if r.UserID == c.UserID && (p.Emoji == "" || r.Emoji == p.Emoji) {
			continue
		}
		kept = append(kept, r)
	}
	if err := s.stores.Messages.SetReactions(ctx, p.MessageID, kept); err != nil {
		return err
	}

	payload := map[string]any{
		"message_id": p.MessageID,
		"user_id":    c.UserID,
		"emoji":      p.Emoji,
	}

	s.emit(c, EvtReactionRemoved, payload)
	s.fanOutMessageEvent(msg, c, EvtReactionRemoved, payload)
	return nil
}

// handleEditMessage: only the original sender may edit, and the edit marks
// the message so clients can render an "edited" badge.
func (s *Server) handleEditMessage(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[EditMessagePayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode edit-message")
	}
	if strings.TrimSpace(p.Content) == "" {
		return errs.Validation("Content is required").Wrap()
	}
	if len(p.Content) > model.MaxContentLen {
		return errs.Validation("Message too long").Wrap()
	}

	msg, err := s.stores.Messages.Find(ctx, p.MessageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Message not found").Wrap()
		}
		return err
	}
	if msg.SenderID != c.UserID {
		return errs.Forbidden("Not authorized").Wrap()
	}

	editedAt := time.Now()
	if err := s.stores.Messages.SetEdited(ctx, p.MessageID, p.Content, editedAt); err != nil {
		return err
	}

	payload := map[string]any{
		"message_id": p.MessageID,
		"content":    p.Content,
		"edited":     true,
		"editedAt":   editedAt,
	}

	s.emit(c, EvtMessageEdited, payload)
	s.fanOutMessageEvent(msg, c, EvtMessageEdited, payload)
	return nil
}

// handleDeleteMessage performs a soft delete; the record stays for audit and
// clients blank it out on the broadcast.
func (s *Server) handleDeleteMessage(ctx context.Context, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[DeleteMessagePayload](data)
	if err != nil {
		return errs.Validation("Invalid data provided.").WrapMsg("decode delete-message")
	}

	msg, err := s.stores.Messages.Find(ctx, p.MessageID)
	if err != nil {
		if errs.ErrRecordNotFound.Is(err) {
			return errs.NotFound("Message not found").Wrap()
		}
		return err
	}
	if msg.SenderID != c.UserID {
		return errs.Forbidden("Not authorized").Wrap()
	}

	if err := s.stores.Messages.SetDeleted(ctx, p.MessageID, time.Now()); err != nil {
		return err
	}

	payload := map[string]any{"message_id": p.MessageID}

	s.emit(c, EvtMessageDeleted, payload)
	s.fanOutMessageEvent(msg, c, EvtMessageDeleted, payload)
	return nil
}
