package gateway

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"ChatWave/logger"
	"ChatWave/module/chat/model"
	"ChatWave/module/chat/store"
	online "ChatWave/service/storage"
	"ChatWave/tools/errs"
	"ChatWave/tools/ids"
	"ChatWave/tools/retry"
	"ChatWave/tools/safe"
	"ChatWave/tools/security"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const handlerTimeout = 30 * time.Second

type Options struct {
	JWT         security.Options
	Typing      TypingConf
	Retry       retry.Conf
	SendQueue   int
	PresenceTTL time.Duration
}

func (o *Options) norm() {
	if o.SendQueue <= 0 {
		o.SendQueue = 256
	}
	if o.PresenceTTL <= 0 {
		o.PresenceTTL = 90 * time.Second
	}
}

// Server is the gateway composition root: it owns the presence registry, the
// typing coordinator and the rooms, and routes inbound events to handlers.
type Server struct {
	gwID   string
	opts   Options
	reg    *Registry
	typing *TypingCoordinator
	rooms  *Rooms
	stores store.Stores
	disp   *Dispatcher

	// presence mirror is best-effort; disabled when redis is not initialized
	mirror bool
}

func NewServer(gwID string, opts Options, stores store.Stores) *Server {
	opts.norm()
	s := &Server{
		gwID:   gwID,
		opts:   opts,
		reg:    NewRegistry(),
		typing: NewTypingCoordinator(opts.Typing),
		rooms:  NewRooms(),
		stores: stores,
		disp:   NewDispatcher(),
	}
	s.registerHandlers()
	return s
}

// EnablePresenceMirror turns on the Redis presence keys.
func (s *Server) EnablePresenceMirror() { s.mirror = true }

func (s *Server) Registry() *Registry        { return s.reg }
func (s *Server) Typing() *TypingCoordinator { return s.typing }

func (s *Server) registerHandlers() {
	s.disp.Register(EvtSendMessage, s.handleSendMessage)
	s.disp.Register(EvtSendGroupMessage, s.handleSendGroupMessage)
	s.disp.Register(EvtMessageRead, s.handleMessageRead)
	s.disp.Register(EvtTyping, s.handleTyping)
	s.disp.Register(EvtStopTyping, s.handleStopTyping)
	s.disp.Register(EvtGetUserStatus, s.handleGetUserStatus)
	s.disp.Register(EvtJoinGroupRoom, s.handleJoinGroupRoom)
	s.disp.Register(EvtLeaveGroupRoom, s.handleLeaveGroupRoom)
	s.disp.Register(EvtAddReaction, s.handleAddReaction)
	s.disp.Register(EvtRemoveReaction, s.handleRemoveReaction)
	s.disp.Register(EvtEditMessage, s.handleEditMessage)
	s.disp.Register(EvtDeleteMessage, s.handleDeleteMessage)
}

// HandleWS authenticates the handshake, admits the connection and runs its
// read loop until disconnect. Authentication happens before the upgrade: a
// bad credential fails the handshake itself, no event is emitted.
func (s *Server) HandleWS(c *gin.Context) {
	user, token, err := s.authenticate(c.Request)
	if err != nil {
		logger.Warnf("[WS] handshake rejected: %v", err)
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[WS] upgrade error: %v", err)
		return
	}

	client := NewClient(ids.GenerateString(), user, token, ws, s.opts.SendQueue)
	safe.SafeGo(client.writePump)

	s.admit(client)
	s.readLoop(client)
	s.disconnect(client)
}

// authenticate resolves the handshake credential to an active user. Every
// failure collapses to the same generic error so the client cannot tell a
// bad token from a deleted user.
func (s *Server) authenticate(r *http.Request) (*model.User, string, error) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
	}
	if token == "" {
		return nil, "", errs.ErrTokenInvalid.WrapMsg("missing token")
	}

	claims, err := security.Verify(s.opts.JWT, token)
	if err != nil {
		return nil, "", errs.ErrTokenInvalid.WrapMsg("verify", "err", err)
	}
	userID := claims.Subject()
	if userID == "" {
		return nil, "", errs.ErrTokenInvalid.WrapMsg("empty subject")
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := s.stores.Users.Find(ctx, userID)
	if err != nil {
		return nil, "", errs.ErrTokenInvalid.WrapMsg("resolve user", "user", userID)
	}
	return user, token, nil
}

// admit registers the connection and broadcasts presence-online.
func (s *Server) admit(c *Client) {
	s.reg.Register(c)
	logger.Infof("[WS] connected user=%s conn=%s", c.UserID, c.ConnID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now()
	if err := s.stores.Users.SetStatus(ctx, c.UserID, model.UserStatusOnline, now); err != nil {
		logger.Errorf("[WS] mark online failed user=%s err=%v", c.UserID, err)
	}
	if s.mirror {
		if err := online.PresenceOnline(ctx, c.UserID, s.gwID, s.opts.PresenceTTL); err != nil {
			logger.Warnf("[WS] presence mirror online failed user=%s err=%v", c.UserID, err)
		}
	}

	s.broadcastAll(EvtUserOnline, map[string]any{
		"userId": c.UserID,
		"status": model.UserStatusOnline,
	})
}

func (s *Server) readLoop(c *Client) {
	for {
		mt, data, rerr := c.ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", c.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", c.ConnID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", c.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] parse frame err conn=%s err=%v sample=%q", c.ConnID, perr, sample)
			continue
		}

		if !s.disp.Has(frame.Event) {
			logger.Infof("[WS] no handler for event=%s conn=%s", frame.Event, c.ConnID)
			continue
		}
		s.dispatch(c, frame)
	}
}

// dispatch runs one handler to completion. No error escapes: anything thrown
// becomes an error event on the acting connection.
func (s *Server) dispatch(c *Client, f *Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err := errs.ErrPanic(r)
			logger.Errorf("[gateway] panic in %s user=%s err=%v", f.Event, c.UserID, err)
			s.emit(c, EvtError, errorPayload(f.Event, err))
		}
	}()

	if err := s.disp.Dispatch(ctx, c, f); err != nil {
		logger.Warnf("[gateway] %s failed user=%s err=%v", f.Event, c.UserID, err)
		s.emit(c, EvtError, errorPayload(f.Event, err))
	}
}

// disconnect tears the connection down: registry, typing timers, rooms,
// durable offline state, presence-offline broadcast. Durable/broadcast steps
// run only when this connection was still the registered one, so a client
// superseded by a newer connection does not flap the user offline.
func (s *Server) disconnect(c *Client) {
	current := s.reg.Unregister(c)
	s.typing.ClearSender(c.UserID)
	s.rooms.LeaveAll(c)
	c.Close()

	if !current {
		logger.Infof("[WS] superseded conn closed user=%s conn=%s", c.UserID, c.ConnID)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	now := time.Now()
	if err := s.stores.Users.SetStatus(ctx, c.UserID, model.UserStatusOffline, now); err != nil {
		logger.Errorf("[WS] mark offline failed user=%s err=%v", c.UserID, err)
	}
	if s.mirror {
		if err := online.PresenceOffline(ctx, c.UserID, now); err != nil {
			logger.Warnf("[WS] presence mirror offline failed user=%s err=%v", c.UserID, err)
		}
	}

	s.broadcastAll(EvtUserOffline, map[string]any{
		"userId":         c.UserID,
		"status":         model.UserStatusOffline,
		"lastConnection": now,
	})
	logger.Infof("[WS] disconnected user=%s conn=%s", c.UserID, c.ConnID)
}

// ---- emission helpers ----

func (s *Server) emit(c *Client, event string, data any) {
	payload, err := BuildFrame(event, data)
	if err != nil {
		logger.Errorf("[gateway] marshal %s failed: %v", event, err)
		return
	}
	if !c.Enqueue(payload) {
		logger.Warnf("[gateway] send queue full, drop %s conn=%s user=%s", event, c.ConnID, c.UserID)
	}
}

// emitTo resolves the user's current connection at call time; a missing
// entry is a no-op, not an error.
func (s *Server) emitTo(userID, event string, data any) bool {
	c, ok := s.reg.Resolve(userID)
	if !ok {
		return false
	}
	s.emit(c, event, data)
	return true
}

func (s *Server) broadcastAll(event string, data any) {
	payload, err := BuildFrame(event, data)
	if err != nil {
		logger.Errorf("[gateway] marshal %s failed: %v", event, err)
		return
	}
	for _, c := range s.reg.All() {
		if !c.Enqueue(payload) {
			logger.Warnf("[gateway] send queue full, drop %s conn=%s", event, c.ConnID)
		}
	}
}

// broadcastRoom fans out to every room member except the actor, who already
// received a synchronous ack.
func (s *Server) broadcastRoom(room string, actor *Client, event string, data any) {
	for _, m := range s.rooms.Members(room) {
		if actor != nil && m.ConnID == actor.ConnID {
			continue
		}
		s.emit(m, event, data)
	}
}

// fanOutMessageEvent routes a message-scoped event (reaction, edit, delete):
// direct messages go only to the other participant, group messages to the
// group's room.
func (s *Server) fanOutMessageEvent(msg *model.Message, actor *Client, event string, data any) {
	if msg.IsDirect() {
		s.emitTo(msg.OtherParticipant(actor.UserID), event, data)
		return
	}
	if msg.GroupID != "" {
		s.broadcastRoom(GroupRoom(msg.GroupID), actor, event, data)
	}
}
