package gateway

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ChatWave/module/chat/model"
	"ChatWave/module/chat/store"
	"ChatWave/tools/errs"
	"ChatWave/tools/retry"

	"github.com/stretchr/testify/require"
)

// In-memory stores so handler tests run without mongo. Everything is
// mutex-guarded because handlers run on the reader goroutine while tests
// poke at state from their own.

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *memUsers) Find(_ context.Context, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) SetStatus(_ context.Context, userID, status string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		u.Status = status
		u.LastConnection = &at
	}
	return nil
}

type memMessages struct {
	mu   sync.Mutex
	msgs map[string]*model.Message

	insertErrs int // first N inserts fail, for retry tests
	inserts    int
}

func (m *memMessages) Insert(_ context.Context, msg *model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErrs > 0 {
		m.insertErrs--
		return errs.ErrInternalServer.WrapMsg("simulated write failure")
	}
	cp := *msg
	m.msgs[msg.MsgID] = &cp
	return nil
}

func (m *memMessages) Find(_ context.Context, msgID string) (*model.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.msgs[msgID]
	if !ok {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	cp := *msg
	cp.Reactions = append([]model.Reaction(nil), msg.Reactions...)
	return &cp, nil
}

func (m *memMessages) SetStatus(_ context.Context, msgID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.msgs[msgID]; ok {
		msg.Status = status
	}
	return nil
}

func (m *memMessages) SetReactions(_ context.Context, msgID string, reactions []model.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.msgs[msgID]; ok {
		msg.Reactions = append([]model.Reaction(nil), reactions...)
	}
	return nil
}

func (m *memMessages) SetEdited(_ context.Context, msgID, content string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.msgs[msgID]; ok {
		msg.Content = content
		msg.Edited = true
		msg.EditedAt = &at
	}
	return nil
}

func (m *memMessages) SetDeleted(_ context.Context, msgID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.msgs[msgID]; ok {
		msg.Deleted = true
		msg.DeletedAt = &at
	}
	return nil
}

func (m *memMessages) get(msgID string) *model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msgs[msgID]
}

type memConversations struct {
	mu    sync.Mutex
	convs map[string]*model.Conversation
	seq   int
}

func (m *memConversations) FindOrCreate(_ context.Context, userA, userB string) (*model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair := model.ParticipantPair(userA, userB)
	key := pair[0] + "|" + pair[1]
	if c, ok := m.convs[key]; ok {
		cp := *c
		return &cp, nil
	}
	m.seq++
	c := &model.Conversation{
		ConvID:       key,
		Participants: pair,
		UnreadCount:  map[string]int{pair[0]: 0, pair[1]: 0},
		CreateTime:   time.Now(),
	}
	m.convs[key] = c
	cp := *c
	return &cp, nil
}

func (m *memConversations) SetLastMessage(_ context.Context, convID, msgID, unreadFor string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[convID]
	if !ok {
		return errs.ErrRecordNotFound.Wrap()
	}
	c.LastMessageID = msgID
	c.UnreadCount[unreadFor]++
	return nil
}

func (m *memConversations) DecrementUnread(_ context.Context, convID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.convs[convID]
	if !ok {
		return errs.ErrRecordNotFound.Wrap()
	}
	if c.UnreadCount[userID] > 0 {
		c.UnreadCount[userID]--
	}
	return nil
}

func (m *memConversations) unread(convID, userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.convs[convID]; ok {
		return c.UnreadCount[userID]
	}
	return 0
}

type memGroups struct {
	mu     sync.Mutex
	groups map[string]*model.Group
}

func (m *memGroups) Find(_ context.Context, groupID string) (*model.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[groupID]
	if !ok {
		return nil, errs.ErrRecordNotFound.Wrap()
	}
	cp := *g
	cp.Members = append([]model.GroupMember(nil), g.Members...)
	return &cp, nil
}

func (m *memGroups) SetLastMessage(_ context.Context, groupID, msgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[groupID]; ok {
		g.LastMessageID = msgID
	}
	return nil
}

type memNotifications struct {
	mu    sync.Mutex
	items []*model.Notification
}

func (m *memNotifications) Insert(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memNotifications) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *memNotifications) last() *model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil
	}
	return m.items[len(m.items)-1]
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]*model.UserSession // session id -> record
}

func (m *memSessions) Insert(_ context.Context, s *model.UserSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.SessionID] = &cp
	return nil
}

func (m *memSessions) FindByTokenHash(_ context.Context, tokenHash string) (*model.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.AccessTokenHash == tokenHash && s.IsValid {
			cp := *s
			return &cp, nil
		}
	}
	return nil, errs.ErrRecordNotFound.Wrap()
}

func (m *memSessions) Invalidate(_ context.Context, sessionID, status, reason string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return errs.ErrRecordNotFound.Wrap()
	}
	s.IsValid = false
	s.Status = status
	s.Reason = reason
	s.LogoutTime = &at
	return nil
}

// fixture wires a server against the in-memory stores with timings tuned
// for tests.
type fixture struct {
	srv      *Server
	users    *memUsers
	messages *memMessages
	convs    *memConversations
	groups   *memGroups
	notifs   *memNotifications
	sessions *memSessions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		users:    &memUsers{users: make(map[string]*model.User)},
		messages: &memMessages{msgs: make(map[string]*model.Message)},
		convs:    &memConversations{convs: make(map[string]*model.Conversation)},
		groups:   &memGroups{groups: make(map[string]*model.Group)},
		notifs:   &memNotifications{},
		sessions: &memSessions{sessions: make(map[string]*model.UserSession)},
	}
	f.srv = NewServer("gw-test", Options{
		Typing: TypingConf{Expiry: 30 * time.Millisecond},
		Retry:  retry.Conf{Attempts: 3, BaseDelay: time.Millisecond},
	}, store.Stores{
		Users:         f.users,
		Messages:      f.messages,
		Conversations: f.convs,
		Groups:        f.groups,
		Notifications: f.notifs,
		Sessions:      f.sessions,
	})
	return f
}

func (f *fixture) addUser(t *testing.T, id, name string, blocked ...string) *model.User {
	t.Helper()
	u := &model.User{
		UserID:       id,
		Username:     name,
		Email:        id + "@example.com",
		Status:       model.UserStatusOffline,
		BlockedUsers: blocked,
	}
	f.users.mu.Lock()
	f.users.users[id] = u
	f.users.mu.Unlock()
	return u
}

// connect registers a connection without a real websocket; outbound frames
// land in the client's send queue where tests read them back.
func (f *fixture) connect(t *testing.T, u *model.User) *Client {
	t.Helper()
	c := NewClient("conn-"+u.UserID+"-"+time.Now().Format("150405.000000"), u, "tok-"+u.UserID, nil, 64)
	f.srv.reg.Register(c)
	return c
}

func (f *fixture) addGroup(t *testing.T, id string, adminsOnly bool, memberIDs ...string) *model.Group {
	t.Helper()
	g := &model.Group{
		GroupID:   id,
		Name:      "g-" + id,
		CreatorID: memberIDs[0],
		IsActive:  true,
		Settings:  model.GroupSettings{OnlyAdminsCanPost: adminsOnly},
	}
	for i, m := range memberIDs {
		role := model.RoleMember
		if i == 0 {
			role = model.RoleCreator
		}
		g.Members = append(g.Members, model.GroupMember{UserID: m, Role: role, JoinedAt: time.Now()})
	}
	f.groups.mu.Lock()
	f.groups.groups[id] = g
	f.groups.mu.Unlock()
	return g
}

func (f *fixture) call(t *testing.T, c *Client, event string, data map[string]any) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return f.srv.disp.Dispatch(ctx, c, &Frame{Event: event, Data: data})
}

// takeFrame pops the next queued outbound frame, failing the test if none
// arrives in time.
func takeFrame(t *testing.T, c *Client) *Frame {
	t.Helper()
	select {
	case payload := <-c.send:
		f := &Frame{}
		require.NoError(t, json.Unmarshal(payload, f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame queued for conn=%s", c.ConnID)
		return nil
	}
}

// noFrame asserts the queue stays empty long enough for stray emissions to
// have shown up.
func noFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected frame for conn=%s: %s", c.ConnID, payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func dataString(t *testing.T, f *Frame, key string) string {
	t.Helper()
	v, ok := f.Data[key].(string)
	require.True(t, ok, "field %q missing or not a string in %v", key, f.Data)
	return v
}
