package gateway

import (
	"sync"
)

// GroupRoom names the broadcast room for a group.
func GroupRoom(groupID string) string { return "group:" + groupID }

// Rooms are server-side named broadcast sets used to scope group message
// events (edits, deletes, reactions). The primary group fan-out iterates the
// membership list instead; rooms only carry the room-scoped events.
type Rooms struct {
	mu    sync.RWMutex
	rooms map[string]map[string]*Client // room -> conn id -> client
}

func NewRooms() *Rooms {
	return &Rooms{rooms: make(map[string]map[string]*Client)}
}

func (r *Rooms) Join(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.rooms[room]
	if m == nil {
		m = make(map[string]*Client)
		r.rooms[room] = m
	}
	m[c.ConnID] = c
}

func (r *Rooms) Leave(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.rooms[room]; m != nil {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.rooms, room)
		}
	}
}

// LeaveAll removes the connection from every room, on disconnect.
func (r *Rooms) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room, m := range r.rooms {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Members snapshots the room's connections.
func (r *Rooms) Members(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Contains reports whether the connection joined the room.
func (r *Rooms) Contains(room string, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if m == nil {
		return false
	}
	_, ok := m[c.ConnID]
	return ok
}
