package gateway

import (
	"log/slog"
	"sync"
)

// room holds one room's live membership. Per-room locking keeps fan-out in
// busy rooms from contending with unrelated rooms.
type room struct {
	mu      sync.RWMutex
	members map[string]Conn // connection ID -> Conn
}

// Departure describes one room a dropped connection was removed from.
// LastOfIdentity is true when no other connection of the same identity
// remains in the room, which is the trigger for typing cleanup.
type Departure struct {
	RoomID         string
	LastOfIdentity bool
}

// Registry tracks which connections are members of which rooms. A connection
// appears at most once per room; join and leave are idempotent. A
// connection's own operations are serialized by its read loop; operations
// from different connections synchronize on the registry and room locks.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	conns  map[string]Conn            // all registered connections
	joined map[string]map[string]bool // connection ID -> set of room IDs
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*room),
		conns:  make(map[string]Conn),
		joined: make(map[string]map[string]bool),
	}
}

// Register adds an authenticated connection to the registry. The connection
// is not a member of any room until it joins one.
func (r *Registry) Register(conn Conn) {
	r.mu.Lock()
	r.conns[conn.ID()] = conn
	r.joined[conn.ID()] = make(map[string]bool)
	r.mu.Unlock()
}

// Join adds the connection to a room's member set. A second join of the same
// room is a no-op.
func (r *Registry) Join(conn Conn, roomID string) {
	r.mu.Lock()
	set, registered := r.joined[conn.ID()]
	if !registered {
		r.mu.Unlock()
		return
	}
	if set[roomID] {
		r.mu.Unlock()
		return
	}
	set[roomID] = true
	rm, exists := r.rooms[roomID]
	if !exists {
		rm = &room{members: make(map[string]Conn)}
		r.rooms[roomID] = rm
	}
	// The insert happens under the registry lock: a concurrent removal that
	// empties the room deletes it from r.rooms under the same lock, so the
	// member can never land in an orphaned room object.
	rm.mu.Lock()
	rm.members[conn.ID()] = conn
	count := len(rm.members)
	rm.mu.Unlock()
	r.mu.Unlock()

	slog.Debug("connection joined room", "roomID", roomID, "connID", conn.ID(), "members", count)
}

// Leave removes the connection from a room. It reports whether the
// connection was a member, and whether it was the identity's last connection
// in that room.
func (r *Registry) Leave(conn Conn, roomID string) (left bool, lastOfIdentity bool) {
	r.mu.Lock()
	set, registered := r.joined[conn.ID()]
	if !registered || !set[roomID] {
		r.mu.Unlock()
		return false, false
	}
	delete(set, roomID)
	r.mu.Unlock()

	return true, r.removeFromRoom(conn, roomID)
}

// DropConn removes the connection from the registry and every room it was a
// member of. It returns the rooms it departed so the typing tracker can
// clean up after it.
func (r *Registry) DropConn(conn Conn) []Departure {
	r.mu.Lock()
	set, registered := r.joined[conn.ID()]
	if !registered {
		r.mu.Unlock()
		return nil
	}
	roomIDs := make([]string, 0, len(set))
	for roomID := range set {
		roomIDs = append(roomIDs, roomID)
	}
	delete(r.joined, conn.ID())
	delete(r.conns, conn.ID())
	r.mu.Unlock()

	departures := make([]Departure, 0, len(roomIDs))
	for _, roomID := range roomIDs {
		last := r.removeFromRoom(conn, roomID)
		departures = append(departures, Departure{RoomID: roomID, LastOfIdentity: last})
	}

	slog.Debug("connection dropped", "connID", conn.ID(), "rooms", len(departures))
	return departures
}

// removeFromRoom drops the connection from the room's member set, deletes
// the room when it empties, and reports whether this was the identity's last
// connection in the room.
func (r *Registry) removeFromRoom(conn Conn, roomID string) (lastOfIdentity bool) {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()

	if rm == nil {
		return true
	}

	rm.mu.Lock()
	delete(rm.members, conn.ID())
	lastOfIdentity = true
	for _, other := range rm.members {
		if other.Identity().ID == conn.Identity().ID {
			lastOfIdentity = false
			break
		}
	}
	empty := len(rm.members) == 0
	rm.mu.Unlock()

	if empty {
		r.mu.Lock()
		// Re-check under the registry lock; a concurrent join may have
		// repopulated the room.
		rm.mu.RLock()
		if len(rm.members) == 0 {
			delete(r.rooms, roomID)
		}
		rm.mu.RUnlock()
		r.mu.Unlock()
	}

	return lastOfIdentity
}

// IsMember reports whether the connection currently holds membership in the
// room.
func (r *Registry) IsMember(conn Conn, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, registered := r.joined[conn.ID()]
	return registered && set[roomID]
}

// Members returns a snapshot of the room's current membership.
func (r *Registry) Members(roomID string) []Conn {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()

	if rm == nil {
		return nil
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	members := make([]Conn, 0, len(rm.members))
	for _, conn := range rm.members {
		members = append(members, conn)
	}
	return members
}

// BroadcastRoom delivers a frame to every current member of a room. The
// snapshot is taken under the room lock; delivery never blocks on a slow
// peer.
func (r *Registry) BroadcastRoom(roomID string, frame []byte) {
	r.mu.RLock()
	rm := r.rooms[roomID]
	r.mu.RUnlock()

	if rm == nil {
		return
	}

	rm.mu.RLock()
	defer rm.mu.RUnlock()
	for _, conn := range rm.members {
		if !conn.Enqueue(frame) {
			slog.Warn("dropped frame for slow peer", "connID", conn.ID(), "roomID", roomID)
		}
	}
}

// BroadcastAll delivers a frame to every registered connection, in or out of
// rooms. Best effort.
func (r *Registry) BroadcastAll(frame []byte) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, conn := range r.conns {
		conn.Enqueue(frame)
	}
}

// Counts returns the number of registered connections and active rooms.
func (r *Registry) Counts() (conns, rooms int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns), len(r.rooms)
}
