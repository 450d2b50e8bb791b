package collab

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Conn is one live client connection as the collaboration core sees it.
// Implemented by the websocket gateway; tests use in-memory fakes.
type Conn interface {
	ID() string
	Emit(event string, payload any) error
}

// Participant is one connection's identity and cursor state within a room.
// The same user may hold several connections; each is a distinct Participant.
type Participant struct {
	ConnectionID string
	UserID       string
	DisplayName  string
	AvatarRef    string
	Color        string
	LastCursor   any
}

type member struct {
	Participant
	conn Conn
}

// Room is the set of connections collaborating on one document. All
// membership mutations and fan-outs for the room happen under its own
// mutex, so unrelated documents never contend.
type Room struct {
	id string

	mu      sync.Mutex
	members map[string]*member
}

func newRoom(id string) *Room {
	return &Room{id: id, members: make(map[string]*member)}
}

func (r *Room) ID() string { return r.id }

func (r *Room) add(conn Conn, p Participant) {
	r.mu.Lock()
	r.members[conn.ID()] = &member{Participant: p, conn: conn}
	r.mu.Unlock()
}

func (r *Room) remove(connectionID string) (empty bool) {
	r.mu.Lock()
	delete(r.members, connectionID)
	empty = len(r.members) == 0
	r.mu.Unlock()
	return empty
}

// Members returns a point-in-time copy of the room's participants,
// excluding the given connection if non-empty.
func (r *Room) Members(excluding string) []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Participant, 0, len(r.members))
	for id, m := range r.members {
		if id == excluding {
			continue
		}
		out = append(out, m.Participant)
	}
	return out
}

func (r *Room) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// updateIdentity records a resolved or announced identity on the
// participant. Returns false when the connection is no longer a member.
func (r *Room) updateIdentity(connectionID, userID, displayName, avatarRef string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[connectionID]
	if !ok {
		return false
	}
	if userID != "" {
		m.UserID = userID
	}
	if displayName != "" {
		m.DisplayName = displayName
	}
	if avatarRef != "" {
		m.AvatarRef = avatarRef
	}
	return true
}

// Registry tracks which connections belong to which document room. The
// registry's own lock guards only the room maps; member sets are guarded
// per room.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byConn map[string]*Room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		byConn: make(map[string]*Room),
	}
}

// Join adds the connection to the document's room, creating the room on
// first join. Joining the room the connection is already in is a no-op.
// A connection belongs to at most one room; joining a different room
// leaves the previous one first. Returns the room and whether membership
// changed.
func (reg *Registry) Join(conn Conn, documentID string, p Participant) (*Room, bool) {
	connID := conn.ID()

	reg.mu.Lock()
	if cur, ok := reg.byConn[connID]; ok {
		if cur.id == documentID {
			reg.mu.Unlock()
			return cur, false
		}
		reg.mu.Unlock()
		if left, _ := reg.Leave(connID); left != nil {
			logrus.WithFields(logrus.Fields{
				"connection_id": connID,
				"previous_room": left.id,
				"room":          documentID,
			}).Debug("connection switched rooms")
		}
		reg.mu.Lock()
	}

	room, ok := reg.rooms[documentID]
	if !ok {
		room = newRoom(documentID)
		reg.rooms[documentID] = room
	}
	reg.byConn[connID] = room
	// Added under the registry lock so an emptying room cannot be collected
	// between the lookup and the membership insert.
	room.add(conn, p)
	reg.mu.Unlock()

	return room, true
}

// Leave removes the connection from its current room, if any. Safe to call
// for connections that never joined; calling twice is a no-op. The room is
// returned (possibly now empty) so callers can rebroadcast presence.
func (reg *Registry) Leave(connectionID string) (*Room, bool) {
	reg.mu.Lock()
	room, ok := reg.byConn[connectionID]
	if !ok {
		reg.mu.Unlock()
		return nil, false
	}
	delete(reg.byConn, connectionID)
	reg.mu.Unlock()

	if room.remove(connectionID) {
		reg.collect(room)
	}
	return room, true
}

// collect drops a room that has emptied. Re-checked under both locks since
// a concurrent join may have revived it.
func (reg *Registry) collect(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.rooms[room.id] == room && room.size() == 0 {
		delete(reg.rooms, room.id)
	}
}

// RoomOf returns the room the connection currently belongs to.
func (reg *Registry) RoomOf(connectionID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.byConn[connectionID]
	return room, ok
}

// Room returns the room for a document, if any connection is in it.
func (reg *Registry) Room(documentID string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[documentID]
	return room, ok
}

// ActiveRooms reports current member counts keyed by document id.
func (reg *Registry) ActiveRooms() map[string]int {
	reg.mu.RLock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	reg.mu.RUnlock()

	counts := make(map[string]int, len(rooms))
	for _, room := range rooms {
		if n := room.size(); n > 0 {
			counts[room.id] = n
		}
	}
	return counts
}
