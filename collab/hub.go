package collab

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

// Hub dispatches inbound session events to the room registry, relays, and
// persistence coalescer, and routes outbound events back through each
// member's connection. One Hub serves the whole process; rooms inside it
// are fully independent.
type Hub struct {
	registry  *Registry
	coalescer *Coalescer
	resolver  core.IdentityResolver
}

func NewHub(resolver core.IdentityResolver, coalescer *Coalescer) *Hub {
	return &Hub{
		registry:  NewRegistry(),
		coalescer: coalescer,
		resolver:  resolver,
	}
}

// Join adds the connection to the document's room and broadcasts the
// refreshed roster to every member, the joiner included. Joining the same
// room twice is a no-op beyond a roster rebroadcast. The participant
// starts anonymous; a resolvable identity fills it in immediately,
// otherwise announce does later.
func (h *Hub) Join(ctx context.Context, conn Conn, documentID string) error {
	if documentID == "" {
		return core.ErrInvalidRoom
	}

	connID := conn.ID()
	p := Participant{
		ConnectionID: connID,
		UserID:       "anon-" + uuid.NewString(),
		DisplayName:  "Anonymous",
		Color:        colorFor(connID),
	}

	room, joined := h.registry.Join(conn, documentID, p)
	if joined && h.resolver != nil {
		if identity, err := h.resolver.Resolve(ctx, connID); err == nil {
			room.updateIdentity(connID, identity.UserID, identity.DisplayName, identity.AvatarRef)
		} else if !errors.Is(err, core.ErrUnknownIdentity) {
			logrus.WithError(err).WithField("connection_id", connID).
				Warn("identity resolution failed; participating anonymously")
		}
	}

	logrus.WithFields(logrus.Fields{
		"connection_id": connID,
		"room":          documentID,
		"rejoin":        !joined,
	}).Debug("connection joined room")

	room.SyncPresence()
	return nil
}

// Announce records the identity the client claims for this connection,
// validated and augmented by the resolver when it knows the connection.
// Triggers a fresh presence-sync to the whole room.
func (h *Hub) Announce(ctx context.Context, connectionID, userID, displayName, avatarRef string) error {
	room, ok := h.registry.RoomOf(connectionID)
	if !ok {
		return core.ErrNotInRoom
	}

	if h.resolver != nil {
		resolved, err := h.resolver.Resolve(ctx, connectionID)
		switch {
		case err == nil:
			// The resolver is authoritative for the user id; announced
			// display fields fill any gaps it leaves.
			userID = resolved.UserID
			if resolved.DisplayName != "" {
				displayName = resolved.DisplayName
			}
			if resolved.AvatarRef != "" {
				avatarRef = resolved.AvatarRef
			}
		case errors.Is(err, core.ErrUnknownIdentity):
			// Anonymous participation is allowed; keep the announced fields.
		default:
			logrus.WithError(err).WithField("connection_id", connectionID).
				Warn("identity resolution failed during announce")
		}
	}

	if !room.updateIdentity(connectionID, userID, displayName, avatarRef) {
		return core.ErrNotInRoom
	}
	room.SyncPresence()
	return nil
}

// Delta relays an opaque content change to every other member of the
// document's room in acceptance order, and hands the sender's full
// post-edit content (when provided) to the persistence coalescer. The
// sender never receives its own delta back.
func (h *Hub) Delta(connectionID, documentID string, payload any, content []byte) error {
	if documentID == "" {
		return core.ErrInvalidRoom
	}
	room, ok := h.registry.RoomOf(connectionID)
	if !ok || room.ID() != documentID {
		return core.ErrNotInRoom
	}

	room.Broadcast(connectionID, EventDelta, DeltaEvent{
		DocumentID: documentID,
		Payload:    payload,
	})

	if h.coalescer != nil && len(content) > 0 {
		h.coalescer.Observe(documentID, content)
	}
	return nil
}

// Cursor relays the sender's selection range to the other room members.
// Unknown participant ids are forwarded untouched; receivers ignore ids
// they cannot map to a collaborator.
func (h *Hub) Cursor(connectionID, documentID, participantID string, cursorRange any) error {
	if documentID == "" {
		return core.ErrInvalidRoom
	}
	room, ok := h.registry.RoomOf(connectionID)
	if !ok || room.ID() != documentID {
		return core.ErrNotInRoom
	}

	if participantID == connectionID {
		room.setCursor(connectionID, cursorRange)
	}

	room.Broadcast(connectionID, EventCursor, CursorEvent{
		DocumentID:    documentID,
		ParticipantID: participantID,
		Range:         cursorRange,
	})
	return nil
}

// Disconnect removes the connection from whatever room it was in and
// rebroadcasts presence to the remaining members. Idempotent; a connection
// that never joined is a no-op. Pending persistence timers are untouched,
// they are keyed by document, not by connection.
func (h *Hub) Disconnect(connectionID string) {
	room, ok := h.registry.Leave(connectionID)
	if !ok {
		return
	}
	logrus.WithFields(logrus.Fields{
		"connection_id": connectionID,
		"room":          room.ID(),
	}).Debug("connection left room")
	room.SyncPresence()
}

// ActiveRooms reports member counts per document for the rooms listing.
func (h *Hub) ActiveRooms() map[string]int {
	return h.registry.ActiveRooms()
}

// MembersOf returns a point-in-time snapshot of the room's participants.
func (h *Hub) MembersOf(documentID string, excluding string) []Participant {
	room, ok := h.registry.Room(documentID)
	if !ok {
		return nil
	}
	return room.Members(excluding)
}

// Close shuts the hub down: the coalescer stops its timers and flushes
// buffered content. Live connections are closed by the transport layer.
func (h *Hub) Close(ctx context.Context) {
	if h.coalescer != nil {
		h.coalescer.Close(ctx)
	}
}
