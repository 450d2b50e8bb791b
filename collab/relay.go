package collab

import (
	"github.com/sirupsen/logrus"
)

// Outbound event names.
const (
	EventPresenceSync = "presence-sync"
	EventDelta        = "delta"
	EventCursor       = "cursor"
)

type (
	// DeltaEvent relays an opaque content change to the other room members.
	DeltaEvent struct {
		DocumentID string `json:"documentId"`
		Payload    any    `json:"payload"`
	}

	// CursorEvent relays an opaque selection range tagged with the sender's
	// participant id. No sequence numbers are attached; a late cursor event
	// can visually override a newer one, which loses no data.
	CursorEvent struct {
		DocumentID    string `json:"documentId"`
		ParticipantID string `json:"participantId"`
		Range         any    `json:"range"`
	}
)

// Broadcast delivers the event to every current member except the excluded
// connection. The room lock is held for the whole fan-out: two broadcasts
// on the same room are accepted in a total order and every member observes
// them in that order. Emit failures are logged and skip only that member.
func (r *Room) Broadcast(excluding string, event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, m := range r.members {
		if id == excluding {
			continue
		}
		if err := m.conn.Emit(event, payload); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"room":          r.id,
				"connection_id": id,
				"event":         event,
			}).Warn("failed to emit to room member")
		}
	}
}

// setCursor records the sender's last known selection so the participant
// record stays current. Ephemeral only, never persisted.
func (r *Room) setCursor(connectionID string, cursorRange any) {
	r.mu.Lock()
	if m, ok := r.members[connectionID]; ok {
		m.LastCursor = cursorRange
	}
	r.mu.Unlock()
}
