package collab

import (
	"fmt"
	"hash/fnv"
	"sort"
)

type (
	// PresenceMember is one roster entry in a presence-sync broadcast.
	PresenceMember struct {
		ParticipantID string `json:"participantId"`
		UserID        string `json:"userId"`
		DisplayName   string `json:"displayName"`
		Color         string `json:"color"`
	}

	// PresenceSyncEvent carries the full current roster of a room. Clients
	// rebuild their collaborator list and remote-cursor set from it rather
	// than patching incrementally.
	PresenceSyncEvent struct {
		DocumentID string           `json:"documentId"`
		Members    []PresenceMember `json:"members"`
	}
)

// Remote-cursor palette; the original editor colored collaborator cursors
// with a random hex color per user.
var cursorPalette = []string{
	"#e06c75", "#61afef", "#98c379", "#c678dd",
	"#d19a66", "#56b6c2", "#be5046", "#e5c07b",
}

// colorFor assigns a stable cursor color per connection.
func colorFor(connectionID string) string {
	h := fnv.New32a()
	fmt.Fprint(h, connectionID)
	return cursorPalette[h.Sum32()%uint32(len(cursorPalette))]
}

// SyncPresence recomputes the roster and broadcasts it to every member of
// the room, including the member whose join/announce/leave triggered it.
// Roster build and fan-out happen under one lock acquisition so every
// recipient sees the same consistent snapshot. A room with no members has
// no presence state and broadcasts nothing.
func (r *Room) SyncPresence() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.members) == 0 {
		return
	}

	roster := make([]PresenceMember, 0, len(r.members))
	for id, m := range r.members {
		roster = append(roster, PresenceMember{
			ParticipantID: id,
			UserID:        m.UserID,
			DisplayName:   m.DisplayName,
			Color:         m.Color,
		})
	}
	sort.Slice(roster, func(i, j int) bool {
		return roster[i].ParticipantID < roster[j].ParticipantID
	})

	event := PresenceSyncEvent{DocumentID: r.id, Members: roster}
	for _, m := range r.members {
		_ = m.conn.Emit(EventPresenceSync, event)
	}
}
