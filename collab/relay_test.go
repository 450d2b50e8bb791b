package collab

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func newTestHub() *Hub {
	return NewHub(nil, nil)
}

func join(t *testing.T, h *Hub, conn Conn, documentID string) {
	t.Helper()
	if err := h.Join(context.Background(), conn, documentID); err != nil {
		t.Fatalf("Join(%s, %s) failed: %v", conn.ID(), documentID, err)
	}
}

func TestDeltaNotEchoedToSender(t *testing.T) {
	h := newTestHub()
	a := newFakeConn("a")
	b := newFakeConn("b")
	join(t, h, a, "doc1")
	join(t, h, b, "doc1")

	if err := h.Delta("a", "doc1", "insert:hi", nil); err != nil {
		t.Fatalf("Delta failed: %v", err)
	}

	if got := a.recorded(EventDelta); len(got) != 0 {
		t.Errorf("sender received its own delta: %v", got)
	}
	received := b.recorded(EventDelta)
	if len(received) != 1 {
		t.Fatalf("expected 1 delta at receiver, got %d", len(received))
	}
	event := received[0].Payload.(DeltaEvent)
	if event.DocumentID != "doc1" || event.Payload != "insert:hi" {
		t.Errorf("unexpected delta event: %+v", event)
	}
}

func TestCursorNotEchoedToSender(t *testing.T) {
	h := newTestHub()
	a := newFakeConn("a")
	b := newFakeConn("b")
	join(t, h, a, "doc1")
	join(t, h, b, "doc1")

	if err := h.Cursor("a", "doc1", "a", map[string]any{"index": 4}); err != nil {
		t.Fatalf("Cursor failed: %v", err)
	}

	if got := a.recorded(EventCursor); len(got) != 0 {
		t.Errorf("sender received its own cursor event: %v", got)
	}
	if got := b.recorded(EventCursor); len(got) != 1 {
		t.Errorf("expected 1 cursor event at receiver, got %d", len(got))
	}
}

func TestCursorUnknownParticipantForwarded(t *testing.T) {
	h := newTestHub()
	a := newFakeConn("a")
	b := newFakeConn("b")
	join(t, h, a, "doc1")
	join(t, h, b, "doc1")

	// "ghost" is not a member anywhere; the relay forwards it untouched and
	// leaves receivers to ignore ids they cannot map.
	if err := h.Cursor("a", "doc1", "ghost", "range"); err != nil {
		t.Fatalf("Cursor with unknown participant failed: %v", err)
	}

	received := b.recorded(EventCursor)
	if len(received) != 1 {
		t.Fatalf("expected 1 cursor event, got %d", len(received))
	}
	event := received[0].Payload.(CursorEvent)
	if event.ParticipantID != "ghost" {
		t.Errorf("participant id mangled: got %q", event.ParticipantID)
	}
}

func TestDeltaOrderPreservedPerRoom(t *testing.T) {
	h := newTestHub()
	s1 := newFakeConn("sender-1")
	s2 := newFakeConn("sender-2")
	r1 := newFakeConn("receiver-1")
	r2 := newFakeConn("receiver-2")
	for _, c := range []*fakeConn{s1, s2, r1, r2} {
		join(t, h, c, "doc1")
	}

	const perSender = 50
	var wg sync.WaitGroup
	for _, sender := range []*fakeConn{s1, s2} {
		wg.Add(1)
		go func(sender *fakeConn) {
			defer wg.Done()
			for i := 0; i < perSender; i++ {
				payload := fmt.Sprintf("%s/%d", sender.ID(), i)
				if err := h.Delta(sender.ID(), "doc1", payload, nil); err != nil {
					t.Errorf("Delta failed: %v", err)
				}
			}
		}(sender)
	}
	wg.Wait()

	seq1 := deltaPayloads(r1)
	seq2 := deltaPayloads(r2)

	if len(seq1) != 2*perSender {
		t.Fatalf("receiver-1 got %d deltas, want %d", len(seq1), 2*perSender)
	}
	// Every receiver that got both of any pair got them in the same order,
	// which for full delivery means identical sequences.
	if !reflect.DeepEqual(seq1, seq2) {
		t.Error("receivers observed different delta orders")
	}

	// Per-sender order is preserved within the room order.
	for _, sender := range []string{"sender-1", "sender-2"} {
		last := -1
		for _, p := range seq1 {
			if !strings.HasPrefix(p, sender+"/") {
				continue
			}
			var n int
			if _, err := fmt.Sscanf(p, sender+"/%d", &n); err != nil {
				t.Fatalf("malformed payload %q: %v", p, err)
			}
			if n != last+1 {
				t.Fatalf("out-of-order delta for %s: got %d after %d", sender, n, last)
			}
			last = n
		}
	}
}

func deltaPayloads(c *fakeConn) []string {
	events := c.recorded(EventDelta)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Payload.(DeltaEvent).Payload.(string))
	}
	return out
}

func TestRelayIsolationBetweenRooms(t *testing.T) {
	h := newTestHub()
	a := newFakeConn("a")
	b := newFakeConn("b")
	other := newFakeConn("other")
	join(t, h, a, "doc1")
	join(t, h, b, "doc1")
	join(t, h, other, "doc2")

	if err := h.Delta("a", "doc1", "payload", nil); err != nil {
		t.Fatalf("Delta failed: %v", err)
	}

	if got := other.recorded(EventDelta); len(got) != 0 {
		t.Errorf("delta leaked into another room: %v", got)
	}
}

func TestDeltaFromNonMemberDropped(t *testing.T) {
	h := newTestHub()
	a := newFakeConn("a")
	join(t, h, a, "doc1")

	if err := h.Delta("stranger", "doc1", "payload", nil); err == nil {
		t.Error("delta from a non-member should be rejected")
	}
	if got := a.recorded(EventDelta); len(got) != 0 {
		t.Errorf("non-member delta was broadcast: %v", got)
	}

	// A member addressing a room it is not in is dropped the same way.
	if err := h.Delta("a", "doc2", "payload", nil); err == nil {
		t.Error("delta addressed to the wrong room should be rejected")
	}
}
