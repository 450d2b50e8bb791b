package websocket

import (
	"testing"
)

func TestEventFields(t *testing.T) {
	fields := eventFields([]any{map[string]any{"documentId": "doc1"}})
	if got, _ := fields["documentId"].(string); got != "doc1" {
		t.Errorf("documentId: got %q, want doc1", got)
	}

	// Anything that is not a single object argument yields an empty map,
	// so dispatch drops the event as malformed instead of panicking.
	for name, datas := range map[string][]any{
		"no args":     {},
		"string arg":  {"doc1"},
		"nil arg":     {nil},
		"numeric arg": {42},
		"array first": {[]any{"doc1"}},
	} {
		fields := eventFields(datas)
		if len(fields) != 0 {
			t.Errorf("%s: expected empty fields, got %v", name, fields)
		}
	}
}

func TestContentBytes(t *testing.T) {
	if got := contentBytes(nil); got != nil {
		t.Errorf("nil content: got %v", got)
	}
	if got := string(contentBytes("snapshot")); got != "snapshot" {
		t.Errorf("string content: got %q", got)
	}
	if got := string(contentBytes([]byte("raw"))); got != "raw" {
		t.Errorf("byte content: got %q", got)
	}

	got := string(contentBytes(map[string]any{"ops": []any{}}))
	if got != `{"ops":[]}` {
		t.Errorf("structured content: got %q", got)
	}
}
