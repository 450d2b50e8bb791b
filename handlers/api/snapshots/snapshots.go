package snapshots

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

type (
	SaveSnapshotRequest struct {
		Kind    string `json:"kind,omitempty"`
		Content string `json:"content"`
	}

	SaveSnapshotResponse struct {
		DocumentID string `json:"documentId"`
		WriteID    string `json:"writeId"`
	}

	SnapshotResponse struct {
		DocumentID string `json:"documentId"`
		Content    string `json:"content"`
	}
)

// HandleGet returns the latest saved content of a document. Rejoining
// clients fetch this before streaming deltas.
func HandleGet(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "id")

		content, err := store.ReadSnapshot(r.Context(), documentID)
		if err != nil {
			if errors.Is(err, core.ErrSnapshotNotFound) {
				http.Error(w, "Snapshot not found", http.StatusNotFound)
				return
			}
			logrus.WithError(err).WithField("document_id", documentID).
				Error("Failed to read snapshot")
			http.Error(w, "Failed to read snapshot", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, SnapshotResponse{
			DocumentID: documentID,
			Content:    string(content),
		})
	}
}

// HandleSave writes a full snapshot directly, bypassing the debounce. Used
// by clients that flush on editor teardown. Idempotent like all snapshot
// writes.
func HandleSave(store core.SnapshotStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		documentID := chi.URLParam(r, "id")

		var req SaveSnapshotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logrus.WithError(err).Error("Failed to decode request")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if req.Content == "" {
			http.Error(w, "Content is required", http.StatusBadRequest)
			return
		}
		if req.Kind != "" && !core.ValidKind(req.Kind) {
			http.Error(w, "Unknown document kind", http.StatusBadRequest)
			return
		}

		doc := core.Document{ID: documentID, Kind: req.Kind, Content: []byte(req.Content)}
		if err := store.WriteSnapshot(r.Context(), doc.ID, doc.Content); err != nil {
			logrus.WithError(err).WithField("document_id", documentID).
				Error("Failed to write snapshot")
			http.Error(w, "Failed to write snapshot", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, SaveSnapshotResponse{
			DocumentID: documentID,
			WriteID:    ulid.Make().String(),
		})
	}
}
