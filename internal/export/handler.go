package export

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"medical-intake-agent/internal/intake"
)

// SessionGetter is the slice of the intake service the download endpoint needs.
type SessionGetter interface {
	Get(ctx context.Context, sessionID uuid.UUID) (*intake.Session, error)
}

type Handler struct {
	sessions SessionGetter
}

func NewHandler(sessions SessionGetter) *Handler {
	return &Handler{sessions: sessions}
}

// Download serves the session in the requested format as a file attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	session, err := h.sessions.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	var (
		data        []byte
		contentType string
	)
	switch format {
	case "json":
		data, err = JSON(session)
		contentType = "application/json"
	case "csv":
		data, err = CSV(session)
		contentType = "text/csv"
	case "pdf":
		data, err = PDF(session)
		contentType = "application/pdf"
	default:
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="medical_consultation_%s.%s"`, session.ID, format))
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/session/{id}/export", h.Download)
}
