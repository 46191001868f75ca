package intake

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type messageRequest struct {
	Text string `json:"text"`
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Start(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoCredential) {
			writeError(w, http.StatusServiceUnavailable, "LLM API key is not configured")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID.String(),
		"phase":      session.Phase,
		"greeting":   session.Turns[0].Text,
	})
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	session, err := h.svc.HandleMessage(r.Context(), id, req.Text)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, ErrInterviewOver):
			writeError(w, http.StatusConflict, "interview is already finished")
		default:
			writeError(w, http.StatusInternalServerError, "failed to process message")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reply": session.Turns[len(session.Turns)-1].Text,
		"phase": session.Phase,
	})
}

func (h *Handler) GenerateAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.svc.GenerateAssessment(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, ErrNotReady):
			writeError(w, http.StatusConflict, "session is not ready for assessment")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate assessment")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"report":    session.Report,
		"record":    session.Record,
		"diagnosis": session.Diagnosis,
		"phase":     session.Phase,
	})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	session, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Reset(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/session", h.StartSession)
	r.Get("/session/{id}", h.GetSession)
	r.Post("/session/{id}/message", h.PostMessage)
	r.Post("/session/{id}/assessment", h.GenerateAssessment)
	r.Delete("/session/{id}", h.ResetSession)
}
