package habit

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rohitkumar-vc/lifequest-backend/internal/activity"
	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

type createRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Type        Type             `json:"type"`
	Difficulty  model.Difficulty `json:"difficulty"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	diff, err := model.ParseDifficulty(string(req.Difficulty))
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.Create(r.Context(), u.ID, req.Title, req.Description, req.Type, diff)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	habits, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list habits failed")
		return
	}
	if habits == nil {
		habits = []Habit{}
	}
	writeJSON(w, http.StatusOK, habits)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	if err := h.svc.Delete(r.Context(), u.ID, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "habit not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete habit failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type triggerRequest struct {
	Intent Intent `json:"intent"`
}

func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Trigger(r.Context(), u.ID, id, req.Intent)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeErr(w, http.StatusNotFound, "habit not found")
		default:
			writeErr(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Undo(r.Context(), u.ID, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeErr(w, http.StatusNotFound, "habit not found")
		case errors.Is(err, activity.ErrNothingToUndo):
			writeErr(w, http.StatusConflict, "nothing to undo")
		default:
			writeErr(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}
