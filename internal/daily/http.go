package daily

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
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
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
	diff, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := h.svc.Create(r.Context(), u.ID, req.Title, diff)
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
	dailies, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list dailies failed")
		return
	}
	if dailies == nil {
		dailies = []Daily{}
	}
	writeJSON(w, http.StatusOK, dailies)
}

type toggleRequest struct {
	Done bool `json:"done"`
}

func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Toggle(r.Context(), u.ID, id, req.Done)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeErr(w, http.StatusNotFound, "daily not found")
		case errors.Is(err, activity.ErrNothingToUndo):
			writeErr(w, http.StatusConflict, "nothing to undo")
		default:
			writeErr(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
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
			writeErr(w, http.StatusNotFound, "daily not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete daily failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
