package todo

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
	"github.com/rohitkumar-vc/lifequest-backend/internal/user"
)

type Handler struct {
	svc           *Service
	webhookSecret string
}

func NewHandler(svc *Service, webhookSecret string) *Handler {
	return &Handler{svc: svc, webhookSecret: webhookSecret}
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
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Difficulty  string     `json:"difficulty"`
	Deadline    *time.Time `json:"deadline"`
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
	out, err := h.svc.Create(r.Context(), u.ID, CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Difficulty:  diff,
		Deadline:    req.Deadline,
	})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	todos, err := h.svc.List(r.Context(), u.ID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list todos failed")
		return
	}
	if todos == nil {
		todos = []Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Complete(r.Context(), u.ID, id)
	if err != nil {
		writeTodoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type renewRequest struct {
	Deadline time.Time `json:"deadline"`
}

func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req renewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Renew(r.Context(), u.ID, id, req.Deadline)
	if err != nil {
		writeTodoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

type updateRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Deadline      *time.Time `json:"deadline"`
	ClearDeadline bool       `json:"clear_deadline"`
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id := model.TaskID(r.PathValue("id"))
	out, err := h.svc.Update(r.Context(), u.ID, id, UpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Deadline:      req.Deadline,
		ClearDeadline: req.ClearDeadline,
	})
	if err != nil {
		writeTodoErr(w, err)
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
	updated, err := h.svc.Delete(r.Context(), u.ID, id)
	if err != nil {
		writeTodoErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "user": updated})
}

// CheckValidity is the scheduler webhook. It is authenticated by the static
// shared secret, not a user token, because the caller is the scheduler.
func (h *Handler) CheckValidity(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(h.webhookSecret)) != 1 {
		writeErr(w, http.StatusUnauthorized, "invalid token")
		return
	}

	id := model.TaskID(r.PathValue("id"))
	res, err := h.svc.HandleDeadline(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "todo not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "deadline check failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": string(res)})
}

func writeTodoErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeErr(w, http.StatusNotFound, "todo not found")
	case errors.Is(err, ErrInvalidStateTransition):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, stats.ErrInsufficientFunds):
		writeErr(w, http.StatusBadRequest, err.Error())
	default:
		writeErr(w, http.StatusBadRequest, err.Error())
	}
}
