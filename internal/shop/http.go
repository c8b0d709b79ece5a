package shop

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rohitkumar-vc/lifequest-backend/internal/stats"
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

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context())
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "list items failed")
		return
	}
	if items == nil {
		items = []Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	out, err := h.svc.Buy(r.Context(), u.ID, r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeErr(w, http.StatusNotFound, "item not found")
		case errors.Is(err, stats.ErrInsufficientFunds):
			writeErr(w, http.StatusBadRequest, "not enough gold")
		default:
			writeErr(w, http.StatusInternalServerError, "purchase failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	purchases, err := h.svc.History(r.Context(), u.ID, 100)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, "history failed")
		return
	}
	if purchases == nil {
		purchases = []Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}

type itemRequest struct {
	Name        string     `json:"name"`
	Cost        int        `json:"cost"`
	Description string     `json:"description"`
	EffectType  EffectType `json:"effect_type"`
}

func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u.Role != user.RoleAdmin {
		writeErr(w, http.StatusForbidden, "admin only")
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	it, err := h.svc.CreateItem(r.Context(), Item{
		Name:        req.Name,
		Cost:        req.Cost,
		Description: req.Description,
		EffectType:  req.EffectType,
	})
	if err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	u, ok := user.FromContext(r.Context())
	if !ok || u.Role != user.RoleAdmin {
		writeErr(w, http.StatusForbidden, "admin only")
		return
	}
	if err := h.svc.DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeErr(w, http.StatusNotFound, "item not found")
			return
		}
		writeErr(w, http.StatusInternalServerError, "delete item failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
