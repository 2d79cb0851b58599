package handlers

import (
	"net/http"

	"github.com/cotizapro/go-quotes/internal/auth"
	"github.com/cotizapro/go-quotes/internal/httpx"
	"github.com/cotizapro/go-quotes/internal/thread"
)

type ThreadHandler struct {
	Svc *thread.Service
}

func NewThreadHandler(svc *thread.Service) *ThreadHandler {
	return &ThreadHandler{Svc: svc}
}

// Post: POST /messages – append to a line item's negotiation thread.
func (h *ThreadHandler) Post(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		LineItemID    uint   `json:"line_item_id"`
		Body          string `json:"body"`
		AttachmentRef string `json:"attachment_ref"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.LineItemID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_line_item_id", nil)
		return
	}
	msg, err := h.Svc.Post(r.Context(), id.UserID, req.LineItemID, req.Body, req.AttachmentRef)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, msg)
}

// List: GET /messages?line_item_id=N – thread in chronological order.
func (h *ThreadHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	liID := queryUint(r, "line_item_id")
	if liID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_line_item_id", nil)
		return
	}
	list, err := h.Svc.List(r.Context(), id.UserID, liID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}

// MarkRead: POST /messages/read – advance the caller's read cursor.
func (h *ThreadHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		LineItemID uint `json:"line_item_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.LineItemID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_line_item_id", nil)
		return
	}
	if err := h.Svc.MarkRead(r.Context(), id.UserID, req.LineItemID); err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "read"})
}

// Unread: GET /messages/unread?line_item_id=N
func (h *ThreadHandler) Unread(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	liID := queryUint(r, "line_item_id")
	if liID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_line_item_id", nil)
		return
	}
	unread, err := h.Svc.HasUnread(r.Context(), id.UserID, liID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"unread": unread})
}
