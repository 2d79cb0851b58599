package handlers

import (
	"net/http"

	"github.com/cotizapro/go-quotes/internal/auth"
	"github.com/cotizapro/go-quotes/internal/httpx"
	"github.com/cotizapro/go-quotes/internal/models"
	"github.com/cotizapro/go-quotes/internal/offers"
	"github.com/cotizapro/go-quotes/internal/quotes"
)

type QuotationHandler struct {
	Store  *quotes.Store
	Offers *offers.Service
}

func NewQuotationHandler(store *quotes.Store, offerSvc *offers.Service) *QuotationHandler {
	return &QuotationHandler{Store: store, Offers: offerSvc}
}

// Create: POST /quotations – buyer drafts a quotation from its items.
func (h *QuotationHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if id.Role != auth.RoleBuyer {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var req struct {
		Items []quotes.ItemInput `json:"items"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	q, err := h.Store.CreateDraft(r.Context(), id.UserID, req.Items)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

// Publish: POST /quotations/publish?id=N – publishes and immediately
// broadcasts offers to eligible vendors. /quotations/broadcast stays
// available for a later re-broadcast.
func (h *QuotationHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	qid := queryUint(r, "id")
	if qid == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	q, err := h.Store.Publish(r.Context(), id.UserID, qid)
	if err != nil {
		writeErr(w, err)
		return
	}
	created := []models.Offer{}
	if q.State == models.QuotationPublished {
		created, err = h.Offers.Broadcast(r.Context(), id.UserID, qid)
		if err != nil {
			writeErr(w, err)
			return
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"quotation": q, "offers": created})
}

// List: GET /quotations – buyers see their own, vendors their assigned wins.
func (h *QuotationHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if id.Role == auth.RoleVendor {
		list, err := h.Store.ListAssigned(r.Context(), id.UserID)
		if err != nil {
			writeErr(w, err)
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
		return
	}
	list, err := h.Store.ListByBuyer(r.Context(), id.UserID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
}
