package handlers

import (
	"errors"
	"net/http"

	"github.com/cotizapro/go-quotes/internal/auth"
	"github.com/cotizapro/go-quotes/internal/httpx"
	"github.com/cotizapro/go-quotes/internal/offers"
)

type OfferHandler struct {
	Svc *offers.Service
}

func NewOfferHandler(svc *offers.Service) *OfferHandler {
	return &OfferHandler{Svc: svc}
}

// Broadcast: POST /quotations/broadcast?id=N – computes vendor offers.
func (h *OfferHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	qid := queryUint(r, "id")
	if qid == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_id", nil)
		return
	}
	created, err := h.Svc.Broadcast(r.Context(), id.UserID, qid)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"offers": created})
}

// List: GET /offers?quotation_id=N – owner view with per-line breakdown.
// Vendors calling without quotation_id get their own offers.
func (h *OfferHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	qid := queryUint(r, "quotation_id")
	if qid == 0 {
		if id.Role == auth.RoleVendor {
			list, err := h.Svc.ListForVendor(r.Context(), id.UserID)
			if err != nil {
				writeErr(w, err)
				return
			}
			httpx.JSON(w, http.StatusOK, map[string]any{"items": list})
			return
		}
		httpx.JSONError(w, http.StatusBadRequest, "missing_quotation_id", nil)
		return
	}
	views, err := h.Svc.List(r.Context(), id.UserID, qid)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": views})
}

// Accept: POST /offers/accept – buyer assigns one vendor's pending offer.
// A lost race returns the existing sale with 200 so clients converge.
func (h *OfferHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		QuotationID uint   `json:"quotation_id"`
		VendorID    string `json:"vendor_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.QuotationID == 0 || req.VendorID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_fields", nil)
		return
	}
	sale, err := h.Svc.Accept(r.Context(), id.UserID, req.QuotationID, req.VendorID)
	if errors.Is(err, offers.ErrAlreadySettled) && sale != nil {
		httpx.JSON(w, http.StatusOK, sale)
		return
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, sale)
}

// Reject: POST /offers/reject – buyer declines one vendor's offer.
func (h *OfferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	var req struct {
		QuotationID uint   `json:"quotation_id"`
		VendorID    string `json:"vendor_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.QuotationID == 0 || req.VendorID == "" {
		httpx.JSONError(w, http.StatusBadRequest, "missing_fields", nil)
		return
	}
	if err := h.Svc.Reject(r.Context(), id.UserID, req.QuotationID, req.VendorID); err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"status": "rejected"})
}

// GetSale: GET /sales?quotation_id=N
func (h *OfferHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	qid := queryUint(r, "quotation_id")
	if qid == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_quotation_id", nil)
		return
	}
	sale, err := h.Svc.GetSale(r.Context(), id.UserID, qid)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}

// CompleteSale: POST /sales/complete – winning vendor closes the sale.
func (h *OfferHandler) CompleteSale(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())
	if id.Role != auth.RoleVendor {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	var req struct {
		QuotationID uint `json:"quotation_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if req.QuotationID == 0 {
		httpx.JSONError(w, http.StatusBadRequest, "missing_quotation_id", nil)
		return
	}
	sale, err := h.Svc.CompleteSale(r.Context(), id.UserID, req.QuotationID)
	if err != nil {
		writeErr(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sale)
}
