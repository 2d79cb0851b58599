package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cotizapro/go-quotes/internal/catalog"
	"github.com/cotizapro/go-quotes/internal/httpx"
	"github.com/cotizapro/go-quotes/internal/offers"
	"github.com/cotizapro/go-quotes/internal/quotes"
	"github.com/cotizapro/go-quotes/internal/thread"
)

// writeErr maps service sentinel errors onto HTTP statuses. Unknown errors
// become opaque 500s so internals never leak to clients.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quotes.ErrValidation), errors.Is(err, thread.ErrEmptyBody):
		httpx.JSONError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, quotes.ErrNotFound), errors.Is(err, offers.ErrOfferNotFound),
		errors.Is(err, offers.ErrSaleNotFound), errors.Is(err, thread.ErrNotFound),
		errors.Is(err, catalog.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, offers.ErrForbidden), errors.Is(err, thread.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, err.Error(), nil)
	case errors.Is(err, offers.ErrNotPublished), errors.Is(err, offers.ErrAlreadySettled),
		errors.Is(err, thread.ErrNotSettled):
		httpx.JSONError(w, http.StatusConflict, err.Error(), nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// queryUint parses a numeric query parameter, zero when absent or malformed.
func queryUint(r *http.Request, key string) uint {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0
	}
	return uint(n)
}
