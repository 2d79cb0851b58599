package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/cotizapro/go-quotes/internal/auth"
	"github.com/cotizapro/go-quotes/internal/catalog"
	"github.com/cotizapro/go-quotes/internal/handlers"
	"github.com/cotizapro/go-quotes/internal/httpx"
	"github.com/cotizapro/go-quotes/internal/offers"
	"github.com/cotizapro/go-quotes/internal/pricing"
	"github.com/cotizapro/go-quotes/internal/quotes"
	"github.com/cotizapro/go-quotes/internal/thread"
)

// New constructs the root http.Handler with all routes and middlewares applied.
func New(db *gorm.DB, commissionRate float64, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// --- Health endpoints ---
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	cg := catalog.NewGateway(db)
	resolver := pricing.NewResolver(db, cg)
	quoteStore := quotes.NewStore(db, cg, log)
	offerSvc := offers.NewService(db, quoteStore, resolver, commissionRate, log)
	threadSvc := thread.NewService(db, log)

	qh := handlers.NewQuotationHandler(quoteStore, offerSvc)
	oh := handlers.NewOfferHandler(offerSvc)
	th := handlers.NewThreadHandler(threadSvc)

	protect := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(auth.RequireAuth(h))
	}

	mux.Handle("/quotations", protect(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			qh.List(w, r)
		case http.MethodPost:
			qh.Create(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}))
	mux.Handle("/quotations/publish", protect(requirePost(qh.Publish)))
	mux.Handle("/quotations/broadcast", protect(requirePost(oh.Broadcast)))

	mux.Handle("/offers", protect(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		oh.List(w, r)
	}))
	mux.Handle("/offers/accept", protect(requirePost(oh.Accept)))
	mux.Handle("/offers/reject", protect(requirePost(oh.Reject)))

	mux.Handle("/sales", protect(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		oh.GetSale(w, r)
	}))
	mux.Handle("/sales/complete", protect(requirePost(oh.CompleteSale)))

	mux.Handle("/messages", protect(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			th.List(w, r)
		case http.MethodPost:
			th.Post(w, r)
		default:
			w.Header().Set("Allow", "GET,POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		}
	}))
	mux.Handle("/messages/read", protect(requirePost(th.MarkRead)))
	mux.Handle("/messages/unread", protect(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", "GET")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		th.Unread(w, r)
	}))

	return withRecover(withLogging(mux, log))
}

func requirePost(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", "POST")
			httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
			return
		}
		h(w, r)
	}
}

func withLogging(next http.Handler, log zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
