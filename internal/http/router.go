package http

import (
	"net/http"
	"time"

	"github.com/fjod/go_market/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter assembles the full HTTP surface. Everything under the auth
// middleware consumes the already-verified user id; health, metrics and
// queue stats stay open for operators.
func NewRouter(cartH *CartHandler, checkoutH *CheckoutHandler, ordersH *OrdersHandler, engine *jobs.Engine, requestTimeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/admin/queues/{queue}/stats", func(w http.ResponseWriter, r *http.Request) {
		stats, err := engine.Stats(r.Context(), chi.URLParam(r, "queue"))
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, stats)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartH.GetCart)
			r.Get("/items", cartH.GetItems)
			r.Post("/add", cartH.AddItem)
			r.Post("/update", cartH.UpdateItem)
			r.Delete("/remove/{listingID}", cartH.RemoveItem)
			r.Put("/clear", cartH.Clear)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/create-order", checkoutH.CreateOrder)
			r.Post("/place-order", checkoutH.PlaceOrder)
			r.Post("/verify-payment", checkoutH.VerifyPayment)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersH.ListMine)
			r.Get("/sales", ordersH.ListSales)
		})
	})

	return r
}
