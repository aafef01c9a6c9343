package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PixelCodeeee/arroyo-seco-marketplace/internal/service"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/health"
	"github.com/PixelCodeeee/arroyo-seco-marketplace/pkg/middleware"
)

// NewRouter creates a chi router with all marketplace routes registered.
func NewRouter(
	cartService *service.CartService,
	checkoutService *service.CheckoutService,
	reservationService *service.ReservationService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("marketplace"))
	r.Use(middleware.Tracing("marketplace"))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	cartHandler := NewCartHandler(cartService, logger)
	checkoutHandler := NewCheckoutHandler(checkoutService, logger)
	reservationHandler := NewReservationHandler(reservationService, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(UserIDFromHeader)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Get("/summary", cartHandler.GetSummary)

			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{productId}", cartHandler.UpdateQuantity)
			r.Delete("/items/{productId}", cartHandler.RemoveItem)

			r.Get("/conflict", cartHandler.GetPendingConflict)
			r.Post("/conflict", cartHandler.ResolveConflict)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", checkoutHandler.CreateOrder)
			r.Post("/capture", checkoutHandler.Capture)
			r.Get("/{orderId}", checkoutHandler.GetOrder)
			r.Post("/{orderId}/cancel", checkoutHandler.Cancel)
		})

		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", reservationHandler.Book)
			r.Get("/{id}", reservationHandler.Detail)
			r.Post("/{id}/cancel", reservationHandler.Cancel)
			r.Patch("/{id}/status", reservationHandler.ChangeStatus)
		})
	})

	return r
}
