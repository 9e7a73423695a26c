// Package router assembles the HTTP surface of the booking platform.
package router

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cleanmachine/detailing-platform/internal/admin"
	"github.com/cleanmachine/detailing-platform/internal/appointments"
	"github.com/cleanmachine/detailing-platform/internal/availability"
	"github.com/cleanmachine/detailing-platform/internal/catalog"
	"github.com/cleanmachine/detailing-platform/internal/customers"
	"github.com/cleanmachine/detailing-platform/internal/gallery"
	"github.com/cleanmachine/detailing-platform/internal/geo"
	httpmiddleware "github.com/cleanmachine/detailing-platform/internal/http/middleware"
	"github.com/cleanmachine/detailing-platform/internal/loyalty"
	"github.com/cleanmachine/detailing-platform/internal/observability/metrics"
	"github.com/cleanmachine/detailing-platform/internal/recurring"
	"github.com/cleanmachine/detailing-platform/internal/weather"
	"github.com/cleanmachine/detailing-platform/internal/webchat"
	"github.com/cleanmachine/detailing-platform/internal/wizard"
	"github.com/cleanmachine/detailing-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	BookingMetrics *metrics.BookingMetrics

	WizardHandler       *wizard.Handler
	CatalogHandler      *catalog.Handler
	GeoHandler          *geo.Handler
	WeatherHandler      *weather.Handler
	AvailabilityHandler *availability.Handler
	BookingHandler      *appointments.Handler
	RecurringHandler    *recurring.Handler
	LoyaltyHandler      *loyalty.Handler
	CustomersHandler    *customers.Handler
	GalleryHandler      *gallery.Handler
	ChatHandler         *webchat.Handler

	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Admin dashboard dependencies (optional)
	DB *sql.DB
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.BookingMetrics))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}

		public.Route("/api", func(api chi.Router) {
			if cfg.CatalogHandler != nil {
				api.Get("/services", cfg.CatalogHandler.ListServices)
				api.Get("/addon-services", cfg.CatalogHandler.ListAddOns)
			}
			if cfg.GeoHandler != nil {
				api.Get("/geocode", cfg.GeoHandler.Geocode)
				api.Get("/distance-check", cfg.GeoHandler.DistanceCheck)
			}
			if cfg.WeatherHandler != nil {
				api.Get("/appointment-weather", cfg.WeatherHandler.AppointmentWeather)
			}
			if cfg.AvailabilityHandler != nil {
				api.Get("/available-slots", cfg.AvailabilityHandler.AvailableSlots)
			}
			if cfg.WizardHandler != nil {
				api.Route("/booking-session", cfg.WizardHandler.Mount)
			}
			if cfg.BookingHandler != nil {
				api.Post("/book-appointment", cfg.BookingHandler.Book)
			}
			if cfg.RecurringHandler != nil {
				api.Post("/recurring-services", cfg.RecurringHandler.Schedule)
			}
			if cfg.LoyaltyHandler != nil {
				api.Post("/loyalty/validate-redemption", cfg.LoyaltyHandler.ValidateRedemption)
				api.Get("/loyalty/{customerID}", cfg.LoyaltyHandler.GetAccount)
				api.Post("/referral/validate", cfg.LoyaltyHandler.ValidateReferral)
			}
			if cfg.CustomersHandler != nil {
				api.Get("/customers/check-phone/{phone}", cfg.CustomersHandler.CheckPhone)
			}
			if cfg.GalleryHandler != nil {
				api.Get("/gallery", cfg.GalleryHandler.ListPhotos)
				api.Get("/banners", cfg.GalleryHandler.ListBanners)
			}
		})

		if cfg.ChatHandler != nil {
			public.Route("/chat", func(chat chi.Router) {
				chat.Get("/ws", cfg.ChatHandler.HandleWebSocket)
				chat.Post("/message", cfg.ChatHandler.HandleMessage)
				chat.Get("/history", cfg.ChatHandler.HandleHistory)
			})
		}
	})

	// Admin routes (protected by JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(adminRoutes chi.Router) {
			adminRoutes.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			if cfg.CatalogHandler != nil {
				adminRoutes.Put("/services/{serviceID}", cfg.CatalogHandler.UpdateService)
			}

			if cfg.GalleryHandler != nil {
				adminRoutes.Post("/gallery", cfg.GalleryHandler.UploadPhoto)
				adminRoutes.Delete("/gallery/{photoID}", cfg.GalleryHandler.DeletePhoto)
				adminRoutes.Post("/banners", cfg.GalleryHandler.CreateBanner)
				adminRoutes.Put("/banners/{bannerID}", cfg.GalleryHandler.UpdateBanner)
				adminRoutes.Delete("/banners/{bannerID}", cfg.GalleryHandler.DeleteBanner)
			}

			if cfg.DB != nil {
				admin.RegisterRoutes(adminRoutes, cfg.DB, cfg.Logger)
			}
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
