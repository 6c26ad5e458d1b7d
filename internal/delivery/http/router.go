package http

import (
	"net/http"

	"psych-booking-engine/internal/delivery/http/handler"
	"psych-booking-engine/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	availabilityHandler *handler.AvailabilityHandler
	matchHandler        *handler.MatchHandler
	bookingHandler      *handler.BookingHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	requestLogger       *middleware.RequestLogger
	rateLimiter         *middleware.RateLimiter
	metricsHandler      http.Handler
}

func NewRouter(
	availabilityHandler *handler.AvailabilityHandler,
	matchHandler *handler.MatchHandler,
	bookingHandler *handler.BookingHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestLogger *middleware.RequestLogger,
	rateLimiter *middleware.RateLimiter,
	metricsHandler http.Handler,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		availabilityHandler: availabilityHandler,
		matchHandler:        matchHandler,
		bookingHandler:      bookingHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		requestLogger:       requestLogger,
		rateLimiter:         rateLimiter,
		metricsHandler:      metricsHandler,
	}
}

func (r *Router) Setup() *mux.Router {
	if r.metricsHandler != nil {
		r.router.Handle("/metrics", r.metricsHandler).Methods(http.MethodGet)
	}

	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Availability (any authenticated user)
	providers := api.PathPrefix("/providers").Subrouter()
	providers.Use(r.authMiddleware.Authenticate)
	providers.HandleFunc("/{id}/availability", r.availabilityHandler.GetAvailability).Methods(http.MethodGet)
	providers.HandleFunc("/{id}/availability/week", r.availabilityHandler.GetWeeklyAvailability).Methods(http.MethodGet)
	providers.HandleFunc("/{id}/availability/next", r.availabilityHandler.GetNextAvailable).Methods(http.MethodGet)

	// Client routes
	client := api.NewRoute().Subrouter()
	client.Use(r.authMiddleware.Authenticate)
	client.Use(middleware.RequireClient)
	client.Use(r.rateLimiter.Handle)
	client.HandleFunc("/matches", r.matchHandler.MatchProvider).Methods(http.MethodPost)
	client.HandleFunc("/bookings", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	client.HandleFunc("/bookings/automatic", r.bookingHandler.CreateAutomaticBooking).Methods(http.MethodPost)
	client.HandleFunc("/bookings", r.bookingHandler.GetMyBookings).Methods(http.MethodGet)
	client.HandleFunc("/bookings/{id}/reschedule", r.bookingHandler.RescheduleBooking).Methods(http.MethodPost)

	// Booking routes shared by client, provider and admin; the usecase checks ownership
	shared := api.PathPrefix("/bookings").Subrouter()
	shared.Use(r.authMiddleware.Authenticate)
	shared.Use(r.rateLimiter.Handle)
	shared.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	shared.Handle("/{id}/cancel", middleware.RequireClientOrPsychologist(http.HandlerFunc(r.bookingHandler.CancelBooking))).Methods(http.MethodPost)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/bookings/sweep", r.bookingHandler.SweepStatuses).Methods(http.MethodPost)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS and request logging middleware
	r.router.Use(r.corsMiddleware.Handle)
	r.router.Use(r.requestLogger.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
