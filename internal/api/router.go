package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Dhirendranath1989/worklink7-sub001/internal/api/middleware"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/chat"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/handlers"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/realtime"
	"github.com/Dhirendranath1989/worklink7-sub001/internal/store"
)

// Deps carries everything the router wires together.
type Deps struct {
	Logger      zerolog.Logger
	Store       store.DataStore
	Hub         *realtime.Hub
	Chat        *chat.Service
	Notifier    *chat.Notifier
	RedisClient *redis.Client // nil disables rate limiting
	JWTSecret   string
}

// NewRouter creates and configures the HTTP router.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware first to capture all requests
	r.Use(middleware.Metrics)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024))
	r.Use(middleware.RequireJSON)

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimw.Recoverer)

	// The marketplace frontend calls from its own origins; credentials ride
	// in the Authorization header, not cookies.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(deps.Store, deps.Chat, deps.Notifier, deps.Hub, deps.RedisClient, deps.Logger)
	auth := middleware.NewAuthMiddleware(deps.JWTSecret)
	limiter := middleware.NewRateLimiter(deps.RedisClient, deps.Logger)

	// Operational endpoints (no auth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", h.Health)

	// Everything else assumes a verified identity
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Get("/ws", h.ServeWS)

		r.Route("/api/conversations", func(r chi.Router) {
			r.With(limiter.Limit("create_conversation", 30, time.Minute)).
				Post("/", h.CreateConversation)
			r.Get("/", h.ListConversations)
			r.Get("/{id}/messages", h.GetHistory)
			r.With(limiter.Limit("send_message", 60, time.Minute)).
				Post("/{id}/messages", h.SendMessage)
			r.Post("/{id}/read", h.MarkConversationRead)
		})

		r.Route("/api/notifications", func(r chi.Router) {
			r.Get("/", h.ListNotifications)
			r.Post("/read-all", h.MarkAllNotificationsRead)
			r.Post("/{id}/read", h.MarkNotificationRead)
			r.Delete("/{id}", h.DeleteNotification)
		})
	})

	return r
}
