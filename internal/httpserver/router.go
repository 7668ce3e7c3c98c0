package httpserver

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"unimarket/internal/config"
	"unimarket/internal/ratelimit"
	"unimarket/internal/security"
	"unimarket/internal/service"
	"unimarket/internal/store/sqlite"
	"unimarket/internal/ws"
)

// NewRouter constructs the main HTTP router and wires routes, services, and
// middleware. Admission control runs before anything else under /api: the
// general limiter covers all traffic, and a stricter IP-only limiter layers
// on the auth endpoints.
func NewRouter(cfg *config.Config, db *sql.DB, hub *ws.Hub, tokenSvc *security.TokenService, passwordHasher *security.PasswordHasher, log *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Repositories
	userRepo := sqlite.NewUserRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)
	listingRepo := sqlite.NewListingRepo(db)

	// Services
	authSvc := service.NewAuthService(userRepo, tokenSvc, passwordHasher)
	msgSvc := service.NewMessageService(msgRepo)
	convSvc := service.NewConversationService(msgRepo, userRepo, listingRepo, cfg.ThreadPageSize)
	dispatcher := ws.NewDispatcher(hub, log)

	// Admission controllers
	window := time.Duration(cfg.RateLimitWindowMinutes) * time.Minute
	generalLimiter := ratelimit.New(window, cfg.RateLimitMax)
	authLimiter := ratelimit.New(window, cfg.AuthRateLimitMax)
	go func() {
		ticker := time.NewTicker(window)
		defer ticker.Stop()
		for range ticker.C {
			generalLimiter.Prune()
			authLimiter.Prune()
		}
	}()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimit.Middleware(generalLimiter, ratelimit.KeyByBearerOrIP(tokenSvc.DecodeUnverified)))

		// Auth routes (no auth required, stricter brute-force limiter)
		r.Route("/auth", func(r chi.Router) {
			r.Use(ratelimit.Middleware(authLimiter, ratelimit.KeyByIP))
			r.Post("/register", handleRegister(authSvc, log))
			r.Post("/login", handleLogin(authSvc, log))

			r.Group(func(r chi.Router) {
				r.Use(AuthMiddleware(tokenSvc, userRepo))
				r.Get("/me", handleMe())
			})
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(tokenSvc, userRepo))

			r.Route("/messages", func(r chi.Router) {
				r.Post("/", handleSendMessage(msgSvc, dispatcher, log))
				r.Get("/conversations", handleListConversations(convSvc, log))
				r.Get("/unread-count", handleUnreadCount(convSvc, log))
				r.Get("/user/{otherUserID}", handleThread(convSvc, log))
				r.Get("/listing/{listingID}", handleListingThread(convSvc, log))
				r.Patch("/{messageID}/read", handleMarkRead(msgSvc, log))
				r.Patch("/conversation/{otherUserID}/read", handleMarkConversationRead(msgSvc, log))
				r.Delete("/{messageID}", handleDeleteMessage(msgSvc, log))
			})
		})
	})

	// WebSocket endpoint
	r.Get("/ws", ws.MakeHandler(hub, tokenSvc, userRepo, log, cfg.CORSOrigins))

	return r
}
