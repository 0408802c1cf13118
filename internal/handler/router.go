/*
Package handler provides the HTTP handlers and routing for the SmartComms
server: the REST surface, the smart-reply proxy, and the WebSocket endpoint
that feeds the chat core.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/auth/jwt"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/limiter"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

const (
	// AuthRate/AuthBurst limit register and login attempts per IP.
	AuthRate  = 0.2
	AuthBurst = 5

	// ConnectRate/ConnectBurst limit WebSocket connection attempts per IP.
	ConnectRate  = 0.5
	ConnectBurst = 10

	// SuggestRate/SuggestBurst limit smart-reply calls per IP, since each one
	// costs an upstream API request.
	SuggestRate  = 0.5
	SuggestBurst = 3
)

// Router builds the routing table: global middleware, CORS, the public auth
// routes, the authenticated API, and the WebSocket endpoint.
func Router(deps *AppDeps) http.Handler {
	authLimiter := limiter.NewIPRateLimiter(rate.Limit(AuthRate), AuthBurst)
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	suggestLimiter := limiter.NewIPRateLimiter(rate.Limit(SuggestRate), SuggestBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp.Success(w, r, map[string]string{
			"status":  "ok",
			"service": "SmartComms Server",
		})
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(authLimiter.Middleware)
			auth.Post("/register", HandleRegister(deps))
			auth.Post("/login", HandleLogin(deps))
		})

		api.Group(func(protected chi.Router) {
			protected.Use(jwt.RequireAuth(deps.Config.JWTSecret))

			protected.Route("/chat", func(ch chi.Router) {
				ch.Post("/create", HandleCreateChat(deps))
				ch.Get("/mine", HandleMyChats(deps))
				ch.Get("/{id}/members", HandleChatMembers(deps))
				ch.Get("/{id}/messages", HandleChatMessages(deps))
			})

			protected.Get("/users/online", HandleOnlineUsers(deps))
			protected.Post("/user/avatar", HandleUploadAvatar(deps))

			protected.With(suggestLimiter.Middleware).
				Post("/smart-reply", HandleSmartReply(deps))

			protected.Post("/file/presign-upload", HandlePresignUpload(deps))
			protected.Get("/file/presign-download", HandlePresignDownload(deps))
		})
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	return r
}
