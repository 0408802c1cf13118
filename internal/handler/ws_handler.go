/*
Package handler provides the HTTP handlers and routing for the SmartComms
server.

This file owns the connection lifecycle: rate limit, authenticate, upgrade,
register with the gateway, pump until disconnect. The auth gate runs exactly
once per connection, before the upgrade; a session that fails it never touches
the registry or the presence set.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/chat"
	"github.com/VisalRazaZaidi/SmartComms/internal/app/user"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/auth/jwt"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/limiter"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

// HandleWebSocket processes WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, connectLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !connectLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.Error(w, r, errs.New(errs.ErrRateLimitExceeded))
			return
		}

		identity, customErr := authenticateHandshake(r, deps)
		if customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		session := chat.NewSession(deps.Gateway, conn, identity)

		go session.WritePump()

		deps.Gateway.Attach(session)

		logx.Info("WebSocket session established",
			"session_id", session.ID(),
			"user_id", identity.ID,
		)

		session.ReadPump()
	}
}

// authenticateHandshake resolves the handshake to a user identity: token from
// header, cookie, or query, then an account lookup so the display name
// embedded in broadcasts is current.
func authenticateHandshake(r *http.Request, deps *AppDeps) (user.User, *errs.CustomError) {
	tokenString := jwt.TokenFromRequest(r)
	if tokenString == "" {
		return user.User{}, errs.New(errs.ErrUnauthorized)
	}

	payload, err := jwt.ParseToken(tokenString, deps.Config.JWTSecret)
	if err != nil {
		logx.Warn("WebSocket handshake rejected: invalid token", "error", err.Error())
		return user.User{}, errs.New(errs.ErrUnauthorized)
	}

	account, err := deps.Store.GetUserByID(r.Context(), payload.ID)
	if err != nil {
		logx.Warn("WebSocket handshake rejected: unknown account", "user_id", payload.ID)
		return user.User{}, errs.New(errs.ErrUnauthorized)
	}

	return user.User{
		ID:     account.ID,
		Name:   account.Name,
		Avatar: account.AvatarURL,
	}, nil
}
