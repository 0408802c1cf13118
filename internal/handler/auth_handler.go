/*
Package handler provides the HTTP handlers and routing for the SmartComms
server.

This file holds account registration and login.
*/
package handler

import (
	"net/http"
	"regexp"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/store"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/auth/jwt"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/randx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/req"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

var usernameRegex = regexp.MustCompile(`^[a-z0-9_]{4,20}$`)

type RegisterInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// HandleRegister creates a new account.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input RegisterInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		if !usernameRegex.MatchString(input.Username) {
			resp.Error(w, r, errs.New(errs.ErrInvalidUsername))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < 6 || passwordLen > 50 {
			resp.Error(w, r, errs.New(errs.ErrInvalidPassword))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		name := input.Name
		if name == "" {
			name, err = randx.DisplayName()
			if err != nil {
				name = "User_X"
			}
		}

		account := store.User{
			ID:           randx.NewID(),
			Username:     input.Username,
			PasswordHash: string(hashedPassword),
			Name:         name,
		}

		if err := deps.Store.CreateUser(r.Context(), account); err != nil {
			if store.IsUniqueViolation(err) {
				resp.Error(w, r, errs.New(errs.ErrUserAlreadyExists))
				return
			}
			logx.Error(err, "Failed to create user", "username", input.Username)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		token, err := issueToken(account, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to issue token after registration")
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		setTokenCookie(w, token, deps.Config.Environment)

		resp.Success(w, r, map[string]any{
			"token": token,
			"user":  account,
		})
	}
}

type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues an identity token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input LoginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		account, err := deps.Store.GetUserByUsername(r.Context(), input.Username)
		if err != nil {
			// Indistinguishable from a wrong password.
			resp.Error(w, r, errs.New(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
			resp.Error(w, r, errs.New(errs.ErrInvalidCredentials))
			return
		}

		token, err := issueToken(account, deps.Config.JWTSecret)
		if err != nil {
			logx.Error(err, "Failed to issue token at login")
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		setTokenCookie(w, token, deps.Config.Environment)

		resp.Success(w, r, map[string]any{
			"token": token,
			"user":  account,
		})
	}
}

// issueToken mints the identity token for an account.
func issueToken(account store.User, secret string) (string, error) {
	payload := &jwt.Payload{
		ID:   account.ID,
		Name: account.Name,
	}

	return jwt.GenerateToken(payload, secret, jwt.IdentityExpiration)
}

// setTokenCookie mirrors the token into the session cookie so browser clients
// can open the WebSocket without attaching headers.
func setTokenCookie(w http.ResponseWriter, token, environment string) {
	http.SetCookie(w, &http.Cookie{
		Name:     jwt.TokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(jwt.IdentityExpiration.Seconds()),
		HttpOnly: true,
		Secure:   environment != "development",
		SameSite: http.SameSiteNoneMode,
	})
}
