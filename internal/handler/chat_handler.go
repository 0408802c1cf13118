/*
Package handler provides the HTTP handlers and routing for the SmartComms
server.

This file holds the chat CRUD surface: creation, membership, and message
history. Membership read endpoints serve the authoritative list the real-time
payloads are expected to agree with.
*/
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/store"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/auth/jwt"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/errs"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/randx"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/req"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/resp"
)

// minChatMembers is the smallest membership a chat can be created with,
// counting the creator.
const minChatMembers = 2

type CreateChatInput struct {
	Name      string   `json:"name,omitempty"`
	Members   []string `json:"members"`
	GroupChat bool     `json:"groupChat,omitempty"`
}

// HandleCreateChat creates a chat whose membership always includes the caller.
func HandleCreateChat(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		var input CreateChatInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		members := input.Members
		found := false
		for _, m := range members {
			if m == identity.ID {
				found = true
				break
			}
		}
		if !found {
			members = append(members, identity.ID)
		}

		if len(members) < minChatMembers {
			resp.Error(w, r, errs.New(errs.ErrChatMembersInvalid, minChatMembers))
			return
		}

		chatRow := store.Chat{
			ID:        randx.NewID(),
			Name:      input.Name,
			GroupChat: input.GroupChat || len(members) > 2,
			CreatorID: identity.ID,
			Members:   members,
		}

		if err := deps.Store.CreateChat(r.Context(), chatRow); err != nil {
			logx.Error(err, "Failed to create chat", "creator_id", identity.ID)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		resp.Success(w, r, chatRow)
	}
}

// HandleMyChats lists the chats the caller belongs to.
func HandleMyChats(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)

		chats, err := deps.Store.ChatsForUser(r.Context(), identity.ID)
		if err != nil {
			logx.Error(err, "Failed to list chats", "user_id", identity.ID)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		resp.Success(w, r, map[string]any{"chats": chats})
	}
}

// HandleChatMembers returns the authoritative membership of a chat. Callers
// must themselves be members.
func HandleChatMembers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		chatID := chi.URLParam(r, "id")

		if customErr := requireMembership(r, deps, chatID, identity.ID); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		members, err := deps.Store.ChatMembers(r.Context(), chatID)
		if err != nil {
			logx.Error(err, "Failed to load chat members", "chat_id", chatID)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		resp.Success(w, r, map[string]any{"members": members})
	}
}

// HandleChatMessages returns the most recent messages of a chat, oldest first.
func HandleChatMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		chatID := chi.URLParam(r, "id")

		if customErr := requireMembership(r, deps, chatID, identity.ID); customErr != nil {
			resp.Error(w, r, customErr)
			return
		}

		limit := 50
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed < 1 || parsed > 200 {
				resp.Error(w, r, errs.New(errs.ErrInvalidParams))
				return
			}
			limit = parsed
		}

		messages, err := deps.Store.Messages(r.Context(), chatID, limit)
		if err != nil {
			logx.Error(err, "Failed to load chat messages", "chat_id", chatID)
			resp.Error(w, r, errs.New(errs.ErrUnknown))
			return
		}

		resp.Success(w, r, map[string]any{"messages": messages})
	}
}

// HandleOnlineUsers returns the current presence snapshot.
func HandleOnlineUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.Success(w, r, map[string]any{
			"users": deps.Gateway.OnlineUsers(),
		})
	}
}

// requireMembership verifies the chat exists and the caller belongs to it.
func requireMembership(r *http.Request, deps *AppDeps, chatID, userID string) *errs.CustomError {
	if chatID == "" {
		return errs.New(errs.ErrInvalidParams)
	}

	if _, err := deps.Store.GetChat(r.Context(), chatID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errs.New(errs.ErrChatNotFound)
		}
		logx.Error(err, "Failed to load chat", "chat_id", chatID)
		return errs.New(errs.ErrUnknown)
	}

	member, err := deps.Store.IsChatMember(r.Context(), chatID, userID)
	if err != nil {
		logx.Error(err, "Failed to check chat membership", "chat_id", chatID)
		return errs.New(errs.ErrUnknown)
	}
	if !member {
		return errs.New(errs.ErrNotChatMember)
	}

	return nil
}
