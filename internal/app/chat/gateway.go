/*
Package chat implements the real-time messaging and presence core of the
SmartComms server.

This file defines the Gateway, the hub that routes chat events between
sessions. It owns the only goroutine allowed to mutate the Registry and the
Presence set: sessions feed it events over channels, and it consumes them one
at a time, so connect, disconnect, and send races are resolved by serialization
rather than fine-grained locking.

The membership list on inbound events is supplied by the client, mirroring the
original service's contract. A client can therefore claim membership it does
not have; the authoritative list lives in the persistence layer and is exposed
over the REST surface, but the router does not re-derive it per event. Known
limitation, kept deliberately.
*/
package chat

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
)

// storeTimeout bounds a single durable write. The broadcast has already
// happened by the time the write starts, so a slow store can only cost
// durability, never delivery.
const storeTimeout = 10 * time.Second

// MessageStore persists chat messages. Writes are fire-and-forget from the
// router's perspective: a failure is logged, never surfaced to the sender, and
// never rolls back a broadcast.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg DurableMessage) error
}

// event is one unit of work for the gateway loop: an inbound client event or
// the transport-generated disconnect.
type event struct {
	session   *Session
	eventType EventType
	payload   json.RawMessage
}

// Gateway coordinates every live session. Construct one per process with
// NewGateway, start it with Run, and stop it with Shutdown.
type Gateway struct {
	registry *Registry
	presence *Presence
	store    MessageStore

	// sessions maps session id to session. Touched only by the Run goroutine.
	sessions map[string]*Session

	register chan *Session
	events   chan event

	// done stops the Run loop and unblocks pending submits.
	done     chan struct{}
	stopOnce sync.Once

	// runDone closes when the Run loop has fully exited.
	runDone chan struct{}

	// storeWG tracks in-flight durable writes for Shutdown.
	storeWG sync.WaitGroup

	logger zerolog.Logger
}

// NewGateway wires a Gateway to its registry, presence set, and message store.
// The registry and presence set are constructed once per process and passed in
// explicitly; the gateway becomes their only mutator.
func NewGateway(registry *Registry, presence *Presence, store MessageStore) *Gateway {
	return &Gateway{
		registry: registry,
		presence: presence,
		store:    store,
		sessions: make(map[string]*Session),
		register: make(chan *Session),
		events:   make(chan event, 64),
		done:     make(chan struct{}),
		runDone:  make(chan struct{}),
		logger:   logx.Logger().With().Str("component", "Gateway").Logger(),
	}
}

// Attach registers an authenticated session with the gateway. Called by the
// connection lifecycle handler after the auth gate has resolved the identity.
func (g *Gateway) Attach(s *Session) {
	select {
	case g.register <- s:
	case <-g.done:
		s.logger.Warn().Msg("Gateway stopped. Session not attached.")
	}
}

// submit queues an event for the run loop. Blocks until accepted so that
// per-session ordering is preserved; a stopped gateway drops the event.
func (g *Gateway) submit(ev event) {
	select {
	case g.events <- ev:
	case <-g.done:
	}
}

// Run is the gateway's main loop. It is the single consumer of the register
// and event channels and the only goroutine that mutates the registry, the
// presence set, or the session table.
func (g *Gateway) Run() {
	defer func() {
		for _, s := range g.sessions {
			close(s.send)
		}
		g.sessions = nil

		g.logger.Info().Msg("Gateway loop stopped.")
		close(g.runDone)
	}()

	g.logger.Info().Msg("Gateway loop started.")

	for {
		select {
		case s := <-g.register:
			g.handleAttach(s)

		case ev := <-g.events:
			g.dispatch(ev)

		case <-g.done:
			return
		}
	}
}

// Shutdown stops the run loop, waits for it to exit, and drains in-flight
// durable writes.
func (g *Gateway) Shutdown() {
	g.stopOnce.Do(func() {
		close(g.done)
	})

	<-g.runDone
	g.storeWG.Wait()

	g.logger.Info().Msg("Gateway shutdown complete.")
}

// OnlineUsers returns the current presence snapshot for the REST surface.
func (g *Gateway) OnlineUsers() []string {
	return g.presence.Snapshot()
}

// handleAttach records a session in the session table and the registry.
func (g *Gateway) handleAttach(s *Session) {
	g.sessions[s.id] = s
	g.registry.Register(s.identity.ID, s.id)

	g.logger.Info().
		Str("session_id", s.id).
		Str("user_id", s.identity.ID).
		Int("total_sessions", len(g.sessions)).
		Msg("Session attached.")
}

// dispatch routes one event to its handler.
func (g *Gateway) dispatch(ev event) {
	switch ev.eventType {
	case EventNewMessage:
		g.handleNewMessage(ev)

	case EventStartTyping:
		g.handleTyping(ev, EventStartTyping)

	case EventStopTyping:
		g.handleTyping(ev, EventStopTyping)

	case EventChatJoined:
		g.handlePresenceChange(ev, true)

	case EventChatLeaved:
		g.handlePresenceChange(ev, false)

	case eventDisconnect:
		g.handleDisconnect(ev.session)
	}
}

// handleNewMessage builds both message forms, broadcasts the real-time form
// with its alert to the resolved targets, and hands the durable form to the
// store without waiting on it.
func (g *Gateway) handleNewMessage(ev event) {
	var payload NewMessagePayload
	if err := json.Unmarshal(ev.payload, &payload); err != nil {
		ev.session.logger.Warn().Err(err).Msg("Invalid NEW_MESSAGE payload")
		return
	}

	if payload.Message == "" || len(payload.Message) > MaxContentBytes {
		ev.session.logger.Warn().Int("content_bytes", len(payload.Message)).Msg("Dropping message with invalid content length")
		return
	}

	realtime, durable := newRealtimeMessage(payload.Message, payload.ChatID, ev.session.identity)

	// The emitting session renders its own message locally; everything else,
	// including the sender's other sessions, receives the broadcast.
	targets := g.resolveTargets(payload.Members)
	filtered := targets[:0]
	for _, sessionID := range targets {
		if sessionID != ev.session.id {
			filtered = append(filtered, sessionID)
		}
	}
	targets = filtered

	g.broadcastTo(targets, EventNewMessage, NewMessageBroadcast{
		ChatID:  payload.ChatID,
		Message: realtime,
	})
	g.broadcastTo(targets, EventNewMessageAlert, ChatAlert{ChatID: payload.ChatID})

	g.persistAsync(durable)
}

// persistAsync writes the durable form in a detached goroutine. The live
// broadcast has already gone out; a storage failure costs durability only and
// is reported to the log, not to the sender.
func (g *Gateway) persistAsync(msg DurableMessage) {
	g.storeWG.Add(1)

	go func() {
		defer g.storeWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := g.store.CreateMessage(ctx, msg); err != nil {
			g.logger.Error().
				Err(err).
				Str("message_id", msg.ID).
				Str("chat_id", msg.Chat).
				Msg("Message delivered live but failed to persist")
		}
	}()
}

// handleTyping relays a typing indicator to the resolved targets, excluding
// every session belonging to the sender.
func (g *Gateway) handleTyping(ev event, eventType EventType) {
	var payload TypingPayload
	if err := json.Unmarshal(ev.payload, &payload); err != nil {
		ev.session.logger.Warn().Err(err).Str("event_type", string(eventType)).Msg("Invalid typing payload")
		return
	}

	targets := g.resolveTargets(payload.Members)

	senderID := ev.session.identity.ID
	filtered := targets[:0]
	for _, sessionID := range targets {
		if s, ok := g.sessions[sessionID]; ok && s.identity.ID != senderID {
			filtered = append(filtered, sessionID)
		}
	}

	g.broadcastTo(filtered, eventType, ChatAlert{ChatID: payload.ChatID})
}

// handlePresenceChange marks the user online or offline and broadcasts the
// full snapshot to the resolved targets.
func (g *Gateway) handlePresenceChange(ev event, online bool) {
	var payload PresencePayload
	if err := json.Unmarshal(ev.payload, &payload); err != nil {
		ev.session.logger.Warn().Err(err).Msg("Invalid presence payload")
		return
	}

	if payload.UserID == "" {
		payload.UserID = ev.session.identity.ID
	}

	if online {
		g.presence.MarkOnline(payload.UserID)
	} else {
		g.presence.MarkOffline(payload.UserID)
	}

	g.broadcastTo(g.resolveTargets(payload.Members), EventOnlineUsers, g.presence.Snapshot())
}

// handleDisconnect removes the session from the table and the registry. When
// it was the user's last session the user also goes offline, and the refreshed
// snapshot goes to every connected session. Global scope is deliberate: any
// open client may be rendering the departed user's presence, and the server
// has no record of which chats the session was watching.
func (g *Gateway) handleDisconnect(s *Session) {
	if _, ok := g.sessions[s.id]; !ok {
		// Disconnect raced with a registration that never happened.
		return
	}

	delete(g.sessions, s.id)
	close(s.send)

	userID, last := g.registry.Deregister(s.id)

	g.logger.Info().
		Str("session_id", s.id).
		Str("user_id", userID).
		Bool("last_session", last).
		Int("total_sessions", len(g.sessions)).
		Msg("Session detached.")

	if last {
		g.presence.MarkOffline(userID)
		g.broadcastAll(EventOnlineUsers, g.presence.Snapshot())
	}
}

// resolveTargets maps a chat membership list to the live sessions to reach.
// It decouples who should receive a broadcast (membership) from how to reach
// them (transport).
func (g *Gateway) resolveTargets(members []string) []string {
	return g.registry.SessionsFor(members)
}

// broadcastTo marshals the event once and enqueues it on every target session.
// Targets that vanished or fell behind are skipped silently.
func (g *Gateway) broadcastTo(sessionIDs []string, eventType EventType, payload any) {
	frame, err := newEnvelope(eventType, payload)
	if err != nil {
		g.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("Failed to marshal broadcast")
		return
	}

	for _, sessionID := range sessionIDs {
		s, ok := g.sessions[sessionID]
		if !ok {
			// Target disconnected between resolution and delivery.
			continue
		}

		if !s.enqueue(frame) {
			s.logger.Warn().Str("event_type", string(eventType)).Msg("Session send queue full, dropping frame")
		}
	}
}

// broadcastAll delivers an event to every connected session.
func (g *Gateway) broadcastAll(eventType EventType, payload any) {
	all := make([]string, 0, len(g.sessions))
	for sessionID := range g.sessions {
		all = append(all, sessionID)
	}

	g.broadcastTo(all, eventType, payload)
}
