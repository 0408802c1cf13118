/*
Package chat implements the real-time messaging and presence core of the
SmartComms server.

This file defines the Session, one live WebSocket connection authenticated as a
user. It owns the read and write pumps and forwards parsed events to the
Gateway in receipt order. The disconnect event is always the last thing a
session submits, after its read loop has drained.
*/
package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/user"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/logx"
)

const (
	// writeWait bounds a single write to the WebSocket connection.
	writeWait = 10 * time.Second

	// pongWait is how long the server waits for a Pong before assuming the
	// connection is dead.
	pongWait = 60 * time.Second

	// pingPeriod is the heartbeat interval. Must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxFrameSize caps the size of a client frame in bytes.
	maxFrameSize = 8192

	// MaxContentBytes caps message content length.
	MaxContentBytes = 5000

	// sendQueueSize is the per-session outbound buffer. A session that falls
	// this far behind is treated as a lost broadcast target.
	sendQueueSize = 256
)

// Session represents one live transport session. The identity is attached
// exactly once, before construction, by the auth gate; it never changes.
type Session struct {
	// id uniquely identifies this connection, independent of the user.
	id string

	// identity is the user this session was authenticated as.
	identity user.User

	// gateway routes every event this session produces.
	gateway *Gateway

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// send buffers outbound frames for the write pump.
	send chan []byte

	// structured logger with session context.
	logger zerolog.Logger
}

// NewSession constructs a Session for an authenticated connection.
func NewSession(gateway *Gateway, conn *websocket.Conn, identity user.User) *Session {
	sessionID := uuid.New().String()

	sessionLogger := logx.Logger().With().
		Str("session_id", sessionID).
		Str("user_id", identity.ID).
		Logger()

	return &Session{
		id:       sessionID,
		identity: identity,
		gateway:  gateway,
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
		logger:   sessionLogger,
	}
}

// ID returns the transport-assigned session identifier.
func (s *Session) ID() string {
	return s.id
}

// Identity returns the user this session authenticates as.
func (s *Session) Identity() user.User {
	return s.identity
}

// ReadPump reads frames from the connection until it closes, forwarding each
// parsed event to the gateway. Events are submitted in receipt order; the
// gateway consumes them sequentially, so per-session ordering holds end to end.
func (s *Session) ReadPump() {
	defer s.cleanupOnDisconnect()

	s.conn.SetReadLimit(maxFrameSize)

	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Info().Err(err).Msg("Error reading frame (client close/going away)")
			}
			break
		}

		s.forwardInbound(frame)
	}
}

// cleanupOnDisconnect submits the disconnect event as the session's final
// event and closes the connection. Runs once, when ReadPump exits for any
// reason: voluntary close, error, or heartbeat timeout.
func (s *Session) cleanupOnDisconnect() {
	s.logger.Info().Msg("Session disconnecting.")

	s.gateway.submit(event{session: s, eventType: eventDisconnect})

	if err := s.conn.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("Session connection close error")
	}
}

// forwardInbound parses a raw frame and hands the event to the gateway.
// Malformed or unknown frames are dropped with a log entry; they never
// terminate the session.
func (s *Session) forwardInbound(frame []byte) {
	var envelope Envelope
	if err := json.Unmarshal(frame, &envelope); err != nil {
		s.logger.Warn().Err(err).Bytes("frame", frame).Msg("Client sent invalid JSON")
		return
	}

	switch envelope.Type {
	case EventNewMessage, EventStartTyping, EventStopTyping, EventChatJoined, EventChatLeaved:
		s.gateway.submit(event{
			session:   s,
			eventType: envelope.Type,
			payload:   envelope.Payload,
		})

	default:
		s.logger.Warn().Str("event_type", string(envelope.Type)).Msg("Client sent unsupported event type")
	}
}

// WritePump writes queued frames to the connection and keeps the heartbeat
// alive. It exits when the send channel closes (gateway-side disconnect) or a
// write fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-s.send:
			if !s.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !s.writePing() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame from the send queue. Returns false when
// the pump should terminate.
func (s *Session) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := s.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			s.logger.Debug().Err(err).Msg("Error writing close frame")
		}
		return false
	}

	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		s.logger.Error().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}

// writePing sends the heartbeat Ping. Returns false when the pump should
// terminate.
func (s *Session) writePing() bool {
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		s.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		s.logger.Error().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// enqueue offers a frame to the session's send queue without blocking.
// Reports false when the queue is full; the caller treats that as a lost
// target, never an error.
func (s *Session) enqueue(frame []byte) bool {
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}
