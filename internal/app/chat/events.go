/*
Package chat implements the real-time messaging and presence core of the
SmartComms server.

This file defines the wire protocol shared with browser clients: the event
envelope, the inbound payloads carried by transport sessions, and the outbound
broadcast shapes.
*/
package chat

import (
	"encoding/json"
	"time"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/user"
	"github.com/VisalRazaZaidi/SmartComms/internal/pkg/randx"
)

// EventType identifies a chat event on the wire.
type EventType string

const (
	// EventNewMessage carries a chat message, inbound and outbound.
	EventNewMessage EventType = "NEW_MESSAGE"

	// EventNewMessageAlert notifies recipients that a chat has a new message.
	EventNewMessageAlert EventType = "NEW_MESSAGE_ALERT"

	// EventStartTyping and EventStopTyping relay typing indicators.
	EventStartTyping EventType = "START_TYPING"
	EventStopTyping  EventType = "STOP_TYPING"

	// EventChatJoined and EventChatLeaved mark a user entering or leaving a
	// chat context; both trigger an online-users broadcast.
	EventChatJoined EventType = "CHAT_JOINED"
	EventChatLeaved EventType = "CHAT_LEAVED"

	// EventOnlineUsers broadcasts the current presence snapshot.
	EventOnlineUsers EventType = "ONLINE_USERS"
)

// eventDisconnect is the internal, transport-generated event a session emits
// as its final act. It never appears on the wire.
const eventDisconnect EventType = "disconnect"

// Envelope is the {type, payload} frame exchanged with clients.
type Envelope struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessagePayload is the inbound body of a NEW_MESSAGE event. Members is
// supplied by the client and trusted as-is; see the membership note in the
// package documentation.
type NewMessagePayload struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
	Message string   `json:"message"`
}

// TypingPayload is the inbound body of START_TYPING and STOP_TYPING events.
type TypingPayload struct {
	ChatID  string   `json:"chatId"`
	Members []string `json:"members"`
}

// PresencePayload is the inbound body of CHAT_JOINED and CHAT_LEAVED events.
type PresencePayload struct {
	UserID  string   `json:"userId"`
	Members []string `json:"members"`
}

// SenderRef is the sender embedded into the real-time form of a message.
type SenderRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// RealtimeMessage is the ephemeral broadcast form of a chat message. It exists
// only for delivery to live sessions; the durable form sent to storage carries
// the sender as a bare identity instead.
type RealtimeMessage struct {
	ID        string    `json:"_id"`
	Content   string    `json:"content"`
	Sender    SenderRef `json:"sender"`
	Chat      string    `json:"chat"`
	CreatedAt string    `json:"createdAt"`
}

// NewMessageBroadcast is the outbound body of a NEW_MESSAGE event.
type NewMessageBroadcast struct {
	ChatID  string          `json:"chatId"`
	Message RealtimeMessage `json:"message"`
}

// ChatAlert is the outbound body of NEW_MESSAGE_ALERT, START_TYPING, and
// STOP_TYPING events.
type ChatAlert struct {
	ChatID string `json:"chatId"`
}

// DurableMessage is the persistence form of a message, handed to the storage
// collaborator after the real-time broadcast. Content, chat, and timestamp
// stay consistent with the broadcast form; the stored object is never the
// broadcast object.
type DurableMessage struct {
	ID        string
	Content   string
	Sender    string
	Chat      string
	CreatedAt time.Time
}

// newRealtimeMessage builds the broadcast form of a message and its matching
// durable form from a single id and timestamp.
func newRealtimeMessage(content, chatID string, sender user.User) (RealtimeMessage, DurableMessage) {
	id := randx.MessageID()
	createdAt := time.Now().UTC()

	realtime := RealtimeMessage{
		ID:      id,
		Content: content,
		Sender: SenderRef{
			ID:   sender.ID,
			Name: sender.Name,
		},
		Chat:      chatID,
		CreatedAt: createdAt.Format(time.RFC3339),
	}

	durable := DurableMessage{
		ID:        id,
		Content:   content,
		Sender:    sender.ID,
		Chat:      chatID,
		CreatedAt: createdAt,
	}

	return realtime, durable
}

// newEnvelope marshals an outbound event frame.
func newEnvelope(eventType EventType, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(Envelope{
		Type:    eventType,
		Payload: body,
	})
}
