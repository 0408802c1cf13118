package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VisalRazaZaidi/SmartComms/internal/app/user"
)

// stubStore records durable writes and can be told to fail them.
type stubStore struct {
	err     error
	created chan DurableMessage
}

func newStubStore(err error) *stubStore {
	return &stubStore{
		err:     err,
		created: make(chan DurableMessage, 16),
	}
}

func (s *stubStore) CreateMessage(ctx context.Context, msg DurableMessage) error {
	s.created <- msg
	return s.err
}

func startGateway(t *testing.T, st MessageStore) *Gateway {
	t.Helper()

	g := NewGateway(NewRegistry(), NewPresence(), st)
	go g.Run()
	t.Cleanup(g.Shutdown)

	return g
}

// connect attaches a pump-less session so tests can read broadcast frames
// straight off the send queue.
func connect(g *Gateway, identity user.User) *Session {
	s := NewSession(g, nil, identity)
	g.Attach(s)
	return s
}

func sendEvent(s *Session, eventType EventType, payload any) {
	body, _ := json.Marshal(payload)
	frame, _ := json.Marshal(Envelope{Type: eventType, Payload: body})
	s.forwardInbound(frame)
}

func disconnect(g *Gateway, s *Session) {
	g.submit(event{session: s, eventType: eventDisconnect})
}

func recvFrame(t *testing.T, s *Session) Envelope {
	t.Helper()

	select {
	case frame, ok := <-s.send:
		require.True(t, ok, "send queue closed while waiting for frame")
		var env Envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		return env
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return Envelope{}
	}
}

func requireNoFrame(t *testing.T, s *Session) {
	t.Helper()

	select {
	case frame := <-s.send:
		t.Fatalf("unexpected frame: %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func onlineUsersFrom(t *testing.T, env Envelope) []string {
	t.Helper()

	require.Equal(t, EventOnlineUsers, env.Type)
	var users []string
	require.NoError(t, json.Unmarshal(env.Payload, &users))
	return users
}

func TestNewMessageReachesOtherMembersExactlyOnce(t *testing.T) {
	st := newStubStore(nil)
	g := startGateway(t, st)

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})
	s3 := connect(g, user.User{ID: "u3", Name: "Carol"}) // not a member

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "hello",
	})

	env := recvFrame(t, s2)
	require.Equal(t, EventNewMessage, env.Type)

	var broadcast NewMessageBroadcast
	require.NoError(t, json.Unmarshal(env.Payload, &broadcast))
	assert.Equal(t, "c1", broadcast.ChatID)
	assert.Equal(t, "hello", broadcast.Message.Content)
	assert.Equal(t, "u1", broadcast.Message.Sender.ID)
	assert.Equal(t, "Alice", broadcast.Message.Sender.Name)
	assert.NotEmpty(t, broadcast.Message.ID)

	alert := recvFrame(t, s2)
	require.Equal(t, EventNewMessageAlert, alert.Type)

	var alertBody ChatAlert
	require.NoError(t, json.Unmarshal(alert.Payload, &alertBody))
	assert.Equal(t, "c1", alertBody.ChatID)

	// Exactly one of each: no further frames for the recipient, none at all
	// for the sender or for sessions outside the membership.
	requireNoFrame(t, s2)
	requireNoFrame(t, s1)
	requireNoFrame(t, s3)
}

func TestNewMessageDurableFormMatchesBroadcast(t *testing.T) {
	st := newStubStore(nil)
	g := startGateway(t, st)

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "hello",
	})

	env := recvFrame(t, s2)
	var broadcast NewMessageBroadcast
	require.NoError(t, json.Unmarshal(env.Payload, &broadcast))

	select {
	case durable := <-st.created:
		assert.Equal(t, broadcast.Message.ID, durable.ID)
		assert.Equal(t, "hello", durable.Content)
		assert.Equal(t, "c1", durable.Chat)
		// The durable form carries the sender as a bare identity.
		assert.Equal(t, "u1", durable.Sender)
	case <-time.After(time.Second):
		t.Fatal("durable write never happened")
	}
}

func TestPersistenceFailureDoesNotBlockBroadcast(t *testing.T) {
	st := newStubStore(errors.New("storage down"))
	g := startGateway(t, st)

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "still delivered",
	})

	env := recvFrame(t, s2)
	require.Equal(t, EventNewMessage, env.Type)

	var broadcast NewMessageBroadcast
	require.NoError(t, json.Unmarshal(env.Payload, &broadcast))
	assert.Equal(t, "still delivered", broadcast.Message.Content)

	select {
	case <-st.created:
	case <-time.After(time.Second):
		t.Fatal("store was never called")
	}
}

func TestMessageToOfflineMembersOnlyReachesLiveSessions(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "a", Name: "A"})
	s2 := connect(g, user.User{ID: "b", Name: "B"})
	// "c" has no live session.

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"a", "b", "c"},
		Message: "hi",
	})

	require.Equal(t, EventNewMessage, recvFrame(t, s2).Type)
	require.Equal(t, EventNewMessageAlert, recvFrame(t, s2).Type)
	requireNoFrame(t, s2)
}

func TestTypingExcludesSender(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s1b := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventStartTyping, TypingPayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
	})

	env := recvFrame(t, s2)
	require.Equal(t, EventStartTyping, env.Type)

	var alert ChatAlert
	require.NoError(t, json.Unmarshal(env.Payload, &alert))
	assert.Equal(t, "c1", alert.ChatID)

	// Neither session of the typing user hears it.
	requireNoFrame(t, s1)
	requireNoFrame(t, s1b)

	sendEvent(s1, EventStopTyping, TypingPayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
	})

	require.Equal(t, EventStopTyping, recvFrame(t, s2).Type)
}

func TestJoinBroadcastsOnlineUsersToMembers(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventChatJoined, PresencePayload{
		UserID:  "u1",
		Members: []string{"u1", "u2"},
	})

	assert.ElementsMatch(t, []string{"u1"}, onlineUsersFrom(t, recvFrame(t, s1)))
	assert.ElementsMatch(t, []string{"u1"}, onlineUsersFrom(t, recvFrame(t, s2)))

	sendEvent(s2, EventChatJoined, PresencePayload{
		UserID:  "u2",
		Members: []string{"u1", "u2"},
	})

	assert.ElementsMatch(t, []string{"u1", "u2"}, onlineUsersFrom(t, recvFrame(t, s1)))
	assert.ElementsMatch(t, []string{"u1", "u2"}, onlineUsersFrom(t, recvFrame(t, s2)))
}

func TestLeaveRemovesUserFromSnapshot(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventChatJoined, PresencePayload{UserID: "u1", Members: []string{"u1", "u2"}})
	recvFrame(t, s1)
	recvFrame(t, s2)

	sendEvent(s1, EventChatLeaved, PresencePayload{UserID: "u1", Members: []string{"u1", "u2"}})

	assert.Empty(t, onlineUsersFrom(t, recvFrame(t, s1)))
	assert.Empty(t, onlineUsersFrom(t, recvFrame(t, s2)))
}

func TestDisconnectOfOneSessionKeepsUserPresent(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s1b := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventChatJoined, PresencePayload{UserID: "u1", Members: []string{"u1", "u2"}})
	recvFrame(t, s1)
	recvFrame(t, s1b)
	recvFrame(t, s2)

	disconnect(g, s1)

	// Not the last session: no presence change, no broadcast.
	requireNoFrame(t, s2)

	// The user is still reachable through the second session.
	sendEvent(s2, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "still there?",
	})

	require.Equal(t, EventNewMessage, recvFrame(t, s1b).Type)
	assert.True(t, g.presence.IsOnline("u1"))
}

func TestLastDisconnectClearsPresenceAndBroadcastsGlobally(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})
	s3 := connect(g, user.User{ID: "u3", Name: "Carol"})

	sendEvent(s1, EventChatJoined, PresencePayload{UserID: "u1", Members: []string{"u1", "u2"}})
	recvFrame(t, s1)
	recvFrame(t, s2)

	disconnect(g, s1)

	// Every connected session gets the refreshed snapshot, membership or not.
	users := onlineUsersFrom(t, recvFrame(t, s2))
	assert.NotContains(t, users, "u1")
	assert.NotContains(t, onlineUsersFrom(t, recvFrame(t, s3)), "u1")

	assert.False(t, g.presence.IsOnline("u1"))
	assert.Empty(t, g.registry.SessionsFor([]string{"u1"}))
}

func TestDisconnectRacingBroadcastIsSwallowed(t *testing.T) {
	st := newStubStore(nil)
	g := startGateway(t, st)

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	// The recipient disconnects; a send naming it as a member must not fail
	// and must not resurrect it.
	disconnect(g, s2)

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "into the void",
	})

	// Synchronize on the durable write so the first message is fully
	// dispatched before a new session for the same user appears.
	select {
	case <-st.created:
	case <-time.After(time.Second):
		t.Fatal("store was never called")
	}

	g2 := connect(g, user.User{ID: "u2", Name: "Bob"})
	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "back again",
	})

	env := recvFrame(t, g2)
	require.Equal(t, EventNewMessage, env.Type)

	var broadcast NewMessageBroadcast
	require.NoError(t, json.Unmarshal(env.Payload, &broadcast))
	assert.Equal(t, "back again", broadcast.Message.Content)
}

func TestOversizedOrEmptyMessageIsDropped(t *testing.T) {
	st := newStubStore(nil)
	g := startGateway(t, st)

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: "",
	})

	big := make([]byte, MaxContentBytes+1)
	for i := range big {
		big[i] = 'x'
	}
	sendEvent(s1, EventNewMessage, NewMessagePayload{
		ChatID:  "c1",
		Members: []string{"u1", "u2"},
		Message: string(big),
	})

	requireNoFrame(t, s2)
	assert.Empty(t, st.created)
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	s1.forwardInbound([]byte("not json"))
	s1.forwardInbound([]byte(`{"type":"UNKNOWN_EVENT","payload":{}}`))
	s1.forwardInbound([]byte(`{"type":"NEW_MESSAGE","payload":"not an object"}`))

	requireNoFrame(t, s2)
}

func TestOnlineUsersAccessorMatchesSnapshot(t *testing.T) {
	g := startGateway(t, newStubStore(nil))

	s1 := connect(g, user.User{ID: "u1", Name: "Alice"})
	s2 := connect(g, user.User{ID: "u2", Name: "Bob"})

	sendEvent(s1, EventChatJoined, PresencePayload{UserID: "u1", Members: []string{"u1", "u2"}})
	recvFrame(t, s1)
	recvFrame(t, s2)

	assert.ElementsMatch(t, []string{"u1"}, g.OnlineUsers())
}
