package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryRegisterAndResolve(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "s1")
	r.Register("u2", "s2")

	assert.ElementsMatch(t, []string{"s1"}, r.SessionsFor([]string{"u1"}))
	assert.ElementsMatch(t, []string{"s1", "s2"}, r.SessionsFor([]string{"u1", "u2"}))
}

func TestRegistryRegisterIsIdempotent(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "s1")
	r.Register("u1", "s1")

	assert.ElementsMatch(t, []string{"s1"}, r.SessionsFor([]string{"u1"}))
	assert.Equal(t, 1, r.SessionCount())
}

func TestRegistryMultipleSessionsPerUser(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "s1")
	r.Register("u1", "s2")

	assert.ElementsMatch(t, []string{"s1", "s2"}, r.SessionsFor([]string{"u1"}))

	userID, last := r.Deregister("s1")
	assert.Equal(t, "u1", userID)
	assert.False(t, last, "user still has a live session")
	assert.ElementsMatch(t, []string{"s2"}, r.SessionsFor([]string{"u1"}))

	userID, last = r.Deregister("s2")
	assert.Equal(t, "u1", userID)
	assert.True(t, last)
	assert.Empty(t, r.SessionsFor([]string{"u1"}))
}

func TestRegistryDeregisterUnknownSessionIsNoOp(t *testing.T) {
	r := NewRegistry()
	r.Register("u1", "s1")

	userID, last := r.Deregister("never-registered")

	assert.Equal(t, "", userID)
	assert.False(t, last)
	assert.ElementsMatch(t, []string{"s1"}, r.SessionsFor([]string{"u1"}))
}

func TestRegistrySessionsForSkipsOfflineMembers(t *testing.T) {
	r := NewRegistry()

	r.Register("a", "sa")
	r.Register("b", "sb")
	// "c" never connects.

	assert.ElementsMatch(t, []string{"sa", "sb"}, r.SessionsFor([]string{"a", "b", "c"}))
	assert.Empty(t, r.SessionsFor([]string{"c"}))
}

func TestRegistrySessionsForDeduplicatesRepeatedUsers(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "s1")
	r.Register("u1", "s2")

	assert.ElementsMatch(t, []string{"s1", "s2"}, r.SessionsFor([]string{"u1", "u1"}))
}

func TestRegistryNoStaleEntriesAfterChurn(t *testing.T) {
	r := NewRegistry()

	r.Register("u1", "s1")
	r.Register("u1", "s2")
	r.Deregister("s1")
	r.Register("u1", "s3")
	r.Deregister("s2")

	assert.ElementsMatch(t, []string{"s3"}, r.SessionsFor([]string{"u1"}))
	assert.Equal(t, 1, r.SessionCount())
}
