package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceMarkAndSnapshot(t *testing.T) {
	p := NewPresence()

	p.MarkOnline("u1")
	p.MarkOnline("u2")

	assert.ElementsMatch(t, []string{"u1", "u2"}, p.Snapshot())
	assert.True(t, p.IsOnline("u1"))
}

func TestPresenceRoundTripRestoresPriorState(t *testing.T) {
	p := NewPresence()
	p.MarkOnline("u1")

	before := p.Snapshot()

	p.MarkOnline("u2")
	p.MarkOffline("u2")

	assert.ElementsMatch(t, before, p.Snapshot())
}

func TestPresenceMarksAreIdempotent(t *testing.T) {
	p := NewPresence()

	p.MarkOnline("u1")
	p.MarkOnline("u1")
	assert.ElementsMatch(t, []string{"u1"}, p.Snapshot())

	p.MarkOffline("u1")
	p.MarkOffline("u1")
	assert.Empty(t, p.Snapshot())
	assert.False(t, p.IsOnline("u1"))
}
