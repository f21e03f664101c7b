package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/weva-assistant/internal/domain"
)

func TestLog_AppendOrdersTurns(t *testing.T) {
	log := NewLog()

	first := log.Append(AssistantText(KindGreeting, "hi", AffordanceNone))
	second := log.Append(UserTurn("English"))

	assert.Equal(t, uint64(1), first.TurnID)
	assert.Equal(t, uint64(2), second.TurnID)

	snapshot := log.Snapshot()
	require.Len(t, snapshot, 2)
	assert.Equal(t, KindGreeting, snapshot[0].Kind)
	assert.Equal(t, SpeakerUser, snapshot[1].Speaker)
}

func TestLog_SnapshotIsDetached(t *testing.T) {
	log := NewLog()
	log.Append(UserTurn("a"))

	snapshot := log.Snapshot()
	snapshot[0].Text = "changed"

	assert.Equal(t, "a", log.Snapshot()[0].Text)
}

func TestLog_ResetIsIdempotent(t *testing.T) {
	log := NewLog()
	log.Append(UserTurn("a"))
	log.Append(UserTurn("b"))

	log.Reset()
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Snapshot())

	log.Reset()
	assert.Equal(t, 0, log.Len())
	assert.Empty(t, log.Snapshot())

	next := log.Append(UserTurn("c"))
	assert.Equal(t, uint64(3), next.TurnID)
}

func TestLog_Since(t *testing.T) {
	log := NewLog()
	for _, text := range []string{"a", "b", "c"} {
		log.Append(UserTurn(text))
	}

	since := log.Since(1)
	require.Len(t, since, 2)
	assert.Equal(t, "b", since[0].Text)
	assert.Nil(t, log.Since(3))
}

func TestEntityList_Choices(t *testing.T) {
	list := NewEntityList(domain.EntityStore, []domain.Store{
		{ID: "1", Name: "Glow"},
		{ID: "2", Name: "Calm"},
	})

	var listing Listing = list
	assert.Equal(t, domain.EntityStore, listing.Entity())
	assert.Equal(t, 2, listing.Len())

	choices := listing.Choices()
	require.Len(t, choices, 2)
	assert.Equal(t, domain.ID("2"), choices[1].EntityID())
	assert.Equal(t, "Glow", choices[0].DisplayName())
}
