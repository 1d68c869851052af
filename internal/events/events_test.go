package events

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusFanOut(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	a, cancelA := bus.Subscribe(1)
	defer cancelA()
	b, cancelB := bus.Subscribe(1)
	defer cancelB()

	bus.Publish(Event{Kind: MatchRecorded, GroupID: "g1"})

	assert.Equal(t, "g1", (<-a).GroupID)
	assert.Equal(t, MatchRecorded, (<-b).Kind)
}

func TestBusDropsWhenFull(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	defer cancel()

	bus.Publish(Event{GroupID: "first"})
	bus.Publish(Event{GroupID: "second"})

	assert.Equal(t, "first", (<-ch).GroupID)
	assert.Empty(t, ch)
}

func TestBusCancelClosesChannel(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()

	ch, cancel := bus.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	bus.Publish(Event{GroupID: "g1"})
}

func TestBusClose(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	ch, cancel := bus.Subscribe(1)

	bus.Close()
	_, ok := <-ch
	require.False(t, ok)

	cancel()
	bus.Publish(Event{GroupID: "g1"})

	late, _ := bus.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok)
}

func TestMulti(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	defer bus.Close()
	ch, cancel := bus.Subscribe(2)
	defer cancel()

	Multi{Discard, bus}.Publish(Event{GroupID: "g1"})
	assert.Equal(t, "g1", (<-ch).GroupID)
}
