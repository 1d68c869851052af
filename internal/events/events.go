// Package events carries "ratings changed" notifications from the services
// that rewrite ratings to whoever caches or displays them.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Kind string

const (
	MatchRecorded Kind = "match_recorded"
	MatchEdited   Kind = "match_edited"
	MatchDeleted  Kind = "match_deleted"
	Recalculated  Kind = "recalculated"
	Regenerated   Kind = "regenerated"
)

// Event announces that stored ratings of a group changed.
type Event struct {
	Kind     Kind      `json:"kind"`
	GroupID  string    `json:"group_id"`
	SeasonID string    `json:"season_id,omitempty"`
	MatchID  string    `json:"match_id,omitempty"`
	At       time.Time `json:"at"`
}

// Publisher delivers events without blocking the caller.
type Publisher interface {
	Publish(e Event)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) {}

// Bus fans events out to subscribers. A subscriber that falls behind loses
// events rather than stalling publishers.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
	logger zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{subs: make(map[int]chan Event), logger: logger}
}

// Subscribe registers a subscriber with the given buffer. The returned cancel
// func unregisters it and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			b.logger.Warn().Int("subscriber", id).Str("group_id", e.GroupID).
				Str("kind", string(e.Kind)).Msg("subscriber full, event dropped")
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(e Event) {
	for _, p := range m {
		p.Publish(e)
	}
}
