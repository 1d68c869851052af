package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/matchplay/internal/events"
)

func TestGetSet(t *testing.T) {
	c := New(true)
	defer c.Close()

	etag := c.Set(Key("g1", "players", ""), []byte(`[1]`), time.Minute)
	data, got, ok := c.Get(Key("g1", "players", ""))
	assert.True(t, ok)
	assert.Equal(t, []byte(`[1]`), data)
	assert.Equal(t, etag, got)

	c.Set("short", []byte("x"), -time.Second)
	_, _, ok = c.Get("short")
	assert.False(t, ok)
}

func TestDisabled(t *testing.T) {
	c := New(false)
	etag := c.Set("k", []byte("x"), time.Minute)
	assert.Equal(t, ComputeETag([]byte("x")), etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
}

func TestInvalidateGroup(t *testing.T) {
	c := New(true)
	defer c.Close()
	c.Set(Key("g1", "players", ""), []byte("a"), time.Minute)
	c.Set(Key("g1", "matches", "s1"), []byte("b"), time.Minute)
	c.Set(Key("g10", "players", ""), []byte("c"), time.Minute)

	assert.Equal(t, 2, c.InvalidateGroup("g1"))
	_, _, ok := c.Get(Key("g10", "players", ""))
	assert.True(t, ok)
}

func TestWatch(t *testing.T) {
	c := New(true)
	defer c.Close()
	c.Set(Key("g1", "players", ""), []byte("a"), time.Minute)

	ch := make(chan events.Event, 1)
	done := make(chan struct{})
	go func() {
		c.Watch(context.Background(), ch)
		close(done)
	}()
	ch <- events.Event{GroupID: "g1"}
	close(ch)
	<-done

	_, _, ok := c.Get(Key("g1", "players", ""))
	assert.False(t, ok)
}

func TestCheckETagMatch(t *testing.T) {
	assert.False(t, CheckETagMatch("", `W/"x"`))
	assert.True(t, CheckETagMatch("*", `W/"x"`))
	assert.True(t, CheckETagMatch(`W/"x"`, `W/"x"`))
}
