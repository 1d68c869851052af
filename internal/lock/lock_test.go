package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedSerializesSameKey(t *testing.T) {
	k := NewKeyed()

	var (
		inside  atomic.Int32
		maxSeen atomic.Int32
		wg      sync.WaitGroup
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := k.Lock(context.Background(), "g1")
			if !assert.NoError(t, err) {
				return
			}
			n := inside.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := NewKeyed()

	unlock1, err := k.Lock(context.Background(), "g1")
	require.NoError(t, err)
	defer unlock1()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlock2, err := k.Lock(ctx, "g2")
	require.NoError(t, err)
	unlock2()
}

func TestKeyedTimeout(t *testing.T) {
	k := NewKeyed()

	unlock, err := k.Lock(context.Background(), "g1")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "g1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
}

func TestKeyedUnlockIsIdempotent(t *testing.T) {
	k := NewKeyed()

	unlock, err := k.Lock(context.Background(), "g1")
	require.NoError(t, err)
	unlock()
	unlock()

	unlock, err = k.Lock(context.Background(), "g1")
	require.NoError(t, err)
	unlock()
}

type recordingLocker struct {
	name string
	log  *[]string
	err  error
}

func (r recordingLocker) Lock(_ context.Context, key string) (func(), error) {
	if r.err != nil {
		return nil, r.err
	}
	*r.log = append(*r.log, "lock "+r.name)
	return func() { *r.log = append(*r.log, "unlock "+r.name) }, nil
}

func TestChainOrder(t *testing.T) {
	var log []string
	chain := Chain{recordingLocker{name: "a", log: &log}, recordingLocker{name: "b", log: &log}}

	unlock, err := chain.Lock(context.Background(), "g1")
	require.NoError(t, err)
	unlock()

	assert.Equal(t, []string{"lock a", "lock b", "unlock b", "unlock a"}, log)
}

func TestChainReleasesOnFailure(t *testing.T) {
	var log []string
	boom := errors.New("boom")
	chain := Chain{recordingLocker{name: "a", log: &log}, recordingLocker{name: "b", log: &log, err: boom}}

	_, err := chain.Lock(context.Background(), "g1")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"lock a", "unlock a"}, log)
}
