package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Topic string
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreKeysByChatAndUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore[payload](nil, 0)

	private := Key{ChatID: 10, UserID: 10}
	group := Key{ChatID: -500, UserID: 10}
	require.NoError(t, store.Save(ctx, Session[payload]{Key: private, Feature: "tutor", State: "ask", Data: payload{Topic: "a"}}))
	require.NoError(t, store.Save(ctx, Session[payload]{Key: group, Feature: "advisor", State: "ask", Data: payload{Topic: "b"}}))

	got, ok, err := store.Load(ctx, private)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "tutor", got.Feature)
	assert.Equal(t, "a", got.Data.Topic)

	got, ok, err = store.Load(ctx, group)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "advisor", got.Feature)

	require.NoError(t, store.Delete(ctx, private))
	_, ok, err = store.Load(ctx, private)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore[payload](clock.Now, 0)

	key := Key{ChatID: 1, UserID: 1}
	s := Session[payload]{Key: key, Feature: "payment", State: "ask_email"}
	s.Touch(clock.Now(), 300*time.Second)
	require.NoError(t, store.Save(ctx, s))

	clock.Advance(299 * time.Second)
	_, ok, _ := store.Load(ctx, key)
	assert.True(t, ok, "session must survive until the deadline")

	clock.Advance(time.Second)
	_, ok, _ = store.Load(ctx, key)
	assert.False(t, ok, "session must expire at the deadline")
	assert.Equal(t, 0, store.Len(), "expired session is dropped on load")
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore[payload](clock.Now, 0)

	short := Session[payload]{Key: Key{ChatID: 1, UserID: 1}}
	short.Touch(clock.Now(), time.Minute)
	forever := Session[payload]{Key: Key{ChatID: 2, UserID: 2}}
	forever.Touch(clock.Now(), 0)
	require.NoError(t, store.Save(ctx, short))
	require.NoError(t, store.Save(ctx, forever))

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStoreIdleTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore[payload](clock.Now, time.Hour)

	idle := Session[payload]{Key: Key{ChatID: 1, UserID: 1}, Feature: "tutor"}
	idle.Touch(clock.Now(), 0)
	require.NoError(t, store.Save(ctx, idle))

	clock.Advance(59 * time.Minute)
	_, ok, err := store.Load(ctx, idle.Key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Save(ctx, idle), "saving again restarts the idle window")
	clock.Advance(59 * time.Minute)
	_, ok, _ = store.Load(ctx, idle.Key)
	assert.True(t, ok)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, store.Sweep())
	_, ok, _ = store.Load(ctx, idle.Key)
	assert.False(t, ok)
}

func TestMemoryStoreDeadlineBeatsIdleTTL(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore[payload](clock.Now, time.Hour)

	s := Session[payload]{Key: Key{ChatID: 2, UserID: 2}, Feature: "payment"}
	s.Touch(clock.Now(), 5*time.Minute)
	require.NoError(t, store.Save(ctx, s))

	clock.Advance(5 * time.Minute)
	_, ok, _ := store.Load(ctx, s.Key)
	assert.False(t, ok, "an explicit deadline is not stretched to the idle TTL")
}

func TestLockerSerializesPerKey(t *testing.T) {
	l := NewLocker()
	key := Key{ChatID: 7, UserID: 7}

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock(key)
			defer unlock()
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, l.size(), "lock entries are released")
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	type tracked struct{ Items *[]string }
	store := NewMemoryStore[tracked](nil, 0)
	key := Key{ChatID: 3, UserID: 3}
	items := []string{"a"}
	require.NoError(t, store.Save(ctx, Session[tracked]{Key: key, Data: tracked{Items: &items}}))

	got, ok, err := store.Load(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	*got.Data.Items = append(*got.Data.Items, "b")

	again, _, _ := store.Load(ctx, key)
	assert.Equal(t, []string{"a"}, *again.Data.Items)
}
