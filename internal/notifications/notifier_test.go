package notifications

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilRedisIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.False(t, n.Enabled())
	assert.NoError(t, n.PublishUser(context.Background(), 1, "payload"))
	assert.NoError(t, n.PublishBroadcast(context.Background(), "payload"))
	assert.NoError(t, n.StartPatternSubscriber(context.Background(), func(string, string) {}))
}

func TestUserChannel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "events:user:42", UserChannel(42))

	id, ok := ParseUserChannel("events:user:42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"events:user:", "events:user:x", "events:user:0", "other:42"} {
		_, ok := ParseUserChannel(bad)
		assert.False(t, ok, bad)
	}
}

func TestHub_StartWiringDeliversRedisEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := NewHub()
	notifier := NewNotifier(rdb)
	require.NoError(t, hub.StartWiring(ctx, notifier))

	alice, _ := hub.Register(1, nil)
	bob, _ := hub.Register(2, nil)

	require.NoError(t, notifier.PublishUser(ctx, 1, `{"type":"new_reader"}`))
	assert.Equal(t, `{"type":"new_reader"}`, receive(t, alice))

	require.NoError(t, notifier.PublishBroadcast(ctx, `{"type":"post_created"}`))
	assert.Equal(t, `{"type":"post_created"}`, receive(t, alice))
	assert.Equal(t, `{"type":"post_created"}`, receive(t, bob))
	assertNoMessage(t, bob)
}
