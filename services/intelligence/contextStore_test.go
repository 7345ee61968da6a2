package ai

import (
	"context"
	"testing"
	"time"

	"blueridge/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisContextStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisContextStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
	ctx := context.Background()

	empty, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, empty.Contact)

	in := &models.ChatContext{
		SelectedStartISO: "2025-09-04T18:00:00.000Z",
		Contact:          &models.Contact{Email: "ann@example.com"},
	}
	require.NoError(t, store.Set(ctx, "s1", in))
	assert.Equal(t, DefaultContextTTL, mr.TTL("ai:ctx:s1"))

	out, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, in, out)

	mr.FastForward(31 * time.Minute)
	out, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, out.SelectedStartISO)

	require.NoError(t, store.Set(ctx, "s2", in))
	require.NoError(t, store.Clear(ctx, "s2"))
	assert.False(t, mr.Exists("ai:ctx:s2"))
}

func TestRedisContextStore_Disabled(t *testing.T) {
	store := NewRedisContextStore(nil, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "s1", &models.ChatContext{SelectedStartISO: "x"}))
	out, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, out.SelectedStartISO)
	require.NoError(t, store.Clear(ctx, "s1"))
}
