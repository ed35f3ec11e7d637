package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/XavierBriggs/fortuna/services/batting-dashboard/pkg/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestPublish_WritesEventToStream(t *testing.T) {
	rdb := setupRedis(t)
	p := NewStreamPublisher(rdb, "players.changes", nil)
	ctx := context.Background()

	ev := models.ChangeEvent{
		EventID:    "ev-1",
		Kind:       models.ChangeInsert,
		PlayerName: "Kim",
		Origin:     "dash-a",
		OccurredAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, p.Publish(ctx, ev))

	msgs, err := rdb.XRange(ctx, "players.changes", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	assert.Equal(t, "insert", msgs[0].Values["kind"])
	assert.Equal(t, "dash-a", msgs[0].Values["origin"])

	var got models.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(msgs[0].Values["data"].(string)), &got))
	assert.Equal(t, ev, got)
}

func TestRosterChanged_PublishesInBackground(t *testing.T) {
	rdb := setupRedis(t)
	p := NewStreamPublisher(rdb, "players.changes", nil)

	p.RosterChanged(context.Background(), models.ChangeEvent{EventID: "ev-2", Kind: models.ChangeDelete, PlayerID: 4})

	require.Eventually(t, func() bool {
		n, err := rdb.XLen(context.Background(), "players.changes").Result()
		return err == nil && n == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublish_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	mr.Close()

	p := NewStreamPublisher(rdb, "players.changes", nil)
	err := p.Publish(context.Background(), models.ChangeEvent{Kind: models.ChangeInsert})
	assert.ErrorContains(t, err, "publishing to players.changes")
}
