package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"hub/internal/clients/stagebased"
	"hub/internal/platform/logger"
	"hub/internal/ports/mocks"
)

func TestNewCachedCatalogWithoutRedisReturnsOrigin(t *testing.T) {
	origin := mocks.NewMockCatalog(gomock.NewController(t))
	assert.Same(t, origin, NewCachedCatalog(origin, nil, time.Minute))
}

func TestCachedCatalogFallsBackWhenRedisIsDown(t *testing.T) {
	origin := mocks.NewMockCatalog(gomock.NewController(t))
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	cat := NewCachedCatalog(origin, client, time.Minute, WithCacheLogger(logger.Discard()))
	origin.EXPECT().GetSchedule(gomock.Any(), 7).Return(&stagebased.Schedule{ID: 7, DayOfWeek: "1,3,5"}, nil).Times(2)

	for range 2 {
		sched, err := cat.GetSchedule(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, "1,3,5", sched.DayOfWeek)
	}
}

// recordingRedis answers every Get with a miss and remembers what was Set.
type recordingRedis struct {
	redis.Cmdable
	sets []string
}

func (r *recordingRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	return redis.NewStringResult("", redis.Nil)
}

func (r *recordingRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	r.sets = append(r.sets, key)
	return redis.NewStatusResult("OK", nil)
}

func TestCachedCatalogSkipsEmptyMessagesetListing(t *testing.T) {
	ctx := context.Background()
	origin := mocks.NewMockCatalog(gomock.NewController(t))
	client := &recordingRedis{}
	cat := NewCachedCatalog(origin, client, time.Minute, WithCacheLogger(logger.Discard()))

	gomock.InOrder(
		origin.EXPECT().ListMessagesets(gomock.Any(), "momconnect_prebirth.hw_full.1").Return(nil, nil),
		origin.EXPECT().ListMessagesets(gomock.Any(), "momconnect_prebirth.hw_full.1").
			Return([]stagebased.Messageset{{ID: 21, ShortName: "momconnect_prebirth.hw_full.1"}}, nil),
	)

	sets, err := cat.ListMessagesets(ctx, "momconnect_prebirth.hw_full.1")
	require.NoError(t, err)
	assert.Empty(t, sets)
	assert.Empty(t, client.sets)

	sets, err = cat.ListMessagesets(ctx, "momconnect_prebirth.hw_full.1")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 21, sets[0].ID)
	assert.Equal(t, []string{messagesetsKeyPrefix + "momconnect_prebirth.hw_full.1"}, client.sets)
}
