package presentation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-console/internal/common/logger"
)

func newTestHost(t *testing.T) (*RedisHost, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHost(client, time.Hour, logger.NewTestLogger(t)), mr
}

func TestMountWriteRead(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	require.NoError(t, host.Mount(ctx, "cand-1", RegionDetailHeader))

	mounted, err := host.IsMounted(ctx, "cand-1", RegionDetailHeader)
	require.NoError(t, err)
	assert.True(t, mounted)

	rendered := map[string]interface{}{"ruleBasedTotal": 78.0}
	require.NoError(t, host.Write(ctx, "cand-1", RegionDetailHeader, rendered))

	data, err := host.Read(ctx, "cand-1", RegionDetailHeader)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, 78.0, got["ruleBasedTotal"])
}

func TestWrite_UnmountedIsNoOp(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	require.NoError(t, host.Write(ctx, "cand-1", RegionListRow, map[string]interface{}{"total": 70}))

	data, err := host.Read(ctx, "cand-1", RegionListRow)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestUnmount_DropsContent(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	require.NoError(t, host.Mount(ctx, "cand-1", RegionListRow))
	require.NoError(t, host.Write(ctx, "cand-1", RegionListRow, map[string]interface{}{"total": 70}))
	require.NoError(t, host.Unmount(ctx, "cand-1", RegionListRow))

	mounted, err := host.IsMounted(ctx, "cand-1", RegionListRow)
	require.NoError(t, err)
	assert.False(t, mounted)

	data, err := host.Read(ctx, "cand-1", RegionListRow)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestMountsAreScopedPerCandidate(t *testing.T) {
	host, _ := newTestHost(t)
	ctx := context.Background()

	require.NoError(t, host.Mount(ctx, "cand-1", RegionListRow))

	mounted, err := host.IsMounted(ctx, "cand-2", RegionListRow)
	require.NoError(t, err)
	assert.False(t, mounted)
}

func TestIsMounted_PropagatesRedisErrors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	host := NewRedisHost(client, time.Hour, logger.NewNoOpLogger())

	mock.ExpectExists(mountKey("cand-1", RegionListRow)).SetErr(errors.New("connection reset"))

	_, err := host.IsMounted(context.Background(), "cand-1", RegionListRow)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegionTypeValid(t *testing.T) {
	for _, r := range KnownRegions() {
		assert.True(t, r.Valid())
	}
	assert.False(t, RegionType("sidebar").Valid())
}
