package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedResult struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)

	port, err := strconv.Atoi(srv.Port())
	require.NoError(t, err)

	client, err := NewClient(srv.Host(), port, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return client, srv
}

func TestGetPredictionMiss(t *testing.T) {
	client, _ := newTestClient(t)

	var out cachedResult
	hit, err := client.GetPrediction(context.Background(), "deadbeef", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestSetGetPredictionRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	stored := cachedResult{Category: "Billing", Confidence: 0.92}
	require.NoError(t, client.SetPrediction(ctx, "abc123", stored, time.Hour))

	var out cachedResult
	hit, err := client.GetPrediction(ctx, "abc123", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, stored, out)
}

func TestPredictionExpires(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetPrediction(ctx, "abc123", cachedResult{Category: "Bug"}, time.Minute))

	srv.FastForward(2 * time.Minute)

	var out cachedResult
	hit, err := client.GetPrediction(ctx, "abc123", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestGetPredictionCorruptValue(t *testing.T) {
	client, srv := newTestClient(t)

	require.NoError(t, srv.Set("prediction:abc123", "{not json"))

	var out cachedResult
	hit, err := client.GetPrediction(context.Background(), "abc123", &out)
	assert.Error(t, err)
	assert.False(t, hit)
}

func TestInvalidatePredictions(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, client.SetPrediction(ctx, "abc123", cachedResult{Category: "Bug"}, time.Hour))
	require.NoError(t, client.SetPrediction(ctx, "def456", cachedResult{Category: "Billing"}, time.Hour))
	require.NoError(t, client.IncrementCounter(ctx, "classifications"))

	require.NoError(t, client.InvalidatePredictions(ctx))

	var out cachedResult
	for _, hash := range []string{"abc123", "def456"} {
		hit, err := client.GetPrediction(ctx, hash, &out)
		require.NoError(t, err)
		assert.False(t, hit)
	}

	// Counters survive a cache flush.
	count, err := client.GetCounter(ctx, "classifications")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCounters(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	count, err := client.GetCounter(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, client.IncrementCounter(ctx, "classifications"))
	require.NoError(t, client.IncrementCounter(ctx, "classifications"))

	count, err = client.GetCounter(ctx, "classifications")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
