package throttle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilThrottleIsNoop(t *testing.T) {
	var th *Throttle
	start := time.Now()
	require.NoError(t, th.Wait(context.Background(), 1<<30))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestZeroRateReturnsNil(t *testing.T) {
	assert.Nil(t, New(0, 8192))
	assert.Nil(t, New(-1, 8192))
}

func TestWaitEnforcesRate(t *testing.T) {
	// 200 KB/s with 10 KB chunks: 50 KB should take at least
	// (50KB - 10KB burst) / 200KB/s = 200ms.
	th := New(200*1024, 10*1024)
	require.NotNil(t, th)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, th.Wait(context.Background(), 10*1024))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 150*time.Millisecond)
}

func TestWaitSplitsOversizedChunks(t *testing.T) {
	// Chunk bigger than burst must not error, just take longer.
	th := New(100*1024, 4*1024)
	start := time.Now()
	require.NoError(t, th.Wait(context.Background(), 16*1024))
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestWaitHonorsContext(t *testing.T) {
	th := New(1024, 1024) // 1 KB/s, so 10 KB would take ~9s
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := th.Wait(ctx, 10*1024)
	assert.Error(t, err)
}
