package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterSpacesSameHost(t *testing.T) {
	l := NewHostLimiter(50*time.Millisecond, 0)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://www.katerelos.gr/a"))
	require.NoError(t, l.Wait(ctx, "https://www.katerelos.gr/b"))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestHostLimiterIndependentHosts(t *testing.T) {
	l := NewHostLimiter(time.Hour, 0)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "https://fitrace.gr/x"))
	require.NoError(t, l.Wait(ctx, "https://gymbeam.gr/y"))
}

func TestHostLimiterCancelled(t *testing.T) {
	l := NewHostLimiter(time.Hour, 0)
	require.NoError(t, l.Wait(context.Background(), "https://fit1.gr"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "https://fit1.gr"))
}

func TestHostLimiterDisabled(t *testing.T) {
	l := NewHostLimiter(0, 0)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background(), "https://fit1.gr"))
	}
}
