package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewLockerNilClientReturnsNilLocker(t *testing.T) {
	require.Nil(t, NewLocker(nil))
}

func TestTryLockOnNilLockerReturnsError(t *testing.T) {
	var l *Locker
	_, ok, err := l.TryLock(context.Background(), "key", time.Second)
	require.Error(t, err)
	require.False(t, ok)
}

func TestTryLockOnUnconfiguredLockerIgnoresArgs(t *testing.T) {
	l := NewLocker(nil)
	_, ok, err := l.TryLock(context.Background(), "", time.Second)
	require.Error(t, err)
	require.False(t, ok)
}

func TestReleaseOnNilLockerIsNoop(t *testing.T) {
	var l *Locker
	require.NoError(t, l.Release(context.Background(), "key", "token"))
}
