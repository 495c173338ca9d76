package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/ai-reports/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuth struct {
	AuthService
	calls atomic.Int32
	err   error
}

func (a *countingAuth) SweepRevoked(context.Context) (int64, error) {
	a.calls.Add(1)
	return 1, a.err
}

func TestCredentialSweeperRunsUntilCanceled(t *testing.T) {
	auth := &countingAuth{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- RunCredentialSweeper(ctx, auth, 5*time.Millisecond, logger.Nop()) }()

	require.Eventually(t, func() bool { return auth.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
