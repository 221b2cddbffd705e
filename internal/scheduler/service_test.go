package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateExpression(t *testing.T) {
	assert.NoError(t, ValidateExpression("*/5 * * * *"))
	assert.NoError(t, ValidateExpression("@every 30s"))
	assert.Error(t, ValidateExpression("not a cron"))
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2026, 8, 1, 12, 0, 30, 0, time.UTC)
	next, err := NextRunTime("0 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 1, 13, 0, 0, 0, time.UTC), next)

	_, err = NextRunTime("bogus", from)
	assert.Error(t, err)
}

func TestNewServiceRejectsBadExpression(t *testing.T) {
	_, err := NewService("bogus", func(context.Context) error { return nil }, zerolog.Nop())
	assert.Error(t, err)
}

func TestServiceFiresUntilStopped(t *testing.T) {
	fired := make(chan struct{}, 16)
	svc, err := NewService("@every 20ms", func(context.Context) error {
		fired <- struct{}{}
		return nil
	}, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("schedule did not fire")
		}
	}

	svc.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestServiceStopsOnContextCancel(t *testing.T) {
	svc, err := NewService("@every 1h", func(context.Context) error { return nil }, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return after context cancel")
	}
}
