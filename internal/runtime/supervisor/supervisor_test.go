package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancelOnError(t *testing.T) {
	s := NewSupervisor(context.Background(), WithCancelOnError(true))
	boom := errors.New("boom")

	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	s.Go("failing", func(ctx context.Context) error { return boom })

	done := make(chan error, 1)
	go func() { done <- s.Wait() }()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.Is(err, boom))
		assert.Contains(t, err.Error(), "failing")
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop after error")
	}
	assert.Equal(t, int64(0), s.Counters().Active)
	assert.Equal(t, uint64(2), s.Counters().Started)
}

func TestPanicIsRecovered(t *testing.T) {
	s := NewSupervisor(context.Background(), WithCancelOnError(true))
	s.Go("panicky", func(ctx context.Context) error { panic("oops") })

	err := s.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in panicky")
}

func TestCanceledIsNotAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSupervisor(ctx)
	s.Go("loop", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	cancel()
	assert.NoError(t, s.Wait())
}
