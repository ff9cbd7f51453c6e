package framework

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopMessages(t *testing.T) {
	loop := NewLoop()
	var first, second []Message
	loop.AddController(
		ControlFunc(func(cc ControlContext) error {
			cc.ProcessMessages(func(msg Message) bool {
				first = append(first, msg)
				_, ok := msg.(int)
				return ok
			})
			return nil
		}),
		ControlFunc(func(cc ControlContext) error {
			cc.ProcessMessages(func(msg Message) bool {
				second = append(second, msg)
				return true
			})
			return nil
		}),
	)
	loop.PostMessage(1)
	loop.PostMessage("a")
	loop.PostMessage(2)
	loop.RunOnce(context.Background())
	require.Equal(t, []Message{1, "a", 2}, first)
	require.Equal(t, []Message{"a"}, second)

	loop.RunOnce(context.Background())
	require.Len(t, first, 3)
}

func TestLoopRunOnceTicked(t *testing.T) {
	loop := NewLoop()
	var ticks []bool
	loop.AddController(ControlFunc(func(cc ControlContext) error {
		ticks = append(ticks, cc.Ticked())
		return nil
	}))
	loop.RunOnce(context.Background())
	loop.RunTriggered(context.Background())
	require.Equal(t, []bool{true, false}, ticks)
}

func TestLoopTriggerNext(t *testing.T) {
	loop := NewLoop().WithInterval(time.Hour)
	gotCh := make(chan bool, 1)
	loop.AddController(ControlFunc(func(cc ControlContext) error {
		cc.ProcessMessages(func(msg Message) bool {
			gotCh <- cc.Ticked()
			return true
		})
		return nil
	}))
	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- loop.Run(ctx) }()

	loop.PostMessage("wake")
	loop.TriggerNext()
	select {
	case ticked := <-gotCh:
		require.False(t, ticked)
	case <-time.After(time.Second):
		t.Fatal("timeout")
	}
	cancel()
	require.Equal(t, context.Canceled, <-doneCh)
}

func TestLoopInterval(t *testing.T) {
	var count int32
	loop := NewLoop()
	loop.Interval = func() time.Duration { return 5 * time.Millisecond }
	loop.AddController(ControlFunc(func(cc ControlContext) error {
		assert.True(t, cc.Ticked())
		atomic.AddInt32(&count, 1)
		return errors.New("ignored")
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.Equal(t, context.DeadlineExceeded, loop.Run(ctx))
	require.True(t, atomic.LoadInt32(&count) >= 2)
}

func TestLoopRunnerFailure(t *testing.T) {
	failure := errors.New("broker gone")
	loop := NewLoop().WithInterval(time.Hour)
	loop.AddRunnable(
		RunFunc(func(ctx context.Context) error { return failure }),
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	)
	err := loop.Run(context.Background())
	require.True(t, errors.Is(err, failure))
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Add(nil, nil).Aggregate())
	a, b := errors.New("a"), errors.New("b")
	err := errs.Add(a, nil, b).Aggregate()
	require.Error(t, err)
	require.True(t, errors.Is(err, b))
	require.Equal(t, "multiple errors:\n  a\n  b", err.Error())
}
