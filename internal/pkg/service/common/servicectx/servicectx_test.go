package servicectx

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keboola/cluster-resolver/internal/pkg/log"
	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func TestProcess_Add(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	proc, err := New(WithLogger(logger), WithUniqueID("<id>"), WithoutSignals())
	require.NoError(t, err)

	// Operations run in parallel, sleep determines the completion order to make it testable
	proc.Add(func(ctx context.Context, _ ShutdownFn) {
		<-ctx.Done()
		time.Sleep(100 * time.Millisecond)
		logger.Info(ctx, "end1")
	})
	proc.Add(func(ctx context.Context, _ ShutdownFn) {
		<-ctx.Done()
		time.Sleep(200 * time.Millisecond)
		logger.Info(ctx, "end2")
	})
	proc.Add(func(ctx context.Context, shutdown ShutdownFn) {
		shutdown(ctx, errors.New("operation failed"))
	})
	proc.OnShutdown(func(ctx context.Context) {
		logger.Info(ctx, "onShutdown1")
	})
	proc.OnShutdown(func(ctx context.Context) {
		logger.Info(ctx, "onShutdown2")
	})
	proc.WaitForShutdown()

	logger.AssertJSONMessages(t, `
{"level":"info","message":"process unique id \"<id>\"","component":"process"}
{"level":"info","message":"exiting (operation failed)","component":"process"}
{"level":"info","message":"onShutdown2"}
{"level":"info","message":"onShutdown1"}
{"level":"info","message":"end1"}
{"level":"info","message":"end2"}
{"level":"info","message":"exited","component":"process"}
`)
}

func TestProcess_Shutdown_OnlyFirstError(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	proc, err := New(WithLogger(logger), WithUniqueID("<id>"), WithoutSignals())
	require.NoError(t, err)

	proc.Shutdown(context.Background(), errors.New("first error"))
	proc.Shutdown(context.Background(), errors.New("second error"))

	// WaitForShutdown can be called concurrently
	wg := &sync.WaitGroup{}
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			proc.WaitForShutdown()
		}()
	}
	wg.Wait()

	assert.Contains(t, logger.AllMessages(), "exiting (first error)")
	assert.NotContains(t, logger.AllMessages(), "exiting (second error)")
	assert.Equal(t, 1, countOf(logger.AllMessages(), `"exited"`))
}

func TestProcess_OnShutdown_AfterTermination(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	proc, err := New(WithLogger(logger), WithoutSignals())
	require.NoError(t, err)

	proc.Shutdown(context.Background(), errors.New("stop"))
	proc.WaitForShutdown()

	called := false
	proc.OnShutdown(func(ctx context.Context) {
		called = true
	})
	assert.False(t, called)
	logger.AssertJSONMessages(t, `{"level":"error","message":"cannot register OnShutdown callback: the process is terminating"}`)
}

func countOf(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
		}
	}
	return count
}
