package mainthread

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"inplace/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	crash := logging.NewCrashHandler(&logging.CrashHandlerConfig{CrashDir: t.TempDir(), Component: "test"})
	l := New(16, crash)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l, cancel
}

func TestPostRunsInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var mu sync.Mutex
	var got []int
	for i := 0; i < 5; i++ {
		i := i
		require.NoError(t, l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		}))
	}
	require.NoError(t, l.Call(context.Background(), func() {}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestAfterRunsOnLoop(t *testing.T) {
	l, _ := startLoop(t)

	ran := make(chan struct{})
	l.After(10*time.Millisecond, func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("continuation never ran")
	}
}

func TestAfterCancel(t *testing.T) {
	l, _ := startLoop(t)

	ran := make(chan struct{}, 1)
	cancel := l.After(30*time.Millisecond, func() { ran <- struct{}{} })
	cancel()

	time.Sleep(80 * time.Millisecond)
	require.NoError(t, l.Call(context.Background(), func() {}))
	assert.Len(t, ran, 0)
}

func TestPanicDoesNotStopLoop(t *testing.T) {
	l, _ := startLoop(t)

	require.NoError(t, l.Post(func() { panic("boom") }))

	done := false
	require.NoError(t, l.Call(context.Background(), func() { done = true }))
	assert.True(t, done)
}

func TestPostAfterStop(t *testing.T) {
	l, cancel := startLoop(t)
	l.After(time.Hour, func() {})

	cancel()
	<-l.Done()

	assert.ErrorIs(t, l.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}
