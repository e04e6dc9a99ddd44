package menubar

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitles(t *testing.T) {
	assert.Equal(t, "Rewrite Selection (⌥⇧R)", ItemRewrite.Title("⌥⇧R"))
	assert.Equal(t, "Rewrite Selection", ItemRewrite.Title(""))
	assert.Equal(t, "Request Accessibility Access", ItemAccessibility.Title("x"))
	assert.Equal(t, "Quit InplaceAI", ItemQuit.Title("x"))
	assert.Equal(t, "", itemCount.Title("x"))
}

func TestItemString(t *testing.T) {
	assert.Equal(t, "rewrite", ItemRewrite.String())
	assert.Equal(t, "quit", ItemQuit.String())
	assert.Equal(t, "unknown", Item(99).String())
}

func TestSetBusyKeepsLatest(t *testing.T) {
	m := New("", nil)
	m.SetBusy(true)
	m.SetBusy(false)
	m.SetBusy(true)
	assert.True(t, <-m.busy)
	select {
	case v := <-m.busy:
		t.Fatalf("unexpected extra value %v", v)
	default:
	}
}

type fakeBar struct {
	mu      sync.Mutex
	pending [itemCount]int
	busy    []bool
}

func (b *fakeBar) take(i Item) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.pending[i]
	b.pending[i] = 0
	return n
}

func (b *fakeBar) setBusy(busy bool) {
	b.mu.Lock()
	b.busy = append(b.busy, busy)
	b.mu.Unlock()
}

func (b *fakeBar) remove() {}

func (b *fakeBar) click(i Item) {
	b.mu.Lock()
	b.pending[i]++
	b.mu.Unlock()
}

func TestRunForwardsClicksAndBusy(t *testing.T) {
	m := New("", nil)
	b := &fakeBar{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.run(ctx, b) }()

	b.click(ItemRewrite)
	b.click(ItemQuit)
	assert.Equal(t, ItemRewrite, recv(t, m.Clicks()))
	assert.Equal(t, ItemQuit, recv(t, m.Clicks()))

	m.SetBusy(true)
	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.busy) == 1 && b.busy[0]
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func recv(t *testing.T, ch <-chan Item) Item {
	t.Helper()
	select {
	case i := <-ch:
		return i
	case <-time.After(time.Second):
		t.Fatal("no click delivered")
		return -1
	}
}
