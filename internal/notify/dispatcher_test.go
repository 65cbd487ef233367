package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu       sync.Mutex
	sent     []Message
	failWith error
}

func (f *fakeNotifier) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.failWith
}

func (f *fakeNotifier) attempts() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Message, len(f.sent))
	copy(out, f.sent)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, nil))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestEnqueueHoldsMessagesUntilConsumerStarts(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(n, testLogger())

	d.Enqueue("s1", "b1", "a@x.com")
	d.Enqueue("s2", "b2", "b@x.com")
	d.Enqueue("s3", "b3", "c@x.com")
	assert.Equal(t, 3, d.Len())
	assert.Empty(t, n.attempts())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	require.Eventually(t, func() bool {
		return d.Len() == 0 && len(n.attempts()) == 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestConsumerPreservesFIFOOrder(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(n, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, subj := range []string{"first", "second", "third"} {
		d.Enqueue(subj, "body", "x@x.com")
	}

	require.Eventually(t, func() bool {
		return len(n.attempts()) == 3
	}, 2*time.Second, 10*time.Millisecond)

	sent := n.attempts()
	assert.Equal(t, "first", sent[0].Subject)
	assert.Equal(t, "second", sent[1].Subject)
	assert.Equal(t, "third", sent[2].Subject)
}

func TestDeliveryFailureIsDiscardedNotRetried(t *testing.T) {
	n := &fakeNotifier{failWith: errors.New("smtp down")}
	d := NewDispatcher(n, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue("s", "b", "x@x.com")

	require.Eventually(t, func() bool {
		return d.Len() == 0
	}, 2*time.Second, 10*time.Millisecond)

	// Exactly one attempt even though it failed.
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, n.attempts(), 1)
}

func TestStopDrainsQueueBeforeExit(t *testing.T) {
	n := &fakeNotifier{}
	d := NewDispatcher(n, testLogger())
	d.Enqueue("s1", "b", "x@x.com")
	d.Enqueue("s2", "b", "x@x.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)
	d.Stop()

	require.Eventually(t, func() bool {
		return len(n.attempts()) == 2
	}, 2*time.Second, 10*time.Millisecond)
}
