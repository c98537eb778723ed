package ws

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_PublishDropsWhenQueueFull(t *testing.T) {
	h := NewHub()
	for i := 0; i < cap(h.Broadcast); i++ {
		assert.True(t, h.Publish([]byte("x")))
	}
	assert.False(t, h.Publish([]byte("overflow")))
}

func TestHub_DrainsQueueWithoutClients(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	for i := 0; i < 3*cap(h.Broadcast); i++ {
		assert.Eventually(t, func() bool { return h.Publish([]byte("x")) }, time.Second, time.Millisecond)
	}
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_StopsJoinAndLeave(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	cancel()
	<-stopped

	done := make(chan bool)
	go func() {
		ok := h.Join(nil)
		h.Leave(nil)
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join blocked on a stopped hub")
	}
}
