//go:build unix

/*
Copyright 2024 Tim St. Pierre
*/

package ingress

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A blocking fd, like a terminal on stdin, can't be interrupted by Close.
// Serve must still return once ctx is cancelled.
func TestStreamBlockingFileCancelled(t *testing.T) {
	var fds [2]int
	require.NoError(t, syscall.Pipe(fds[:]))
	r := os.NewFile(uintptr(fds[0]), "pipe-r")
	wfd := os.NewFile(uintptr(fds[1]), "pipe-w")
	t.Cleanup(func() { _ = wfd.Close() })

	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (&Stream{Name: "blocking", R: r}).Serve(ctx, rec) }()

	_, err := wfd.Write([]byte("hi\n"))
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return len(rec.got()) == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Serve still blocked after cancel")
	}

	// Nothing read after cancellation reaches the writer.
	_, _ = wfd.Write([]byte("late\n"))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, []string{"hi\n"}, rec.got())
}
