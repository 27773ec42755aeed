package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestDispatchKeepsServingAfterWatcherErrorsClose(t *testing.T) {
	var logs syncBuffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	paths := make(chan string)
	errs := make(chan error)

	var (
		mu  sync.Mutex
		got []string
	)
	enqueue := func(p string) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, p)
		if p == "reject.json" {
			return errors.New("queue is shutting down")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		dispatch(ctx, paths, errs, enqueue, logger)
		close(done)
	}()

	errs <- errors.New("inotify overflow")
	close(errs)
	paths <- "a.json"
	paths <- "reject.json"
	close(paths)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not return after paths closed")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"a.json", "reject.json"}, got)
	assert.Contains(t, logs.String(), "inotify overflow")
	assert.Contains(t, logs.String(), "enqueue failed")
}

func TestDispatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error)
	close(errs)

	done := make(chan struct{})
	go func() {
		dispatch(ctx, make(chan string), errs, func(string) error { return nil }, slog.Default())
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatch did not return after cancel")
	}
}
