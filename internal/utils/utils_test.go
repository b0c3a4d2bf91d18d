package utils

import (
	"context"
	"testing"
	"time"
)

func TestWaitForUsesSleep(t *testing.T) {
	originalSleep := sleep
	var slept time.Duration
	sleep = func(d time.Duration) { slept = d }
	defer func() { sleep = originalSleep }()

	if err := WaitFor(context.Background(), 4*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slept != 4*time.Second {
		t.Fatalf("expected sleep of 4s, got %s", slept)
	}
}

func TestWaitForSkipsNonPositive(t *testing.T) {
	originalSleep := sleep
	sleep = func(time.Duration) { t.Fatalf("sleep must not be called") }
	defer func() { sleep = originalSleep }()

	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForHonoursCancellation(t *testing.T) {
	originalSleep := sleep
	release := make(chan struct{})
	sleep = func(time.Duration) { <-release }
	defer func() {
		close(release)
		sleep = originalSleep
	}()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
