package control

import (
	"context"
	"testing"
	"time"
)

func TestPauseResume_RoundTrip(t *testing.T) {
	b := New(context.Background())

	if !b.Pause() {
		t.Fatal("expected Pause to succeed")
	}
	if !b.IsPaused() {
		t.Fatal("expected IsPaused=true")
	}

	done := make(chan struct{})
	go func() {
		b.AwaitResumeOrCancel()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	if !b.Resume() {
		t.Fatal("expected Resume to succeed")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AwaitResumeOrCancel did not wake on Resume")
	}

	if b.IsPaused() {
		t.Error("expected IsPaused=false after Resume")
	}
}

func TestCancel_WakesPausedDriver(t *testing.T) {
	b := New(context.Background())
	b.Pause()

	done := make(chan struct{})
	go func() {
		b.AwaitResumeOrCancel()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	b.Cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AwaitResumeOrCancel did not wake on Cancel")
	}

	if !b.Cancelled() {
		t.Error("expected Cancelled=true")
	}
	if b.IsPaused() {
		t.Error("expected IsPaused=false after Cancel clears pause")
	}
}

func TestCancel_WithoutPausePropagatesContext(t *testing.T) {
	b := New(context.Background())
	b.Cancel()

	select {
	case <-b.Context().Done():
	default:
		t.Error("expected context to be done after Cancel")
	}
}
