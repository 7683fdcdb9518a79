package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSchedulerKeepsPerChatOrder(t *testing.T) {
	s := NewScheduler(quietLogger())

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, chatID := range []int64{-1, -2, -3} {
			i, chatID := i, chatID
			if err := s.AddWork(chatID, func(context.Context) {
				mu.Lock()
				got[chatID] = append(got[chatID], i)
				mu.Unlock()
			}); err != nil {
				t.Fatalf("add work: %v", err)
			}
		}
	}

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	for chatID, seq := range got {
		if len(seq) != 50 {
			t.Fatalf("chat %d: expected 50 tasks, got %d", chatID, len(seq))
		}
		for i, v := range seq {
			if v != i {
				t.Fatalf("chat %d: out of order at %d: %v", chatID, i, seq)
			}
		}
	}
}

func TestSchedulerBlockedChatDoesNotStallOthers(t *testing.T) {
	s := NewScheduler(quietLogger())
	release := make(chan struct{})
	done := make(chan struct{})

	_ = s.AddWork(-1, func(context.Context) { <-release })
	_ = s.AddWork(-2, func(context.Context) { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second chat was blocked by the first")
	}

	close(release)
	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if s.Lanes() != 0 {
		t.Fatalf("expected no lanes after shutdown, got %d", s.Lanes())
	}
}

func TestSchedulerShutdownGraceCancelsWork(t *testing.T) {
	s := NewScheduler(quietLogger())

	started := make(chan struct{})
	var ran bool
	_ = s.AddWork(-1, func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	_ = s.AddWork(-1, func(context.Context) { ran = true })
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := s.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if ran {
		t.Fatal("queued task ran after cancellation")
	}
	if err := s.AddWork(-1, func(context.Context) {}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after shutdown, got %v", err)
	}
}

func TestSchedulerRecoversPanics(t *testing.T) {
	s := NewScheduler(quietLogger())
	var second bool

	_ = s.AddWork(-1, func(context.Context) { panic("boom") })
	_ = s.AddWork(-1, func(context.Context) { second = true })

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !second {
		t.Fatal("lane stopped after a panicking task")
	}
}
