// Package dispatch runs inbound events in per-chat FIFO lanes. Each chat with
// pending work gets its own goroutine, so a chat that is waiting out a rate
// limit never holds up the others.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrClosed = errors.New("scheduler is shut down")

type Task func(context.Context)

type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc

	lk     sync.Mutex
	active map[int64][]Task
	closed bool
	wg     sync.WaitGroup

	log *slog.Logger
}

func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		ctx:    ctx,
		cancel: cancel,
		active: make(map[int64][]Task),
		log:    logger.With("system", "dispatch"),
	}
}

// AddWork queues task behind any earlier work for the same chat.
func (s *Scheduler) AddWork(chatID int64, task Task) error {
	s.lk.Lock()
	if s.closed {
		s.lk.Unlock()
		return ErrClosed
	}
	workItemsAdded.Inc()

	if q, ok := s.active[chatID]; ok {
		s.active[chatID] = append(q, task)
		s.lk.Unlock()
		return nil
	}
	s.active[chatID] = []Task{}
	s.wg.Add(1)
	s.lk.Unlock()

	lanesActive.Inc()
	go s.lane(chatID, task)
	return nil
}

// Lanes returns the number of chats with queued or running work.
func (s *Scheduler) Lanes() int {
	s.lk.Lock()
	defer s.lk.Unlock()
	return len(s.active)
}

// Shutdown stops intake and waits for queued work. When ctx expires first the
// running tasks are cancelled and whatever is still queued is dropped.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.lk.Lock()
	s.closed = true
	s.lk.Unlock()
	s.log.Info("draining dispatch lanes", "lanes", s.Lanes())

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		s.log.Info("dispatch drained")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-done
		s.log.Warn("dispatch shutdown grace expired, pending work cancelled")
		return ctx.Err()
	}
}

func (s *Scheduler) lane(chatID int64, task Task) {
	defer s.wg.Done()
	defer lanesActive.Dec()

	for task != nil {
		if s.ctx.Err() == nil {
			s.run(chatID, task)
			workItemsProcessed.Inc()
		} else {
			workItemsDropped.Inc()
		}

		s.lk.Lock()
		rem := s.active[chatID]
		if len(rem) == 0 {
			delete(s.active, chatID)
			task = nil
		} else {
			task = rem[0]
			s.active[chatID] = rem[1:]
		}
		s.lk.Unlock()
	}
}

func (s *Scheduler) run(chatID int64, task Task) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("event handler panicked", "chat_id", chatID, "panic", r)
		}
	}()
	task(s.ctx)
}
