package services

import (
	"context"
	"log"
	"sync"
	"time"

	"clientx/internal/repositories"
)

// DueScanner is the periodic due-soon/overdue sweep. It is stateless: each
// run re-evaluates both sets from the current date and task state and leans
// on the fan-out engine's idempotency key for duplicate suppression, so it is
// safe to re-run at any cadence and needs no cursor or cancellation handling
// beyond stopping the ticker.
type DueScanner struct {
	tasks    repositories.TaskRepository
	notifs   repositories.NotificationRepository
	fanout   *NotificationService
	interval time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewDueScanner(
	tasks repositories.TaskRepository,
	notifs repositories.NotificationRepository,
	fanout *NotificationService,
	interval time.Duration,
) *DueScanner {
	return &DueScanner{
		tasks:    tasks,
		notifs:   notifs,
		fanout:   fanout,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine: once immediately, then
// at every interval until Stop is called.
func (s *DueScanner) Start(ctx context.Context) {
	go func() {
		defer close(s.done)
		s.runOnceLogged(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnceLogged(ctx)
			}
		}
	}()
}

func (s *DueScanner) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}

func (s *DueScanner) runOnceLogged(ctx context.Context) {
	if err := s.RunOnce(ctx); err != nil {
		log.Printf("[scanner][err] sweep failed: %v", err)
	}
}

// RunOnce executes one full sweep: due-tomorrow alerts for employee
// assignees, then overdue alerts for managers and admins. The two sweeps are
// independent; neither waits on or orders against the other semantically.
func (s *DueScanner) RunOnce(ctx context.Context) error {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	dueSoon, err := s.tasks.ListDueOn(ctx, today.AddDate(0, 0, 1))
	if err != nil {
		return err
	}
	for i := range dueSoon {
		s.fanout.NotifyDueSoon(ctx, s.notifs, &dueSoon[i])
	}
	log.Printf("[scanner][due] considered=%d", len(dueSoon))

	overdue, err := s.tasks.ListOverdue(ctx, today)
	if err != nil {
		return err
	}
	for i := range overdue {
		s.fanout.NotifyOverdue(ctx, s.notifs, &overdue[i])
	}
	log.Printf("[scanner][overdue] considered=%d", len(overdue))
	return nil
}
