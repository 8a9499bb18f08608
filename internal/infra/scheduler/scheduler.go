package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"telegram-expiry-reminder/internal/domain"
	"telegram-expiry-reminder/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Notifier is the minimal interface the scheduler needs from the notification use case.
type Notifier interface {
	// CheckAndNotify runs one notification pass and returns how many
	// messages went out, plus the first error if any.
	CheckAndNotify(ctx context.Context) (int, error)
}

// Locker lets only one replica run a given tick. Satisfied by redis.RedisLocker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Options tunes a Scheduler. Zero values are usable.
type Options struct {
	// RunOnStart fires one pass immediately after Start.
	RunOnStart bool
	// Locker and LockTTL enable the cross-replica tick lock.
	Locker  Locker
	LockKey string
	LockTTL time.Duration
	// Timeout bounds a single pass; defaults to 30s.
	Timeout time.Duration
}

// Scheduler runs a Notifier's CheckAndNotify each time its Trigger fires.
type Scheduler struct {
	trigger  Trigger
	notifier Notifier
	opts     Options
	log      *zerolog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(trigger Trigger, notifier Notifier, opts Options, logger *zerolog.Logger) *Scheduler {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.LockKey == "" {
		opts.LockKey = "lock:expiry_notify"
	}
	schedLog := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		trigger:  trigger,
		notifier: notifier,
		opts:     opts,
		log:      &schedLog,
		now:      time.Now,
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start on a running scheduler has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	s.log.Info().Str("trigger", s.trigger.String()).Msg("scheduler started")
	if s.opts.RunOnStart {
		s.RunOnce(ctx)
	}

	next := s.trigger.Next(s.now())
	for {
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.log.Debug().Time("next", next).Msg("waiting for next tick")
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.log.Info().Msg("context cancelled; stopping scheduler")
			return
		case <-timer.C:
			s.RunOnce(ctx)
			next = s.trigger.Next(next)
			// catch up if the pass itself outran the next fire time
			if now := s.now(); !next.After(now) {
				next = s.trigger.Next(now)
			}
		}
	}
}

// RunOnce performs a single guarded pass. Errors are logged, never returned:
// a failed tick must not stop the schedule.
func (s *Scheduler) RunOnce(parent context.Context) {
	start := time.Now()
	defer func() { metrics.ObserveNotificationTick(time.Since(start)) }()

	ctx, cancel := context.WithTimeout(parent, s.opts.Timeout)
	defer cancel()

	if s.opts.Locker != nil && s.opts.LockTTL > 0 {
		token, err := s.opts.Locker.TryLock(ctx, s.opts.LockKey, s.opts.LockTTL)
		if errors.Is(err, domain.ErrLockNotAcquired) {
			metrics.IncNotificationTick("skipped")
			s.log.Info().Msg("tick already handled by another instance")
			return
		}
		if err != nil {
			metrics.IncNotificationTick("error")
			s.log.Error().Err(err).Msg("acquire tick lock failed")
			return
		}
		// held until its TTL so a peer firing a little later skips the same
		// tick; released early only when this pass fails
		sent, err := s.notifier.CheckAndNotify(ctx)
		if err != nil {
			if uerr := s.opts.Locker.Unlock(context.Background(), s.opts.LockKey, token); uerr != nil {
				s.log.Warn().Err(uerr).Msg("release tick lock failed")
			}
		}
		s.report(sent, err)
		return
	}

	sent, err := s.notifier.CheckAndNotify(ctx)
	s.report(sent, err)
}

func (s *Scheduler) report(sent int, err error) {
	if err != nil {
		s.log.Error().Err(err).Int("sent", sent).Msg("CheckAndNotify error")
		return
	}
	if sent > 0 {
		s.log.Info().Int("sent", sent).Msg("notifications sent")
	}
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.log.Info().Msg("scheduler stopped")
}
