package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ParseSchedule reads a daily schedule in cron form, "minute hour * * *".
// An empty expression means 02:00.
func ParseSchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return 2, 0, nil
	}
	if len(parts) != 5 || parts[2] != "*" || parts[3] != "*" || parts[4] != "*" {
		return 0, 0, fmt.Errorf("%w %q: want \"minute hour * * *\"", ErrInvalidSchedule, expr)
	}

	minute, err = strconv.Atoi(parts[0])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w %q: minute must be 0-59", ErrInvalidSchedule, expr)
	}
	hour, err = strconv.Atoi(parts[1])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w %q: hour must be 0-23", ErrInvalidSchedule, expr)
	}
	return hour, minute, nil
}

// DailyTrigger submits every registered task once a day at a fixed local time
type DailyTrigger struct {
	hour      int
	minute    int
	interval  time.Duration
	scheduler *Scheduler
	logger    *zap.Logger
	now       func() time.Time

	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex
	isRunning   bool
	lastRunDate string
}

// NewDailyTrigger creates a trigger that checks the clock every interval
func NewDailyTrigger(schedule string, interval time.Duration, scheduler *Scheduler, logger *zap.Logger) (*DailyTrigger, error) {
	hour, minute, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DailyTrigger{
		hour:      hour,
		minute:    minute,
		interval:  interval,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Start starts the clock loop
func (t *DailyTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	t.isRunning = true

	// a start after today's slot waits for tomorrow
	now := t.now()
	if !now.Before(t.scheduledOn(now)) {
		t.lastRunDate = now.Format("2006-01-02")
	}

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Maintenance trigger started",
		zap.Int("hour", t.hour),
		zap.Int("minute", t.minute),
		zap.Time("next_run", t.NextRun(now)),
	)
	return nil
}

// Stop stops the clock loop
func (t *DailyTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun returns the first scheduled time strictly after now
func (t *DailyTrigger) NextRun(now time.Time) time.Time {
	next := t.scheduledOn(now)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (t *DailyTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if t.due(t.now()) {
				t.fire()
			}
		}
	}
}

func (t *DailyTrigger) scheduledOn(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.hour, t.minute, 0, 0, day.Location())
}

// due reports whether today's scheduled time has passed without a run, and marks
// the day as run when it has. Ticks coarser than a minute still land on the day.
func (t *DailyTrigger) due(now time.Time) bool {
	if now.Before(t.scheduledOn(now)) {
		return false
	}
	today := now.Format("2006-01-02")

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRunDate == today {
		return false
	}
	t.lastRunDate = today
	return true
}

func (t *DailyTrigger) fire() {
	t.logger.Info("Triggering nightly maintenance")
	if err := t.scheduler.SubmitAll(); err != nil {
		t.logger.Error("Failed to submit maintenance jobs", zap.Error(err))
	}
}
