package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned when trying to submit a job to a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrJobQueueFull is returned when the job queue is full
	ErrJobQueueFull = errors.New("job queue is full")

	// ErrUnknownJobType is returned when no task is registered for a job type
	ErrUnknownJobType = errors.New("unknown job type")

	// ErrInvalidSchedule is returned for schedules other than "minute hour * * *"
	ErrInvalidSchedule = errors.New("invalid schedule")
)
