package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobStatus represents the status of a scheduled job
type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusRunning JobStatus = "running"
	JobStatusSuccess JobStatus = "success"
	JobStatusFailed  JobStatus = "failed"
)

// JobType names a maintenance task
type JobType string

const (
	// JobRecomputeStock rewrites cached item stock from invoice history
	JobRecomputeStock JobType = "recompute_stock"
	// JobPurgeDeletedItems removes items soft-deleted longer ago than the retention window
	JobPurgeDeletedItems JobType = "purge_deleted_items"
)

// Job is one run of a maintenance task
type Job struct {
	ID          uuid.UUID
	Type        JobType
	Status      JobStatus
	Error       string
	StartedAt   *time.Time
	CompletedAt *time.Time
	RetryCount  int
	MaxRetries  int
}

// NewJob creates a pending job
func NewJob(jobType JobType, maxRetries int) *Job {
	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Status:     JobStatusPending,
		MaxRetries: maxRetries,
	}
}

// Start marks the job as running
func (j *Job) Start() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.CompletedAt = nil
	j.Error = ""
}

// Complete marks the job as successful
func (j *Job) Complete() {
	now := time.Now()
	j.Status = JobStatusSuccess
	j.CompletedAt = &now
}

// Fail marks the job as failed
func (j *Job) Fail(err string) {
	now := time.Now()
	j.Status = JobStatusFailed
	j.CompletedAt = &now
	j.Error = err
}

// ShouldRetry returns true if the job failed and has retries left
func (j *Job) ShouldRetry() bool {
	return j.Status == JobStatusFailed && j.RetryCount < j.MaxRetries
}

// Retry puts a failed job back to pending
func (j *Job) Retry() {
	j.RetryCount++
	j.Status = JobStatusPending
	j.Error = ""
}

// Task is the work behind a job type
type Task func(ctx context.Context) error

// Config holds scheduler configuration
type Config struct {
	MaxConcurrentJobs int
	QueueSize         int
	JobTimeout        time.Duration
	RetryAttempts     int
	RetryDelay        time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentJobs: 1,
		QueueSize:         16,
		JobTimeout:        30 * time.Minute,
		RetryAttempts:     3,
		RetryDelay:        5 * time.Minute,
	}
}

// Scheduler runs registered maintenance tasks on a small worker pool.
// Tasks must be registered before Start.
type Scheduler struct {
	config Config
	logger *zap.Logger
	tasks  map[JobType]Task
	order  []JobType

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	last      map[JobType]Job
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxConcurrentJobs <= 0 {
		config.MaxConcurrentJobs = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}
	if config.JobTimeout <= 0 {
		config.JobTimeout = DefaultConfig().JobTimeout
	}
	return &Scheduler{
		config: config,
		logger: logger,
		tasks:  make(map[JobType]Task),
		jobs:   make(chan *Job, config.QueueSize),
		last:   make(map[JobType]Job),
	}
}

// Register adds a task. Registration order is the order SubmitAll uses.
func (s *Scheduler) Register(jobType JobType, task Task) *Scheduler {
	if _, exists := s.tasks[jobType]; !exists {
		s.order = append(s.order, jobType)
	}
	s.tasks[jobType] = task
	return s
}

// JobTypes returns the registered job types in registration order
func (s *Scheduler) JobTypes() []JobType {
	return append([]JobType(nil), s.order...)
}

// Start starts the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrentJobs; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.logger.Info("Maintenance scheduler started",
		zap.Int("workers", s.config.MaxConcurrentJobs),
		zap.Duration("job_timeout", s.config.JobTimeout),
	)
	return nil
}

// Stop cancels running jobs and waits for the workers to exit
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	close(s.jobs)
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Maintenance scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Maintenance scheduler stop timed out")
		return ctx.Err()
	}
}

// Submit queues one run of a registered task and returns its job ID
func (s *Scheduler) Submit(jobType JobType) (uuid.UUID, error) {
	if _, ok := s.tasks[jobType]; !ok {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownJobType, jobType)
	}
	job := NewJob(jobType, s.config.RetryAttempts)
	if err := s.enqueue(job); err != nil {
		return uuid.Nil, err
	}
	s.logger.Debug("Job submitted",
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(jobType)),
	)
	return job.ID, nil
}

// SubmitAll queues every registered task in registration order
func (s *Scheduler) SubmitAll() error {
	for _, jobType := range s.order {
		if _, err := s.Submit(jobType); err != nil {
			return err
		}
	}
	return nil
}

// LastRun returns a copy of the most recent finished run of a job type
func (s *Scheduler) LastRun(jobType JobType) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.last[jobType]
	return job, ok
}

func (s *Scheduler) enqueue(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return ErrSchedulerNotRunning
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return ErrJobQueueFull
	}
}

func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	log := s.logger.With(
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("job_type", string(job.Type)),
	)

	job.Start()
	log.Info("Processing job", zap.Int("attempt", job.RetryCount+1))

	jobCtx, cancel := context.WithTimeout(logger.WithContext(ctx, log), s.config.JobTimeout)
	err := s.tasks[job.Type](jobCtx)
	cancel()

	if err == nil {
		job.Complete()
		s.record(job)
		log.Info("Job completed successfully")
		return
	}

	job.Fail(err.Error())
	s.record(job)
	log.Error("Job failed", zap.Error(err))

	if !job.ShouldRetry() || ctx.Err() != nil {
		return
	}
	job.Retry()
	log.Info("Job scheduled for retry",
		zap.Int("retry_count", job.RetryCount),
		zap.Int("max_retries", job.MaxRetries),
		zap.Duration("delay", s.config.RetryDelay),
	)
	time.AfterFunc(s.config.RetryDelay, func() {
		if err := s.enqueue(job); err != nil {
			log.Warn("Failed to re-queue job for retry", zap.Error(err))
		}
	})
}

func (s *Scheduler) record(job *Job) {
	s.mu.Lock()
	s.last[job.Type] = *job
	s.mu.Unlock()
}
