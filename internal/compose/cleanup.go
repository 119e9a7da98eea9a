package compose

import (
	"log/slog"
	"sync"
	"time"

	"storyreel/internal/logging"
)

// Scheduler removes finished job directories after a grace delay. The queue
// is bounded and drops work when saturated rather than blocking composition;
// a dropped entry only means a staging directory lingers until the next
// daemon restart wipes staging.
type Scheduler struct {
	delay   time.Duration
	queue   chan *Job
	logger  *slog.Logger
	wg      sync.WaitGroup
	once    sync.Once
	closing chan struct{}
}

// NewScheduler starts the cleanup workers. Zero workers or a negative delay
// fall back to sane minimums.
func NewScheduler(delay time.Duration, workers int, logger *slog.Logger) *Scheduler {
	if delay < 0 {
		delay = 0
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		delay:   delay,
		queue:   make(chan *Job, workers*4),
		logger:  logger,
		closing: make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// Schedule queues a job directory for delayed removal. Never blocks.
func (s *Scheduler) Schedule(job *Job) {
	if s == nil || job == nil {
		return
	}
	select {
	case s.queue <- job:
	default:
		s.logger.Warn("cleanup queue full, directory retained", "workdir", job.Dir)
	}
}

// Close stops accepting work and waits for queued removals to finish.
// Pending grace delays are skipped so shutdown is prompt.
func (s *Scheduler) Close() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.closing)
		close(s.queue)
	})
	s.wg.Wait()
}

func (s *Scheduler) worker() {
	defer s.wg.Done()
	for job := range s.queue {
		s.wait()
		if err := job.Remove(); err != nil {
			s.logger.Warn("remove compose workdir", "workdir", job.Dir, logging.Error(err))
			continue
		}
		s.logger.Debug("removed compose workdir", "workdir", job.Dir)
	}
}

func (s *Scheduler) wait() {
	if s.delay <= 0 {
		return
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.closing:
	}
}
