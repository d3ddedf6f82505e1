package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"torn_war_odds/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// JobFunc is one unit of scheduled work
type JobFunc func(ctx context.Context) error

type job struct {
	name    string
	spec    string
	run     JobFunc
	entryID cron.EntryID
}

// Scheduler runs named jobs on cron schedules. A job still running when its next
// tick arrives is skipped.
type Scheduler struct {
	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	jobs       []*job
	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewScheduler creates a scheduler evaluating schedules in UTC. Every run gets its own
// context bounded by jobTimeout.
func NewScheduler(jobTimeout time.Duration) *Scheduler {
	logger := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// AddJob registers run under name on a cron spec such as "@every 1h" or "0 */6 * * *"
func (s *Scheduler) AddJob(name, spec string, run JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}
	if s.find(name) != nil {
		return fmt.Errorf("job %s is already scheduled", name)
	}

	j := &job{name: name, spec: spec, run: run}
	entryID, err := s.cron.AddFunc(spec, func() {
		if err := s.execute(s.ctx, j); err != nil {
			log.Error().Err(err).Str("job", j.name).Msg("Scheduled job failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job %s with schedule %q: %w", name, spec, err)
	}
	j.entryID = entryID
	s.jobs = append(s.jobs, j)

	log.Info().
		Str("job", name).
		Str("schedule", spec).
		Msg("Scheduled job")

	return nil
}

// RunNow runs a registered job immediately in the calling goroutine
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j := s.find(name)
	s.mu.RUnlock()

	if j == nil {
		return fmt.Errorf("unknown job %s", name)
	}
	return s.execute(ctx, j)
}

func (s *Scheduler) execute(parent context.Context, j *job) error {
	ctx := parent
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.jobTimeout)
		defer cancel()
	}

	started := time.Now()
	defer metrics.ObserveJob(j.name, started)

	log.Debug().Str("job", j.name).Msg("Starting job")
	if err := j.run(ctx); err != nil {
		return fmt.Errorf("job %s: %w", j.name, err)
	}
	log.Debug().
		Str("job", j.name).
		Dur("took", time.Since(started)).
		Msg("Job finished")

	return nil
}

func (s *Scheduler) find(name string) *job {
	for _, j := range s.jobs {
		if j.name == name {
			return j
		}
	}
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	log.Info().Int("jobs", len(s.jobs)).Msg("Scheduler started")

	return nil
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	s.cancel()
	<-s.cron.Stop().Done()
	s.isRunning = false
	log.Info().Msg("Scheduler stopped")
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns the next scheduled time of the named job, zero if it is not scheduled
// or the scheduler is stopped
func (s *Scheduler) NextRun(name string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j := s.find(name)
	if j == nil || !s.isRunning {
		return time.Time{}
	}
	entry := s.cron.Entry(j.entryID)
	if !entry.Valid() {
		return time.Time{}
	}
	return entry.Next
}

// cronLogger adapts zerolog to cron.Logger. cron's info output is per-tick so it goes to debug.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
