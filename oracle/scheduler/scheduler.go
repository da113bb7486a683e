package scheduler

import (
	"context"
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/types"
)

// Scheduler runs jobs from a queue on a fixed set of workers.
type Scheduler struct {
	wg          sync.WaitGroup
	quit        chan struct{}
	stopOnce    sync.Once
	jobStore    cmap.ConcurrentMap[string, types.Job]
	jobQueue    <-chan types.Job
	resultQueue chan types.JobResult
	executor    *Executor
	workers     int
}

func New(jobQueue <-chan types.Job, executor *Executor) *Scheduler {
	return &Scheduler{
		quit:        make(chan struct{}),
		jobStore:    cmap.New[types.Job](),
		jobQueue:    jobQueue,
		resultQueue: make(chan types.JobResult, config.ChannelSize()),
		executor:    executor,
		workers:     config.Workers(),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	workers := s.workers
	if workers <= 0 {
		workers = 1
	}

	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	log.Infof("scheduler started with %d workers", workers)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
	s.wg.Wait()
}

func (s *Scheduler) Result() <-chan types.JobResult {
	return s.resultQueue
}

// Running returns the requests currently being executed.
func (s *Scheduler) Running() []string {
	return s.jobStore.Keys()
}

func (s *Scheduler) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case job := <-s.jobQueue:
			key := job.RequestID.Hex()
			s.jobStore.Set(key, job)

			jr := s.executor.Execute(ctx, job)
			s.jobStore.Remove(key)

			if jr.Failed() {
				log.Errorf("job %s failed: %s", key, jr.Err)
			} else {
				log.Debugf("job %s done: 0x%x", key, jr.Response)
			}

			select {
			case s.resultQueue <- jr:
			case <-s.quit:
				return
			}

		case <-s.quit:
			return

		case <-ctx.Done():
			return
		}
	}
}
