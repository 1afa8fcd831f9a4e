package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lysyi3m/newsletter-digest/app/database"
	"github.com/lysyi3m/newsletter-digest/app/feed"
	"github.com/lysyi3m/newsletter-digest/app/metrics"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

const (
	queueSize     = 300
	maxRetryDelay = 30 * time.Second
)

type Options struct {
	WorkerCount     int
	CollectSchedule string // cron spec, empty disables periodic collection
	CollectOnStart  bool
}

type Scheduler struct {
	configCache *feed.ConfigCache
	feedRepo    database.FeedRepository
	collector   FeedCollector
	summarizer  Summarizer
	options     Options
	cron        *cron.Cron
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(options Options, configCache *feed.ConfigCache, feedRepo database.FeedRepository,
	collector FeedCollector, summarizer Summarizer) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if options.WorkerCount < 1 {
		options.WorkerCount = 1
	}

	return &Scheduler{
		configCache: configCache,
		feedRepo:    feedRepo,
		collector:   collector,
		summarizer:  summarizer,
		options:     options,
		cron:        cron.New(cron.WithLocation(time.Local)),
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

// Start registers the collection schedule, then launches the workers and
// queues the startup work.
func (s *Scheduler) Start() error {
	if s.options.CollectSchedule != "" {
		if _, err := s.cron.AddFunc(s.options.CollectSchedule, s.enqueueCollect); err != nil {
			return fmt.Errorf("failed to schedule feed collection %q: %w", s.options.CollectSchedule, err)
		}
	}

	for i := 0; i < s.options.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.enqueueStartupTasks()
	s.cron.Start()

	slog.Info("Scheduler started", "workers", s.options.WorkerCount, "collect_schedule", s.options.CollectSchedule)

	return nil
}

func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) EnqueueSummarize(newsletterID string) error {
	return s.EnqueueTask(NewSummarizeTask(newsletterID, s.summarizer))
}

func (s *Scheduler) enqueueCollect() {
	if err := s.EnqueueTask(NewCollectFeedsTask(s.collector)); err != nil {
		slog.Warn("Failed to enqueue CollectFeedsTask", "error", err)
	}
}

// enqueueStartupTasks queues the feed config sync ahead of any collection so
// the first run sees the configured feed set.
func (s *Scheduler) enqueueStartupTasks() {
	feedConfigs := s.configCache.GetConfigs()
	if len(feedConfigs) == 0 {
		slog.Debug("No feed configurations found")
	}

	for _, feedConfig := range feedConfigs {
		if err := s.EnqueueTask(NewSyncFeedConfigTask(feedConfig, s.feedRepo)); err != nil {
			slog.Warn("Failed to enqueue SyncFeedConfigTask", "feed", feedConfig.ID, "error", err)
		}
	}

	if s.options.CollectOnStart {
		s.enqueueCollect()
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, task.GetTimeout())
	defer cancel()

	err := task.Execute(taskCtx)
	if err == nil {
		metrics.RecordTask(string(task.GetType()), "success")
		return
	}

	slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "error", err)

	if !task.CanRetry() || s.ctx.Err() != nil {
		metrics.RecordTask(string(task.GetType()), "failed")
		slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		return
	}

	metrics.RecordTask(string(task.GetType()), "retry")
	task.IncrementRetryCount()
	retryDelay := min(time.Duration(1<<uint(task.GetRetryCount()-1))*time.Second, maxRetryDelay)

	slog.Warn("Task retry scheduled", "type", string(task.GetType()), "target", task.GetTarget(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

	go func() {
		timer := time.NewTimer(retryDelay)
		defer timer.Stop()

		select {
		case <-s.ctx.Done():
			slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
		case <-timer.C:
			if retryErr := s.EnqueueTask(task); retryErr != nil {
				slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
			}
		}
	}()
}
