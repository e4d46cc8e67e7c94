package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"newspulse/internal/ports"
)

const defaultOverlap = 5 * time.Minute

// Ingester is the slice of the application layer the scheduler drives.
type Ingester interface {
	ProcessPeriod(ctx context.Context, feeds []ports.NewsFeed, from, to time.Time) error
}

// Config holds the scheduler collaborators and polling policy.
type Config struct {
	Service Ingester
	Feeds   []ports.NewsFeed
	Logger  ports.Logger
	// Spec is a cron expression (robfig/cron, with seconds), e.g.
	// "0 */5 * * * *" for every five minutes.
	Spec string
	// Overlap is re-fetched at the start of every window so items published
	// around a poll boundary are never missed. Deduplication absorbs the
	// repeats. Defaults to 5 minutes.
	Overlap time.Duration
	// Now supplies wall-clock time. Defaults to time.Now; tests override it.
	Now func() time.Time
}

// Scheduler polls the news feeds on a cron schedule and pushes what they
// return through the ingestion pipeline.
type Scheduler struct {
	cron    *cron.Cron
	service Ingester
	feeds   []ports.NewsFeed
	logger  ports.Logger
	spec    string
	overlap time.Duration
	now     func() time.Time

	mu     sync.Mutex
	cursor time.Time // end of the last successfully processed window
}

// New creates a Scheduler.
func New(cfg Config) (*Scheduler, error) {
	if cfg.Service == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("service and logger are required for the scheduler")
	}
	if cfg.Spec == "" {
		return nil, fmt.Errorf("cron spec is required: %w", ports.ErrConfigurationError)
	}
	overlap := cfg.Overlap
	if overlap <= 0 {
		overlap = defaultOverlap
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		service: cfg.Service,
		feeds:   cfg.Feeds,
		logger:  cfg.Logger,
		spec:    cfg.Spec,
		overlap: overlap,
		now:     now,
		cursor:  now(),
	}, nil
}

// Start registers the polling task and starts the cron loop.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Poll(ctx) }); err != nil {
		return fmt.Errorf("failed to register polling task for spec %q: %w", s.spec, err)
	}
	s.cron.Start()
	s.logger.Info(ctx, "Feed scheduler started", map[string]interface{}{
		"spec": s.spec, "feeds": len(s.feeds),
	})
	return nil
}

// Stop stops the cron loop and waits for a running poll to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	<-s.cron.Stop().Done()
	s.logger.Info(ctx, "Feed scheduler stopped")
}

// Poll processes one window from the last successful cursor (minus the
// overlap) up to now. The cursor only advances on success, so a failed
// window is retried in full on the next tick.
func (s *Scheduler) Poll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from := s.cursor.Add(-s.overlap)
	to := s.now()

	if err := s.service.ProcessPeriod(ctx, s.feeds, from, to); err != nil {
		s.logger.Error(ctx, err, "Feed poll failed, window will be retried", map[string]interface{}{
			"from": from, "to": to,
		})
		return
	}
	s.cursor = to
}
