// Package app provides the comparison engine: it owns session lifecycle,
// drives the binary-insertion search to completion, and commits results
// through the position manager and rating recalculator.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/reelrank/reelrank/internal/adapters/catalog"
	"github.com/reelrank/reelrank/internal/adapters/mq/queue"
	"github.com/reelrank/reelrank/internal/adapters/mq/worker"
	"github.com/reelrank/reelrank/internal/adapters/repository"
	sessionstore "github.com/reelrank/reelrank/internal/adapters/session"
	"github.com/reelrank/reelrank/internal/domain/rank"
	"github.com/reelrank/reelrank/internal/domain/rating"
	"github.com/reelrank/reelrank/pkg/logger"
)

// Default service configuration.
const (
	defaultRefreshQueueSize   = 10_000
	defaultRefreshWorkerCount = 4
	defaultSweepInterval      = time.Minute
)

// Service implements the ranking engine's library surface.
type Service struct {
	mu sync.RWMutex

	// Collaborators; nil ones get in-memory defaults on Start.
	store    repository.Store
	sessions sessionstore.Store
	catalog  catalog.Client

	// Core components built on Start.
	manager *rank.Manager
	recalc  *rating.Recalculator

	// Aggregate-stat refresh pipeline.
	refreshQueue *queue.InMemoryQueue
	refreshPool  *worker.Pool

	// Configuration.
	sessionTTL         time.Duration
	sweepInterval      time.Duration
	refreshQueueSize   int
	refreshWorkerCount int

	// Per-session serialization; the UI drives one comparison at a time,
	// racing requests are applied sequentially.
	locks sessionLocks

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the ranking store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithSessionStore sets the comparison-session store.
func WithSessionStore(store sessionstore.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.sessions = store
		}
	}
}

// WithCatalog sets the item-catalog client.
func WithCatalog(client catalog.Client) Option {
	return func(s *Service) {
		if client != nil {
			s.catalog = client
		}
	}
}

// WithSessionTTL sets how long an inactive session survives.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

// WithSweepInterval sets the in-memory session janitor interval.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithRefreshQueueSize bounds the aggregate-stat refresh backlog.
func WithRefreshQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.refreshQueueSize = size
		}
	}
}

// WithRefreshWorkerCount sets the number of refresh workers.
func WithRefreshWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.refreshWorkerCount = count
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sessionTTL:         sessionstore.DefaultTTL,
		sweepInterval:      defaultSweepInterval,
		refreshQueueSize:   defaultRefreshQueueSize,
		refreshWorkerCount: defaultRefreshWorkerCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes collaborators and launches the refresh workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.log == nil {
		s.log = logger.Get().Named("engine")
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
		s.log.Info(ctx, "using in-memory ranking store")
	}
	if s.sessions == nil {
		s.sessions = sessionstore.NewMemoryStore(
			sessionstore.WithSweepInterval(s.sweepInterval),
		)
		s.log.Info(ctx, "using in-memory session store")
	}
	if s.catalog == nil {
		s.catalog = catalog.NewMemoryClient()
		s.log.Info(ctx, "using in-memory catalog")
	}

	s.manager = rank.NewManager(s.store, rank.WithLogger(s.log.Named("rank")))
	s.recalc = rating.NewRecalculator(s.store, rating.WithLogger(s.log.Named("rating")))

	s.refreshQueue = queue.NewInMemoryQueue(queue.WithCapacity(s.refreshQueueSize))
	s.refreshPool = worker.NewPool(s.refreshWorkerCount, s.refreshQueue, s.catalog)
	s.refreshPool.Start(ctx)

	s.locks.init()
	s.started = true
	s.log.Info(ctx, "ranking engine started",
		logger.Int("refreshWorkers", s.refreshWorkerCount),
		logger.Int("refreshQueueSize", s.refreshQueueSize),
		logger.Any("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop gracefully shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.log.Info(ctx, "stopping ranking engine...")

	if s.refreshQueue != nil {
		_ = s.refreshQueue.Close()
	}
	if s.refreshPool != nil {
		s.refreshPool.Stop()
	}
	if closer, ok := s.sessions.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.log.Info(ctx, "ranking engine stopped")
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":              s.started,
		"session_ttl_seconds":  int(s.sessionTTL.Seconds()),
		"refresh_worker_count": s.refreshWorkerCount,
	}
	if s.started {
		stats["refresh_queue_length"] = s.refreshQueue.Len(context.Background())
	}
	return stats
}

// sessionLocks serializes access per session id.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *sessionLocks) init() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
}

// acquire locks the mutex for a session id, creating it on first use.
func (l *sessionLocks) acquire(id string) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m
}

// forget drops the mutex for a purged session.
func (l *sessionLocks) forget(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, id)
}
