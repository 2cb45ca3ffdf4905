// Package service provides the business logic of the tunestream session daemon.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/tejashwikalptaru/tunestream/internal/domain"
	"github.com/tejashwikalptaru/tunestream/internal/ports"
)

// CatalogService fetches the full song list from a SongStore.
// Every Refresh is a single attempt; callers decide whether to try again.
// All operations are thread-safe.
type CatalogService struct {
	// Dependencies (injected)
	logger *slog.Logger
	store  ports.SongStore
	bus    ports.EventBus

	// timeout bounds a single fetch (0 = no timeout)
	timeout time.Duration

	mu        sync.RWMutex
	readiness domain.Readiness
	lastErr   error
	fetchedAt time.Time
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	logger *slog.Logger,
	store ports.SongStore,
	bus ports.EventBus,
	timeout time.Duration,
) *CatalogService {
	return &CatalogService{
		logger:  logger.With(slog.String("service", "catalog"), slog.String("store", store.Name())),
		store:   store,
		bus:     bus,
		timeout: timeout,
	}
}

// Refresh fetches every song from the store.
//
// On failure the returned queue is empty and the error is a *domain.FetchError
// (errors.Is(err, domain.ErrCatalogUnavailable) holds). Partial results are never returned.
func (s *CatalogService) Refresh(ctx context.Context) (domain.Queue, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	songs, err := s.store.FetchAll(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled) {
		// Superseded or torn down: not a verdict on the catalog
		s.logger.Debug("catalog fetch cancelled")
		return domain.Queue{}, domain.NewFetchError(s.store.Name(), err)
	}
	if err != nil {
		fetchErr := domain.NewFetchError(s.store.Name(), err)

		s.mu.Lock()
		s.readiness = domain.ReadinessFailed
		s.lastErr = fetchErr
		s.mu.Unlock()

		s.logger.Warn("catalog fetch failed", slog.Any("error", err))
		s.bus.Publish(domain.NewCatalogFailedEvent(fetchErr))
		return domain.Queue{}, fetchErr
	}

	queue := domain.NewQueue(songs)

	s.mu.Lock()
	s.readiness = domain.ReadinessReady
	s.lastErr = nil
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("catalog fetched",
		slog.Int("songs", queue.Len()),
		slog.Duration("took", time.Since(started)))
	s.bus.Publish(domain.NewCatalogRefreshedEvent(queue.Len()))

	return queue, nil
}

// Readiness reports the outcome of the last refresh.
func (s *CatalogService) Readiness() domain.Readiness {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readiness
}

// LastError returns the error of the last refresh, or nil if it succeeded.
func (s *CatalogService) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// FetchedAt returns when the last successful refresh completed.
func (s *CatalogService) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// StoreName identifies the backing store.
func (s *CatalogService) StoreName() string {
	return s.store.Name()
}
