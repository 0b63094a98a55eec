package leaderboard

import (
	"context"
	"sync"
	"time"

	"github.com/tradesenseai/challenge-platform/internal/config"
	"github.com/tradesenseai/challenge-platform/internal/logger"
	"github.com/tradesenseai/challenge-platform/internal/model"
)

type Source interface {
	TopByProfit(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

type Sink interface {
	SaveSnapshot(ctx context.Context, entries []model.LeaderboardEntry, at time.Time) error
}

// Service keeps a periodically refreshed in-memory ranking so leaderboard
// reads never hit the accounts table on the request path. The snapshot is
// also mirrored into a table for the rest of the platform to query.
type Service struct {
	source Source
	sink   Sink
	cfg    config.LeaderboardConfig
	logger logger.Logger

	mu          sync.RWMutex
	entries     []model.LeaderboardEntry
	refreshedAt time.Time
}

func NewService(source Source, sink Sink, cfg config.LeaderboardConfig, logger logger.Logger) *Service {
	return &Service{
		source: source,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
	}
}

// Top returns the cached ranking. The slice is a copy; callers may keep it.
func (s *Service) Top() ([]model.LeaderboardEntry, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]model.LeaderboardEntry, len(s.entries))
	copy(entries, s.entries)
	return entries, s.refreshedAt
}

// Refresh rebuilds the cache. On failure the previous snapshot stays served.
func (s *Service) Refresh(ctx context.Context) error {
	entries, err := s.source.TopByProfit(ctx, s.cfg.Size)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range entries {
		entries[i].SnapshotAt = now
	}

	if s.sink != nil {
		if err := s.sink.SaveSnapshot(ctx, entries, now); err != nil {
			s.logger.Errorf("%s: can't persist leaderboard snapshot", err)
		}
	}

	s.mu.Lock()
	s.entries = entries
	s.refreshedAt = now
	s.mu.Unlock()

	s.logger.Debugf("leaderboard refreshed with %d entries", len(entries))
	return nil
}

func (s *Service) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Errorf("%s: error refreshing leaderboard", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.RefreshInterval):
			if err := s.Refresh(ctx); err != nil {
				s.logger.Errorf("%s: error refreshing leaderboard", err)
			}
		}
	}
}
