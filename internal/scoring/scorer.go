package scoring

import (
	"context"
	"log/slog"
	"time"

	"mail_loader/internal/credentials"
	"mail_loader/internal/domain"
)

// RemoteScorer computes scores over the network.
type RemoteScorer interface {
	ScoreRecord(ctx context.Context, record domain.Record, behavior domain.SenderBehavior) (*domain.RateScore, error)
}

// Scorer is the augmented scoring path: cache first, then the remote
// scorer when a credential is available, then the local heuristic.
type Scorer struct {
	remote      RemoteScorer
	credentials credentials.Provider
	cache       *Cache
	heuristic   ScoreFunc
	now         func() time.Time
	logger      *slog.Logger
}

// NewScorer builds a Scorer. remote may be nil to disable the network path.
func NewScorer(remote RemoteScorer, creds credentials.Provider, cache *Cache, logger *slog.Logger) *Scorer {
	return &Scorer{
		remote:      remote,
		credentials: creds,
		cache:       cache,
		heuristic:   ComputeHeuristicScore,
		now:         time.Now,
		logger:      logger.With("component", "scorer"),
	}
}

// ComputeAugmentedScore never fails: every remote problem degrades to the heuristic.
func (s *Scorer) ComputeAugmentedScore(ctx context.Context, r domain.Record, p *domain.SenderProfile) domain.RateScore {
	if cached, ok := s.cache.Get(r.ID); ok {
		return cached
	}

	score := s.remoteScore(ctx, r, p)
	if score == nil {
		h := s.heuristic(r, p, s.now())
		score = &h
	}

	s.cache.Put(r.ID, *score)
	return *score
}

func (s *Scorer) remoteScore(ctx context.Context, r domain.Record, p *domain.SenderProfile) *domain.RateScore {
	if s.remote == nil || s.credentials == nil {
		return nil
	}
	if _, err := s.credentials.Token(ctx); err != nil {
		return nil
	}

	score, err := s.remote.ScoreRecord(ctx, r, domain.BehaviorOf(SenderKey(r.From), p))
	if err != nil {
		s.logger.Debug("remote scoring unavailable, using heuristic", "id", r.ID, "error", err)
		return nil
	}
	return score
}
