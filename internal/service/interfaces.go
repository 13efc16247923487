package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"mail_loader/internal/domain"
	"mail_loader/internal/scoring"
)

// Source is the paginated remote collection.
type Source interface {
	GetSummary(ctx context.Context) (int, error)
	FetchRecords(ctx context.Context, limit, offset int) (domain.Batch, error)
}

type RecordStore interface {
	UpsertBatch(ctx context.Context, records []domain.Record) error
	GetRecordCount(ctx context.Context) (int, error)
	GetLastLoadTime(ctx context.Context) (time.Time, error)
	RecordLoadCompletion(ctx context.Context, at time.Time, total int) error
}

type BackgroundScorer interface {
	ScoreAll(ctx context.Context, records []domain.Record, progress scoring.ProgressFunc) (domain.ScoringStats, error)
}

type Publisher interface {
	PublishLoadCompleted(ctx context.Context, stats domain.LoadStats) error
	PublishScoringCompleted(ctx context.Context, stats domain.ScoringStats) error
	Close() error
}
