package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mail_loader/internal/domain"
)

type ProfileReader interface {
	GetAllSenderProfiles(ctx context.Context) ([]domain.SenderProfile, error)
}

type ScoreWriter interface {
	UpdateScores(ctx context.Context, updates []domain.ScoreUpdate) error
}

// ProgressFunc receives the number of records scored so far and the total.
type ProgressFunc func(scored, total int)

type BackgroundConfig struct {
	ChunkSize     int
	ProgressEvery int
	Variant       string
}

// Background scores whole collections chunk by chunk, persisting each chunk
// before computing the next one.
type Background struct {
	profiles      ProfileReader
	writer        ScoreWriter
	score         ScoreFunc
	chunkSize     int
	progressEvery int
	now           func() time.Time
	logger        *slog.Logger
}

func NewBackground(profiles ProfileReader, writer ScoreWriter, cfg BackgroundConfig, logger *slog.Logger) *Background {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 50
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = 4
	}
	return &Background{
		profiles:      profiles,
		writer:        writer,
		score:         VariantFunc(cfg.Variant),
		chunkSize:     cfg.ChunkSize,
		progressEvery: cfg.ProgressEvery,
		now:           time.Now,
		logger:        logger.With("component", "background_scoring"),
	}
}

// ScoreAll computes and stores scores for records. Chunks written before a
// failure stay persisted. progress may be nil.
func (b *Background) ScoreAll(ctx context.Context, records []domain.Record, progress ProgressFunc) (domain.ScoringStats, error) {
	start := time.Now()
	var stats domain.ScoringStats

	profiles, err := b.profiles.GetAllSenderProfiles(ctx)
	if err != nil {
		return stats, fmt.Errorf("load sender profiles: %w", err)
	}
	lookup := make(map[string]*domain.SenderProfile, len(profiles))
	for i := range profiles {
		lookup[SenderKey(profiles[i].Email)] = &profiles[i]
	}

	total := len(records)
	for offset := 0; offset < total; offset += b.chunkSize {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := min(offset+b.chunkSize, total)
		now := b.now()
		updates := make([]domain.ScoreUpdate, 0, end-offset)
		for _, r := range records[offset:end] {
			s := b.score(r, lookup[SenderKey(r.From)], now)
			updates = append(updates, domain.ScoreUpdate{ID: r.ID, Score: s.Score})
		}

		if err := b.writer.UpdateScores(ctx, updates); err != nil {
			return stats, fmt.Errorf("store scores for chunk at %d: %w", offset, err)
		}
		stats.Scored += len(updates)
		stats.Chunks++

		if progress != nil && (stats.Chunks%b.progressEvery == 0 || end == total) {
			progress(stats.Scored, total)
		}
	}

	stats.Duration = time.Since(start)
	b.logger.Debug("background scoring finished",
		"scored", stats.Scored,
		"chunks", stats.Chunks,
		"duration", stats.Duration,
	)
	return stats, nil
}
