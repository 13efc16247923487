package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mail_loader/internal/config"
	"mail_loader/internal/credentials"
	"mail_loader/internal/domain"
	"mail_loader/internal/scoring"
)

// Callbacks receive the events of one load cycle. Any of them may be nil.
type Callbacks struct {
	OnProgress func(loaded, total int, phase domain.Phase)
	OnComplete func(stats domain.LoadStats)
	OnError    func(err error)
	// OnScoringProgress reports the background pass, which outlives OnComplete.
	OnScoringProgress func(scored, total int)
}

func (c Callbacks) progress(loaded, total int, phase domain.Phase) {
	if c.OnProgress != nil {
		c.OnProgress(loaded, total, phase)
	}
}

// LoaderState is the process-local state of the loader.
type LoaderState struct {
	IsLoading     bool
	CycleID       string
	TotalEstimate int
	LoadedCount   int
}

// ScoringResult is the outcome of one background scoring pass.
type ScoringResult struct {
	CycleID string
	Stats   domain.ScoringStats
	Err     error
}

// Loader drives load cycles. At most one cycle runs at a time; background
// scoring passes run independently and are tracked separately.
type Loader struct {
	source      Source
	store       RecordStore
	scorer      BackgroundScorer
	credentials credentials.Provider
	publisher   Publisher
	logger      *slog.Logger
	config      config.LoaderConfig

	mu     sync.Mutex
	state  LoaderState
	cancel context.CancelFunc
	done   chan struct{}

	bgCtx      context.Context
	bgCancel   context.CancelFunc
	background sync.WaitGroup
	results    chan ScoringResult
}

func NewLoader(
	source Source,
	store RecordStore,
	scorer BackgroundScorer,
	creds credentials.Provider,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.LoaderConfig,
) *Loader {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Loader{
		source:      source,
		store:       store,
		scorer:      scorer,
		credentials: creds,
		publisher:   publisher,
		logger:      logger.With("component", "loader"),
		config:      cfg,
		bgCtx:       bgCtx,
		bgCancel:    bgCancel,
		results:     make(chan ScoringResult, 8),
	}
}

// Start begins a load cycle in the background and reports whether it did.
// It is a no-op without a credential or while another cycle is running.
// Cancelling ctx cancels the cycle.
func (l *Loader) Start(ctx context.Context, cb Callbacks) bool {
	if _, err := l.credentials.Token(ctx); err != nil {
		if errors.Is(err, domain.ErrUnauthenticated) {
			l.logger.Debug("no credential, not loading")
		} else {
			l.logger.Warn("credential unavailable, not loading", "error", err)
		}
		return false
	}

	l.mu.Lock()
	if l.state.IsLoading {
		l.mu.Unlock()
		l.logger.Debug("load already in progress")
		return false
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	cycleID := uuid.NewString()
	done := make(chan struct{})
	l.state = LoaderState{IsLoading: true, CycleID: cycleID}
	l.cancel = cancel
	l.done = done
	l.mu.Unlock()

	go l.run(cycleCtx, cycleID, cb, done)
	return true
}

// Cancel stops the running cycle, if any. Batches already written stay.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Wait blocks until the current cycle, if any, has ended.
func (l *Loader) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

// WaitBackground blocks until every background scoring pass has ended.
func (l *Loader) WaitBackground() {
	l.background.Wait()
}

// BackgroundResults delivers scoring outcomes. Nothing in the load cycle
// reads it; results are dropped when nobody does.
func (l *Loader) BackgroundResults() <-chan ScoringResult {
	return l.results
}

func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.IsLoading
}

func (l *Loader) State() LoaderState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Close cancels the running cycle and background scoring and waits for both.
func (l *Loader) Close() {
	l.Cancel()
	l.Wait()
	l.bgCancel()
	l.background.Wait()
}

func (l *Loader) run(ctx context.Context, cycleID string, cb Callbacks, done chan struct{}) {
	logger := l.logger.With("cycle_id", cycleID)
	defer func() {
		l.mu.Lock()
		l.state.IsLoading = false
		l.cancel()
		l.cancel = nil
		l.mu.Unlock()
		close(done)
	}()

	startTime := time.Now()
	logger.Info("starting load",
		"page_size", l.config.PageSize,
		"max_records", l.config.MaxRecords,
	)

	records, stats, err := l.fetchAll(ctx, cb, logger)
	stats.CycleID = cycleID
	if ctx.Err() != nil {
		logger.Info("load cancelled", "loaded", stats.Loaded, "requests", stats.Requests)
		return
	}
	if err != nil {
		logger.Error("load failed", "error", err, "loaded", stats.Loaded)
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return
	}

	cb.progress(stats.Loaded, stats.Total, domain.PhaseScoring)
	l.launchScoring(cycleID, records, cb, logger)

	// The cycle has succeeded from here on; nothing below may fail it.
	storeCtx := context.WithoutCancel(ctx)
	count, err := l.store.GetRecordCount(storeCtx)
	if err != nil {
		logger.Warn("failed to count records", "error", err)
		count = stats.Loaded
	}
	if err := l.store.RecordLoadCompletion(storeCtx, time.Now(), count); err != nil {
		logger.Warn("failed to record load completion", "error", err)
	}

	stats.Duration = time.Since(startTime)
	if l.publisher != nil {
		if err := l.publisher.PublishLoadCompleted(storeCtx, stats); err != nil {
			logger.Warn("failed to publish load completion", "error", err)
		}
	}

	logger.Info("load completed",
		"loaded", stats.Loaded,
		"total", stats.Total,
		"requests", stats.Requests,
		"duration", stats.Duration,
	)

	if cb.OnComplete != nil {
		cb.OnComplete(stats)
	}
}

// fetchAll runs the estimate and paging phases. Each batch is written before
// the next request; writes are not interrupted by cancellation.
func (l *Loader) fetchAll(ctx context.Context, cb Callbacks, logger *slog.Logger) ([]domain.Record, domain.LoadStats, error) {
	var stats domain.LoadStats

	cb.progress(0, 0, domain.PhaseFetching)
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	if l.config.PageSize <= 0 || l.config.MaxRecords <= 0 {
		return nil, stats, fmt.Errorf("invalid loader config: page size %d, max records %d",
			l.config.PageSize, l.config.MaxRecords)
	}

	estimate, err := l.source.GetSummary(ctx)
	stats.Requests++
	if err != nil {
		return nil, stats, fmt.Errorf("fetch summary: %w", err)
	}
	total := min(max(estimate, 0), l.config.MaxRecords)
	l.setProgress(total, 0)
	stats.Total = total
	cb.progress(0, total, domain.PhaseFetching)
	logger.Debug("estimated collection size", "estimate", estimate, "total", total)

	storeCtx := context.WithoutCancel(ctx)
	var records []domain.Record
	offset := 0
	for offset < l.config.MaxRecords {
		if err := ctx.Err(); err != nil {
			return records, stats, err
		}

		limit := min(l.config.PageSize, l.config.MaxRecords-offset)
		batch, err := l.source.FetchRecords(ctx, limit, offset)
		stats.Requests++
		if err != nil {
			return records, stats, fmt.Errorf("fetch batch at offset %d: %w", offset, err)
		}

		if len(batch.Records) > 0 {
			if err := l.store.UpsertBatch(storeCtx, batch.Records); err != nil {
				return records, stats, fmt.Errorf("store batch at offset %d: %w", offset, err)
			}
			records = append(records, batch.Records...)
		}
		offset += batch.Received
		stats.Loaded += len(batch.Records)

		endOfData := batch.Received < limit
		if endOfData || stats.Loaded > total {
			total = stats.Loaded
		}
		stats.Total = total
		l.setProgress(total, stats.Loaded)
		cb.progress(stats.Loaded, total, domain.PhaseProcessing)

		if endOfData || offset >= l.config.MaxRecords {
			break
		}

		select {
		case <-ctx.Done():
			return records, stats, ctx.Err()
		case <-time.After(l.config.BatchDelay):
		}
	}

	return records, stats, nil
}

func (l *Loader) setProgress(total, loaded int) {
	l.mu.Lock()
	l.state.TotalEstimate = total
	l.state.LoadedCount = loaded
	l.mu.Unlock()
}

// launchScoring starts the scoring pass without waiting for it. Its errors
// and panics are logged and reported on the results channel only.
func (l *Loader) launchScoring(cycleID string, records []domain.Record, cb Callbacks, logger *slog.Logger) {
	if l.scorer == nil || len(records) == 0 {
		return
	}

	var progress scoring.ProgressFunc
	if cb.OnScoringProgress != nil {
		progress = cb.OnScoringProgress
	}

	l.background.Add(1)
	go func() {
		defer l.background.Done()

		result := ScoringResult{CycleID: cycleID}
		defer func() {
			if r := recover(); r != nil {
				result.Err = fmt.Errorf("scoring panicked: %v", r)
			}
			l.finishScoring(result, logger)
		}()

		result.Stats, result.Err = l.scorer.ScoreAll(l.bgCtx, records, progress)
		result.Stats.CycleID = cycleID
	}()
}

func (l *Loader) finishScoring(result ScoringResult, logger *slog.Logger) {
	if result.Err != nil {
		logger.Error("background scoring failed", "error", result.Err, "scored", result.Stats.Scored)
	} else {
		logger.Info("background scoring completed",
			"scored", result.Stats.Scored,
			"duration", result.Stats.Duration,
		)
		if l.publisher != nil {
			if err := l.publisher.PublishScoringCompleted(l.bgCtx, result.Stats); err != nil {
				logger.Warn("failed to publish scoring completion", "error", err)
			}
		}
	}

	select {
	case l.results <- result:
	default:
		logger.Debug("scoring result dropped, nobody is listening")
	}
}
