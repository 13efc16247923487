package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"mail_loader/internal/config"
	"mail_loader/internal/credentials"
	"mail_loader/internal/domain"
	"mail_loader/internal/scoring"
	"mail_loader/internal/service/mocks"
	"mail_loader/internal/testutil"
)

type progressEvent struct {
	Loaded int
	Total  int
	Phase  domain.Phase
}

// events collects callback invocations. Scoring progress arrives from the
// background goroutine, so access is guarded.
type events struct {
	mu        sync.Mutex
	progress  []progressEvent
	completed []domain.LoadStats
	errs      []error
	onLoaded  func(loaded int)
}

func (e *events) callbacks() Callbacks {
	return Callbacks{
		OnProgress: func(loaded, total int, phase domain.Phase) {
			e.mu.Lock()
			e.progress = append(e.progress, progressEvent{loaded, total, phase})
			hook := e.onLoaded
			e.mu.Unlock()
			if hook != nil && phase == domain.PhaseProcessing {
				hook(loaded)
			}
		},
		OnComplete: func(stats domain.LoadStats) {
			e.mu.Lock()
			e.completed = append(e.completed, stats)
			e.mu.Unlock()
		},
		OnError: func(err error) {
			e.mu.Lock()
			e.errs = append(e.errs, err)
			e.mu.Unlock()
		},
	}
}

func page(offset, n int) domain.Batch {
	return domain.Batch{Records: testutil.Records("m", offset, n, time.Now()), Received: n}
}

type LoaderTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	source    *mocks.MockSource
	store     *mocks.MockRecordStore
	scorer    *mocks.MockBackgroundScorer
	publisher *mocks.MockPublisher

	cfg    config.LoaderConfig
	loader *Loader
}

func (s *LoaderTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.source = mocks.NewMockSource(s.ctrl)
	s.store = mocks.NewMockRecordStore(s.ctrl)
	s.scorer = mocks.NewMockBackgroundScorer(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)

	s.cfg = config.LoaderConfig{
		PageSize:   500,
		MaxRecords: 10000,
		BatchDelay: time.Millisecond,
	}

	s.loader = s.newLoader("token")
}

func (s *LoaderTestSuite) newLoader(token string) *Loader {
	return NewLoader(
		s.source,
		s.store,
		s.scorer,
		credentials.NewStaticProvider(token),
		s.publisher,
		testutil.DiscardLogger(),
		s.cfg,
	)
}

func (s *LoaderTestSuite) TearDownTest() {
	s.loader.Close()
	s.ctrl.Finish()
}

func TestLoaderTestSuite(t *testing.T) {
	suite.Run(t, new(LoaderTestSuite))
}

func (s *LoaderTestSuite) TestStart_LoadsAllPages() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(1200, nil)
	gomock.InOrder(
		s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 500), nil),
		s.source.EXPECT().FetchRecords(gomock.Any(), 500, 500).Return(page(500, 500), nil),
		s.source.EXPECT().FetchRecords(gomock.Any(), 500, 1000).Return(page(1000, 200), nil),
	)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil).Times(3)
	s.store.EXPECT().GetRecordCount(gomock.Any()).Return(1200, nil)
	s.store.EXPECT().RecordLoadCompletion(gomock.Any(), gomock.Any(), 1200).Return(nil)
	s.publisher.EXPECT().PublishLoadCompleted(gomock.Any(), gomock.Any()).Return(nil)

	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Len(1200), gomock.Any()).
		Return(domain.ScoringStats{Scored: 1200, Chunks: 24}, nil)
	s.publisher.EXPECT().PublishScoringCompleted(gomock.Any(), gomock.Any()).Return(nil)

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Empty(ev.errs)
	s.Require().Len(ev.completed, 1)
	stats := ev.completed[0]
	s.Equal(1200, stats.Loaded)
	s.Equal(1200, stats.Total)
	s.Equal(4, stats.Requests)
	s.NotEmpty(stats.CycleID)

	s.Equal([]progressEvent{
		{0, 0, domain.PhaseFetching},
		{0, 1200, domain.PhaseFetching},
		{500, 1200, domain.PhaseProcessing},
		{1000, 1200, domain.PhaseProcessing},
		{1200, 1200, domain.PhaseProcessing},
		{1200, 1200, domain.PhaseScoring},
	}, ev.progress)
	s.False(s.loader.IsLoading())

	result := <-s.loader.BackgroundResults()
	s.NoError(result.Err)
	s.Equal(stats.CycleID, result.CycleID)
	s.Equal(1200, result.Stats.Scored)
}

func (s *LoaderTestSuite) TestStart_ClampsToCeiling() {
	s.cfg.MaxRecords = 1000
	s.loader = s.newLoader("token")

	s.source.EXPECT().GetSummary(gomock.Any()).Return(50000, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 500), nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 500).Return(page(500, 500), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.store.EXPECT().GetRecordCount(gomock.Any()).Return(1000, nil)
	s.store.EXPECT().RecordLoadCompletion(gomock.Any(), gomock.Any(), 1000).Return(nil)
	s.publisher.EXPECT().PublishLoadCompleted(gomock.Any(), gomock.Any()).Return(nil)
	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoringStats{}, nil)
	s.publisher.EXPECT().PublishScoringCompleted(gomock.Any(), gomock.Any()).Return(nil)

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Require().Len(ev.completed, 1)
	s.Equal(1000, ev.completed[0].Loaded)
	s.Equal(progressEvent{0, 1000, domain.PhaseFetching}, ev.progress[1])
}

func (s *LoaderTestSuite) TestStart_RaisesTotalWhenEstimateIsLow() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(300, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 500), nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 500).Return(page(500, 100), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.store.EXPECT().GetRecordCount(gomock.Any()).Return(600, nil)
	s.store.EXPECT().RecordLoadCompletion(gomock.Any(), gomock.Any(), 600).Return(nil)
	s.publisher.EXPECT().PublishLoadCompleted(gomock.Any(), gomock.Any()).Return(nil)
	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoringStats{}, nil)
	s.publisher.EXPECT().PublishScoringCompleted(gomock.Any(), gomock.Any()).Return(nil)

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Equal(progressEvent{500, 500, domain.PhaseProcessing}, ev.progress[2])
	s.Equal(progressEvent{600, 600, domain.PhaseProcessing}, ev.progress[3])
}

func (s *LoaderTestSuite) TestStart_WithoutCredentialIsNoOp() {
	s.loader = s.newLoader("")

	var ev events
	s.False(s.loader.Start(context.Background(), ev.callbacks()))
	s.False(s.loader.IsLoading())
	s.Empty(ev.progress)
	s.Empty(ev.errs)
}

func (s *LoaderTestSuite) TestStart_SecondStartIsNoOp() {
	release := make(chan struct{})
	s.source.EXPECT().GetSummary(gomock.Any()).DoAndReturn(func(ctx context.Context) (int, error) {
		<-release
		return 0, errors.New("summary unavailable")
	})

	var first, second events
	s.True(s.loader.Start(context.Background(), first.callbacks()))
	s.True(s.loader.IsLoading())
	s.False(s.loader.Start(context.Background(), second.callbacks()))

	close(release)
	s.loader.Wait()

	s.Len(first.errs, 1)
	s.Empty(second.progress)
	s.False(s.loader.IsLoading())
}

func (s *LoaderTestSuite) TestStart_SummaryFailureReportsError() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(0, errors.New("connection refused"))

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()

	s.Require().Len(ev.errs, 1)
	s.ErrorContains(ev.errs[0], "fetch summary: connection refused")
	s.Empty(ev.completed)
	s.False(s.loader.IsLoading())
}

func (s *LoaderTestSuite) TestStart_NonPositivePageSizeFailsWithoutPaging() {
	s.loader.Close()
	s.cfg.PageSize = -1
	s.loader = s.newLoader("token")

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()

	s.Require().Len(ev.errs, 1)
	s.ErrorContains(ev.errs[0], "invalid loader config: page size -1")
	s.Empty(ev.completed)
	s.False(s.loader.IsLoading())
}

func (s *LoaderTestSuite) TestStart_StoreFailureStopsPaging() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(1500, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 500), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()

	s.Require().Len(ev.errs, 1)
	s.ErrorContains(ev.errs[0], "store batch at offset 0: disk full")
	s.Empty(ev.completed)
}

func (s *LoaderTestSuite) TestCancel_AfterTwoPages() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(2500, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 500), nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 500).Return(page(500, 500), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	ev := events{onLoaded: func(loaded int) {
		if loaded == 1000 {
			s.loader.Cancel()
		}
	}}
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()

	s.Empty(ev.errs)
	s.Empty(ev.completed)
	s.False(s.loader.IsLoading())
	s.Equal(1000, s.loader.State().LoadedCount)
}

func (s *LoaderTestSuite) TestCancel_ParentContext() {
	ctx, cancel := context.WithCancel(context.Background())
	s.source.EXPECT().GetSummary(gomock.Any()).DoAndReturn(func(ctx context.Context) (int, error) {
		cancel()
		return 0, ctx.Err()
	})

	var ev events
	s.True(s.loader.Start(ctx, ev.callbacks()))
	s.loader.Wait()

	s.Empty(ev.errs)
	s.Empty(ev.completed)
}

func (s *LoaderTestSuite) expectSmallLoad() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(10, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 10), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.store.EXPECT().GetRecordCount(gomock.Any()).Return(10, nil)
	s.store.EXPECT().RecordLoadCompletion(gomock.Any(), gomock.Any(), 10).Return(nil)
	s.publisher.EXPECT().PublishLoadCompleted(gomock.Any(), gomock.Any()).Return(nil)
}

func (s *LoaderTestSuite) TestScoringFailureDoesNotFailLoad() {
	s.expectSmallLoad()
	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(domain.ScoringStats{Scored: 0}, errors.New("database is locked"))

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Empty(ev.errs)
	s.Len(ev.completed, 1)

	result := <-s.loader.BackgroundResults()
	s.ErrorContains(result.Err, "database is locked")
}

func (s *LoaderTestSuite) TestScoringPanicIsRecovered() {
	s.expectSmallLoad()
	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, []domain.Record, scoring.ProgressFunc) (domain.ScoringStats, error) {
			panic("nil profile")
		})

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Len(ev.completed, 1)
	result := <-s.loader.BackgroundResults()
	s.ErrorContains(result.Err, "scoring panicked: nil profile")
}

func (s *LoaderTestSuite) TestCompletionMetadataFailureIsSwallowed() {
	s.source.EXPECT().GetSummary(gomock.Any()).Return(10, nil)
	s.source.EXPECT().FetchRecords(gomock.Any(), 500, 0).Return(page(0, 10), nil)
	s.store.EXPECT().UpsertBatch(gomock.Any(), gomock.Any()).Return(nil)
	s.store.EXPECT().GetRecordCount(gomock.Any()).Return(0, errors.New("busy"))
	s.store.EXPECT().RecordLoadCompletion(gomock.Any(), gomock.Any(), 10).Return(errors.New("busy"))
	s.publisher.EXPECT().PublishLoadCompleted(gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))
	s.scorer.EXPECT().ScoreAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(domain.ScoringStats{}, nil)
	s.publisher.EXPECT().PublishScoringCompleted(gomock.Any(), gomock.Any()).Return(nil)

	var ev events
	s.True(s.loader.Start(context.Background(), ev.callbacks()))
	s.loader.Wait()
	s.loader.WaitBackground()

	s.Empty(ev.errs)
	s.Len(ev.completed, 1)
}

func (s *LoaderTestSuite) TestCheckFreshness() {
	ctx := context.Background()

	s.store.EXPECT().GetLastLoadTime(ctx).Return(time.Now().Add(-10*time.Minute), nil)
	s.store.EXPECT().GetRecordCount(ctx).Return(42, nil)
	fresh, err := s.loader.CheckFreshness(ctx, time.Hour)
	s.NoError(err)
	s.True(fresh.Fresh)
	s.Equal(42, fresh.Count)

	s.store.EXPECT().GetLastLoadTime(ctx).Return(time.Now().Add(-2*time.Hour), nil)
	s.store.EXPECT().GetRecordCount(ctx).Return(42, nil)
	fresh, err = s.loader.CheckFreshness(ctx, time.Hour)
	s.NoError(err)
	s.False(fresh.Fresh)

	s.store.EXPECT().GetLastLoadTime(ctx).Return(time.Now(), nil)
	s.store.EXPECT().GetRecordCount(ctx).Return(0, nil)
	fresh, err = s.loader.CheckFreshness(ctx, time.Hour)
	s.NoError(err)
	s.False(fresh.Fresh)

	s.store.EXPECT().GetLastLoadTime(ctx).Return(time.Time{}, errors.New("no such table"))
	_, err = s.loader.CheckFreshness(ctx, time.Hour)
	s.ErrorContains(err, "get last load time")
}
