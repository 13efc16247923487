package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"mail_loader/internal/credentials"
	"mail_loader/internal/domain"
)

// Config holds remote API client configuration.
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	MaxAttempts        int
	InitialBackoff     time.Duration
	MaxBackoff         time.Duration
	ScoreRatePerSecond float64
}

// Client talks to the summary, records and scoring endpoints.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	credentials    credentials.Provider
	scoreLimiter   *rate.Limiter
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

// StatusError reports a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

func New(cfg Config, creds credentials.Provider, logger *slog.Logger) *Client {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	limit := rate.Inf
	if cfg.ScoreRatePerSecond > 0 {
		limit = rate.Limit(cfg.ScoreRatePerSecond)
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		credentials:    creds,
		scoreLimiter:   rate.NewLimiter(limit, 1),
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("component", "remote"),
	}
}

// GetSummary returns the server's estimate of the collection size.
func (c *Client) GetSummary(ctx context.Context) (int, error) {
	var resp SummaryResponse
	if err := c.getWithRetry(ctx, c.baseURL+"/summary", &resp); err != nil {
		return 0, fmt.Errorf("get summary: %w", err)
	}
	if resp.EstimatedTotal < 0 {
		return 0, nil
	}
	return resp.EstimatedTotal, nil
}

// FetchRecords returns up to limit records starting at offset.
func (c *Client) FetchRecords(ctx context.Context, limit, offset int) (domain.Batch, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var resp RecordsResponse
	if err := c.getWithRetry(ctx, c.baseURL+"/records?"+q.Encode(), &resp); err != nil {
		return domain.Batch{}, fmt.Errorf("fetch records at offset %d: %w", offset, err)
	}

	c.logger.Debug("fetched records",
		"offset", offset,
		"limit", limit,
		"received", len(resp.Records),
	)

	return domain.Batch{
		Records:  c.transform(resp.Records, time.Now()),
		Received: len(resp.Records),
	}, nil
}

// ScoreRecord asks the remote scorer for a RateScore. It never retries; the
// caller falls back to the local heuristic instead.
func (c *Client) ScoreRecord(ctx context.Context, record domain.Record, behavior domain.SenderBehavior) (*domain.RateScore, error) {
	if err := c.scoreLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	body, err := json.Marshal(ScoreRequest{
		Record: toAPIRecord(record),
		SenderBehavior: SenderBehavior{
			DeleteRate:  behavior.DeleteRate,
			KeepRate:    behavior.KeepRate,
			OpenRate:    behavior.OpenRate,
			TotalEmails: behavior.TotalEmails,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal score request: %w", err)
	}

	var resp ScoreResponse
	if err := c.doRequest(ctx, http.MethodPost, c.baseURL+"/score", body, &resp); err != nil {
		return nil, fmt.Errorf("score record %s: %w", record.ID, err)
	}
	if resp.Score < 0 || resp.Score > 100 {
		return nil, fmt.Errorf("score record %s: score %d out of range", record.ID, resp.Score)
	}

	return &domain.RateScore{
		Score:        resp.Score,
		Category:     domain.CategoryFor(resp.Score),
		Confidence:   resp.Confidence,
		Reasons:      resp.Reasons,
		Source:       domain.ScoreSourceRemote,
		CalculatedAt: time.Now(),
	}, nil
}

func (c *Client) getWithRetry(ctx context.Context, url string, out interface{}) error {
	var err error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		err = c.doRequest(ctx, http.MethodGet, url, nil, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !isRetryable(err) || attempt == c.maxAttempts {
			break
		}

		backoff := c.calculateBackoff(attempt)
		c.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	if c.maxAttempts > 1 && isRetryable(err) {
		return fmt.Errorf("after %d attempts: %w", c.maxAttempts, err)
	}
	return err
}

func isRetryable(err error) bool {
	if errors.Is(err, domain.ErrUnauthenticated) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.retryable()
	}
	return true
}

func (c *Client) doRequest(ctx context.Context, method, url string, body []byte, out interface{}) error {
	token, err := c.credentials.Token(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "MailLoader/1.0")
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > c.maxBackoff {
		backoff = c.maxBackoff
	}
	return backoff
}

func (c *Client) transform(items []APIRecord, fetchedAt time.Time) []domain.Record {
	records := make([]domain.Record, 0, len(items))

	for _, it := range items {
		if it.ID == "" {
			c.logger.Warn("skipping record without id", "thread_id", it.ThreadID)
			continue
		}

		var date time.Time
		if it.Date != "" {
			parsed, err := time.Parse(time.RFC3339, it.Date)
			if err != nil {
				c.logger.Warn("failed to parse date",
					"id", it.ID,
					"date", it.Date,
				)
			} else {
				date = parsed
			}
		}

		records = append(records, domain.Record{
			ID:              it.ID,
			ThreadID:        it.ThreadID,
			From:            it.From,
			Subject:         it.Subject,
			Date:            date,
			Snippet:         it.Snippet,
			LabelIDs:        it.LabelIDs,
			SizeEstimate:    it.SizeEstimate,
			HasUnsubscribe:  it.HasUnsubscribe,
			UnsubscribeLink: it.UnsubscribeLink,
			FetchedAt:       fetchedAt,
		})
	}

	return records
}

func toAPIRecord(r domain.Record) APIRecord {
	out := APIRecord{
		ID:              r.ID,
		ThreadID:        r.ThreadID,
		From:            r.From,
		Subject:         r.Subject,
		Snippet:         r.Snippet,
		LabelIDs:        r.LabelIDs,
		SizeEstimate:    r.SizeEstimate,
		HasUnsubscribe:  r.HasUnsubscribe,
		UnsubscribeLink: r.UnsubscribeLink,
	}
	if !r.Date.IsZero() {
		out.Date = r.Date.Format(time.RFC3339)
	}
	return out
}
