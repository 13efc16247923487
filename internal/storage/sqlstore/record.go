package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mail_loader/internal/domain"
)

const recordColumns = `id, thread_id, from_addr, subject, sent_at, snippet, label_ids, size_estimate,
	has_unsubscribe, unsubscribe_link, rate_score, rate_calculated_at, fetched_at`

type recordRow struct {
	ID               string         `db:"id"`
	ThreadID         string         `db:"thread_id"`
	From             string         `db:"from_addr"`
	Subject          string         `db:"subject"`
	SentAt           int64          `db:"sent_at"`
	Snippet          string         `db:"snippet"`
	LabelIDs         string         `db:"label_ids"`
	SizeEstimate     int64          `db:"size_estimate"`
	HasUnsubscribe   bool           `db:"has_unsubscribe"`
	UnsubscribeLink  sql.NullString `db:"unsubscribe_link"`
	RateScore        sql.NullInt64  `db:"rate_score"`
	RateCalculatedAt sql.NullInt64  `db:"rate_calculated_at"`
	FetchedAt        int64          `db:"fetched_at"`
}

func toRow(r *domain.Record, now time.Time) (recordRow, error) {
	labels := r.LabelIDs
	if labels == nil {
		labels = []string{}
	}
	labelJSON, err := json.Marshal(labels)
	if err != nil {
		return recordRow{}, fmt.Errorf("marshal labels: %w", err)
	}

	fetchedAt := r.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = now
	}

	row := recordRow{
		ID:             r.ID,
		ThreadID:       r.ThreadID,
		From:           r.From,
		Subject:        r.Subject,
		SentAt:         r.Date.UnixMilli(),
		Snippet:        r.Snippet,
		LabelIDs:       string(labelJSON),
		SizeEstimate:   r.SizeEstimate,
		HasUnsubscribe: r.HasUnsubscribe,
		FetchedAt:      fetchedAt.UnixMilli(),
	}
	if r.UnsubscribeLink != nil {
		row.UnsubscribeLink = sql.NullString{String: *r.UnsubscribeLink, Valid: true}
	}
	if r.RateScore != nil {
		row.RateScore = sql.NullInt64{Int64: int64(*r.RateScore), Valid: true}
	}
	if r.RateCalculatedAt != nil {
		row.RateCalculatedAt = sql.NullInt64{Int64: r.RateCalculatedAt.UnixMilli(), Valid: true}
	}
	return row, nil
}

func (row recordRow) toDomain() (domain.Record, error) {
	r := domain.Record{
		ID:             row.ID,
		ThreadID:       row.ThreadID,
		From:           row.From,
		Subject:        row.Subject,
		Date:           time.UnixMilli(row.SentAt).UTC(),
		Snippet:        row.Snippet,
		SizeEstimate:   row.SizeEstimate,
		HasUnsubscribe: row.HasUnsubscribe,
		FetchedAt:      time.UnixMilli(row.FetchedAt).UTC(),
	}
	if err := json.Unmarshal([]byte(row.LabelIDs), &r.LabelIDs); err != nil {
		return r, fmt.Errorf("unmarshal labels of %s: %w", row.ID, err)
	}
	if row.UnsubscribeLink.Valid {
		link := row.UnsubscribeLink.String
		r.UnsubscribeLink = &link
	}
	if row.RateScore.Valid {
		score := int(row.RateScore.Int64)
		r.RateScore = &score
	}
	if row.RateCalculatedAt.Valid {
		at := time.UnixMilli(row.RateCalculatedAt.Int64).UTC()
		r.RateCalculatedAt = &at
	}
	return r, nil
}

// UpsertBatch inserts or updates records by id in a single transaction. On
// conflict every column except fetched_at takes the incoming value. A failure
// on any record rolls back the whole batch.
func (s *Store) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := getExecutor(txCtx, s.db)

		stmt, err := exec.PreparexContext(txCtx, exec.Rebind(`
			INSERT INTO records (`+recordColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				thread_id          = excluded.thread_id,
				from_addr          = excluded.from_addr,
				subject            = excluded.subject,
				sent_at            = excluded.sent_at,
				snippet            = excluded.snippet,
				label_ids          = excluded.label_ids,
				size_estimate      = excluded.size_estimate,
				has_unsubscribe    = excluded.has_unsubscribe,
				unsubscribe_link   = excluded.unsubscribe_link,
				rate_score         = excluded.rate_score,
				rate_calculated_at = excluded.rate_calculated_at`))
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i := range records {
			row, err := toRow(&records[i], now)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(txCtx,
				row.ID, row.ThreadID, row.From, row.Subject, row.SentAt, row.Snippet,
				row.LabelIDs, row.SizeEstimate, row.HasUnsubscribe, row.UnsubscribeLink,
				row.RateScore, row.RateCalculatedAt, row.FetchedAt,
			); err != nil {
				return fmt.Errorf("upsert record %s: %w", row.ID, err)
			}
		}
		return nil
	})
}

// UpdateScores writes only rate_score and rate_calculated_at. Unknown ids are ignored.
func (s *Store) UpdateScores(ctx context.Context, updates []domain.ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	calculatedAt := time.Now().UnixMilli()
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := getExecutor(txCtx, s.db)

		stmt, err := exec.PreparexContext(txCtx,
			exec.Rebind("UPDATE records SET rate_score = ?, rate_calculated_at = ? WHERE id = ?"))
		if err != nil {
			return fmt.Errorf("prepare score update: %w", err)
		}
		defer stmt.Close()

		for _, u := range updates {
			if _, err := stmt.ExecContext(txCtx, u.Score, calculatedAt, u.ID); err != nil {
				return fmt.Errorf("update score of %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) GetRecord(ctx context.Context, id string) (*domain.Record, error) {
	var row recordRow
	err := s.db.GetContext(ctx, &row,
		s.db.Rebind("SELECT "+recordColumns+" FROM records WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	r, err := row.toDomain()
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetRecordCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM records")
	return count, err
}

// ListByDate returns records sent at or after since, newest first.
func (s *Store) ListByDate(ctx context.Context, since time.Time, limit int) ([]domain.Record, error) {
	return s.selectRecords(ctx,
		"WHERE sent_at >= ? ORDER BY sent_at DESC, id LIMIT ?", since.UnixMilli(), limit)
}

// ListBySender returns records from one sender address, newest first.
func (s *Store) ListBySender(ctx context.Context, from string, limit int) ([]domain.Record, error) {
	return s.selectRecords(ctx,
		"WHERE from_addr = ? ORDER BY sent_at DESC, id LIMIT ?", from, limit)
}

// ListByScoreRange returns scored records with lo <= score <= hi, lowest score first.
func (s *Store) ListByScoreRange(ctx context.Context, lo, hi, limit int) ([]domain.Record, error) {
	return s.selectRecords(ctx,
		"WHERE rate_score >= ? AND rate_score <= ? ORDER BY rate_score, id LIMIT ?", lo, hi, limit)
}

// ListUnscored returns records that have not been scored yet.
func (s *Store) ListUnscored(ctx context.Context, limit int) ([]domain.Record, error) {
	return s.selectRecords(ctx, "WHERE rate_score IS NULL ORDER BY sent_at DESC, id LIMIT ?", limit)
}

func (s *Store) selectRecords(ctx context.Context, clause string, args ...interface{}) ([]domain.Record, error) {
	var rows []recordRow
	query := s.db.Rebind("SELECT " + recordColumns + " FROM records " + clause)
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		r, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
