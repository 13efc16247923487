package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"mail_loader/internal/domain"
)

// GetMetadata returns the value stored under key. A missing key yields "" and false.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT value FROM metadata WHERE key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	exec := getExecutor(ctx, s.db)
	_, err := exec.ExecContext(ctx, exec.Rebind(`
		INSERT INTO metadata (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`),
		key, value, time.Now().UnixMilli(),
	)
	return err
}

// GetLastLoadTime returns the zero time when no load has completed yet.
func (s *Store) GetLastLoadTime(ctx context.Context) (time.Time, error) {
	value, ok, err := s.GetMetadata(ctx, domain.MetaLastLoadTime)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", domain.MetaLastLoadTime, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

func (s *Store) SetLastLoadTime(ctx context.Context, t time.Time) error {
	return s.SetMetadata(ctx, domain.MetaLastLoadTime, strconv.FormatInt(t.UnixMilli(), 10))
}

// GetTotalCount returns the cached total record count, 0 when unset.
func (s *Store) GetTotalCount(ctx context.Context) (int, error) {
	value, ok, err := s.GetMetadata(ctx, domain.MetaTotalRecordCount)
	if err != nil || !ok {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", domain.MetaTotalRecordCount, err)
	}
	return n, nil
}

func (s *Store) SetTotalCount(ctx context.Context, n int) error {
	return s.SetMetadata(ctx, domain.MetaTotalRecordCount, strconv.Itoa(n))
}

// RecordLoadCompletion stores the completion time and total count of a load together.
func (s *Store) RecordLoadCompletion(ctx context.Context, at time.Time, total int) error {
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.SetLastLoadTime(txCtx, at); err != nil {
			return fmt.Errorf("set last load time: %w", err)
		}
		if err := s.SetTotalCount(txCtx, total); err != nil {
			return fmt.Errorf("set total count: %w", err)
		}
		return nil
	})
}
