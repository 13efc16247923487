package sqlstore

import (
	"context"
	"fmt"
	"time"

	"mail_loader/internal/domain"
)

type senderProfileRow struct {
	Email       string `db:"email"`
	DeleteCount int    `db:"delete_count"`
	KeepCount   int    `db:"keep_count"`
	OpenCount   int    `db:"open_count"`
	TotalCount  int    `db:"total_count"`
	LastSeen    int64  `db:"last_seen"`
}

// GetAllSenderProfiles scans the whole sender_profiles table.
func (s *Store) GetAllSenderProfiles(ctx context.Context) ([]domain.SenderProfile, error) {
	var rows []senderProfileRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT email, delete_count, keep_count, open_count, total_count, last_seen
		FROM sender_profiles`)
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.SenderProfile, len(rows))
	for i, row := range rows {
		profiles[i] = domain.SenderProfile{
			Email:       row.Email,
			DeleteCount: row.DeleteCount,
			KeepCount:   row.KeepCount,
			OpenCount:   row.OpenCount,
			TotalCount:  row.TotalCount,
			LastSeen:    time.UnixMilli(row.LastSeen).UTC(),
		}
	}
	return profiles, nil
}

// UpsertSenderProfiles is the write path for collaborators that track user actions.
func (s *Store) UpsertSenderProfiles(ctx context.Context, profiles []domain.SenderProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := getExecutor(txCtx, s.db)

		stmt, err := exec.PreparexContext(txCtx, exec.Rebind(`
			INSERT INTO sender_profiles (email, delete_count, keep_count, open_count, total_count, last_seen)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (email) DO UPDATE SET
				delete_count = excluded.delete_count,
				keep_count   = excluded.keep_count,
				open_count   = excluded.open_count,
				total_count  = excluded.total_count,
				last_seen    = excluded.last_seen`))
		if err != nil {
			return fmt.Errorf("prepare profile upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range profiles {
			if _, err := stmt.ExecContext(txCtx,
				p.Email, p.DeleteCount, p.KeepCount, p.OpenCount, p.TotalCount, p.LastSeen.UnixMilli(),
			); err != nil {
				return fmt.Errorf("upsert profile %s: %w", p.Email, err)
			}
		}
		return nil
	})
}
