// Package testutil holds small helpers shared by package tests.
package testutil

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"mail_loader/internal/domain"
)

func Ptr[T any](v T) *T {
	return &v
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Records builds n records with ids prefix-offset..prefix-(offset+n-1).
func Records(prefix string, offset, n int, date time.Time) []domain.Record {
	out := make([]domain.Record, n)
	for i := range out {
		out[i] = domain.Record{
			ID:       fmt.Sprintf("%s-%05d", prefix, offset+i),
			ThreadID: fmt.Sprintf("thread-%05d", offset+i),
			From:     fmt.Sprintf("sender%d@example.com", (offset+i)%7),
			Subject:  fmt.Sprintf("Message %d", offset+i),
			Date:     date,
			Snippet:  "hello",
			LabelIDs: []string{"INBOX"},
		}
	}
	return out
}
