// Package revalidate tells the presentation layer which rendered pages are
// stale after a write.
package revalidate

import (
	"context"
	"fmt"
	"log/slog"
)

const HomePath = "/"

// Revalidator invalidates cached views for the given page paths.
type Revalidator interface {
	Revalidate(ctx context.Context, paths ...string) error
}

func AccountPath(accountID int64) string {
	return fmt.Sprintf("/account/%d", accountID)
}

func CharacterPath(characterID int64) string {
	return fmt.Sprintf("/character/%d", characterID)
}

// LogRevalidator only records the stale paths in the log. It is used when no
// message broker is configured.
type LogRevalidator struct {
	Logger *slog.Logger
}

func (r LogRevalidator) Revalidate(_ context.Context, paths ...string) error {
	r.Logger.Info("pages invalidated", "paths", paths)
	return nil
}
