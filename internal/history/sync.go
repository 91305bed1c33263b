package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/supmap/navd/internal/api"
	"github.com/supmap/navd/internal/db/models"
)

// SyncToRemote pushes locally stored routes to the backend, oldest
// first. Each row is deleted only after its remote save is confirmed;
// a row that fails to sync stays local and the remaining rows are
// still attempted. Returns how many rows were migrated.
func (s *Selector) SyncToRemote(ctx context.Context) (int, error) {
	if !s.sessions.Authenticated() {
		return 0, api.ErrNotAuthenticated
	}

	rows, err := models.FindRouteHistoryOldestFirst(s.local.db.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("failed to load local route history: %w", err)
	}

	synced := 0
	var errs []error
	for _, row := range rows {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		item := rowToItem(row)
		item.ID = ""
		item.UserID = ""
		if _, err := s.remote.Save(ctx, item); err != nil {
			slog.Warn("Failed to sync route to backend, keeping local copy", "id", row.ID, "error", err)
			errs = append(errs, fmt.Errorf("route %s: %w", row.ID, err))
			continue
		}
		if err := s.local.delete(ctx, row.ID); err != nil {
			errs = append(errs, fmt.Errorf("route %s: %w", row.ID, err))
			continue
		}
		synced++
	}

	return synced, errors.Join(errs...)
}
