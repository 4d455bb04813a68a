package collections

import (
	"fmt"
	"log"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/tools/types"
)

// PruneStaleSessions deletes wizard sessions not updated since now-ttl.
// Safe to call on every startup; a non-positive ttl disables pruning.
// It returns the number of deleted sessions.
func PruneStaleSessions(app *pocketbase.PocketBase, ttl time.Duration, now time.Time) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}

	col, err := app.FindCollectionByNameOrId("wizard_sessions")
	if err != nil {
		return 0, fmt.Errorf("prune: could not find wizard_sessions collection: %w", err)
	}

	cutoff, err := types.ParseDateTime(now.Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("prune: invalid cutoff: %w", err)
	}

	stale, err := app.FindRecordsByFilter(
		col,
		"updated < {:cutoff}",
		"",
		0,
		0,
		map[string]any{"cutoff": cutoff.String()},
	)
	if err != nil {
		return 0, fmt.Errorf("prune: could not query stale sessions: %w", err)
	}

	deleted := 0
	for _, r := range stale {
		if err := app.Delete(r); err != nil {
			log.Printf("prune: could not delete session %s: %v", r.Id, err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		log.Printf("prune: removed %d stale wizard sessions", deleted)
	}
	return deleted, nil
}
