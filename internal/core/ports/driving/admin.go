package driving

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
)

// AdminService exposes operational state.
type AdminService interface {
	// QueueStats returns task queue counters.
	QueueStats(ctx context.Context) (*driven.QueueStats, error)

	// Readiness pings each backend and returns "ok" or the error text per
	// component. ready is false when any component failed.
	Readiness(ctx context.Context) (status map[string]string, ready bool)
}
