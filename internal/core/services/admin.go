package services

import (
	"context"

	"github.com/custodia-labs/lectern/internal/core/ports/driven"
	"github.com/custodia-labs/lectern/internal/core/ports/driving"
)

// Ensure adminService implements AdminService
var _ driving.AdminService = (*adminService)(nil)

// Pinger is any backend with a health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type adminService struct {
	queue    driven.TaskQueue
	backends map[string]Pinger
}

// NewAdminService creates an AdminService. backends are checked by
// Readiness under their map keys; nil entries are skipped.
func NewAdminService(queue driven.TaskQueue, backends map[string]Pinger) driving.AdminService {
	return &adminService{queue: queue, backends: backends}
}

// QueueStats returns task queue counters
func (s *adminService) QueueStats(ctx context.Context) (*driven.QueueStats, error) {
	return s.queue.Stats(ctx)
}

// Readiness pings each backend
func (s *adminService) Readiness(ctx context.Context) (map[string]string, bool) {
	status := make(map[string]string, len(s.backends))
	ready := true
	for name, b := range s.backends {
		if b == nil {
			continue
		}
		if err := b.Ping(ctx); err != nil {
			status[name] = err.Error()
			ready = false
			continue
		}
		status[name] = "ok"
	}
	return status, ready
}
