package workers

import (
	"log/slog"

	"github.com/pkg/errors"
)

// Manager starts and stops a set of workers as a unit.
type Manager struct {
	workers []Worker
	logger  *slog.Logger
}

// NewManager creates a new worker manager.
func NewManager(logger *slog.Logger, workers ...Worker) *Manager {
	return &Manager{
		workers: workers,
		logger:  logger,
	}
}

// Start starts all workers, failing on the first one that cannot start.
func (m *Manager) Start() error {
	m.logger.Info("Starting worker manager", "worker_count", len(m.workers))

	for _, worker := range m.workers {
		if err := worker.Start(); err != nil {
			return errors.Wrapf(err, "start worker %s", worker.Name())
		}
		m.logger.Info("Worker started", "name", worker.Name())
	}
	return nil
}

// Stop stops all workers.
func (m *Manager) Stop() {
	for _, worker := range m.workers {
		m.logger.Info("Stopping worker", "name", worker.Name())
		worker.Stop()
	}
}
