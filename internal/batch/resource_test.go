package batch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"clinicrawl/internal/models"
)

func TestCapWorkersByMemory(t *testing.T) {
	limits := ResourceLimits{SafetyReserveMB: 512, WorkerMemoryMB: 400, MaxWorkers: 8}

	// 2 GB available: (2048-512)/400 = 3 workers.
	require.Equal(t, 3, capWorkers(2048, limits, 16))

	// Memory-starved machines still get one worker.
	require.Equal(t, 1, capWorkers(300, limits, 16))
	require.Equal(t, 1, capWorkers(-100, limits, 16))
}

func TestCapWorkersByCPUAndConfig(t *testing.T) {
	limits := ResourceLimits{SafetyReserveMB: 512, WorkerMemoryMB: 400, MaxWorkers: 8}

	// Plenty of memory, 2 cores: CPU wins.
	require.Equal(t, 2, capWorkers(16384, limits, 2))

	// Plenty of everything: configured max wins.
	require.Equal(t, 8, capWorkers(16384, limits, 32))
}

func TestTally(t *testing.T) {
	s := &Summary{}
	for _, status := range []models.HospitalStatus{
		models.StatusSuccess, models.StatusSuccess,
		models.StatusPartial,
		models.StatusEmpty,
		models.StatusRobotsBlocked,
		models.StatusRequiresManual,
		models.StatusFailed,
	} {
		r := models.NewCrawlResult(1, "a", "https://a.example.kr")
		r.Status = status
		tally(s, r, nil)
	}
	tally(s, nil, context.DeadlineExceeded)

	require.Equal(t, 2, s.Success)
	require.Equal(t, 1, s.Partial)
	require.Equal(t, 1, s.Empty)
	require.Equal(t, 1, s.RobotsBlocked)
	require.Equal(t, 1, s.RequiresManual)
	require.Equal(t, 2, s.Failed)
}
