package physics

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultRefreshInterval is the attribute refresh period in seconds.
const DefaultRefreshInterval = 5.0

// Simulation pairs a flock with its attribute refresh timers.
type Simulation struct {
	RunID   string
	Flock   *Flock
	Refresh *TimerQueue

	logger *slog.Logger
}

// NewSimulation arms a refresh timer for every active drone in flock
func NewSimulation(flock *Flock, refreshInterval float64, logger *slog.Logger) *Simulation {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Simulation{
		RunID:   uuid.New().String(),
		Flock:   flock,
		Refresh: NewTimerQueue(refreshInterval),
		logger:  logger,
	}
	for _, d := range flock.Active() {
		s.Refresh.Schedule(d.ID, refreshInterval)
	}
	logger.Info("simulation ready", "run_id", s.RunID, "drones", len(flock.Active()), "refresh_interval", refreshInterval)
	return s
}

// Step fires due refresh timers, then advances the flock by dt
func (s *Simulation) Step(dt float64) {
	fired := s.Refresh.Advance(dt, func(id int64) {
		s.Flock.RefreshAttributes(id)
	})
	if fired > 0 {
		s.logger.Debug("attributes refreshed", "drones", fired, "at", s.Refresh.Now())
	}
	s.Flock.Tick(dt)
}

// Advance runs n fixed steps of dt
func (s *Simulation) Advance(n int, dt float64) {
	for i := 0; i < n; i++ {
		s.Step(dt)
	}
}

// Destroy cancels the drone's refresh timer and deactivates it
func (s *Simulation) Destroy(id int64) bool {
	s.Refresh.Cancel(id)
	return s.Flock.Deactivate(id)
}

// Drive calls step with a fixed dt every interval until ctx is cancelled.
func Drive(ctx context.Context, interval time.Duration, step func(dt float64)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	dt := interval.Seconds()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := ctx.Err(); err != nil {
				return err
			}
			step(dt)
		}
	}
}
