package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"grdiag/config"
	"grdiag/events"
	"grdiag/logger"
	"grdiag/pids"
	"grdiag/sampler"
	"grdiag/storage"
)

const sampleInterval = time.Second

// Fault kinds, doubling as fault-store keys.
const (
	FaultMisalignment = "vvt_misalignment"
	FaultStuckBank1   = "vvt_stuck_bank1"
	FaultStuckBank2   = "vvt_stuck_bank2"
)

type Alert struct {
	Kind   string
	Detail string
}

func (a Alert) String() string {
	return a.Kind + ": " + a.Detail
}

// Check runs the VVT threshold comparisons over one snapshot. Checks whose
// readings are absent are skipped. Pure, no state.
func Check(snapshot *sampler.Snapshot) []Alert {
	var alerts []Alert

	bank1 := snapshot.Get(pids.VVTBank1)
	bank2 := snapshot.Get(pids.VVTBank2)
	rpm := snapshot.Get(pids.RPM)

	if bank1.Valid && bank2.Valid {
		diff := math.Abs(bank1.Value - bank2.Value)
		if diff > config.VVT_MISALIGNMENT_DEG {
			alerts = append(alerts, Alert{
				Kind:   FaultMisalignment,
				Detail: fmt.Sprintf("bank angle difference %.1f°", diff),
			})
		}
	}

	if rpm.Valid && rpm.Value > config.VVT_STUCK_RPM {
		if bank1.Valid && math.Abs(bank1.Value) < config.VVT_STUCK_ANGLE_DEG {
			alerts = append(alerts, Alert{
				Kind:   FaultStuckBank1,
				Detail: fmt.Sprintf("possible stuck actuator, bank 1 at %.1f° above %.0f rpm", bank1.Value, config.VVT_STUCK_RPM),
			})
		}
		if bank2.Valid && math.Abs(bank2.Value) < config.VVT_STUCK_ANGLE_DEG {
			alerts = append(alerts, Alert{
				Kind:   FaultStuckBank2,
				Detail: fmt.Sprintf("possible stuck actuator, bank 2 at %.1f° above %.0f rpm", bank2.Value, config.VVT_STUCK_RPM),
			})
		}
	}

	return alerts
}

// Monitor drives the timed VVT health check phase.
type Monitor struct {
	sampler *sampler.Sampler
	hub     *events.EventHub
	faults  *storage.FaultStore
}

// New builds a monitor. hub and faults may be nil.
func New(s *sampler.Sampler, hub *events.EventHub, faults *storage.FaultStore) *Monitor {
	return &Monitor{sampler: s, hub: hub, faults: faults}
}

// Run samples once per second for the given wall-clock duration and
// reports threshold alerts. The misalignment counter matches the original
// diagnostic routine: one per cycle the banks disagree.
func (m *Monitor) Run(ctx context.Context, duration time.Duration) {
	logger.Info("vvt monitoring started", zap.Duration("duration", duration))

	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	start := time.Now()
	vvtErrors := 0

	for time.Since(start) < duration {
		select {
		case <-ctx.Done():
			logger.Info("vvt monitoring cancelled", zap.Int("errors", vvtErrors))
			return
		case <-ticker.C:
		}

		snapshot := m.sampler.Sample(ctx)
		m.broadcast(&events.Event{Timestamp: int(time.Now().UnixMilli()), Snapshot: snapshot})
		if snapshot.Empty() {
			continue
		}

		for _, alert := range Check(snapshot) {
			if alert.Kind == FaultMisalignment {
				vvtErrors++
			}
			logger.Warn("vvt alert", zap.String("kind", alert.Kind), zap.String("detail", alert.Detail))
			m.record(alert, snapshot.Timestamp)
			m.broadcast(&events.Event{Timestamp: int(time.Now().UnixMilli()), Alert: alert.String()})
		}
	}

	logger.Info("vvt monitoring complete", zap.Int("errors", vvtErrors))
}

func (m *Monitor) broadcast(event *events.Event) {
	if m.hub != nil {
		m.hub.Broadcast(event)
	}
}

func (m *Monitor) record(alert Alert, at time.Time) {
	if m.faults == nil {
		return
	}
	first, count, err := m.faults.Record(alert.Kind, at)
	if err != nil {
		logger.Error("couldn't record fault", zap.Error(err))
		return
	}
	if first {
		logger.Info("new fault recorded", zap.String("kind", alert.Kind))
	} else {
		logger.Debug("known fault", zap.String("kind", alert.Kind), zap.Uint64("count", count))
	}
}
