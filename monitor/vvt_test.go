package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grdiag/pids"
	"grdiag/sampler"
)

func snapshotWith(values map[string]float64) *sampler.Snapshot {
	snapshot := sampler.NewSnapshot(time.Now(), pids.Default2GR().Names())
	for name, value := range values {
		snapshot.Set(name, value)
	}
	return snapshot
}

func kinds(alerts []Alert) []string {
	out := make([]string, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Kind)
	}
	return out
}

func TestCheckMisalignment(t *testing.T) {
	tests := []struct {
		name    string
		bank1   float64
		bank2   float64
		flagged bool
	}{
		{"within threshold", 10.0, 14.0, false}, // diff 4.0 <= 5.0
		{"beyond threshold", 10.0, 16.0, true},  // diff 6.0 > 5.0
		{"exactly threshold", 10.0, 15.0, false},
		{"negative angles", -20.0, -12.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Check(snapshotWith(map[string]float64{
				pids.VVTBank1: tt.bank1,
				pids.VVTBank2: tt.bank2,
			}))
			if tt.flagged {
				assert.Contains(t, kinds(alerts), FaultMisalignment)
			} else {
				assert.NotContains(t, kinds(alerts), FaultMisalignment)
			}
		})
	}
}

func TestCheckStuckActuator(t *testing.T) {
	tests := []struct {
		name    string
		rpm     float64
		bank1   float64
		flagged bool
	}{
		{"parked cam at speed", 3500, 2.0, true},
		{"rpm below threshold", 2000, 2.0, false},
		{"cam advanced at speed", 3500, 20.0, false},
		{"negative parked angle", 4000, -3.0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := Check(snapshotWith(map[string]float64{
				pids.RPM:      tt.rpm,
				pids.VVTBank1: tt.bank1,
				pids.VVTBank2: 30.0, // bank 2 healthy
			}))
			if tt.flagged {
				assert.Contains(t, kinds(alerts), FaultStuckBank1)
			} else {
				assert.NotContains(t, kinds(alerts), FaultStuckBank1)
			}
		})
	}
}

func TestCheckStuckBank2(t *testing.T) {
	alerts := Check(snapshotWith(map[string]float64{
		pids.RPM:      3500,
		pids.VVTBank1: 30.0,
		pids.VVTBank2: 1.0,
	}))
	assert.Contains(t, kinds(alerts), FaultStuckBank2)
}

func TestCheckSkipsAbsentReadings(t *testing.T) {
	// bank 2 never answered, misalignment can't be judged
	alerts := Check(snapshotWith(map[string]float64{
		pids.VVTBank1: 10.0,
	}))
	assert.Empty(t, alerts)

	// no rpm, stuck check can't be judged either
	alerts = Check(snapshotWith(map[string]float64{
		pids.VVTBank1: 2.0,
		pids.VVTBank2: 2.0,
	}))
	assert.Empty(t, alerts)

	// fully empty snapshot
	alerts = Check(sampler.NewSnapshot(time.Now(), pids.Default2GR().Names()))
	assert.Empty(t, alerts)
}

func TestCheckCombinedFaults(t *testing.T) {
	alerts := Check(snapshotWith(map[string]float64{
		pids.RPM:      3500,
		pids.VVTBank1: 2.0,
		pids.VVTBank2: 16.0,
	}))
	require.Len(t, alerts, 2)
	assert.Contains(t, kinds(alerts), FaultMisalignment) // diff 14.0
	assert.Contains(t, kinds(alerts), FaultStuckBank1)
}
