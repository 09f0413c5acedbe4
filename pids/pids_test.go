package pids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeVVTAngle(t *testing.T) {
	reg := NewRegistry(Toyota2GR()...)

	// angle = B/128 - 50 for every single-byte raw value
	for b := 0; b <= 255; b++ {
		value, ok := reg.Decode(VVTBank1, []byte{0x00, byte(b)})
		require.True(t, ok)
		assert.InDelta(t, float64(b)/128.0-50.0, value, 1e-9)
		assert.GreaterOrEqual(t, value, -50.0)
		assert.LessOrEqual(t, value, 255.0/128.0-50.0)
	}

	// both banks share the arithmetic
	v1, _ := reg.Decode(VVTBank1, []byte{0x00, 0x80})
	v2, _ := reg.Decode(VVTBank2, []byte{0x00, 0x80})
	assert.Equal(t, v1, v2)
	assert.InDelta(t, -49.0, v1, 1e-9) // 128/128 - 50
}

func TestDecodeAFCorrection(t *testing.T) {
	reg := NewRegistry(Toyota2GR()...)

	tests := []struct {
		raw      byte
		expected float64
	}{
		{0x00, -128},
		{0x80, 0},
		{0xFF, 127},
	}
	for _, tt := range tests {
		value, ok := reg.Decode(AFCorrection, []byte{0x00, tt.raw})
		require.True(t, ok)
		assert.Equal(t, tt.expected, value)
	}
}

func TestDecodeFuelTrimCell(t *testing.T) {
	reg := NewRegistry(Toyota2GR()...)

	value, ok := reg.Decode(FuelTrimCell, []byte{0x16})
	require.True(t, ok)
	assert.Equal(t, 22.0, value)
}

func TestDecodeStandardPIDs(t *testing.T) {
	reg := NewRegistry(Standard2GR()...)

	tests := []struct {
		name     string
		pid      string
		data     []byte
		expected float64
	}{
		{"rpm idle", RPM, []byte{0x0B, 0xB8}, 750},       // (0x0BB8)/4
		{"rpm redline", RPM, []byte{0x62, 0x70}, 6300},   // (0x6270)/4
		{"coolant warm", CoolantTemp, []byte{0x7E}, 86},  // 126-40
		{"coolant cold", CoolantTemp, []byte{0x00}, -40},
		{"throttle closed", ThrottlePos, []byte{0x00}, 0},
		{"throttle open", ThrottlePos, []byte{0xFF}, 100},
		{"stft neutral", ShortTermFT, []byte{0x80}, 0}, // 128/1.28-100
		{"ltft lean", LongTermFT, []byte{0x90}, 12.5},  // 144/1.28-100
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := reg.Decode(tt.pid, tt.data)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, value, 1e-9)
		})
	}
}

func TestDecodeMalformedPayloads(t *testing.T) {
	reg := Default2GR()

	// short or empty payloads resolve to absence for every definition
	for _, name := range reg.Names() {
		_, ok := reg.Decode(name, nil)
		assert.False(t, ok, "nil payload should be absent for %s", name)
		_, ok = reg.Decode(name, []byte{})
		assert.False(t, ok, "empty payload should be absent for %s", name)
	}

	// two-byte decoders reject one byte
	_, ok := reg.Decode(VVTBank1, []byte{0x80})
	assert.False(t, ok)
	_, ok = reg.Decode(RPM, []byte{0x0B})
	assert.False(t, ok)

	// unknown names are absent, not a panic
	_, ok = reg.Decode("nonsense", []byte{0x00})
	assert.False(t, ok)
}

func TestDefault2GROrder(t *testing.T) {
	reg := Default2GR()

	assert.Equal(t, []string{
		RPM, CoolantTemp,
		VVTBank1, VVTBank2, FuelTrimCell, AFCorrection,
		ThrottlePos, ShortTermFT, LongTermFT,
	}, reg.Names())

	def, ok := reg.Get(VVTBank2)
	require.True(t, ok)
	assert.Equal(t, "221165", def.Request)
	assert.Equal(t, 2, def.DataBytes)
}

func TestRegistryIgnoresDuplicates(t *testing.T) {
	first := &Definition{Name: "x", Request: "2200"}
	second := &Definition{Name: "x", Request: "2201"}
	reg := NewRegistry(first, second)

	assert.Equal(t, 1, reg.Len())
	def, _ := reg.Get("x")
	assert.Equal(t, "2200", def.Request)
}
