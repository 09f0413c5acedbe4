package config

// VVT health thresholds for the 2GR. Bank misalignment beyond a few
// degrees, or a cam that stays parked at speed, are the classic failure
// signatures of the oil-fed VVT actuators on this engine family.
const (
	// VVT_MISALIGNMENT_DEG flags when the bank 1 / bank 2 angle difference
	// exceeds this many degrees.
	VVT_MISALIGNMENT_DEG = 5.0

	// VVT_STUCK_RPM is the engine speed above which the intake cam should
	// be well off its parked position.
	VVT_STUCK_RPM = 3000.0

	// VVT_STUCK_ANGLE_DEG is how close to zero an angle counts as parked.
	VVT_STUCK_ANGLE_DEG = 5.0
)
