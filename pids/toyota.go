package pids

// Toyota Mode 22 parameter names for the 2GR-FE/FKS.
const (
	VVTBank1     = "vvt_bank1"
	VVTBank2     = "vvt_bank2"
	FuelTrimCell = "fuel_trim_cell"
	AFCorrection = "af_correction"
)

// Toyota2GR returns the enhanced-diagnostic parameters specific to the
// 2GR-FE/FKS. The response framing is fixed by the ECU: the transport
// strips the 0x62 service echo and the two DID bytes, decode offsets below
// index into what remains. The VVT angle and AF correction values live in
// the second data byte.
func Toyota2GR() []*Definition {
	return []*Definition{
		{
			Name:      VVTBank1,
			Request:   "221160",
			DataBytes: 2,
			Decode:    decodeVVTAngle,
		},
		{
			Name:      VVTBank2,
			Request:   "221165",
			DataBytes: 2,
			Decode:    decodeVVTAngle,
		},
		{
			Name:      FuelTrimCell,
			Request:   "221150",
			DataBytes: 1,
			Decode:    decodeFuelTrimCell,
		},
		{
			Name:      AFCorrection,
			Request:   "221154",
			DataBytes: 2,
			Decode:    decodeAFCorrection,
		},
	}
}

// Default2GR returns the full 2GR registry in CSV column order.
func Default2GR() *Registry {
	std := Standard2GR()
	toy := Toyota2GR()
	byName := make(map[string]*Definition, len(std)+len(toy))
	for _, def := range append(std, toy...) {
		byName[def.Name] = def
	}

	ordered := make([]*Definition, 0, len(byName))
	for _, name := range []string{
		RPM, CoolantTemp,
		VVTBank1, VVTBank2, FuelTrimCell, AFCorrection,
		ThrottlePos, ShortTermFT, LongTermFT,
	} {
		ordered = append(ordered, byName[name])
	}
	return NewRegistry(ordered...)
}

func decodeVVTAngle(data []byte) (float64, bool) { // B/128-50, ±50°
	if len(data) < 2 {
		return 0, false
	}
	return float64(data[1])/128.0 - 50.0, true
}

func decodeFuelTrimCell(data []byte) (float64, bool) { // cell index 0-22
	if len(data) < 1 {
		return 0, false
	}
	return float64(data[0]), true
}

func decodeAFCorrection(data []byte) (float64, bool) { // B-128 -> %
	if len(data) < 2 {
		return 0, false
	}
	return float64(data[1]) - 128.0, true
}
