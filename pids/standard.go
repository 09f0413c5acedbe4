package pids

import "grdiag/utils"

// Standard Mode 01 parameter names, doubling as CSV column headers.
const (
	RPM         = "rpm"
	CoolantTemp = "coolant_temp"
	ThrottlePos = "throttle_pos"
	ShortTermFT = "short_term_ft"
	LongTermFT  = "long_term_ft"
)

// Standard2GR returns the SAE J1979 Mode 01 parameters polled on the 2GR.
func Standard2GR() []*Definition {
	return []*Definition{
		{
			Name:      RPM,
			Request:   "010C",
			DataBytes: 2,
			Decode:    decodeRPM,
		},
		{
			Name:      CoolantTemp,
			Request:   "0105",
			DataBytes: 1,
			Decode:    decodeCoolant,
		},
		{
			Name:      ThrottlePos,
			Request:   "0111",
			DataBytes: 1,
			Decode:    decodePercent,
		},
		{
			Name:      ShortTermFT,
			Request:   "0106",
			DataBytes: 1,
			Decode:    decodeFuelTrim,
		},
		{
			Name:      LongTermFT,
			Request:   "0107",
			DataBytes: 1,
			Decode:    decodeFuelTrim,
		},
	}
}

func decodeRPM(data []byte) (float64, bool) { // (A*256+B)/4
	if len(data) < 2 {
		return 0, false
	}
	raw := int(data[0])<<8 | int(data[1])
	return float64(raw) / 4.0, true
}

func decodeCoolant(data []byte) (float64, bool) { // A-40 °C
	if len(data) < 1 {
		return 0, false
	}
	return float64(data[0]) - 40.0, true
}

func decodePercent(data []byte) (float64, bool) { // (0..255) -> %
	if len(data) < 1 {
		return 0, false
	}
	return utils.RoundToXDp(float64(data[0])/255.0*100.0, 1), true
}

func decodeFuelTrim(data []byte) (float64, bool) { // A/1.28-100 -> %
	if len(data) < 1 {
		return 0, false
	}
	return utils.RoundToXDp(float64(data[0])/1.28-100.0, 1), true
}
