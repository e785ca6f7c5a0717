package punch

import "time"

// Device status codes as emitted by the terminal firmware.
const (
	rawCheckIn  = 0
	rawCheckOut = 1
	rawBreakOut = 2
	rawBreakIn  = 3
	rawOTIn     = 4
	rawOTOut    = 5
)

// MapKind derives the event kind for a raw status. A terminal tagged as an
// "in" or "out" door fixes the kind regardless of status; a single-door
// ("auto") terminal maps by status code and falls back to a time-of-day
// guess when the status is unrecognized: punches before noon are arrivals.
func MapKind(role string, rawStatus byte, at time.Time) EventKind {
	switch role {
	case "in":
		return KindIn
	case "out":
		return KindOut
	}

	switch rawStatus {
	case rawCheckIn:
		return KindIn
	case rawCheckOut:
		return KindOut
	case rawBreakOut:
		return KindBreakOut
	case rawBreakIn:
		return KindBreakIn
	case rawOTIn:
		return KindOTIn
	case rawOTOut:
		return KindOTOut
	}

	if at.Hour() < 12 {
		return KindIn
	}
	return KindOut
}

// MapVerify normalizes the device verification byte.
func MapVerify(raw byte) VerifyMode {
	switch raw {
	case 0:
		return VerifyPassword
	case 1:
		return VerifyFingerprint
	case 2:
		return VerifyCard
	case 15:
		return VerifyFace
	}
	return VerifyFingerprint
}
