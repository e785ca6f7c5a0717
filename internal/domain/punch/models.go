package punch

import "time"

// EventKind is the closed set of punch meanings derived from the raw
// device status.
type EventKind string

const (
	KindIn       EventKind = "IN"
	KindOut      EventKind = "OUT"
	KindBreakOut EventKind = "BREAK_OUT"
	KindBreakIn  EventKind = "BREAK_IN"
	KindOTIn     EventKind = "OT_IN"
	KindOTOut    EventKind = "OT_OUT"
	KindUnknown  EventKind = "UNKNOWN"
)

// IsArrival reports whether the punch opens or resumes presence.
func (k EventKind) IsArrival() bool {
	return k == KindIn || k == KindBreakIn || k == KindOTIn
}

// IsDeparture reports whether the punch suspends or ends presence.
func (k EventKind) IsDeparture() bool {
	return k == KindOut || k == KindBreakOut || k == KindOTOut
}

type VerifyMode string

const (
	VerifyPassword    VerifyMode = "password"
	VerifyFingerprint VerifyMode = "fingerprint"
	VerifyCard        VerifyMode = "card"
	VerifyFace        VerifyMode = "face"
)

// Punch is one immutable log row. EmployeeID is empty when the device code
// was unresolved at ingest time; DeviceCode is always retained.
type Punch struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId,omitempty"`
	DeviceCode string     `json:"deviceCode"`
	TerminalID string     `json:"terminalId,omitempty"`
	OccurredAt time.Time  `json:"occurredAt"`
	Kind       EventKind  `json:"kind"`
	Verify     VerifyMode `json:"verify"`
	RawStatus  int16      `json:"rawStatus"`
}
