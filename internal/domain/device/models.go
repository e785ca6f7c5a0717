package device

import "time"

// Health transitions are driven only by the sync loop.
const (
	HealthOnline  = "online"
	HealthOffline = "offline"
	HealthError   = "error"
)

// Role controls how raw device statuses map to punch kinds. An "in" or
// "out" door produces that kind regardless of raw status; "auto" maps by
// the raw status code.
const (
	RoleIn   = "in"
	RoleOut  = "out"
	RoleAuto = "auto"
)

type Terminal struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Address   string     `json:"address"`
	Port      int        `json:"port"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	Health    string     `json:"health"`
	LastSync  *time.Time `json:"lastSync,omitempty"`
	LastError string     `json:"lastError,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleIn, RoleOut, RoleAuto:
		return true
	}
	return false
}
