package employee

import "time"

type Employee struct {
	ID             string    `json:"id"`
	EmployeeNumber string    `json:"employeeNumber"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Department     string    `json:"department"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

// DeviceCode links a terminal user code to an employee for a window of
// time. Windows let a code be reassigned on rehire or handover without
// rewriting history.
type DeviceCode struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	Code       string     `json:"code"`
	ValidFrom  time.Time  `json:"validFrom"`
	ValidTo    *time.Time `json:"validTo,omitempty"`
}
