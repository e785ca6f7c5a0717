package shift

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	TypeFixed      = "FIXED"
	TypeRotational = "ROTATIONAL"
)

// Policy is a named rule set evaluated against reconstructed sessions.
// Times of day are "15:04" strings in the tenant timezone.
type Policy struct {
	ID                     string         `json:"id,omitempty"`
	Name                   string         `json:"name"`
	Type                   string         `json:"type"`
	StartTime              string         `json:"startTime"`
	EndTime                string         `json:"endTime"`
	ExpectedHours          float64        `json:"expectedHours"`
	GraceInMin             int            `json:"graceIn"`
	GraceOutMin            int            `json:"graceOut"`
	OTThresholdMin         int            `json:"otThreshold"`
	EndDayOffset           int            `json:"endDayOffset"`
	MultNormal             float64        `json:"multNormal"`
	MultHoliday            float64        `json:"multHoliday"`
	HolidayWeekdays        []time.Weekday `json:"-"`
	IsHolidayPaid          bool           `json:"isHolidayPaid"`
	MinDaysForPaidHoliday  int            `json:"minDaysForPaidHoliday"`
	DistributeHolidayBonus bool           `json:"distributeHolidayBonus"`
	Rotation               *Rotation      `json:"rotation,omitempty"`
	Active                 bool           `json:"active"`

	// Defaulted marks a policy substituted because no assignment covered
	// the instant.
	Defaulted bool `json:"defaulted,omitempty"`
}

// RotationSlot is one work period referenced by label from the day
// pattern. Offset counts how many midnights the end crosses.
type RotationSlot struct {
	Label  string  `json:"label"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Hours  float64 `json:"hours"`
	Offset int     `json:"offset"`
}

// RotationDay is one entry of the cyclic pattern: OFF, or one or more slot
// labels worked back to back (e.g. ["B","C"] for a B+C double).
type RotationDay struct {
	Off   bool     `json:"off,omitempty"`
	Slots []string `json:"slots,omitempty"`
}

type Rotation struct {
	Epoch string         `json:"epoch"`
	Slots []RotationSlot `json:"slots"`
	Days  []RotationDay  `json:"days"`
}

// Assignment binds an employee to a policy for a window. Windows never
// overlap per employee; supersession closes the open one.
type Assignment struct {
	ID         string     `json:"id"`
	EmployeeID string     `json:"employeeId"`
	PolicyID   string     `json:"policyId"`
	StartAt    time.Time  `json:"startAt"`
	EndAt      *time.Time `json:"endAt,omitempty"`
}

func (p Policy) IsHolidayWeekday(day time.Weekday) bool {
	for _, d := range p.HolidayWeekdays {
		if d == day {
			return true
		}
	}
	return false
}

// DefaultPolicy is substituted when no assignment covers an instant.
// Sessions classified under it carry the Defaulted flag.
func DefaultPolicy(name string) Policy {
	if name == "" {
		name = "Standard"
	}
	return Policy{
		Name:                  name,
		Type:                  TypeFixed,
		StartTime:             "08:00",
		EndTime:               "16:00",
		ExpectedHours:         8,
		GraceInMin:            15,
		GraceOutMin:           15,
		OTThresholdMin:        30,
		MultNormal:            1.5,
		MultHoliday:           2.0,
		HolidayWeekdays:       []time.Weekday{time.Friday},
		IsHolidayPaid:         true,
		MinDaysForPaidHoliday: 4,
		Active:                true,
		Defaulted:             true,
	}
}

// MarshalWeekdays serializes the holiday weekday set as a JSON array of
// day names, the persisted wire format.
func MarshalWeekdays(days []time.Weekday) ([]byte, error) {
	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return json.Marshal(names)
}

func ParseWeekdays(raw []byte) ([]time.Weekday, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal(raw, &names); err != nil {
		return nil, err
	}
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		day, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.EqualFold(day.String(), name) {
			return day, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

func (p Policy) Validate() error {
	switch p.Type {
	case TypeFixed:
		if _, err := parseClock(p.StartTime); err != nil {
			return fmt.Errorf("startTime: %w", err)
		}
		if _, err := parseClock(p.EndTime); err != nil {
			return fmt.Errorf("endTime: %w", err)
		}
		if p.ExpectedHours <= 0 {
			return fmt.Errorf("expectedHours must be positive")
		}
	case TypeRotational:
		if p.Rotation == nil || len(p.Rotation.Days) == 0 {
			return fmt.Errorf("rotational policy requires a rotation pattern")
		}
		if _, err := time.Parse("2006-01-02", p.Rotation.Epoch); err != nil {
			return fmt.Errorf("rotation epoch: %w", err)
		}
		labels := make(map[string]bool, len(p.Rotation.Slots))
		for _, slot := range p.Rotation.Slots {
			if _, err := parseClock(slot.Start); err != nil {
				return fmt.Errorf("slot %s start: %w", slot.Label, err)
			}
			if _, err := parseClock(slot.End); err != nil {
				return fmt.Errorf("slot %s end: %w", slot.Label, err)
			}
			if slot.Offset < 0 || slot.Offset > 2 {
				return fmt.Errorf("slot %s offset must be 0..2", slot.Label)
			}
			labels[slot.Label] = true
		}
		for i, day := range p.Rotation.Days {
			if day.Off {
				continue
			}
			if len(day.Slots) == 0 {
				return fmt.Errorf("pattern day %d has neither slots nor off", i)
			}
			for _, label := range day.Slots {
				if !labels[label] {
					return fmt.Errorf("pattern day %d references unknown slot %q", i, label)
				}
			}
		}
	default:
		return fmt.Errorf("unknown policy type %q", p.Type)
	}
	if p.EndDayOffset < 0 || p.EndDayOffset > 2 {
		return fmt.Errorf("endDayOffset must be 0..2")
	}
	if p.GraceInMin < 0 || p.GraceOutMin < 0 || p.OTThresholdMin < 0 {
		return fmt.Errorf("grace and overtime thresholds must be non-negative")
	}
	return nil
}
