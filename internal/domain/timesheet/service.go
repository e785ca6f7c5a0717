package timesheet

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/shift"
)

type PunchSource interface {
	ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]punch.Punch, error)
	ListRaw(ctx context.Context, employeeID, department string, from, to time.Time) ([]punch.Punch, error)
	UnresolvedCodes(ctx context.Context, from, to time.Time) (map[string]int, error)
}

type PolicySource interface {
	PolicyFor(ctx context.Context, employeeID string, at time.Time) (shift.Policy, error)
}

type EmployeeSource interface {
	ListIDs(ctx context.Context, department string) ([]string, error)
}

// Service is the read side: every answer is recomputed from the punch log
// and the policy store, so outputs for unchanged inputs never drift.
type Service struct {
	Punches     PunchSource
	Policies    PolicySource
	Employees   EmployeeSource
	Reconstruct ReconstructConfig
	ExportDir   string
}

func NewService(punches PunchSource, policies PolicySource, employees EmployeeSource, cfg ReconstructConfig, exportDir string) *Service {
	return &Service{
		Punches:     punches,
		Policies:    policies,
		Employees:   employees,
		Reconstruct: cfg,
		ExportDir:   exportDir,
	}
}

func (s *Service) RawPunches(ctx context.Context, employeeID, department string, from, to time.Time) ([]punch.Punch, error) {
	return s.Punches.ListRaw(ctx, employeeID, department, from, to)
}

// Sessions reconstructs and classifies every targeted employee's punches
// in the window.
func (s *Service) Sessions(ctx context.Context, employeeID, department string, from, to time.Time) ([]Result, []Diagnostic, error) {
	employees, err := s.targetEmployees(ctx, employeeID, department)
	if err != nil {
		return nil, nil, err
	}

	var results []Result
	var diags []Diagnostic
	for _, emp := range employees {
		punches, err := s.Punches.ListForEmployee(ctx, emp, from, to)
		if err != nil {
			return nil, nil, err
		}
		sessions, empDiags := Reconstruct(punches, s.Reconstruct)
		diags = append(diags, empDiags...)
		for _, session := range sessions {
			policy, err := s.Policies.PolicyFor(ctx, emp, session.Start)
			if err != nil {
				return nil, nil, err
			}
			results = append(results, Classify(session, policy))
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].EmployeeID != results[j].EmployeeID {
			return results[i].EmployeeID < results[j].EmployeeID
		}
		return results[i].Start.Before(results[j].Start)
	})
	return results, diags, nil
}

func (s *Service) DaySheet(ctx context.Context, employeeID, department string, from, to time.Time) ([]DaySheetRow, error) {
	results, _, err := s.Sessions(ctx, employeeID, department, from, to)
	if err != nil {
		return nil, err
	}
	return BuildDaySheet(results), nil
}

type MonthlyReport struct {
	Summary MonthSummary  `json:"summary"`
	Credits []BonusCredit `json:"credits,omitempty"`
}

func (s *Service) Monthly(ctx context.Context, employeeID string, from, to time.Time) (MonthlyReport, error) {
	rows, err := s.DaySheet(ctx, employeeID, "", from, to)
	if err != nil {
		return MonthlyReport{}, err
	}
	resolver := s.policyResolver(ctx, employeeID)
	summary := Rollup(employeeID, rows, from, to, resolver)
	credits := HolidayCredits(employeeID, rows, from, to, resolver)
	for _, c := range credits {
		summary.HolidayCredit = round2(summary.HolidayCredit + c.Hours)
	}
	return MonthlyReport{Summary: summary, Credits: credits}, nil
}

func (s *Service) Exceptions(ctx context.Context, employeeID, department string, from, to time.Time) (ExceptionReport, error) {
	results, diags, err := s.Sessions(ctx, employeeID, department, from, to)
	if err != nil {
		return ExceptionReport{}, err
	}
	unresolved, err := s.Punches.UnresolvedCodes(ctx, from, to)
	if err != nil {
		return ExceptionReport{}, err
	}
	return BuildExceptions(results, diags, unresolved), nil
}

func (s *Service) targetEmployees(ctx context.Context, employeeID, department string) ([]string, error) {
	if employeeID != "" {
		return []string{employeeID}, nil
	}
	return s.Employees.ListIDs(ctx, department)
}

// policyResolver adapts the store lookup to the per-date resolver the
// report functions take. Policy windows are evaluated at midday so a date
// maps into exactly one assignment window.
func (s *Service) policyResolver(ctx context.Context, employeeID string) PolicyResolver {
	return func(date time.Time) shift.Policy {
		at := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, date.Location())
		policy, err := s.Policies.PolicyFor(ctx, employeeID, at)
		if err != nil {
			slog.Warn("policy lookup failed, using default", "employeeId", employeeID, "date", date.Format("2006-01-02"), "err", err)
			return shift.DefaultPolicy("")
		}
		return policy
	}
}
