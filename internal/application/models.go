package application

import (
	"time"

	"github.com/example/service-agenda/internal/calendar"
)

// Status enumerates the lifecycle states of a one-off intervention.
const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// Kind tags a merged agenda entry by its origin.
type Kind string

const (
	// KindSingle marks a concrete one-off intervention.
	KindSingle Kind = "SINGLE"
	// KindRecurring marks an entry expanded from (or summarizing) a rule.
	KindRecurring Kind = "RECURRING"
)

// Rule status labels shown wherever a rule is listed.
const (
	RuleStatusActive    = "Active"
	RuleStatusSuspended = "Suspended"
)

// placeholder is the display fallback for empty cells ("no employees",
// "no concrete date").
const placeholder = "-"

// ClientInput captures caller provided client fields.
type ClientInput struct {
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Email     string
}

// Client represents a persisted customer record.
type Client struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DisplayName renders the client the way tables show it.
func (c Client) DisplayName() string {
	return c.FirstName + " " + c.LastName
}

// EmployeeInput captures caller provided employee fields.
type EmployeeInput struct {
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	Role        string
	WeeklyHours int
	Salary      float64
	ContractEnd *string
}

// Employee represents a persisted staff member.
type Employee struct {
	ID          string
	FirstName   string
	LastName    string
	Phone       string
	Email       string
	Role        string
	WeeklyHours int
	Salary      float64
	ContractEnd *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DisplayName renders the employee the way tables show it.
func (e Employee) DisplayName() string {
	return e.FirstName + " " + e.LastName
}

// ServiceInput captures caller provided catalog service fields.
type ServiceInput struct {
	Name         string
	Description  string
	MonthlyPrice float64
}

// Service represents a persisted catalog entry.
type Service struct {
	ID           string
	Name         string
	Description  string
	MonthlyPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InterventionInput captures caller provided intervention fields. Date is
// ISO YYYY-MM-DD, StartTime HH:MM. An empty Status defaults to Scheduled.
type InterventionInput struct {
	ClientID      string
	ServiceID     string
	Date          string
	StartTime     string
	DurationHours float64
	Status        string
	Note          string
	EmployeeIDs   []string
}

// Intervention represents a persisted one-off visit. RuleID back-references
// the recurrence rule it was materialized from, when any.
type Intervention struct {
	ID            string
	ClientID      string
	ServiceID     string
	Date          string
	StartTime     string
	DurationHours float64
	Status        string
	Note          string
	RuleID        *string
	EmployeeIDs   []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RuleInput captures caller provided recurrence rule fields. Missing window
// bounds default to today and Dec 31 of the current year.
type RuleInput struct {
	ClientID      string
	ServiceID     string
	StartTime     string
	DurationHours float64
	StartDate     *string
	EndDate       *string
	Active        bool
	Note          string
	Weekdays      []int
	EmployeeIDs   []string
}

// RecurrenceRule represents a persisted weekly pattern.
type RecurrenceRule struct {
	ID            string
	ClientID      string
	ServiceID     string
	StartTime     string
	DurationHours float64
	StartDate     *string
	EndDate       *string
	Active        bool
	Note          string
	Weekdays      []int
	EmployeeIDs   []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// StatusLabel derives the listing label from the active flag.
func (r RecurrenceRule) StatusLabel() string {
	if r.Active {
		return RuleStatusActive
	}
	return RuleStatusSuspended
}

// Occurrence is one calendar-dated agenda entry, either a one-off
// intervention or a virtual expansion of a rule.
type Occurrence struct {
	RefID         string
	Kind          Kind
	Date          calendar.Date
	StartTime     string
	DurationHours float64
	ClientName    string
	ServiceName   string
	EmployeeNames string
	EmployeeIDs   []string
	Status        string
}

// AgendaRow is one line of the combined interventions/rules table. Date,
// WeekdaySummary and PeriodSummary carry "-" where the column does not apply
// to the row's kind.
type AgendaRow struct {
	RefID          string
	Kind           Kind
	ClientName     string
	ServiceName    string
	EmployeeNames  string
	Date           string
	StartTime      string
	DurationHours  float64
	WeekdaySummary string
	Status         string
	PeriodSummary  string
}

// OverlapWarning reports a same-employee double booking inside one day's
// occurrences. Advisory only.
type OverlapWarning struct {
	RefID      string
	WithRefID  string
	EmployeeID string
}
