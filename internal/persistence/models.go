package persistence

import "time"

// Client represents a customer record.
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

// Employee represents a staff member who can be assigned to interventions.
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

// Service represents a catalog entry for a sellable service.
type Service struct {
	ID           string
	Name         string
	Description  string
	MonthlyPrice float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Intervention represents a single scheduled visit. Date is stored as ISO
// YYYY-MM-DD and StartTime as HH:MM, exactly the wire shape of the store;
// parsing happens in the calendar layer so one bad row never fails a query.
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

// RecurrenceRule represents a stored weekly recurrence pattern. Weekday
// numbers use 1=Monday..7=Sunday. StartDate and EndDate are nullable ISO
// dates bounding the validity window.
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
