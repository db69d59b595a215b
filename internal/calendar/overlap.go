package calendar

import "time"

// Booking is one dated appointment reduced to what overlap detection needs.
type Booking struct {
	RefID       string
	EmployeeIDs []string
	StartTime   string
	Duration    float64
}

// Overlap reports that two bookings on the same day occupy the same
// employee at the same time.
type Overlap struct {
	RefID      string
	WithRefID  string
	EmployeeID string
}

// DetectOverlaps finds pairs of same-day bookings whose time intervals
// intersect while sharing an employee. Bookings with an unparseable start
// time or a non-positive duration are skipped. Advisory: nothing blocks the
// user from double booking, the caller just surfaces the warnings.
func DetectOverlaps(bookings []Booking) []Overlap {
	type interval struct {
		booking    Booking
		start, end time.Duration
	}

	intervals := make([]interval, 0, len(bookings))
	for _, b := range bookings {
		if b.Duration <= 0 {
			continue
		}
		t, err := time.Parse(TimeLayout, b.StartTime)
		if err != nil {
			continue
		}
		start := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
		end := start + time.Duration(b.Duration*float64(time.Hour))
		intervals = append(intervals, interval{booking: b, start: start, end: end})
	}

	var overlaps []Overlap
	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			if a.end <= b.start || b.end <= a.start {
				continue
			}
			if employee, ok := sharedEmployee(a.booking.EmployeeIDs, b.booking.EmployeeIDs); ok {
				overlaps = append(overlaps, Overlap{
					RefID:      a.booking.RefID,
					WithRefID:  b.booking.RefID,
					EmployeeID: employee,
				})
			}
		}
	}
	return overlaps
}

func sharedEmployee(left, right []string) (string, bool) {
	if len(left) == 0 || len(right) == 0 {
		return "", false
	}
	set := make(map[string]bool, len(left))
	for _, id := range left {
		set[id] = true
	}
	for _, id := range right {
		if set[id] {
			return id, true
		}
	}
	return "", false
}
