package calendar

import (
	"testing"
	"time"
)

func TestEasterSunday(t *testing.T) {
	cases := []struct {
		year int
		want Date
	}{
		{2024, date(2024, time.March, 31)},
		{2025, date(2025, time.April, 20)},
		{2026, date(2026, time.April, 5)},
	}
	for _, tc := range cases {
		if got := EasterSunday(tc.year); got != tc.want {
			t.Fatalf("EasterSunday(%d): expected %s, got %s", tc.year, tc.want, got)
		}
	}
}

func TestItalianHolidays(t *testing.T) {
	holidays := ItalianHolidays(2025)
	if len(holidays) != 12 {
		t.Fatalf("expected 12 holidays, got %d", len(holidays))
	}
	if name := holidays[date(2025, time.April, 20)]; name != "Pasqua" {
		t.Fatalf("expected Pasqua on 2025-04-20, got %q", name)
	}
	if name := holidays[date(2025, time.April, 21)]; name != "Lunedì dell'Angelo" {
		t.Fatalf("expected Easter Monday on 2025-04-21, got %q", name)
	}
	if name := holidays[date(2025, time.August, 15)]; name != "Ferragosto" {
		t.Fatalf("expected Ferragosto on 2025-08-15, got %q", name)
	}
}

func TestClassifyDay(t *testing.T) {
	holidays := ItalianHolidays(2026)

	// 2026-06-02 is a Tuesday and Festa della Repubblica.
	if got := ClassifyDay(date(2026, time.June, 2), holidays); got != Holiday {
		t.Fatalf("expected Holiday, got %v", got)
	}
	// 2026-04-25 is a Saturday: the holiday wins over the weekend.
	if got := ClassifyDay(date(2026, time.April, 25), holidays); got != Holiday {
		t.Fatalf("expected Holiday on a weekend holiday, got %v", got)
	}
	if got := ClassifyDay(date(2026, time.June, 6), holidays); got != Weekend {
		t.Fatalf("expected Weekend, got %v", got)
	}
	if got := ClassifyDay(date(2026, time.June, 3), holidays); got != Workday {
		t.Fatalf("expected Workday, got %v", got)
	}
}
