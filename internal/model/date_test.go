package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	if err != nil {
		t.Fatalf("parse leap day: %v", err)
	}
	if d != NewDate(2024, time.February, 29) {
		t.Fatalf("unexpected date: %+v", d)
	}

	for _, raw := range []string{"2023-02-29", "2024-13-01", "24-01-01", ""} {
		if _, err := ParseDate(raw); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("parse %q: expected ErrInvalidDate, got %v", raw, err)
		}
	}
}

func TestDateAddMonthsClamps(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-03-31", 1, "2024-04-30"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-01-10", -1, "2023-12-10"},
		{"2024-05-31", 13, "2025-06-30"},
	}
	for _, tc := range cases {
		got := MustParseDate(tc.in).AddMonths(tc.n)
		if got.String() != tc.want {
			t.Fatalf("%s %+d months: got %s want %s", tc.in, tc.n, got, tc.want)
		}
	}
}

func TestDateCompareAndDays(t *testing.T) {
	a := MustParseDate("2024-01-31")
	b := a.AddDays(1)
	if b.String() != "2024-02-01" {
		t.Fatalf("unexpected next day: %s", b)
	}
	if !a.Before(b) || !b.After(a) || a.Compare(a) != 0 {
		t.Fatal("compare mismatch")
	}
	if a.Weekday() != time.Wednesday {
		t.Fatalf("unexpected weekday: %s", a.Weekday())
	}
	if DaysIn(2023, time.February) != 28 || DaysIn(2024, time.December) != 31 {
		t.Fatal("DaysIn mismatch")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tm, err := ParseTimeOfDay("09:05")
	if err != nil || tm.String() != "09:05" {
		t.Fatalf("unexpected parse: %v %v", tm, err)
	}
	for _, raw := range []string{"24:00", "9", "12:60", "ab:cd", "+9:05", "9:05", "09:5", "-1:30", "09:05:00"} {
		if _, err := ParseTimeOfDay(raw); !errors.Is(err, ErrInvalidTime) {
			t.Fatalf("parse %q: expected ErrInvalidTime, got %v", raw, err)
		}
	}
}
