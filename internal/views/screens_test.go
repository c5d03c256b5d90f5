package views

import (
	"strings"
	"testing"
)

func TestRenderDotsCapsAtThree(t *testing.T) {
	out := renderDots([]string{"high", "low", "medium", "low"})
	if strings.Count(out, "•") != 3 || !strings.Contains(out, "+") {
		t.Fatalf("expected three dots and a plus, got %q", out)
	}
	out = renderDots([]string{"low"})
	if strings.Count(out, "•") != 1 || strings.Contains(out, "+") {
		t.Fatalf("expected one dot, got %q", out)
	}
}

func TestRenderMonthGridShowsTitleAndDays(t *testing.T) {
	out := RenderMonthGrid(MonthGridData{
		Title:    "February 2024",
		Weekdays: []string{"Monday", "Tuesday"},
		Weeks: [][]DayCellData{
			{{Day: 29}, {Day: 1, InMonth: true, Priorities: []string{"high"}}},
		},
	})
	for _, want := range []string{"February 2024", "Mon", "Tue", "29", " 1"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderNotificationSkipsBlank(t *testing.T) {
	out := RenderNotification([]string{"", "09:00 Call bank"})
	if out != "notification: 09:00 Call bank" {
		t.Fatalf("unexpected notification: %q", out)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("Quarterly planning", 8); len([]rune(got)) > 8 || !strings.HasSuffix(got, "…") {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := Truncate("short", 8); got != "short" {
		t.Fatalf("short strings must pass through, got %q", got)
	}
}
