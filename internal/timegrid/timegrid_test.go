package timegrid

import (
	"testing"
	"time"

	"github.com/avoroshilov/lessonbook/internal/model"
)

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2025, 9, 1, hour, min, 0, 0, time.UTC)
}

func rng(t *testing.T, sh, sm, eh, em int) Range {
	t.Helper()
	return Range{Start: at(t, sh, sm), End: at(t, eh, em)}
}

func equalRanges(a, b []Range) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Start.Equal(b[i].Start) || !a[i].End.Equal(b[i].End) {
			return false
		}
	}
	return true
}

func TestSplit_Basic(t *testing.T) {
	slots := Split(rng(t, 10, 0, 12, 0), 30*time.Minute)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	expected := []Range{
		rng(t, 10, 0, 10, 30),
		rng(t, 10, 30, 11, 0),
		rng(t, 11, 0, 11, 30),
		rng(t, 11, 30, 12, 0),
	}
	if !equalRanges(slots, expected) {
		t.Fatalf("expected %v, got %v", expected, slots)
	}
}

func TestSplit_DropsShortTail(t *testing.T) {
	slots := Split(rng(t, 10, 0, 11, 50), 45*time.Minute)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots (tail dropped), got %d", len(slots))
	}
	last := slots[len(slots)-1]
	if !last.End.Equal(at(t, 11, 30)) {
		t.Fatalf("expected last slot to end 11:30, got %v", last.End)
	}
}

func TestSplit_WindowShorterThanSlot(t *testing.T) {
	if slots := Split(rng(t, 10, 0, 10, 20), 30*time.Minute); len(slots) != 0 {
		t.Fatalf("expected no slots, got %v", slots)
	}
}

func TestSubtractBreaks_SplitsWindow(t *testing.T) {
	breaks := []model.BreakInterval{{StartMin: 13 * 60, EndMin: 14 * 60}}
	subs := SubtractBreaks(rng(t, 9, 0, 15, 0), breaks)
	expected := []Range{
		rng(t, 9, 0, 13, 0),
		rng(t, 14, 0, 15, 0),
	}
	if !equalRanges(subs, expected) {
		t.Fatalf("expected %v, got %v", expected, subs)
	}
}

func TestSubtractBreaks_BreakOutsideWindow(t *testing.T) {
	breaks := []model.BreakInterval{{StartMin: 7 * 60, EndMin: 8 * 60}}
	subs := SubtractBreaks(rng(t, 9, 0, 12, 0), breaks)
	if !equalRanges(subs, []Range{rng(t, 9, 0, 12, 0)}) {
		t.Fatalf("expected untouched window, got %v", subs)
	}
}

func TestSubtractBreaks_CoveringBreak(t *testing.T) {
	breaks := []model.BreakInterval{{StartMin: 8 * 60, EndMin: 16 * 60}}
	if subs := SubtractBreaks(rng(t, 9, 0, 12, 0), breaks); len(subs) != 0 {
		t.Fatalf("expected no sub-windows, got %v", subs)
	}
}

// Scenario from the product docs: 60-minute slots, 13:00-14:00 break,
// availability 09:00-15:00 → five slots with no short tail after the break.
func TestPlan_LunchBreakScenario(t *testing.T) {
	breaks := []model.BreakInterval{{StartMin: 13 * 60, EndMin: 14 * 60}}
	slots, err := Plan(rng(t, 9, 0, 15, 0), breaks, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []Range{
		rng(t, 9, 0, 10, 0),
		rng(t, 10, 0, 11, 0),
		rng(t, 11, 0, 12, 0),
		rng(t, 12, 0, 13, 0),
		rng(t, 14, 0, 15, 0),
	}
	if !equalRanges(slots, expected) {
		t.Fatalf("expected %v, got %v", expected, slots)
	}
}

func TestPlan_Deterministic(t *testing.T) {
	breaks := []model.BreakInterval{{StartMin: 13 * 60, EndMin: 13*60 + 30}}
	first, err := Plan(rng(t, 9, 0, 18, 0), breaks, 45*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Plan(rng(t, 9, 0, 18, 0), breaks, 45*time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalRanges(first, second) {
		t.Fatalf("expected identical plans, got %v vs %v", first, second)
	}
}

func TestPlan_RejectsOverlappingBreaks(t *testing.T) {
	breaks := []model.BreakInterval{
		{StartMin: 12 * 60, EndMin: 13 * 60},
		{StartMin: 12*60 + 30, EndMin: 14 * 60},
	}
	if _, err := Plan(rng(t, 9, 0, 15, 0), breaks, time.Hour); err == nil {
		t.Fatalf("expected error for overlapping breaks")
	}
}

func TestPlan_RejectsInvalidWindow(t *testing.T) {
	if _, err := Plan(rng(t, 15, 0, 9, 0), nil, time.Hour); err == nil {
		t.Fatalf("expected error for inverted window")
	}
}

func TestRange_Overlaps(t *testing.T) {
	base := rng(t, 10, 0, 11, 0)
	cases := []struct {
		name  string
		other Range
		want  bool
	}{
		{"identical", rng(t, 10, 0, 11, 0), true},
		{"partial", rng(t, 10, 30, 11, 30), true},
		{"contained", rng(t, 10, 15, 10, 45), true},
		{"touching end", rng(t, 11, 0, 12, 0), false},
		{"touching start", rng(t, 9, 0, 10, 0), false},
		{"disjoint", rng(t, 12, 0, 13, 0), false},
	}
	for _, tc := range cases {
		if got := base.Overlaps(tc.other); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
