// Package timegrid holds the pure time arithmetic behind slot generation:
// subtracting configured break windows from a raw availability window and
// slicing the remainder into fixed-duration slots.
package timegrid

import (
	"fmt"
	"time"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
)

// Range is a half-open interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether r intersects other.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Duration returns End - Start.
func (r Range) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// SubtractBreaks removes every configured minute-of-day break window from w,
// returning the remaining ordered, disjoint sub-windows. A break that splits
// the window yields two sub-windows; a break covering it yields none. Breaks
// apply on every calendar day the window touches, in the window's location.
func SubtractBreaks(w Range, breaks []model.BreakInterval) []Range {
	if !w.End.After(w.Start) {
		return nil
	}
	segments := []Range{w}
	for _, abs := range breakInstances(w, breaks) {
		var next []Range
		for _, seg := range segments {
			if !seg.Overlaps(abs) {
				next = append(next, seg)
				continue
			}
			if seg.Start.Before(abs.Start) {
				next = append(next, Range{Start: seg.Start, End: abs.Start})
			}
			if abs.End.Before(seg.End) {
				next = append(next, Range{Start: abs.End, End: seg.End})
			}
		}
		segments = next
	}
	return segments
}

// breakInstances materializes the minute-of-day breaks as absolute ranges
// for each day the window touches.
func breakInstances(w Range, breaks []model.BreakInterval) []Range {
	var out []Range
	loc := w.Start.Location()
	day := time.Date(w.Start.Year(), w.Start.Month(), w.Start.Day(), 0, 0, 0, 0, loc)
	for !day.After(w.End) {
		for _, b := range breaks {
			abs := Range{
				Start: day.Add(time.Duration(b.StartMin) * time.Minute),
				End:   day.Add(time.Duration(b.EndMin) * time.Minute),
			}
			if abs.Overlaps(w) {
				out = append(out, abs)
			}
		}
		day = day.AddDate(0, 0, 1)
	}
	return out
}

// Split walks the window left to right in increments of d, emitting one
// range per full increment. A trailing remainder shorter than d is dropped.
func Split(w Range, d time.Duration) []Range {
	if d <= 0 || !w.End.After(w.Start) {
		return nil
	}
	var out []Range
	for cur := w.Start; !cur.Add(d).After(w.End); cur = cur.Add(d) {
		out = append(out, Range{Start: cur, End: cur.Add(d)})
	}
	return out
}

// Plan turns a raw availability window plus settings into the ordered slot
// candidates: breaks subtracted, each sub-window sliced by slotDuration.
// Overlapping configured breaks are rejected as a configuration error.
func Plan(w Range, breaks []model.BreakInterval, slotDuration time.Duration) ([]Range, error) {
	if !w.End.After(w.Start) {
		return nil, fmt.Errorf("%w: window end must be after start", apperr.ErrInvalidArgument)
	}
	if slotDuration <= 0 {
		return nil, fmt.Errorf("%w: slot duration must be positive", apperr.ErrInvalidArgument)
	}
	if err := model.ValidateBreaks(breaks); err != nil {
		return nil, err
	}
	var out []Range
	for _, sub := range SubtractBreaks(w, breaks) {
		out = append(out, Split(sub, slotDuration)...)
	}
	return out, nil
}
