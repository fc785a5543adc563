package service

import (
	"errors"
	"testing"

	"github.com/avoroshilov/lessonbook/internal/apperr"
	"github.com/avoroshilov/lessonbook/internal/model"
)

func TestPlanStatusMove(t *testing.T) {
	booking := func(status model.BookingStatus) *model.Booking {
		return &model.Booking{ID: 7, Status: status}
	}

	cases := []struct {
		name    string
		current *model.Booking
		target  model.BookingStatus
		move    bool
		wantErr error
	}{
		{"missing row", nil, model.BookingStatusConfirmed, false, apperr.ErrNotFound},
		{"new to confirmed", booking(model.BookingStatusNew), model.BookingStatusConfirmed, true, nil},
		{"new to cancelled", booking(model.BookingStatusNew), model.BookingStatusCancelled, true, nil},
		{"confirmed to cancelled", booking(model.BookingStatusConfirmed), model.BookingStatusCancelled, true, nil},
		{"same status no-op", booking(model.BookingStatusConfirmed), model.BookingStatusConfirmed, false, nil},
		{"cancel twice no-op", booking(model.BookingStatusCancelled), model.BookingStatusCancelled, false, nil},
		{"out of cancelled", booking(model.BookingStatusCancelled), model.BookingStatusConfirmed, false, apperr.ErrInvalidTransition},
		{"confirmed back to new", booking(model.BookingStatusConfirmed), model.BookingStatusNew, false, apperr.ErrInvalidTransition},
	}

	for _, tc := range cases {
		move, err := planStatusMove(7, tc.current, tc.target)
		if tc.wantErr != nil {
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("%s: expected %v, got %v", tc.name, tc.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.name, err)
			continue
		}
		if move != tc.move {
			t.Errorf("%s: expected move=%v, got %v", tc.name, tc.move, move)
		}
	}
}

// A writer that loses the guarded update race re-reads and re-plans; a row
// another writer already cancelled must never be written over.
func TestPlanStatusMoveAfterLostRace(t *testing.T) {
	raced := &model.Booking{ID: 3, Status: model.BookingStatusCancelled}

	if _, err := planStatusMove(3, raced, model.BookingStatusConfirmed); !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if move, err := planStatusMove(3, raced, model.BookingStatusCancelled); err != nil || move {
		t.Fatalf("expected idempotent no-op, got move=%v err=%v", move, err)
	}
}

func TestFreeSpotsAfter(t *testing.T) {
	if got := freeSpotsAfter(1, 0); got != 0 {
		t.Errorf("individual slot: expected 0 free spots, got %d", got)
	}
	if got := freeSpotsAfter(5, 2); got != 2 {
		t.Errorf("group slot: expected 2 free spots, got %d", got)
	}
}
