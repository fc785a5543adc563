package model

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingStatusNew, BookingStatusConfirmed, true},
		{BookingStatusNew, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusCancelled, true},
		{BookingStatusConfirmed, BookingStatusNew, false},
		{BookingStatusCancelled, BookingStatusNew, false},
		{BookingStatusCancelled, BookingStatusConfirmed, false},
		{BookingStatusNew, BookingStatusNew, false},
		{BookingStatusCancelled, BookingStatusCancelled, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s): expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestBookingStatusActive(t *testing.T) {
	if !BookingStatusNew.Active() || !BookingStatusConfirmed.Active() {
		t.Fatal("new and confirmed bookings must occupy a spot")
	}
	if BookingStatusCancelled.Active() {
		t.Fatal("cancelled bookings must not occupy a spot")
	}
}

func TestCheckCapacity(t *testing.T) {
	if err := CheckCapacity(LessonIndividual, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckCapacity(LessonIndividual, 2); err == nil {
		t.Fatal("expected error for individual with capacity 2")
	}
	if err := CheckCapacity(LessonGroup, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckCapacity(LessonGroup, 1); err == nil {
		t.Fatal("expected error for group with capacity 1")
	}
	if err := CheckCapacity(LessonType("seminar"), 1); err == nil {
		t.Fatal("expected error for unknown lesson type")
	}
}
