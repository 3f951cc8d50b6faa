package model

import (
	"testing"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{BookingBooked, BookingInTransit, true},
		{BookingBooked, BookingCancelled, true},
		{BookingInTransit, BookingUnloaded, true},
		{BookingInTransit, BookingCancelled, true},
		{BookingUnloaded, BookingOutForDelivery, true},
		{BookingUnloaded, BookingCancelled, true},
		{BookingOutForDelivery, BookingDelivered, true},
		{BookingOutForDelivery, BookingCancelled, true},
		{BookingDelivered, BookingPODReceived, true},

		// skipping stages is never legal
		{BookingBooked, BookingDelivered, false},
		{BookingBooked, BookingUnloaded, false},
		{BookingInTransit, BookingDelivered, false},
		{BookingUnloaded, BookingDelivered, false},

		// no backward edges
		{BookingInTransit, BookingBooked, false},
		{BookingDelivered, BookingOutForDelivery, false},

		// delivered bookings cannot be cancelled
		{BookingDelivered, BookingCancelled, false},

		// terminal states have no exits
		{BookingPODReceived, BookingBooked, false},
		{BookingPODReceived, BookingCancelled, false},
		{BookingCancelled, BookingBooked, false},
		{BookingCancelled, BookingInTransit, false},

		// unknown statuses
		{"UNKNOWN", BookingBooked, false},
		{BookingBooked, "UNKNOWN", false},
	}

	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{BookingPODReceived, BookingCancelled}
	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	live := []string{BookingBooked, BookingInTransit, BookingUnloaded, BookingOutForDelivery, BookingDelivered}
	for _, status := range live {
		if IsTerminalStatus(status) {
			t.Errorf("expected %s not to be terminal", status)
		}
	}

	if IsTerminalStatus("UNKNOWN") {
		t.Error("unknown status must not report terminal")
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	first := AllowedTransitions(BookingBooked)
	if len(first) != 2 {
		t.Fatalf("expected 2 successors for BOOKED, got %d", len(first))
	}
	first[0] = "MUTATED"

	second := AllowedTransitions(BookingBooked)
	if second[0] == "MUTATED" {
		t.Fatal("AllowedTransitions must not expose the internal graph")
	}

	if AllowedTransitions("UNKNOWN") != nil {
		t.Fatal("unknown status must yield nil successors")
	}
}

func TestIsBookingStatus(t *testing.T) {
	for _, status := range []string{BookingBooked, BookingInTransit, BookingUnloaded, BookingOutForDelivery, BookingDelivered, BookingPODReceived, BookingCancelled} {
		if !IsBookingStatus(status) {
			t.Errorf("expected %s to be recognized", status)
		}
	}
	if IsBookingStatus("SHIPPED") {
		t.Error("SHIPPED must not be recognized")
	}
}
