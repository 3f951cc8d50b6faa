package model

import "testing"

func TestCanTransitionManifest(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{ManifestCreated, ManifestInTransit, true},
		{ManifestCreated, ManifestCancelled, true},
		{ManifestInTransit, ManifestCompleted, true},
		{ManifestInTransit, ManifestCancelled, true},

		{ManifestCreated, ManifestCompleted, false},
		{ManifestInTransit, ManifestCreated, false},
		{ManifestCompleted, ManifestInTransit, false},
		{ManifestCompleted, ManifestCancelled, false},
		{ManifestCancelled, ManifestCreated, false},
	}

	for _, tc := range cases {
		if got := CanTransitionManifest(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionManifest(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestManifestLoadable(t *testing.T) {
	if !ManifestLoadable(ManifestCreated) {
		t.Error("CREATED manifests must accept bookings")
	}
	if !ManifestLoadable(ManifestInTransit) {
		t.Error("IN_TRANSIT manifests must accept booking changes")
	}
	if ManifestLoadable(ManifestCompleted) {
		t.Error("COMPLETED manifests must reject booking changes")
	}
	if ManifestLoadable(ManifestCancelled) {
		t.Error("CANCELLED manifests must reject booking changes")
	}
}

func TestIsUnloadingCondition(t *testing.T) {
	for _, c := range []string{ConditionGood, ConditionDamaged, ConditionMissing} {
		if !IsUnloadingCondition(c) {
			t.Errorf("expected %s to be a valid condition", c)
		}
	}
	if IsUnloadingCondition("LOST") {
		t.Error("LOST must not be a valid condition")
	}
}

func TestCanTransitionInvoice(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{InvoiceGenerated, InvoiceSent, true},
		{InvoiceGenerated, InvoicePaid, true},
		{InvoiceSent, InvoicePaid, true},

		{InvoiceSent, InvoiceGenerated, false},
		{InvoicePaid, InvoiceSent, false},
		{InvoicePaid, InvoiceGenerated, false},
	}

	for _, tc := range cases {
		if got := CanTransitionInvoice(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransitionInvoice(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
