package service

import (
	"testing"

	"github.com/loyalcup/backend/internal/constants"
)

var allOrderStatuses = []string{
	constants.OrderStatusPending,
	constants.OrderStatusAccepted,
	constants.OrderStatusPreparing,
	constants.OrderStatusReady,
	constants.OrderStatusPickedUp,
	constants.OrderStatusCompleted,
	constants.OrderStatusCancelled,
}

func TestValidateTransitionMatrix(t *testing.T) {
	allowed := map[[2]string]bool{
		{constants.OrderStatusPending, constants.OrderStatusAccepted}:    true,
		{constants.OrderStatusPending, constants.OrderStatusCancelled}:   true,
		{constants.OrderStatusAccepted, constants.OrderStatusPreparing}:  true,
		{constants.OrderStatusAccepted, constants.OrderStatusCancelled}:  true,
		{constants.OrderStatusPreparing, constants.OrderStatusReady}:     true,
		{constants.OrderStatusPreparing, constants.OrderStatusCancelled}: true,
		{constants.OrderStatusReady, constants.OrderStatusPickedUp}:      true,
		{constants.OrderStatusPickedUp, constants.OrderStatusCompleted}:  true,
	}
	for _, from := range allOrderStatuses {
		for _, to := range allOrderStatuses {
			want := allowed[[2]string{from, to}]
			if got := ValidateTransition(from, to); got != want {
				t.Fatalf("transition %s -> %s want %v got %v", from, to, want, got)
			}
		}
	}
}

func TestValidateTransitionUnknownFailsClosed(t *testing.T) {
	if ValidateTransition("refunded", constants.OrderStatusCompleted) {
		t.Fatalf("unknown source status must be rejected")
	}
	if ValidateTransition(constants.OrderStatusPending, "teleported") {
		t.Fatalf("unknown target status must be rejected")
	}
	if ValidateTransition("", "") {
		t.Fatalf("empty statuses must be rejected")
	}
}

func TestValidateTransitionHappyPath(t *testing.T) {
	path := []string{
		constants.OrderStatusPending,
		constants.OrderStatusAccepted,
		constants.OrderStatusPreparing,
		constants.OrderStatusReady,
		constants.OrderStatusPickedUp,
		constants.OrderStatusCompleted,
	}
	for i := 0; i+1 < len(path); i++ {
		if !ValidateTransition(path[i], path[i+1]) {
			t.Fatalf("step %s -> %s should be accepted", path[i], path[i+1])
		}
	}
	if ValidateTransition(constants.OrderStatusPending, constants.OrderStatusPickedUp) {
		t.Fatalf("pending -> picked_up should be rejected")
	}
}

func TestCanCancel(t *testing.T) {
	for _, status := range allOrderStatuses {
		want := status == constants.OrderStatusPending
		if got := CanCancel(status); got != want {
			t.Fatalf("can cancel %s want %v got %v", status, want, got)
		}
	}
}

func TestNormalizeOrderStatus(t *testing.T) {
	if got, ok := NormalizeOrderStatus("  Picked_Up "); !ok || got != constants.OrderStatusPickedUp {
		t.Fatalf("normalize got %q ok=%v", got, ok)
	}
	if _, ok := NormalizeOrderStatus("shipped"); ok {
		t.Fatalf("unknown status should not normalize")
	}
}
