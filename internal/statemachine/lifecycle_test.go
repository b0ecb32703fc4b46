package statemachine

import (
	"testing"

	"github.com/taskbid/taskbid-api/internal/models"
)

func TestTaskLifecycle(t *testing.T) {
	if err := Task.Can(string(models.TaskStatusOpen), string(models.TaskStatusAssigned)); err != nil {
		t.Fatalf("OPEN -> ASSIGNED should be allowed: %v", err)
	}
	if err := Task.Can(string(models.TaskStatusAssigned), string(models.TaskStatusCompleted)); err != nil {
		t.Fatalf("ASSIGNED -> COMPLETED should be allowed: %v", err)
	}
	if err := Task.Can(string(models.TaskStatusCompleted), string(models.TaskStatusOpen)); err == nil {
		t.Fatal("COMPLETED -> OPEN should be rejected")
	}
	if err := Task.Can(string(models.TaskStatusOpen), string(models.TaskStatusCompleted)); err == nil {
		t.Fatal("OPEN -> COMPLETED should be rejected")
	}
}

func TestBidLifecycle(t *testing.T) {
	if err := Bid.Can(string(models.BidStatusPending), string(models.BidStatusAccepted)); err != nil {
		t.Fatalf("PENDING -> ACCEPTED should be allowed: %v", err)
	}
	if err := Bid.Can(string(models.BidStatusPending), string(models.BidStatusRejected)); err != nil {
		t.Fatalf("PENDING -> REJECTED should be allowed: %v", err)
	}
	if err := Bid.Can(string(models.BidStatusRejected), string(models.BidStatusAccepted)); err == nil {
		t.Fatal("REJECTED -> ACCEPTED should be rejected")
	}
	if err := Bid.Can(string(models.BidStatusAccepted), string(models.BidStatusRejected)); err == nil {
		t.Fatal("ACCEPTED -> REJECTED should be rejected")
	}
}

func TestPaymentLifecycleIsTerminal(t *testing.T) {
	if err := Payment.Can(string(models.PaymentStatusUnpaid), string(models.PaymentStatusPaid)); err != nil {
		t.Fatalf("UNPAID -> PAID should be allowed: %v", err)
	}
	if err := Payment.Can(string(models.PaymentStatusPaid), string(models.PaymentStatusUnpaid)); err == nil {
		t.Fatal("PAID -> UNPAID should be rejected")
	}
}

func TestNextFrom(t *testing.T) {
	next := Bid.NextFrom(string(models.BidStatusPending))
	if len(next) != 2 {
		t.Fatalf("expected two transitions out of PENDING, got %v", next)
	}
	if got := Work.NextFrom(string(models.WorkStatusCompleted)); len(got) != 0 {
		t.Fatalf("COMPLETED work should be terminal, got %v", got)
	}
}
