package statemachine

import "github.com/taskbid/taskbid-api/internal/models"

// The three lifecycles of the marketplace. All are linear and forward-only:
// there is no un-assign, no re-open, no un-pay.

var Task = New("task", []Transition{
	{From: string(models.TaskStatusOpen), To: string(models.TaskStatusAssigned)},
	{From: string(models.TaskStatusAssigned), To: string(models.TaskStatusCompleted)},
})

var Bid = New("bid", []Transition{
	{From: string(models.BidStatusPending), To: string(models.BidStatusAccepted)},
	{From: string(models.BidStatusPending), To: string(models.BidStatusRejected)},
})

var Work = New("work", []Transition{
	{From: string(models.WorkStatusInProgress), To: string(models.WorkStatusCompleted)},
})

var Payment = New("payment", []Transition{
	{From: string(models.PaymentStatusUnpaid), To: string(models.PaymentStatusPaid)},
})
