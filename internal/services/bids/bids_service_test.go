package bids

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Freelancer{},
		&models.Project{},
		&models.Task{},
		&models.Bid{},
		&models.Work{},
		&models.Payment{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedFreelancer(t *testing.T, db *gorm.DB, email string) models.Freelancer {
	t.Helper()

	user := models.User{
		Names:    "Test Freelancer",
		Email:    email,
		Password: "hashed",
		Role:     models.RoleFreelancer,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	freelancer := models.Freelancer{UserID: user.ID}
	if err := db.Create(&freelancer).Error; err != nil {
		t.Fatalf("seed freelancer: %v", err)
	}
	return freelancer
}

var seedTaskSeq atomic.Int64

func seedTask(t *testing.T, db *gorm.DB, status models.TaskStatus, price int64) models.Task {
	t.Helper()

	project := models.Project{Name: fmt.Sprintf("Project %d for %s", seedTaskSeq.Add(1), t.Name()), Description: "test"}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	task := models.Task{
		ProjectID:   project.ID,
		Name:        "Task for " + t.Name(),
		Description: "test",
		Price:       price,
		Status:      status,
	}
	if err := db.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return task
}

func wantFiberError(t *testing.T, err error, code int) *fiber.Error {
	t.Helper()

	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var fe *fiber.Error
	if !errors.As(err, &fe) {
		t.Fatalf("expected *fiber.Error, got %T: %v", err, err)
	}
	if fe.Code != code {
		t.Fatalf("expected status %d, got %d (%s)", code, fe.Code, fe.Message)
	}
	return fe
}

func TestSubmitCreatesPendingBid(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 100)

	bid, err := svc.Submit(task.ID, freelancer.ID, "I can do this")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if bid.Status != models.BidStatusPending {
		t.Fatalf("expected PENDING, got %s", bid.Status)
	}
	if bid.TaskID != task.ID || bid.FreelancerID != freelancer.ID {
		t.Fatal("bid not linked to task and freelancer")
	}
}

func TestSubmitRejectsMissingTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")
	ghost := seedTask(t, db, models.TaskStatusOpen, 100)
	db.Delete(&models.Task{}, "id = ?", ghost.ID)

	_, err := svc.Submit(ghost.ID, freelancer.ID, "hello")
	fe := wantFiberError(t, err, fiber.StatusBadRequest)
	if fe.Message != "Task does not exist" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestSubmitRejectsNonOpenTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")

	for _, status := range []models.TaskStatus{models.TaskStatusAssigned, models.TaskStatusCompleted} {
		task := seedTask(t, db, status, 100)
		_, err := svc.Submit(task.ID, freelancer.ID, "hello")
		fe := wantFiberError(t, err, fiber.StatusBadRequest)
		if fe.Message != "Task is not available for bidding" {
			t.Fatalf("unexpected message for %s task: %s", status, fe.Message)
		}
	}
}

func TestSubmitRejectsDuplicateBid(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 100)

	if _, err := svc.Submit(task.ID, freelancer.ID, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := svc.Submit(task.ID, freelancer.ID, "second")
	fe := wantFiberError(t, err, fiber.StatusBadRequest)
	if fe.Message != "You have already bid on this task" {
		t.Fatalf("unexpected message: %s", fe.Message)
	}
}

func TestAcceptCreatesWorkAndPaymentAndRejectsSiblings(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	winner := seedFreelancer(t, db, "winner@test.dev")
	loser := seedFreelancer(t, db, "loser@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 250)

	winnerBid, err := svc.Submit(task.ID, winner.ID, "pick me")
	if err != nil {
		t.Fatalf("winner submit: %v", err)
	}
	loserBid, err := svc.Submit(task.ID, loser.ID, "no, me")
	if err != nil {
		t.Fatalf("loser submit: %v", err)
	}

	endDate := time.Now().AddDate(0, 0, 14)
	accepted, work, err := svc.Accept(winnerBid.ID, endDate)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if accepted.Status != models.BidStatusAccepted {
		t.Fatalf("expected ACCEPTED, got %s", accepted.Status)
	}
	if work.TaskID != task.ID || work.FreelancerID != winner.ID {
		t.Fatal("work not linked to task and winning freelancer")
	}
	if work.Status != models.WorkStatusInProgress {
		t.Fatalf("expected IN_PROGRESS work, got %s", work.Status)
	}

	var freshTask models.Task
	if err := db.First(&freshTask, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if freshTask.Status != models.TaskStatusAssigned {
		t.Fatalf("expected ASSIGNED task, got %s", freshTask.Status)
	}

	var payment models.Payment
	if err := db.First(&payment, "work_id = ?", work.ID).Error; err != nil {
		t.Fatalf("load payment: %v", err)
	}
	if payment.Status != models.PaymentStatusUnpaid {
		t.Fatalf("expected UNPAID payment, got %s", payment.Status)
	}
	if payment.Amount != task.Price {
		t.Fatalf("expected payment amount %d, got %d", task.Price, payment.Amount)
	}

	var freshLoser models.Bid
	if err := db.First(&freshLoser, "id = ?", loserBid.ID).Error; err != nil {
		t.Fatalf("reload sibling bid: %v", err)
	}
	if freshLoser.Status != models.BidStatusRejected {
		t.Fatalf("expected sibling bid REJECTED, got %s", freshLoser.Status)
	}
}

func TestAcceptFailsForAssignedTask(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	first := seedFreelancer(t, db, "first@test.dev")
	second := seedFreelancer(t, db, "second@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 100)

	firstBid, err := svc.Submit(task.ID, first.ID, "one")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	secondBid, err := svc.Submit(task.ID, second.ID, "two")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, _, err := svc.Accept(firstBid.ID, time.Now().AddDate(0, 0, 7)); err != nil {
		t.Fatalf("first accept: %v", err)
	}

	// the sibling was auto-rejected, so the second accept must fail
	_, _, err = svc.Accept(secondBid.ID, time.Now().AddDate(0, 0, 7))
	wantFiberError(t, err, fiber.StatusBadRequest)

	var workCount int64
	db.Model(&models.Work{}).Where("task_id = ?", task.ID).Count(&workCount)
	if workCount != 1 {
		t.Fatalf("expected exactly one work, got %d", workCount)
	}
}

func TestAcceptUnknownBid(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 100)

	bid, err := svc.Submit(task.ID, freelancer.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	db.Delete(&models.Bid{}, "id = ?", bid.ID)

	_, _, err = svc.Accept(bid.ID, time.Now().AddDate(0, 0, 7))
	wantFiberError(t, err, fiber.StatusNotFound)
}

func TestRejectLeavesTaskOpen(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	freelancer := seedFreelancer(t, db, "one@test.dev")
	task := seedTask(t, db, models.TaskStatusOpen, 100)

	bid, err := svc.Submit(task.ID, freelancer.ID, "hello")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	rejected, err := svc.Reject(bid.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != models.BidStatusRejected {
		t.Fatalf("expected REJECTED, got %s", rejected.Status)
	}

	var freshTask models.Task
	if err := db.First(&freshTask, "id = ?", task.ID).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	if freshTask.Status != models.TaskStatusOpen {
		t.Fatalf("task should stay OPEN, got %s", freshTask.Status)
	}

	// decided bids cannot be re-decided
	_, err = svc.Reject(bid.ID)
	wantFiberError(t, err, fiber.StatusBadRequest)
}
