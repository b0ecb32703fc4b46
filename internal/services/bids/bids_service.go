package bids

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/statemachine"
)

// Service owns the bid lifecycle: submission preconditions, terminal
// transitions, and the accept workflow that spawns the work and payment.
type Service struct {
	DB *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Submit creates a PENDING bid after checking the task exists, is still open,
// and this freelancer has not already bid on it.
func (s *Service) Submit(taskID, freelancerID uuid.UUID, message string) (*models.Bid, error) {
	var task models.Task
	if err := s.DB.Select("id", "status").First(&task, "id = ?", taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusBadRequest, "Task does not exist")
		}
		return nil, err
	}

	if task.Status != models.TaskStatusOpen {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Task is not available for bidding")
	}

	var existing models.Bid
	err := s.DB.Select("id").
		Where("task_id = ? AND freelancer_id = ?", taskID, freelancerID).
		First(&existing).Error
	if err == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "You have already bid on this task")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	bid := models.Bid{
		TaskID:       taskID,
		FreelancerID: freelancerID,
		Message:      message,
		Status:       models.BidStatusPending,
	}
	if err := s.DB.Create(&bid).Error; err != nil {
		// the composite unique index catches racing duplicates
		return nil, fiber.NewError(fiber.StatusBadRequest, "You have already bid on this task")
	}
	return &bid, nil
}

// Accept runs the whole assignment in one transaction: the bid goes ACCEPTED,
// a work (IN_PROGRESS, deadline = endDate) and its UNPAID payment are created,
// the task is assigned and every sibling PENDING bid is rejected. The
// OPEN -> ASSIGNED task flip is the serialization point: its RowsAffected
// guard makes sure two concurrent accepts for the same task cannot both win.
func (s *Service) Accept(bidID uuid.UUID, endDate time.Time) (*models.Bid, *models.Work, error) {
	var bid models.Bid
	var work models.Work

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&bid, "id = ?", bidID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Bid does not exist")
			}
			return err
		}

		if err := statemachine.Bid.Can(string(bid.Status), string(models.BidStatusAccepted)); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		var task models.Task
		if err := tx.First(&task, "id = ?", bid.TaskID).Error; err != nil {
			return err
		}

		res := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", bid.TaskID, models.TaskStatusOpen).
			Update("status", models.TaskStatusAssigned)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Task is not open for assignment")
		}

		res = tx.Model(&models.Bid{}).
			Where("id = ? AND status = ?", bid.ID, models.BidStatusPending).
			Update("status", models.BidStatusAccepted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Bid has already been decided")
		}
		bid.Status = models.BidStatusAccepted

		work = models.Work{
			TaskID:       bid.TaskID,
			FreelancerID: bid.FreelancerID,
			Status:       models.WorkStatusInProgress,
			StartDate:    time.Now(),
			EndDate:      endDate,
		}
		if err := tx.Create(&work).Error; err != nil {
			return err
		}

		payment := models.Payment{
			WorkID: work.ID,
			Amount: task.Price,
			Status: models.PaymentStatusUnpaid,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		return tx.Model(&models.Bid{}).
			Where("task_id = ? AND id <> ? AND status = ?", bid.TaskID, bid.ID, models.BidStatusPending).
			Update("status", models.BidStatusRejected).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &bid, &work, nil
}

// Reject moves a PENDING bid to REJECTED. No side effects on the task or work.
func (s *Service) Reject(bidID uuid.UUID) (*models.Bid, error) {
	var bid models.Bid
	if err := s.DB.First(&bid, "id = ?", bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "Bid does not exist")
		}
		return nil, err
	}

	res := s.DB.Model(&models.Bid{}).
		Where("id = ? AND status = ?", bid.ID, models.BidStatusPending).
		Update("status", models.BidStatusRejected)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Bid has already been decided")
	}
	bid.Status = models.BidStatusRejected
	return &bid, nil
}
