package works

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
	"github.com/taskbid/taskbid-api/internal/services/wallet"
)

// Service owns work submission and payment. Payment's UNPAID -> PAID flip is
// the only payment-completion signal and the idempotency gate for crediting
// the freelancer.
type Service struct {
	DB     *gorm.DB
	Wallet *wallet.WalletService
}

func NewService(db *gorm.DB, walletService *wallet.WalletService) *Service {
	return &Service{DB: db, Wallet: walletService}
}

// Complete records the completion URL and moves the work and its task to
// COMPLETED. Resubmitting a completed work is rejected.
func (s *Service) Complete(workID, freelancerID uuid.UUID, completionURL string) (*models.Work, error) {
	var work models.Work

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&work, "id = ?", workID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Work not found")
			}
			return err
		}

		if work.FreelancerID != freelancerID {
			return fiber.NewError(fiber.StatusForbidden, "Only the assigned freelancer can submit this work")
		}

		res := tx.Model(&models.Work{}).
			Where("id = ? AND status = ?", work.ID, models.WorkStatusInProgress).
			Updates(map[string]interface{}{
				"completion_url": completionURL,
				"status":         models.WorkStatusCompleted,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Work has already been completed")
		}
		work.CompletionURL = completionURL
		work.Status = models.WorkStatusCompleted

		return tx.Model(&models.Task{}).
			Where("id = ? AND status <> ?", work.TaskID, models.TaskStatusCompleted).
			Update("status", models.TaskStatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	return &work, nil
}

// Pay flips the payment to PAID and credits the freelancer's balance by the
// payment amount, exactly once: the guarded status update wins for at most one
// of any set of concurrent duplicate pay requests. Work and task are cascaded
// to COMPLETED in case the admin pays before the work was submitted.
func (s *Service) Pay(workID uuid.UUID) (*models.Work, *models.Payment, error) {
	var work models.Work
	var payment models.Payment

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&work, "id = ?", workID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Work not found")
			}
			return err
		}

		if err := tx.First(&payment, "work_id = ?", work.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Payment not found for this work")
			}
			return err
		}

		res := tx.Model(&models.Payment{}).
			Where("id = ? AND status = ?", payment.ID, models.PaymentStatusUnpaid).
			Update("status", models.PaymentStatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Work has already been paid")
		}
		payment.Status = models.PaymentStatusPaid

		desc := "Payment for task " + work.TaskID.String()
		if err := s.Wallet.CreditFreelancer(tx, work.FreelancerID, payment.Amount, work.ID, desc); err != nil {
			return err
		}

		if err := tx.Model(&models.Work{}).
			Where("id = ? AND status <> ?", work.ID, models.WorkStatusCompleted).
			Update("status", models.WorkStatusCompleted).Error; err != nil {
			return err
		}
		work.Status = models.WorkStatusCompleted

		return tx.Model(&models.Task{}).
			Where("id = ? AND status <> ?", work.TaskID, models.TaskStatusCompleted).
			Update("status", models.TaskStatusCompleted).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &work, &payment, nil
}
