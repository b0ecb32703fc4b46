package wallet

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/taskbid/taskbid-api/internal/models"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// CreditFreelancer adds funds to the freelancer's balance and creates a ledger
// entry. The increment runs as a single UPDATE so concurrent credits cannot
// lose updates. This should be called within a DB transaction.
func (s *WalletService) CreditFreelancer(tx *gorm.DB, freelancerID uuid.UUID, amount int64, workID uuid.UUID, description string) error {
	if amount <= 0 {
		return errors.New("amount to credit must be greater than zero")
	}

	result := tx.Model(&models.Freelancer{}).
		Where("id = ?", freelancerID).
		Update("balance", gorm.Expr("balance + ?", amount))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("freelancer not found for id %s", freelancerID)
	}

	ledger := models.WalletTransaction{
		ID:           uuid.New(),
		FreelancerID: freelancerID,
		Amount:       amount,
		Type:         models.WalletTrxCredit,
		Description:  description,
		ReferenceID:  &workID,
	}

	if err := tx.Create(&ledger).Error; err != nil {
		return err
	}

	return nil
}
