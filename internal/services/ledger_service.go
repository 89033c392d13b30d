package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/ariss/internal/models"
)

// LedgerService settles credit checkouts.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

type LedgerPaymentInput struct {
	DealerID uuid.UUID       `json:"dealer_id"`
	LedgerID *uuid.UUID      `json:"ledger_id,omitempty"`
	Amount   decimal.Decimal `json:"amount"`
}

// RecordPayment adds a repayment to the named ledger, or to the dealer's
// oldest ledger with an open balance. Overpayment is refused, so
// balance_due = total_due - amount_paid never goes negative.
func (s *LedgerService) RecordPayment(ctx context.Context, in LedgerPaymentInput) (*models.Ledger, error) {
	if !in.Amount.IsPositive() {
		return nil, validationError("amount must be greater than zero")
	}
	if in.DealerID == uuid.Nil {
		return nil, validationError("dealer_id is required")
	}

	var ledger models.Ledger
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("dealer_id = ?", in.DealerID)
		if in.LedgerID != nil {
			query = query.Where("id = ?", *in.LedgerID)
		} else {
			query = query.Where("balance_due > 0").Order("created_at ASC")
		}
		if err := query.First(&ledger).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("open ledger")
			}
			return err
		}

		if in.Amount.GreaterThan(ledger.BalanceDue) {
			return validationError("amount %s exceeds balance due %s",
				in.Amount.StringFixed(2), ledger.BalanceDue.StringFixed(2))
		}

		ledger.AmountPaid = ledger.AmountPaid.Add(in.Amount)
		ledger.BalanceDue = ledger.TotalDue.Sub(ledger.AmountPaid)
		return tx.Model(&ledger).Updates(map[string]any{
			"amount_paid": ledger.AmountPaid,
			"balance_due": ledger.BalanceDue,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// List returns ledgers oldest first. A nil dealerID lists every dealer.
func (s *LedgerService) List(ctx context.Context, dealerID *uuid.UUID, openOnly bool) ([]models.Ledger, error) {
	query := s.db.WithContext(ctx)
	if dealerID != nil {
		query = query.Where("dealer_id = ?", *dealerID)
	}
	if openOnly {
		query = query.Where("balance_due > 0")
	}

	var ledgers []models.Ledger
	if err := query.Order("created_at ASC").Find(&ledgers).Error; err != nil {
		return nil, err
	}
	return ledgers, nil
}
