package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/metrics"
	"github.com/example/ariss/internal/models"
)

type DiscountService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewDiscountService(db *gorm.DB) *DiscountService {
	return &DiscountService{db: db, now: time.Now}
}

type CreateDiscountInput struct {
	DealerID   uuid.UUID           `json:"dealer_id"`
	ProductID  uuid.UUID           `json:"product_id"`
	Type       models.DiscountType `json:"type"`
	Amount     *decimal.Decimal    `json:"amount"`
	Percentage *decimal.Decimal    `json:"percentage"`
	ExpiryDate time.Time           `json:"expiry_date"`
}

var hundred = decimal.NewFromInt(100)

func (in CreateDiscountInput) validate(now time.Time) error {
	if in.DealerID == uuid.Nil || in.ProductID == uuid.Nil {
		return validationError("dealer_id and product_id are required")
	}
	switch in.Type {
	case models.DiscountTypeAmount:
		if in.Amount == nil || in.Percentage != nil {
			return validationError("AMOUNT discounts take amount only")
		}
		if !in.Amount.IsPositive() {
			return validationError("amount must be greater than zero")
		}
	case models.DiscountTypePercentage:
		if in.Percentage == nil || in.Amount != nil {
			return validationError("PERCENTAGE discounts take percentage only")
		}
		if !in.Percentage.IsPositive() || in.Percentage.GreaterThan(hundred) {
			return validationError("percentage must be within (0, 100]")
		}
	default:
		return validationError("type must be AMOUNT or PERCENTAGE")
	}
	if !in.ExpiryDate.After(now) {
		return validationError("expiry_date must be in the future")
	}
	return nil
}

func (s *DiscountService) Create(ctx context.Context, in CreateDiscountInput) (*models.Discount, error) {
	if err := in.validate(s.now()); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Dealer{}, "id = ?", in.DealerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("dealer")
		}
		return nil, err
	}
	if err := db.Select("id").First(&models.Product{}, "id = ?", in.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("product")
		}
		return nil, err
	}

	discount := models.Discount{
		DealerID:   in.DealerID,
		ProductID:  in.ProductID,
		Type:       in.Type,
		Amount:     in.Amount,
		Percentage: in.Percentage,
		ExpiryDate: in.ExpiryDate,
		IsActive:   true,
	}
	if err := db.Create(&discount).Error; err != nil {
		return nil, err
	}
	return &discount, nil
}

func (s *DiscountService) Get(ctx context.Context, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	err := s.db.WithContext(ctx).Preload("Product").First(&discount, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("discount")
	}
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// DiscountFilter narrows List. UsableOnly hides inactive and expired rows.
type DiscountFilter struct {
	DealerID   *uuid.UUID
	ProductID  *uuid.UUID
	UsableOnly bool
	Limit      int
	Offset     int
}

func (s *DiscountService) List(ctx context.Context, filter DiscountFilter) ([]models.Discount, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Discount{})
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.UsableOnly {
		query = query.Where("is_active = ? AND expiry_date > ?", true, s.now())
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var discounts []models.Discount
	if err := query.Preload("Product").Order("expiry_date ASC").Find(&discounts).Error; err != nil {
		return nil, 0, err
	}
	return discounts, total, nil
}

func (s *DiscountService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.Discount{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundError("discount")
	}
	return nil
}

// SweepExpired deletes every discount whose expiry date has passed and
// returns how many rows went.
func (s *DiscountService) SweepExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("expiry_date < ?", s.now()).Delete(&models.Discount{})
	if res.Error != nil {
		return 0, res.Error
	}
	metrics.DiscountsSwept.Add(float64(res.RowsAffected))
	zap.L().Info("expired discounts swept", zap.Int64("deleted", res.RowsAffected))
	return res.RowsAffected, nil
}

// resolveDiscount loads a discount for checkout and checks it may be applied
// by dealerID to productID.
func resolveDiscount(tx *gorm.DB, id, dealerID, productID uuid.UUID, now time.Time) (*models.Discount, error) {
	var discount models.Discount
	err := tx.First(&discount, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("discount")
	}
	if err != nil {
		return nil, err
	}
	if discount.DealerID != dealerID || discount.ProductID != productID {
		return nil, validationError("discount %s does not apply to this product", id)
	}
	if !discount.Usable(now) {
		return nil, validationError("discount %s is inactive or expired", id)
	}
	return &discount, nil
}
