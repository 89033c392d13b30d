package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
)

// WishlistService keeps one row per dealer and product.
type WishlistService struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

func (s *WishlistService) Add(ctx context.Context, dealerID, productID uuid.UUID) (*models.Wishlist, error) {
	if productID == uuid.Nil {
		return nil, validationError("product_id is required")
	}

	var item models.Wishlist
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, "id = ?", productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFoundError("product")
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Wishlist{}).
			Where("dealer_id = ? AND product_id = ?", dealerID, productID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictError("product is already in the wishlist")
		}

		item = models.Wishlist{DealerID: dealerID, ProductID: productID}
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		item.Product = &product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *WishlistService) List(ctx context.Context, dealerID uuid.UUID) ([]models.Wishlist, error) {
	var items []models.Wishlist
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("dealer_id = ?", dealerID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Remove deletes by wishlist row id or product id, whichever matches the dealer's row.
func (s *WishlistService) Remove(ctx context.Context, dealerID, id uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("dealer_id = ? AND (id = ? OR product_id = ?)", dealerID, id, id).
		Delete(&models.Wishlist{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundError("wishlist item")
	}
	return nil
}
