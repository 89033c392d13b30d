package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

// ProductHandler manages product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated products with optional filters. Inactive
// products are only listed for staff.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{})

	if id, err := queryUUID(c, "subcategory_id"); err != nil {
		return err
	} else if id != nil {
		query = query.Where("subcategory_id = ?", *id)
	}

	if id, err := queryUUID(c, "category_id"); err != nil {
		return err
	} else if id != nil {
		query = query.Where("subcategory_id IN (?)",
			h.db.Model(&models.Subcategory{}).Select("id").Where("category_id = ?", *id))
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", q, q)
	}

	if s, ok := middleware.GetSession(c); !ok || !s.Role.IsStaff() {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Subcategory").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return listResponse(c, products, pg, total)
}

// GetProduct loads a product with its subcategory and category.
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.Preload("Subcategory.Category").First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

type productRequest struct {
	SubcategoryID *uuid.UUID       `json:"subcategory_id"`
	Name          *string          `json:"name"`
	SKU           *string          `json:"sku"`
	Description   *string          `json:"description"`
	Price         *decimal.Decimal `json:"price"`
	Stock         *int             `json:"stock"`
	ImageURL      *string          `json:"image_url"`
	IsActive      *bool            `json:"is_active"`
}

// CreateProduct handles product creation.
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	product := models.Product{IsActive: true}
	if err := h.apply(&product, req); err != nil {
		return err
	}
	if product.Name == "" || product.SKU == "" || req.Price == nil {
		return fiber.NewError(fiber.StatusBadRequest, "name, sku and price are required")
	}
	if err := h.skuAvailable(product.SKU, uuid.Nil); err != nil {
		return err
	}

	if err := h.db.Create(&product).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct applies the fields present in the body.
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.apply(&product, req); err != nil {
		return err
	}
	if req.SKU != nil {
		if err := h.skuAvailable(product.SKU, product.ID); err != nil {
			return err
		}
	}

	if err := h.db.Select("*").Omit("created_at").Updates(&product).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": product})
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	return deleteSimple(c, h.db, &models.Product{}, "product")
}

func (h *ProductHandler) apply(product *models.Product, req productRequest) error {
	if req.SubcategoryID != nil {
		if *req.SubcategoryID == uuid.Nil {
			product.SubcategoryID = nil
		} else {
			if err := h.db.Select("id").First(&models.Subcategory{}, "id = ?", *req.SubcategoryID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusNotFound, "subcategory not found")
				}
				return err
			}
			product.SubcategoryID = req.SubcategoryID
		}
	}
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.SKU != nil {
		product.SKU = strings.ToUpper(strings.TrimSpace(*req.SKU))
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "price cannot be negative")
		}
		product.Price = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "stock cannot be negative")
		}
		product.Stock = *req.Stock
	}
	if req.ImageURL != nil {
		product.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	return nil
}

func (h *ProductHandler) skuAvailable(sku string, self uuid.UUID) error {
	var count int64
	if err := h.db.Model(&models.Product{}).Where("sku = ? AND id <> ?", sku, self).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fiber.NewError(fiber.StatusConflict, "sku already exists")
	}
	return nil
}
