package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

// CatalogHandler manages categories and subcategories.
type CatalogHandler struct {
	db *gorm.DB
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(db *gorm.DB) *CatalogHandler {
	return &CatalogHandler{db: db}
}

func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	var categories []models.Category
	return listSimple(c, h.db.Preload("Subcategories"), &models.Category{}, &categories)
}

func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	var category models.Category
	return getSimple(c, h.db.Preload("Subcategories"), &category, "category")
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}

	category := models.Category{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := h.db.Create(&category).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": category})
}

func (h *CatalogHandler) UpdateCategory(c *fiber.Ctx) error {
	var category models.Category
	return updateSimple(c, h.db, &category, "category", func() error {
		if strings.TrimSpace(category.Name) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}
		return nil
	})
}

func (h *CatalogHandler) DeleteCategory(c *fiber.Ctx) error {
	return deleteSimple(c, h.db, &models.Category{}, "category")
}

func (h *CatalogHandler) ListSubcategories(c *fiber.Ctx) error {
	query := h.db
	categoryID, err := queryUUID(c, "category_id")
	if err != nil {
		return err
	}
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}

	var subcategories []models.Subcategory
	return listSimple(c, query, &models.Subcategory{}, &subcategories)
}

func (h *CatalogHandler) GetSubcategory(c *fiber.Ctx) error {
	var subcategory models.Subcategory
	return getSimple(c, h.db.Preload("Category"), &subcategory, "subcategory")
}

type subcategoryRequest struct {
	CategoryID  uuid.UUID `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

func (h *CatalogHandler) CreateSubcategory(c *fiber.Ctx) error {
	var req subcategoryRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if err := h.categoryExists(req.CategoryID); err != nil {
		return err
	}

	subcategory := models.Subcategory{
		CategoryID:  req.CategoryID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
	}
	if err := h.db.Create(&subcategory).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": subcategory})
}

func (h *CatalogHandler) UpdateSubcategory(c *fiber.Ctx) error {
	var subcategory models.Subcategory
	return updateSimple(c, h.db, &subcategory, "subcategory", func() error {
		return h.categoryExists(subcategory.CategoryID)
	})
}

func (h *CatalogHandler) DeleteSubcategory(c *fiber.Ctx) error {
	return deleteSimple(c, h.db, &models.Subcategory{}, "subcategory")
}

func (h *CatalogHandler) categoryExists(id uuid.UUID) error {
	if id == uuid.Nil {
		return fiber.NewError(fiber.StatusBadRequest, "category_id is required")
	}
	if err := h.db.Select("id").First(&models.Category{}, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "category not found")
		}
		return err
	}
	return nil
}

// Generic helpers for the simple CRUD tables.

func listSimple(c *fiber.Ctx, query *gorm.DB, model, out any) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := query.Model(model).Count(&total).Error; err != nil {
		return err
	}
	if err := query.Limit(pg.Limit).Offset(pg.Offset).Order("created_at desc").
		Find(out).Error; err != nil {
		return err
	}
	return listResponse(c, out, pg, total)
}

func getSimple(c *fiber.Ctx, query *gorm.DB, out any, what string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := query.First(out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, what+" not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

// updateSimple loads the row, overlays the request body, runs validate and
// saves. The identity columns of the loaded row always win over the body.
func updateSimple(c *fiber.Ctx, db *gorm.DB, model interface{ Base() *models.BaseModel }, what string, validate func() error) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := db.First(model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, what+" not found")
		}
		return err
	}

	base := *model.Base()
	if err := parseBody(c, model); err != nil {
		return err
	}
	*model.Base() = base

	if validate != nil {
		if err := validate(); err != nil {
			return err
		}
	}
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": model})
}

func deleteSimple(c *fiber.Ctx, db *gorm.DB, model any, what string) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	res := db.Delete(model, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, what+" not found")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
