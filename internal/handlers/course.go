package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/middleware"
	"github.com/example/ariss/internal/models"
)

// CourseHandler serves the training content CMS.
type CourseHandler struct {
	db *gorm.DB
}

func NewCourseHandler(db *gorm.DB) *CourseHandler {
	return &CourseHandler{db: db}
}

// visible limits non-staff callers, and staff without all=true, to published courses.
func (h *CourseHandler) visible(c *fiber.Ctx) *gorm.DB {
	if s, ok := middleware.GetSession(c); ok && s.Role.IsStaff() && c.QueryBool("all") {
		return h.db
	}
	return h.db.Where("is_published = ?", true)
}

func (h *CourseHandler) List(c *fiber.Ctx) error {
	var courses []models.Course
	return listSimple(c, h.visible(c), &models.Course{}, &courses)
}

func (h *CourseHandler) Get(c *fiber.Ctx) error {
	var course models.Course
	return getSimple(c, h.visible(c), &course, "course")
}

type courseRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ContentURL   string `json:"content_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	IsPublished  bool   `json:"is_published"`
}

func (h *CourseHandler) Create(c *fiber.Ctx) error {
	var req courseRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Title) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title is required")
	}

	course := models.Course{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		ContentURL:   req.ContentURL,
		ThumbnailURL: req.ThumbnailURL,
		IsPublished:  req.IsPublished,
	}
	if err := h.db.Create(&course).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": course})
}

func (h *CourseHandler) Update(c *fiber.Ctx) error {
	var course models.Course
	return updateSimple(c, h.db, &course, "course", func() error {
		if strings.TrimSpace(course.Title) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title is required")
		}
		return nil
	})
}

// TogglePublish flips is_published.
func (h *CourseHandler) TogglePublish(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	var course models.Course
	if err := h.db.First(&course, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "course not found")
		}
		return err
	}

	course.IsPublished = !course.IsPublished
	if err := h.db.Model(&course).Update("is_published", course.IsPublished).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": course})
}

func (h *CourseHandler) Delete(c *fiber.Ctx) error {
	return deleteSimple(c, h.db, &models.Course{}, "course")
}
