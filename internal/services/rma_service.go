package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
)

type RMAService struct {
	db       *gorm.DB
	notifier *Notifier
	alerts   AdminAlerter
}

func NewRMAService(db *gorm.DB, notifier *Notifier, alerts AdminAlerter) *RMAService {
	return &RMAService{db: db, notifier: notifier, alerts: alerts}
}

type CreateRMAInput struct {
	DealerID     *uuid.UUID `json:"dealer_id,omitempty"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	Email        string     `json:"email"`
	ProductName  string     `json:"product_name"`
	SerialNumber string     `json:"serial_number"`
	Issue        string     `json:"issue"`
}

// Create opens a return request. Only one RECEIVED or ACCEPTED request may
// exist per phone and email pair.
func (s *RMAService) Create(ctx context.Context, in CreateRMAInput) (*models.RMA, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	rma := models.RMA{
		DealerID:     in.DealerID,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        email,
		ProductName:  strings.TrimSpace(in.ProductName),
		SerialNumber: strings.TrimSpace(in.SerialNumber),
		Issue:        strings.TrimSpace(in.Issue),
		Status:       models.RMAStatusReceived,
	}
	if rma.Name == "" || rma.Phone == "" || rma.ProductName == "" || rma.SerialNumber == "" {
		return nil, validationError("name, phone, product_name and serial_number are required")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.RMA{}).
			Where("phone = ? AND email = ? AND status IN ?", rma.Phone, rma.Email, models.RMAInFlight).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return conflictError("a return request for this contact is already in progress")
		}
		return tx.Create(&rma).Error
	})
	if err != nil {
		return nil, err
	}

	if s.alerts != nil {
		dispatchAlert(ctx, func(ctx context.Context) { s.alerts.NewRMA(ctx, rma) })
	}
	return &rma, nil
}

func (s *RMAService) Accept(ctx context.Context, id uuid.UUID, remarks string) (*models.RMA, error) {
	return s.transition(ctx, id, models.RMAStatusAccepted, remarks)
}

func (s *RMAService) Reject(ctx context.Context, id uuid.UUID, remarks string) (*models.RMA, error) {
	return s.transition(ctx, id, models.RMAStatusRejected, remarks)
}

func (s *RMAService) Resolve(ctx context.Context, id uuid.UUID, remarks string) (*models.RMA, error) {
	return s.transition(ctx, id, models.RMAStatusResolved, remarks)
}

// transition overwrites the status whatever it was and notifies the customer once.
func (s *RMAService) transition(ctx context.Context, id uuid.UUID, status models.RMAStatus, remarks string) (*models.RMA, error) {
	rma, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"status": status}
	if r := strings.TrimSpace(remarks); r != "" {
		updates["remarks"] = r
		rma.Remarks = r
	}
	if err := s.db.WithContext(ctx).Model(rma).Updates(updates).Error; err != nil {
		return nil, err
	}
	rma.Status = status

	s.notifier.Notify(ctx, rmaStatusMessage(*rma))
	return rma, nil
}

func (s *RMAService) Get(ctx context.Context, id uuid.UUID) (*models.RMA, error) {
	var rma models.RMA
	err := s.db.WithContext(ctx).First(&rma, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("rma")
	}
	if err != nil {
		return nil, err
	}
	return &rma, nil
}

type RMAFilter struct {
	Status   models.RMAStatus
	DealerID *uuid.UUID
	Limit    int
	Offset   int
}

func (s *RMAService) List(ctx context.Context, filter RMAFilter) ([]models.RMA, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.RMA{})
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, 0, validationError("invalid rma status %q", filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rmas []models.RMA
	if err := query.Order("created_at DESC").Find(&rmas).Error; err != nil {
		return nil, 0, err
	}
	return rmas, total, nil
}

func (s *RMAService) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&models.RMA{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFoundError("rma")
	}
	return nil
}
