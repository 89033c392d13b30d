package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

const minPasswordLength = 8

// StaffService handles password accounts for admins and employees.
type StaffService struct {
	db        *gorm.DB
	notifier  *Notifier
	jwtSecret string
	tokenTTL  time.Duration
}

func NewStaffService(db *gorm.DB, notifier *Notifier, jwtSecret string, tokenTTL time.Duration) *StaffService {
	return &StaffService{db: db, notifier: notifier, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type EmployeeRegistration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func hashNewPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", validationError("password must be at least %d characters", minPasswordLength)
	}
	return utils.HashPassword(password)
}

// CreateAdmin seeds an admin account. Used by the create-admin command.
func (s *StaffService) CreateAdmin(ctx context.Context, name, email, password string) (*models.Admin, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := hashNewPassword(password)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Admin{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, conflictError("admin %s already exists", email)
	}

	admin := models.Admin{Name: strings.TrimSpace(name), Email: email, PasswordHash: hash}
	if err := db.Create(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *StaffService) AdminLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var admin models.Admin
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(admin.PasswordHash, password) {
		return nil, ErrBadCredentials
	}

	return issueSession(s.jwtSecret, s.tokenTTL, admin.ID, models.RoleAdmin, &admin)
}

// RegisterEmployee creates an unapproved employee. An admin approves it
// through AccountService.SetApproval.
func (s *StaffService) RegisterEmployee(ctx context.Context, req EmployeeRegistration) (*models.Employee, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, validationError("name is required")
	}
	hash, err := hashNewPassword(req.Password)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Employee{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, conflictError("an employee with email %s already exists", email)
	}

	employee := models.Employee{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
	}
	if err := db.Create(&employee).Error; err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, registrationPendingMessage(employee.Name, employee.Email, employee.Phone, models.RoleEmployee))
	return &employee, nil
}

func (s *StaffService) EmployeeLogin(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var employee models.Employee
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&employee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(employee.PasswordHash, password) {
		return nil, ErrBadCredentials
	}
	if !employee.IsApproved {
		return nil, ErrNotApproved
	}

	return issueSession(s.jwtSecret, s.tokenTTL, employee.ID, models.RoleEmployee, &employee)
}

func (s *StaffService) GetAdmin(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.WithContext(ctx).First(&admin, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("admin")
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *StaffService) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	err := s.db.WithContext(ctx).First(&employee, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("employee")
	}
	if err != nil {
		return nil, err
	}
	return &employee, nil
}
