package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/ariss/internal/models"
	"github.com/example/ariss/internal/utils"
)

// AccountService owns the dealer, technician and back-office lifecycle:
// OTP-gated registration, admin approval and passwordless login.
type AccountService struct {
	db        *gorm.DB
	otp       *OTPService
	gst       GSTLookup
	notifier  *Notifier
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAccountService(db *gorm.DB, otp *OTPService, gst GSTLookup, notifier *Notifier, jwtSecret string, tokenTTL time.Duration) *AccountService {
	return &AccountService{
		db:        db,
		otp:       otp,
		gst:       gst,
		notifier:  notifier,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

type DealerRegistration struct {
	Email           string `json:"email"`
	OTP             string `json:"otp"`
	GSTIN           string `json:"gstin"`
	BusinessName    string `json:"business_name"`
	ContactName     string `json:"contact_name"`
	Phone           string `json:"phone"`
	BillingAddress  string `json:"billing_address"`
	ShippingAddress string `json:"shipping_address"`
}

// PersonnelRegistration registers a technician or back-office member under a dealer.
type PersonnelRegistration struct {
	DealerID uuid.UUID `json:"dealer_id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	OTP      string    `json:"otp"`
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string      `json:"token"`
	Role      models.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at"`
	Account   any         `json:"account"`
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", validationError("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", validationError("invalid email address")
	}
	return email, nil
}

// emailTaken reports whether any OTP account already uses email, so login by
// email stays unambiguous across the three account tables.
func emailTaken(tx *gorm.DB, email string) (bool, error) {
	for _, model := range []any{&models.Dealer{}, &models.Technician{}, &models.BackOffice{}} {
		var count int64
		if err := tx.Model(model).Where("email = ?", email).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccountService) RegisterDealer(ctx context.Context, req DealerRegistration) (*models.Dealer, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	gstin, err := NormalizeGSTIN(req.GSTIN)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Phone) == "" {
		return nil, validationError("phone is required")
	}

	db := s.db.WithContext(ctx)
	taken, err := emailTaken(db, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, conflictError("an account with email %s already exists", email)
	}
	var count int64
	if err := db.Model(&models.Dealer{}).Where("gstin = ?", gstin).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, conflictError("a dealer with GSTIN %s already exists", gstin)
	}

	dealer := models.Dealer{
		BusinessName:    strings.TrimSpace(req.BusinessName),
		GSTIN:           gstin,
		ContactName:     strings.TrimSpace(req.ContactName),
		Email:           email,
		Phone:           strings.TrimSpace(req.Phone),
		BillingAddress:  strings.TrimSpace(req.BillingAddress),
		ShippingAddress: strings.TrimSpace(req.ShippingAddress),
	}

	if s.gst != nil {
		details, err := s.gst.Lookup(ctx, gstin)
		if err != nil {
			return nil, err
		}
		if details != nil {
			dealer.TradeName = details.TradeName
			if dealer.BusinessName == "" {
				dealer.BusinessName = firstNonEmpty(details.TradeName, details.LegalName)
			}
			if dealer.BillingAddress == "" {
				dealer.BillingAddress = details.Address
			}
		}
	}
	if dealer.BusinessName == "" {
		return nil, validationError("business_name is required")
	}

	// The code is spent only once nothing but the insert can fail.
	if err := s.otp.RequireVerified(ctx, email, req.OTP); err != nil {
		return nil, err
	}
	if err := db.Create(&dealer).Error; err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, registrationPendingMessage(
		firstNonEmpty(dealer.ContactName, dealer.BusinessName), dealer.Email, dealer.Phone, models.RoleDealer))
	return &dealer, nil
}

func (s *AccountService) RegisterTechnician(ctx context.Context, req PersonnelRegistration) (*models.Technician, error) {
	var tech models.Technician
	err := s.registerPersonnel(ctx, req, models.RoleTechnician, func(email string) any {
		tech = models.Technician{
			DealerID: req.DealerID,
			Name:     strings.TrimSpace(req.Name),
			Email:    email,
			Phone:    strings.TrimSpace(req.Phone),
		}
		return &tech
	})
	if err != nil {
		return nil, err
	}
	return &tech, nil
}

func (s *AccountService) RegisterBackOffice(ctx context.Context, req PersonnelRegistration) (*models.BackOffice, error) {
	var member models.BackOffice
	err := s.registerPersonnel(ctx, req, models.RoleBackOffice, func(email string) any {
		member = models.BackOffice{
			DealerID: req.DealerID,
			Name:     strings.TrimSpace(req.Name),
			Email:    email,
			Phone:    strings.TrimSpace(req.Phone),
		}
		return &member
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *AccountService) registerPersonnel(ctx context.Context, req PersonnelRegistration, role models.Role, build func(email string) any) error {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return err
	}
	if strings.TrimSpace(req.Name) == "" {
		return validationError("name is required")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return validationError("phone is required")
	}
	if req.DealerID == uuid.Nil {
		return validationError("dealer_id is required")
	}

	db := s.db.WithContext(ctx)
	if err := db.Select("id").First(&models.Dealer{}, "id = ?", req.DealerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("dealer")
		}
		return err
	}
	taken, err := emailTaken(db, email)
	if err != nil {
		return err
	}
	if taken {
		return conflictError("an account with email %s already exists", email)
	}

	if err := s.otp.RequireVerified(ctx, email, req.OTP); err != nil {
		return err
	}

	if err := db.Create(build(email)).Error; err != nil {
		return err
	}

	s.notifier.Notify(ctx, registrationPendingMessage(strings.TrimSpace(req.Name), email, strings.TrimSpace(req.Phone), role))
	return nil
}

type contact struct {
	name  string
	email string
	phone string
}

// approvalTarget loads the account of role with id and returns it with the
// contact used for the approval notice.
func approvalTarget(db *gorm.DB, role models.Role, id uuid.UUID) (any, contact, error) {
	var (
		model any
		c     contact
		err   error
	)
	switch role {
	case models.RoleDealer:
		var d models.Dealer
		err = db.First(&d, "id = ?", id).Error
		model, c = &d, contact{firstNonEmpty(d.ContactName, d.BusinessName), d.Email, d.Phone}
	case models.RoleTechnician:
		var t models.Technician
		err = db.First(&t, "id = ?", id).Error
		model, c = &t, contact{t.Name, t.Email, t.Phone}
	case models.RoleBackOffice:
		var b models.BackOffice
		err = db.First(&b, "id = ?", id).Error
		model, c = &b, contact{b.Name, b.Email, b.Phone}
	case models.RoleEmployee:
		var e models.Employee
		err = db.First(&e, "id = ?", id).Error
		model, c = &e, contact{e.Name, e.Email, e.Phone}
	default:
		return nil, contact{}, validationError("role %q cannot be approved", role)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, contact{}, notFoundError(roleLabel(role))
	}
	return model, c, err
}

// SetApproval flips the approval flag of an account. Approving sends one
// notification; revoking is silent.
func (s *AccountService) SetApproval(ctx context.Context, role models.Role, id uuid.UUID, approved bool) error {
	db := s.db.WithContext(ctx)
	model, c, err := approvalTarget(db, role, id)
	if err != nil {
		return err
	}
	if err := db.Model(model).Update("is_approved", approved).Error; err != nil {
		return err
	}
	if approved {
		s.notifier.Notify(ctx, approvedMessage(c.name, c.email, c.phone, role))
	}
	return nil
}

// findOTPAccount resolves email to an account. With an empty role the tables
// are searched dealer first, then technician, then back office.
func findOTPAccount(db *gorm.DB, email string, role models.Role) (any, models.Role, uuid.UUID, bool, error) {
	roles := models.OTPRoles
	if role != "" {
		roles = []models.Role{role}
	}

	for _, r := range roles {
		var (
			model    any
			id       func() uuid.UUID
			approved func() bool
		)
		switch r {
		case models.RoleDealer:
			var d models.Dealer
			model, id, approved = &d, func() uuid.UUID { return d.ID }, func() bool { return d.IsApproved }
		case models.RoleTechnician:
			var t models.Technician
			model, id, approved = &t, func() uuid.UUID { return t.ID }, func() bool { return t.IsApproved }
		case models.RoleBackOffice:
			var b models.BackOffice
			model, id, approved = &b, func() uuid.UUID { return b.ID }, func() bool { return b.IsApproved }
		default:
			return nil, "", uuid.Nil, false, validationError("role must be one of dealer, technician, backoffice")
		}

		err := db.Where("email = ?", email).First(model).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, "", uuid.Nil, false, err
		}
		return model, r, id(), approved(), nil
	}
	return nil, "", uuid.Nil, false, notFoundError("account")
}

// Login signs an OTP account in. Unapproved accounts are refused after the
// code is consumed.
func (s *AccountService) Login(ctx context.Context, email, code string, role models.Role) (*LoginResult, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) == "" {
		return nil, validationError("otp is required")
	}

	account, resolved, id, approved, err := findOTPAccount(s.db.WithContext(ctx), email, role)
	if err != nil {
		return nil, err
	}
	if err := s.otp.consume(ctx, email, code); err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrNotApproved
	}

	return issueSession(s.jwtSecret, s.tokenTTL, id, resolved, account)
}

func issueSession(secret string, ttl time.Duration, id uuid.UUID, role models.Role, account any) (*LoginResult, error) {
	token, err := utils.GenerateToken(secret, id, role, ttl)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		Role:      role,
		ExpiresAt: time.Now().Add(ttl),
		Account:   account,
	}, nil
}

func (s *AccountService) GetDealer(ctx context.Context, id uuid.UUID) (*models.Dealer, error) {
	var dealer models.Dealer
	err := s.db.WithContext(ctx).
		Preload("Technicians").
		Preload("BackOffices").
		First(&dealer, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("dealer")
	}
	if err != nil {
		return nil, err
	}
	return &dealer, nil
}

func (s *AccountService) GetTechnician(ctx context.Context, id uuid.UUID) (*models.Technician, error) {
	var tech models.Technician
	err := s.db.WithContext(ctx).Preload("Dealer").First(&tech, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("technician")
	}
	if err != nil {
		return nil, err
	}
	return &tech, nil
}

func (s *AccountService) GetBackOffice(ctx context.Context, id uuid.UUID) (*models.BackOffice, error) {
	var member models.BackOffice
	err := s.db.WithContext(ctx).Preload("Dealer").First(&member, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFoundError("back office")
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// AccountFilter narrows staff listings.
type AccountFilter struct {
	Approved *bool
	DealerID *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

// ListAccounts pages through one account table. searchCols are matched
// case-insensitively against Search.
func ListAccounts[T any](ctx context.Context, db *gorm.DB, filter AccountFilter, searchCols ...string) ([]T, int64, error) {
	query := db.WithContext(ctx).Model(new(T))
	if filter.Approved != nil {
		query = query.Where("is_approved = ?", *filter.Approved)
	}
	if filter.DealerID != nil {
		query = query.Where("dealer_id = ?", *filter.DealerID)
	}
	if term := strings.TrimSpace(filter.Search); term != "" && len(searchCols) > 0 {
		like := "%" + strings.ToLower(term) + "%"
		clauses := make([]string, len(searchCols))
		args := make([]any, len(searchCols))
		for i, col := range searchCols {
			clauses[i] = "LOWER(" + col + ") LIKE ?"
			args[i] = like
		}
		query = query.Where(strings.Join(clauses, " OR "), args...)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []T
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}
	if err := query.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
