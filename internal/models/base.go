package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// BaseModel provides shared columns for all tables.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate ensures UUIDs are generated for new records.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Base exposes the shared columns of any model embedding BaseModel.
func (b *BaseModel) Base() *BaseModel {
	return b
}

// enum is implemented by the string-backed status and type columns below.
type enum interface {
	~string
}

// oneOf is the single membership check shared by every enum type.
func oneOf[T enum](v T, allowed []T) bool {
	return lo.Contains(allowed, v)
}

// Role identifies the kind of account a session token belongs to.
type Role string

const (
	RoleDealer     Role = "dealer"
	RoleTechnician Role = "technician"
	RoleBackOffice Role = "backoffice"
	RoleAdmin      Role = "admin"
	RoleEmployee   Role = "employee"
)

// OTPRoles are the roles that sign in with a one-time code.
var OTPRoles = []Role{RoleDealer, RoleTechnician, RoleBackOffice}

// StaffRoles are the roles that sign in with a password.
var StaffRoles = []Role{RoleAdmin, RoleEmployee}

func (r Role) Valid() bool {
	return oneOf(r, append(append([]Role{}, OTPRoles...), StaffRoles...))
}

// IsStaff reports whether r is an admin or employee role.
func (r Role) IsStaff() bool {
	return oneOf(r, StaffRoles)
}
