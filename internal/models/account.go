package models

import "github.com/google/uuid"

// Dealer is a business customer identified by its GSTIN.
type Dealer struct {
	BaseModel
	BusinessName    string       `json:"business_name"`
	TradeName       string       `json:"trade_name"`
	GSTIN           string       `gorm:"column:gstin;uniqueIndex" json:"gstin"`
	ContactName     string       `json:"contact_name"`
	Email           string       `gorm:"uniqueIndex" json:"email"`
	Phone           string       `json:"phone"`
	BillingAddress  string       `json:"billing_address"`
	ShippingAddress string       `json:"shipping_address"`
	IsApproved      bool         `gorm:"default:false" json:"is_approved"`
	Technicians     []Technician `json:"technicians,omitempty"`
	BackOffices     []BackOffice `json:"back_offices,omitempty"`
}

// Technician is field personnel working for one dealer.
type Technician struct {
	BaseModel
	DealerID   uuid.UUID `gorm:"type:uuid;index" json:"dealer_id"`
	Dealer     *Dealer   `json:"dealer,omitempty"`
	Name       string    `json:"name"`
	Email      string    `gorm:"uniqueIndex" json:"email"`
	Phone      string    `json:"phone"`
	IsApproved bool      `gorm:"default:false" json:"is_approved"`
}

// BackOffice is office staff working for one dealer.
type BackOffice struct {
	BaseModel
	DealerID   uuid.UUID `gorm:"type:uuid;index" json:"dealer_id"`
	Dealer     *Dealer   `json:"dealer,omitempty"`
	Name       string    `json:"name"`
	Email      string    `gorm:"uniqueIndex" json:"email"`
	Phone      string    `json:"phone"`
	IsApproved bool      `gorm:"default:false" json:"is_approved"`
}

// TableName keeps the table name readable.
func (BackOffice) TableName() string {
	return "back_offices"
}

// Admin is a platform operator with password login.
type Admin struct {
	BaseModel
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	PasswordHash string `json:"-"`
}

// Employee is internal staff created through self registration and admin approval.
type Employee struct {
	BaseModel
	Name         string `json:"name"`
	Email        string `gorm:"uniqueIndex" json:"email"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"-"`
	IsApproved   bool   `gorm:"default:false" json:"is_approved"`
}
