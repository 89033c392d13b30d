package models

import "github.com/google/uuid"

type RMAStatus string

const (
	RMAStatusReceived RMAStatus = "RECEIVED"
	RMAStatusAccepted RMAStatus = "ACCEPTED"
	RMAStatusRejected RMAStatus = "REJECTED"
	RMAStatusResolved RMAStatus = "RESOLVED"
)

// RMAInFlight lists the statuses that block a second request from the same contact.
var RMAInFlight = []RMAStatus{RMAStatusReceived, RMAStatusAccepted}

func (s RMAStatus) Valid() bool {
	return oneOf(s, []RMAStatus{RMAStatusReceived, RMAStatusAccepted, RMAStatusRejected, RMAStatusResolved})
}

// RMA is a return-merchandise request.
type RMA struct {
	BaseModel
	DealerID     *uuid.UUID `gorm:"type:uuid;index" json:"dealer_id,omitempty"`
	Name         string     `json:"name"`
	Phone        string     `gorm:"index:idx_rma_contact" json:"phone"`
	Email        string     `gorm:"index:idx_rma_contact" json:"email"`
	ProductName  string     `json:"product_name"`
	SerialNumber string     `json:"serial_number"`
	Issue        string     `json:"issue"`
	Status       RMAStatus  `gorm:"index;default:RECEIVED" json:"status"`
	Remarks      string     `json:"remarks"`
}

// TableName avoids the "rm_as" pluralisation.
func (RMA) TableName() string {
	return "rmas"
}
