package model

import (
	"time"
)

// EstateStatus tracks where an estate is in the settlement/payment flow.
type EstateStatus string

const (
	EstateStatusDraft         EstateStatus = "draft"
	EstateStatusActive        EstateStatus = "active"
	EstateStatusPaid          EstateStatus = "paid"
	EstateStatusPaymentFailed EstateStatus = "payment_failed"
)

// IsPayable returns true if a new checkout may be started for the estate.
func (s EstateStatus) IsPayable() bool {
	return s != EstateStatusPaid
}

// Estate is the deceased person's estate being settled.
type Estate struct {
	ID            string       `json:"id" gorm:"primaryKey;type:varchar(64)"`
	OwnerID       string       `json:"owner_id" gorm:"type:varchar(128);index"`
	DeceasedName  string       `json:"deceased_name" gorm:"type:varchar(255);not null"`
	DeceasedBirth string       `json:"deceased_birth_date,omitempty" gorm:"type:varchar(32)"`
	DateOfDeath   string       `json:"date_of_death,omitempty" gorm:"type:varchar(32)"`
	HeirName      string       `json:"heir_name,omitempty" gorm:"type:varchar(255)"`
	Status        EstateStatus `json:"status" gorm:"type:varchar(32);not null;default:draft"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// TableName returns the table name.
func (Estate) TableName() string {
	return "estates"
}

// CreateEstateRequest is the body of POST /estates.
type CreateEstateRequest struct {
	DeceasedName  string `json:"deceased_name" binding:"required"`
	DeceasedBirth string `json:"deceased_birth_date"`
	DateOfDeath   string `json:"date_of_death"`
	HeirName      string `json:"heir_name"`
	OwnerID       string `json:"owner_id"`
}

// Transaction is a bank statement line attached to an estate.
type Transaction struct {
	ID                    string            `json:"id" gorm:"primaryKey;type:varchar(64)"`
	EstateID              string            `json:"estate_id" gorm:"primaryKey;type:varchar(64)"`
	Date                  string            `json:"date" gorm:"type:varchar(32)"`
	Recipient             string            `json:"recipient" gorm:"type:varchar(255)"`
	Amount                float64           `json:"amount"`
	Category              string            `json:"category" gorm:"type:varchar(64)"`
	IsSubscription        bool              `json:"is_subscription"`
	SubscriptionFrequency *string           `json:"subscription_frequency,omitempty" gorm:"type:varchar(32)"`
	ContactInfo           map[string]string `json:"contact_info,omitempty" gorm:"type:jsonb;serializer:json"`
	UserConfirmed         bool              `json:"user_confirmed"`
}

// TableName returns the table name.
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionList is the body of GET/PUT /transactions/{estate_id}.
type TransactionList struct {
	Transactions []Transaction `json:"transactions"`
	EstateID     string        `json:"estate_id"`
}
