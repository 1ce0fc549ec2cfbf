package model

import (
	"strings"
	"time"

	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// CancellationStatus represents the state of a subscription cancellation.
type CancellationStatus string

const (
	CancellationStatusPending   CancellationStatus = "pending"
	CancellationStatusConfirmed CancellationStatus = "confirmed"
	CancellationStatusFailed    CancellationStatus = "failed"
)

// ParseCancellationStatus parses a wire value. Unknown values are returned
// verbatim with an UnknownStatus error.
func ParseCancellationStatus(raw string) (CancellationStatus, error) {
	s := CancellationStatus(strings.TrimSpace(raw))
	if !s.IsKnown() {
		return CancellationStatus(raw), apperrors.UnknownStatus("cancellation", raw)
	}
	return s, nil
}

// IsKnown reports whether the status is part of the enumeration.
func (s CancellationStatus) IsKnown() bool {
	switch s {
	case CancellationStatusPending, CancellationStatusConfirmed, CancellationStatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if no further client-initiated mutation is allowed.
func (s CancellationStatus) IsTerminal() bool {
	return s == CancellationStatusConfirmed || s == CancellationStatusFailed
}

// DisplayName returns the status for display, "unknown" when unrecognised.
func (s CancellationStatus) DisplayName() string {
	if !s.IsKnown() {
		return "unknown"
	}
	return string(s)
}

func (s CancellationStatus) String() string {
	return string(s)
}

// CancellationMethod is the channel used to deliver the cancellation artifact.
type CancellationMethod string

const (
	CancellationMethodEmail  CancellationMethod = "email"
	CancellationMethodLetter CancellationMethod = "letter"
)

// IsValid reports whether the method is supported.
func (m CancellationMethod) IsValid() bool {
	return m == CancellationMethodEmail || m == CancellationMethodLetter
}

// Contact info keys required per method.
const (
	ContactKeyEmail   = "email"
	ContactKeyAddress = "address"
)

// RequiredContactKey returns the contact_info key that must be non-empty.
func (m CancellationMethod) RequiredContactKey() string {
	if m == CancellationMethodEmail {
		return ContactKeyEmail
	}
	return ContactKeyAddress
}

// CancellationHistoryEntry is one immutable entry of the status history.
type CancellationHistoryEntry struct {
	Status    CancellationStatus `json:"status"`
	Timestamp string             `json:"timestamp"`
	Comment   string             `json:"comment"`
}

// CancellationRecord mirrors the backend's cancellation state for a transaction.
type CancellationRecord struct {
	TransactionID string                     `json:"transaction_id"`
	EstateID      string                     `json:"estate_id"`
	Status        CancellationStatus         `json:"status"`
	History       []CancellationHistoryEntry `json:"history"`
}

// Clone returns a deep copy so callers cannot mutate the mirrored history.
func (r *CancellationRecord) Clone() *CancellationRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.History = append([]CancellationHistoryEntry(nil), r.History...)
	return &c
}

// CancellationRequest is the input for generating a cancellation artifact.
type CancellationRequest struct {
	TransactionID       string             `json:"transaction_id" binding:"required"`
	EstateID            string             `json:"estate_id" binding:"required"`
	CancellationMethod  CancellationMethod `json:"cancellation_method" binding:"required"`
	ContactInfo         map[string]string  `json:"contact_info"`
	GeneratedLetterText *string            `json:"cancellation_letter,omitempty"`
	GeneratedEmailText  *string            `json:"cancellation_email,omitempty"`
}

// CancellationArtifact is the generated letter/email returned by the backend.
type CancellationArtifact struct {
	TransactionID string            `json:"transaction_id"`
	LetterText    *string           `json:"cancellation_letter,omitempty"`
	EmailText     *string           `json:"cancellation_email,omitempty"`
	ContactInfo   map[string]string `json:"contact_info"`
}

// Text returns whichever artifact text was generated.
func (a *CancellationArtifact) Text() string {
	if a.LetterText != nil {
		return *a.LetterText
	}
	if a.EmailText != nil {
		return *a.EmailText
	}
	return ""
}

// Clone returns a deep copy of the artifact.
func (a *CancellationArtifact) Clone() *CancellationArtifact {
	if a == nil {
		return nil
	}
	c := *a
	if a.LetterText != nil {
		v := *a.LetterText
		c.LetterText = &v
	}
	if a.EmailText != nil {
		v := *a.EmailText
		c.EmailText = &v
	}
	if a.ContactInfo != nil {
		c.ContactInfo = make(map[string]string, len(a.ContactInfo))
		for k, v := range a.ContactInfo {
			c.ContactInfo[k] = v
		}
	}
	return &c
}

// UpdateCancellationStatusRequest is the body of POST /cancellations/{estate}/{tx}/status.
type UpdateCancellationStatusRequest struct {
	Status  CancellationStatus `json:"status" binding:"required"`
	Comment string             `json:"comment"`
}

// CancellationStatusResponse is returned by the cancellation status endpoints.
type CancellationStatusResponse struct {
	Status  CancellationStatus         `json:"status"`
	History []CancellationHistoryEntry `json:"history"`
}

// --- Persistence (backend) ---

// Cancellation is the stored cancellation request for an estate transaction.
type Cancellation struct {
	EstateID      string                   `gorm:"primaryKey;type:varchar(64)"`
	TransactionID string                   `gorm:"primaryKey;type:varchar(64)"`
	Method        CancellationMethod       `gorm:"type:varchar(16);not null"`
	Content       string                   `gorm:"type:text"`
	ContactInfo   map[string]string        `gorm:"type:jsonb;serializer:json"`
	Status        CancellationStatus       `gorm:"type:varchar(32);not null;default:pending"`
	History       []CancellationHistoryRow `gorm:"foreignKey:EstateID,TransactionID;references:EstateID,TransactionID"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName returns the table name.
func (Cancellation) TableName() string {
	return "cancellations"
}

// CancellationHistoryRow is one stored history entry. Seq preserves insertion order.
type CancellationHistoryRow struct {
	Seq           int64              `gorm:"primaryKey;autoIncrement"`
	EstateID      string             `gorm:"type:varchar(64);not null;index:idx_cancellation_history"`
	TransactionID string             `gorm:"type:varchar(64);not null;index:idx_cancellation_history"`
	Status        CancellationStatus `gorm:"type:varchar(32);not null"`
	Timestamp     time.Time          `gorm:"not null"`
	Comment       string             `gorm:"type:text"`
}

// TableName returns the table name.
func (CancellationHistoryRow) TableName() string {
	return "cancellation_history"
}

// ToRecord converts the stored cancellation to its API shape.
func (c *Cancellation) ToRecord() *CancellationRecord {
	rec := &CancellationRecord{
		TransactionID: c.TransactionID,
		EstateID:      c.EstateID,
		Status:        c.Status,
		History:       make([]CancellationHistoryEntry, 0, len(c.History)),
	}
	for _, h := range c.History {
		rec.History = append(rec.History, CancellationHistoryEntry{
			Status:    h.Status,
			Timestamp: h.Timestamp.UTC().Format(time.RFC3339Nano),
			Comment:   h.Comment,
		})
	}
	return rec
}
