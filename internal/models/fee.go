package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"institute_app_echo/internal/money"
)

// PaymentMode represents how a payment was collected
type PaymentMode string

const (
	PaymentModeCash PaymentMode = "CASH"
	PaymentModeUPI  PaymentMode = "UPI"
	PaymentModeBank PaymentMode = "BANK"
)

// FeeAccount maps a student to the fee owed for one batch.
// The installment schedule is fixed at creation; there is no update path.
type FeeAccount struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint `gorm:"index" json:"institute_id"`
	StudentID   uint `gorm:"uniqueIndex:idx_fee_student_batch" json:"student_id"`
	BatchID     uint `gorm:"uniqueIndex:idx_fee_student_batch" json:"batch_id"`

	TotalFee    decimal.Decimal     `gorm:"type:decimal(15,2)" json:"total_fee"`
	Discount    decimal.Decimal     `gorm:"type:decimal(15,2);default:0" json:"discount"`
	DueSchedule []money.Installment `gorm:"serializer:json" json:"due_schedule"`

	// Relationships
	Student  Student   `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch    Batch     `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
	Payments []Payment `gorm:"foreignKey:FeeAccountID;constraint:OnDelete:CASCADE" json:"payments,omitempty"`
}

// Payment is append-only evidence of money received against a fee account
type Payment struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID  uint `gorm:"index" json:"institute_id"`
	FeeAccountID uint `gorm:"index" json:"fee_account_id"`

	Amount    decimal.Decimal `gorm:"type:decimal(15,2)" json:"amount"`
	PaidOn    string          `gorm:"type:varchar(30)" json:"paid_on"`
	Mode      PaymentMode     `gorm:"type:varchar(20)" json:"mode"`
	ReceiptNo string          `gorm:"type:varchar(100);uniqueIndex" json:"receipt_no"`
	Remarks   string          `gorm:"type:text" json:"remarks"`
	CreatedBy uint            `json:"created_by"`

	// Relationships
	FeeAccount FeeAccount `gorm:"foreignKey:FeeAccountID" json:"fee_account,omitempty"`
}
