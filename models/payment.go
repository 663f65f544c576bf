package models

import (
	"time"
)

type PaymentType string

const (
	PaymentTypeAddMoney   PaymentType = "add_money"
	PaymentTypeWithdrawal PaymentType = "withdrawal"
	PaymentTypeWinning    PaymentType = "tournament_winning"
	PaymentTypeRefund     PaymentType = "refund"     // entry fee returned on cancellation
	PaymentTypeAdjustment PaymentType = "adjustment" // manual admin correction
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusRejected PaymentStatus = "rejected"
)

// Payment is the audit trail for every points movement. add_money and
// withdrawal rows start pending and are settled by an admin; winning, refund
// and adjustment rows are written already approved inside the transaction
// that moved the points.
type Payment struct {
	ID     string        `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string        `gorm:"not null;index" json:"user_id"`
	Amount int64         `gorm:"not null" json:"amount"`
	Type   PaymentType   `gorm:"type:varchar(32);not null;index" json:"type"`
	Status PaymentStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`

	// add_money: screenshot of the transfer, uploaded before review.
	ProofURL string `json:"proof_url,omitempty"`

	// withdrawal: where to send the money.
	UPIID         string `json:"upi_id,omitempty"`
	BankAccount   string `json:"bank_account,omitempty"`
	BankIFSC      string `json:"bank_ifsc,omitempty"`
	AccountHolder string `json:"account_holder,omitempty"`

	// tournament_winning / refund: which tournament produced this row.
	TournamentID string `gorm:"index" json:"tournament_id,omitempty"`

	Note       string     `json:"note,omitempty"`
	ApprovedBy string     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}
