package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeRequest    Type = "request"
	TypeActivate   Type = "activate"
	TypePenalty    Type = "penalty"
	TypeResolution Type = "resolution"
	TypePayment    Type = "payment"
)

// Table: transactions. Rows are append-only.
type Transaction struct {
	ID          uint64          `gorm:"primaryKey;column:id" json:"-"`
	TxnID       string          `gorm:"size:32;uniqueIndex:ux_transactions_txn_id" json:"txn_id"`
	UserID      string          `gorm:"size:32;index" json:"user_id"`
	LoanID      *string         `gorm:"size:32;index:idx_transactions_loan_ts,priority:1" json:"loan_id,omitempty"`
	Type        Type            `gorm:"size:16;not null" json:"type"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Timestamp   time.Time       `gorm:"autoCreateTime;index:idx_transactions_loan_ts,priority:2" json:"timestamp"`
}

func (Transaction) TableName() string { return "transactions" }

func New(txnID, userID, loanID string, typ Type, amount decimal.Decimal, desc string) *Transaction {
	t := &Transaction{TxnID: txnID, UserID: userID, Type: typ, Amount: amount, Description: desc}
	if loanID != "" {
		t.LoanID = &loanID
	}
	return t
}
