package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LedgerKind classifies a ledger entry
type LedgerKind string

const (
	KindDeposit    LedgerKind = "deposit"
	KindWithdrawal LedgerKind = "withdrawal"
	KindBet        LedgerKind = "bet"
	KindWin        LedgerKind = "win"
	KindCredit     LedgerKind = "credit"
)

// LedgerStatus is the processing state of a ledger entry
type LedgerStatus string

const (
	StatusPending   LedgerStatus = "pending"
	StatusCompleted LedgerStatus = "completed"
	StatusApproved  LedgerStatus = "approved"
	StatusRejected  LedgerStatus = "rejected"
)

// ParseLedgerStatus returns the status named by s, or false.
func ParseLedgerStatus(s string) (LedgerStatus, bool) {
	switch st := LedgerStatus(s); st {
	case StatusPending, StatusCompleted, StatusApproved, StatusRejected:
		return st, true
	}
	return "", false
}

// LedgerEntry records one monetary event on an account. Amount is always
// positive; Kind gives the direction.
type LedgerEntry struct {
	ID          primitive.ObjectID     `bson:"_id,omitempty" json:"id,omitempty"`
	AccountID   primitive.ObjectID     `bson:"accountId" json:"userId"`
	Kind        LedgerKind             `bson:"kind" json:"type"`
	Amount      decimal.Decimal        `bson:"amount" json:"amount"`
	Status      LedgerStatus           `bson:"status" json:"status"`
	Reference   string                 `bson:"reference,omitempty" json:"reference,omitempty"`
	Details     map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	Reason      string                 `bson:"reason,omitempty" json:"reason,omitempty"`
	ProcessedBy *primitive.ObjectID    `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	ProcessedAt *time.Time             `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	CreatedAt   time.Time              `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time              `bson:"updatedAt" json:"updatedAt"`
}

// LedgerFilter narrows ledger listings. Zero fields match everything.
type LedgerFilter struct {
	AccountID *primitive.ObjectID
	Kind      LedgerKind
	Status    LedgerStatus
}

// StatusTransition describes a conditional status change of a ledger entry.
type StatusTransition struct {
	From        LedgerStatus
	To          LedgerStatus
	ProcessedBy primitive.ObjectID
	Reason      string
}

// LedgerAggregate is one kind/status bucket of the ledger totals.
type LedgerAggregate struct {
	Kind   LedgerKind      `bson:"kind" json:"type"`
	Status LedgerStatus    `bson:"status" json:"status"`
	Count  int64           `bson:"count" json:"count"`
	Total  decimal.Decimal `bson:"total" json:"total"`
}

// DashboardStats summarizes platform activity for the admin console.
type DashboardStats struct {
	TotalAccounts      int64             `json:"totalUsers"`
	TotalDeposits      decimal.Decimal   `json:"totalDeposits"`
	DepositCount       int64             `json:"depositCount"`
	TotalWithdrawals   decimal.Decimal   `json:"totalWithdrawals"`
	WithdrawalCount    int64             `json:"withdrawalCount"`
	PendingWithdrawals int64             `json:"pendingWithdrawals"`
	PendingWithdrawSum decimal.Decimal   `json:"pendingWithdrawalAmount"`
	TotalCredits       decimal.Decimal   `json:"totalCredits"`
	TotalBets          decimal.Decimal   `json:"totalBets"`
	BetCount           int64             `json:"betCount"`
	TotalWins          decimal.Decimal   `json:"totalWins"`
	WinCount           int64             `json:"winCount"`
	HouseProfit        decimal.Decimal   `json:"houseProfit"`
	Breakdown          []LedgerAggregate `json:"breakdown"`
}
