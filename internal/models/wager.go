package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DigitCount is the number of digits guessed and drawn per wager.
const DigitCount = 3

// Digits is one three-digit sequence, compared position by position.
type Digits [DigitCount]int

// WagerRecord is the audit snapshot of one settled game round
type WagerRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AccountID     primitive.ObjectID `bson:"accountId" json:"userId"`
	BetAmount     decimal.Decimal    `bson:"betAmount" json:"betAmount"`
	Guesses       Digits             `bson:"guesses" json:"guesses"`
	Drawn         Digits             `bson:"drawn" json:"drawn"`
	Matches       int                `bson:"matches" json:"matches"`
	Multiplier    decimal.Decimal    `bson:"multiplier" json:"multiplier"`
	Payout        decimal.Decimal    `bson:"payout" json:"payout"`
	Profit        decimal.Decimal    `bson:"profit" json:"profit"`
	BalanceBefore decimal.Decimal    `bson:"balanceBefore" json:"balanceBefore"`
	BalanceAfter  decimal.Decimal    `bson:"balanceAfter" json:"balanceAfter"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// PlayRequest is the body of POST /api/game/play
type PlayRequest struct {
	BetAmount decimal.Decimal `json:"betAmount"`
	Guesses   []int           `json:"guesses"`
}
