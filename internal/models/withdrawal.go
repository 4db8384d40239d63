package models

import "github.com/shopspring/decimal"

// WithdrawalRequest is the body of POST /api/withdrawals/request
type WithdrawalRequest struct {
	Amount  decimal.Decimal        `json:"amount"`
	Details map[string]interface{} `json:"details"`
}

// RejectWithdrawalRequest is the optional body of the reject endpoint
type RejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

// CreditRequest is the body of POST /api/admin/credit-user
type CreditRequest struct {
	UserID string          `json:"userId" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason" binding:"required"`
}

// PaymentWebhook is the inbound payment-status callback.
type PaymentWebhook struct {
	Status    string          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
	Metadata  struct {
		UserID string `json:"userId"`
		Email  string `json:"email"`
	} `json:"metadata"`
}
