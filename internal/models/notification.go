package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationStatus is the aggregate outcome of one send attempt
type NotificationStatus string

const (
	NotificationSent    NotificationStatus = "sent"
	NotificationPartial NotificationStatus = "partial"
	NotificationFailed  NotificationStatus = "failed"
	// NotificationQueued means the task went back to the outbox unsent.
	NotificationQueued  NotificationStatus = "queued"
)

// NotificationStatusFor derives the aggregate status from delivery counts.
func NotificationStatusFor(sent, failed int) NotificationStatus {
	switch {
	case failed == 0 && sent > 0:
		return NotificationSent
	case sent > 0:
		return NotificationPartial
	default:
		return NotificationFailed
	}
}

// NotificationEvent names what triggered a message
type NotificationEvent string

const (
	EventWin                 NotificationEvent = "win"
	EventDeposit             NotificationEvent = "deposit"
	EventCredit              NotificationEvent = "credit"
	EventWithdrawalRequested NotificationEvent = "withdrawal_requested"
	EventWithdrawalAlert     NotificationEvent = "withdrawal_admin_alert"
	EventWithdrawalApproved  NotificationEvent = "withdrawal_approved"
	EventWithdrawalRejected  NotificationEvent = "withdrawal_rejected"
	EventAdminBroadcast      NotificationEvent = "admin_broadcast"
)

// IssuedBySystem marks logs written by the background notification worker.
const IssuedBySystem = "system"

// NotificationLog is the audit record of one outbound message
type NotificationLog struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Recipients       []string           `bson:"recipients" json:"recipients"`
	Message          string             `bson:"message" json:"message"`
	Status           NotificationStatus `bson:"status" json:"status"`
	Source           NotificationEvent  `bson:"source" json:"source"`
	IssuedBy         string             `bson:"issuedBy" json:"issuedBy"`
	SentCount        int                `bson:"sentCount" json:"sentCount"`
	FailedCount      int                `bson:"failedCount" json:"failedCount"`
	ProviderResponse string             `bson:"providerResponse,omitempty" json:"providerResponse,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
}

// NotificationTask is a queued message waiting for delivery.
type NotificationTask struct {
	ID         string            `json:"id"`
	Event      NotificationEvent `json:"event"`
	Recipients []string          `json:"recipients"`
	Message    string            `json:"message"`
	Attempts   int               `json:"attempts"`
	LastError  string            `json:"lastError,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// SendSMSRequest is the body of POST /api/admin/send-sms
type SendSMSRequest struct {
	UserIDs []string `json:"userIds" binding:"required,min=1"`
	Message string   `json:"message" binding:"required"`
}

// BroadcastRequest is the body of POST /api/admin/send-sms-all
type BroadcastRequest struct {
	Message string `json:"message" binding:"required"`
}

// BroadcastResult reports an admin bulk send.
type BroadcastResult struct {
	Sent   int              `json:"sent"`
	Failed int              `json:"failed"`
	Log    *NotificationLog `json:"log"`
}
