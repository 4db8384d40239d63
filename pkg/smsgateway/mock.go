package smsgateway

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// MockGateway logs messages instead of sending them. Used for local
// development when no provider credentials are configured.
type MockGateway struct {
	log zerolog.Logger
}

// NewMockGateway creates a new mock SMS gateway
func NewMockGateway(log zerolog.Logger) *MockGateway {
	return &MockGateway{log: log.With().Str("component", "smsgateway-mock").Logger()}
}

func (g *MockGateway) Send(_ context.Context, phone, message string) SendResult {
	to := NormalizePhone(phone)
	if to == "" {
		return SendResult{Phone: phone, ErrorKind: KindInvalidNumber, Raw: "empty phone number"}
	}

	msgID := fmt.Sprintf("MOCK-MSG-%d", time.Now().UnixNano())
	g.log.Info().Str("phone", to).Str("message_id", msgID).Str("message", message).Msg("simulated SMS send")
	return SendResult{Phone: to, Success: true, StatusCode: 200, MessageID: msgID}
}

func (g *MockGateway) SendBulk(ctx context.Context, phones []string, message string) BulkResult {
	return sendSequential(ctx, g, phones, message, 0)
}
