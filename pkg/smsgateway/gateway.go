package smsgateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ErrorKind classifies a failed delivery for logging and retry decisions
type ErrorKind string

const (
	KindNone                ErrorKind = ""
	KindInsufficientBalance ErrorKind = "insufficient_balance"
	KindInvalidNumber       ErrorKind = "invalid_number"
	KindAccessDenied        ErrorKind = "access_denied"
	KindProvider            ErrorKind = "provider_error"
	KindTransport           ErrorKind = "transport_error"
)

// SendResult is the outcome of one message. Gateways never return errors;
// failures are described here instead.
type SendResult struct {
	Phone      string    `json:"phone"`
	Success    bool      `json:"success"`
	StatusCode int       `json:"statusCode,omitempty"`
	ErrorKind  ErrorKind `json:"errorKind,omitempty"`
	MessageID  string    `json:"messageId,omitempty"`
	Raw        string    `json:"raw,omitempty"`
}

// Retryable reports whether sending the same message again may succeed.
func (r SendResult) Retryable() bool {
	if r.Success {
		return false
	}
	return r.ErrorKind == KindTransport || (r.ErrorKind == KindProvider && r.StatusCode >= 500)
}

// BulkResult aggregates a sequential multi-recipient send
type BulkResult struct {
	Sent    int          `json:"sent"`
	Failed  int          `json:"failed"`
	Results []SendResult `json:"results"`
}

// Retryable reports whether any failed recipient could be retried.
func (b BulkResult) Retryable() bool {
	for _, r := range b.Results {
		if r.Retryable() {
			return true
		}
	}
	return false
}

// Summary renders the per-recipient results for audit logs.
func (b BulkResult) Summary() string {
	data, err := json.Marshal(b.Results)
	if err != nil {
		return fmt.Sprintf("sent=%d failed=%d", b.Sent, b.Failed)
	}
	return string(data)
}

// Gateway represents an SMS gateway
type Gateway interface {
	Send(ctx context.Context, phone, message string) SendResult
	SendBulk(ctx context.Context, phones []string, message string) BulkResult
}

// Config holds the provider connection settings
type Config struct {
	BaseURL    string
	APIKey     string
	PlatformID string
	Sender     string
	Timeout    time.Duration
	BulkDelay  time.Duration
}

// HTTPGateway talks to the messaging provider's REST API
type HTTPGateway struct {
	client    *resty.Client
	sender    string
	bulkDelay time.Duration
	log       zerolog.Logger
}

// NewHTTPGateway creates a new HTTPGateway
func NewHTTPGateway(cfg Config, log zerolog.Logger) *HTTPGateway {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", cfg.APIKey).
		SetHeader("X-Platform-ID", cfg.PlatformID)

	return &HTTPGateway{
		client:    client,
		sender:    cfg.Sender,
		bulkDelay: cfg.BulkDelay,
		log:       log.With().Str("component", "smsgateway").Logger(),
	}
}

type sendPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	Sender  string `json:"sender,omitempty"`
}

type providerResponse struct {
	Success   *bool  `json:"success"`
	MessageID string `json:"messageId"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// Send delivers one message
func (g *HTTPGateway) Send(ctx context.Context, phone, message string) SendResult {
	to := NormalizePhone(phone)
	if to == "" {
		g.log.Warn().Str("phone", phone).Msg("skipping SMS to unusable phone number")
		return SendResult{Phone: phone, ErrorKind: KindInvalidNumber, Raw: "empty phone number"}
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(sendPayload{To: to, Message: message, Sender: g.sender}).
		Post("/sms/send")
	if err != nil {
		g.log.Error().Err(err).Str("phone", to).Msg("SMS provider unreachable")
		return SendResult{Phone: to, ErrorKind: KindTransport, Raw: err.Error()}
	}

	result := SendResult{
		Phone:      to,
		StatusCode: resp.StatusCode(),
		Raw:        resp.String(),
	}

	var body providerResponse
	_ = json.Unmarshal(resp.Body(), &body)
	result.MessageID = body.MessageID

	if resp.IsSuccess() && (body.Success == nil || *body.Success) {
		result.Success = true
		g.log.Debug().Str("phone", to).Str("message_id", body.MessageID).Msg("SMS accepted by provider")
		return result
	}

	result.ErrorKind = classify(resp.StatusCode(), body.Code)
	g.log.Warn().
		Str("phone", to).
		Int("status", resp.StatusCode()).
		Str("error_kind", string(result.ErrorKind)).
		Str("provider_code", body.Code).
		Str("provider_message", body.Message).
		Msg("SMS rejected by provider")
	return result
}

// SendBulk delivers the message to each phone in turn
func (g *HTTPGateway) SendBulk(ctx context.Context, phones []string, message string) BulkResult {
	return sendSequential(ctx, g, phones, message, g.bulkDelay)
}

func classify(status int, code string) ErrorKind {
	switch strings.ToUpper(code) {
	case "INSUFFICIENT_BALANCE", "INSUFFICIENT_CREDIT":
		return KindInsufficientBalance
	case "INVALID_NUMBER", "INVALID_PHONE", "INVALID_RECIPIENT":
		return KindInvalidNumber
	case "ACCESS_DENIED", "UNAUTHORIZED", "FORBIDDEN":
		return KindAccessDenied
	}

	switch status {
	case 402:
		return KindInsufficientBalance
	case 401, 403:
		return KindAccessDenied
	case 422:
		return KindInvalidNumber
	}
	return KindProvider
}

func sendSequential(ctx context.Context, g Gateway, phones []string, message string, delay time.Duration) BulkResult {
	out := BulkResult{Results: make([]SendResult, 0, len(phones))}

	for i, phone := range phones {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(delay):
			}
		}

		var r SendResult
		if err := ctx.Err(); err != nil {
			r = SendResult{Phone: phone, ErrorKind: KindTransport, Raw: err.Error()}
		} else {
			r = g.Send(ctx, phone, message)
		}

		if r.Success {
			out.Sent++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, r)
	}
	return out
}

// NormalizePhone keeps only digits and prefixes "+". It returns "" when no
// digits remain.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}
