package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const paymentStatusCompleted = "completed"

// PaymentService applies payment-provider callbacks to account balances.
// Callbacks carry no idempotency key; every completed callback credits.
type PaymentService struct {
	accounts repositories.AccountRepository
	ledger   repositories.LedgerRepository
	notifier Notifier
	secret   []byte
	log      zerolog.Logger
}

// NewPaymentService creates a new PaymentService. An empty secret disables
// signature verification.
func NewPaymentService(store *repositories.Store, notifier Notifier, webhookSecret string, log zerolog.Logger) *PaymentService {
	var secret []byte
	if webhookSecret != "" {
		secret = []byte(webhookSecret)
	}
	return &PaymentService{
		accounts: store.Accounts,
		ledger:   store.Ledger,
		notifier: notifier,
		secret:   secret,
		log:      log.With().Str("component", "payments").Logger(),
	}
}

// VerifySignature checks the hex HMAC-SHA256 of body when a secret is set.
func (s *PaymentService) VerifySignature(body []byte, signature string) error {
	if s.secret == nil {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return apperror.ErrInvalidSignature()
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return apperror.ErrInvalidSignature()
	}
	return nil
}

// HandleWebhook processes a raw callback body and returns the
// acknowledgement message.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte) (string, error) {
	// The raw object is kept on the deposit entry; the typed view drives processing.
	var details map[string]interface{}
	if err := json.Unmarshal(body, &details); err != nil {
		return "", apperror.Validation("Invalid webhook payload")
	}
	var payload models.PaymentWebhook
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apperror.Validation("Invalid webhook payload")
	}

	if !strings.EqualFold(strings.TrimSpace(payload.Status), paymentStatusCompleted) {
		s.log.Info().Str("status", payload.Status).Str("reference", payload.Reference).Msg("payment callback acknowledged without action")
		return "Webhook received", nil
	}

	if !payload.Amount.IsPositive() {
		return "", apperror.ErrInvalidAmount()
	}

	account, err := s.locate(ctx, payload)
	if err != nil {
		return "", err
	}

	updated, err := s.accounts.IncrementBalance(ctx, account.ID, payload.Amount)
	if err != nil {
		return "", storeError("User", "crediting deposit", err)
	}

	now := time.Now()
	entry := &models.LedgerEntry{
		AccountID: account.ID,
		Kind:      models.KindDeposit,
		Amount:    payload.Amount,
		Status:    models.StatusCompleted,
		Reference: payload.Reference,
		Details:   details,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		// The balance is already credited; the missing entry is only logged.
		s.log.Error().Err(err).
			Str("account_id", account.ID.Hex()).
			Str("amount", payload.Amount.String()).
			Msg("failed to record deposit entry")
	}

	s.log.Info().
		Str("account_id", account.ID.Hex()).
		Str("amount", payload.Amount.String()).
		Str("reference", payload.Reference).
		Msg("deposit credited")

	s.notifier.Notify(ctx, models.EventDeposit,
		fmt.Sprintf("Your deposit of %s was successful. New balance: %s", money(payload.Amount), money(updated.Balance)),
		updated.Phone)

	return "Deposit processed", nil
}

// locate finds the account named by metadata.userId, falling back to
// metadata.email.
func (s *PaymentService) locate(ctx context.Context, payload models.PaymentWebhook) (*models.Account, error) {
	var (
		account *models.Account
		err     = repositories.ErrNotFound
	)
	if payload.Metadata.UserID != "" {
		if id, perr := primitive.ObjectIDFromHex(payload.Metadata.UserID); perr == nil {
			account, err = s.accounts.FindByID(ctx, id)
		}
	}
	if errors.Is(err, repositories.ErrNotFound) && payload.Metadata.Email != "" {
		account, err = s.accounts.FindByEmail(ctx, normalizeEmail(payload.Metadata.Email))
	}
	if err != nil {
		return nil, storeError("User", "locating deposit account", err)
	}
	return account, nil
}
