package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithdrawalService manages the withdrawal lifecycle. A withdrawal moves
// from pending to approved or rejected exactly once; the balance is only
// debited on approval.
type WithdrawalService struct {
	accounts      repositories.AccountRepository
	ledger        repositories.LedgerRepository
	notifier      Notifier
	publicBaseURL string
	log           zerolog.Logger
}

// NewWithdrawalService creates a new WithdrawalService
func NewWithdrawalService(store *repositories.Store, notifier Notifier, publicBaseURL string, log zerolog.Logger) *WithdrawalService {
	return &WithdrawalService{
		accounts:      store.Accounts,
		ledger:        store.Ledger,
		notifier:      notifier,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log.With().Str("component", "withdrawals").Logger(),
	}
}

// Request records a pending withdrawal and alerts the requester and every
// admin.
func (s *WithdrawalService) Request(ctx context.Context, accountID primitive.ObjectID, req *models.WithdrawalRequest) (*models.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, storeError("User", "loading account", err)
	}
	if account.Balance.LessThan(req.Amount) {
		return nil, apperror.ErrInsufficientBalance()
	}

	now := time.Now()
	entry := &models.LedgerEntry{
		AccountID: accountID,
		Kind:      models.KindWithdrawal,
		Amount:    req.Amount,
		Status:    models.StatusPending,
		Reference: utils.GenerateReference("WD"),
		Details:   req.Details,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("creating withdrawal: %w", err))
	}

	s.log.Info().
		Str("account_id", accountID.Hex()).
		Str("reference", entry.Reference).
		Str("amount", entry.Amount.String()).
		Msg("withdrawal requested")

	s.notifier.Notify(ctx, models.EventWithdrawalRequested,
		fmt.Sprintf("Your withdrawal request of %s (ref %s) has been received and is pending approval.",
			money(entry.Amount), entry.Reference),
		account.Phone)

	admins, err := s.accounts.FindByRole(ctx, models.RoleAdmin)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load admins for withdrawal alert")
		return entry, nil
	}
	phones := make([]string, 0, len(admins))
	for _, a := range admins {
		phones = append(phones, a.Phone)
	}
	s.notifier.Notify(ctx, models.EventWithdrawalAlert,
		fmt.Sprintf("New withdrawal request of %s from %s (ref %s). Review: %s/admin/withdrawals",
			money(entry.Amount), account.Email, entry.Reference, s.publicBaseURL),
		phones...)

	return entry, nil
}

// Mine lists the caller's withdrawals, newest first.
func (s *WithdrawalService) Mine(ctx context.Context, accountID primitive.ObjectID, page, limit int) ([]*models.LedgerEntry, error) {
	return s.list(ctx, models.LedgerFilter{AccountID: &accountID, Kind: models.KindWithdrawal}, page, limit)
}

// List lists every withdrawal, optionally narrowed to one status.
func (s *WithdrawalService) List(ctx context.Context, status models.LedgerStatus, page, limit int) ([]*models.LedgerEntry, error) {
	return s.list(ctx, models.LedgerFilter{Kind: models.KindWithdrawal, Status: status}, page, limit)
}

func (s *WithdrawalService) list(ctx context.Context, filter models.LedgerFilter, page, limit int) ([]*models.LedgerEntry, error) {
	entries, err := s.ledger.List(ctx, filter, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing withdrawals: %w", err))
	}
	return entries, nil
}

// Approve debits the requester and marks the withdrawal approved. The
// balance is checked again at approval time; a shortfall leaves the
// withdrawal pending.
func (s *WithdrawalService) Approve(ctx context.Context, id, adminID primitive.ObjectID) (*models.LedgerEntry, error) {
	entry, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, entry.AccountID)
	if err != nil {
		return nil, storeError("User", "loading account", err)
	}

	debited := false
	for attempt := 1; attempt <= maxBalanceAttempts; attempt++ {
		if account.Balance.LessThan(entry.Amount) {
			return nil, apperror.ErrInsufficientBalance()
		}
		ok, err := s.accounts.CompareAndSwapBalance(ctx, account.ID, account.Balance, account.Balance.Sub(entry.Amount))
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("debiting balance: %w", err))
		}
		if ok {
			debited = true
			break
		}
		if account, err = s.accounts.FindByID(ctx, entry.AccountID); err != nil {
			return nil, storeError("User", "reloading account", err)
		}
	}
	if !debited {
		return nil, apperror.ErrBalanceConflict()
	}

	updated, err := s.ledger.Transition(ctx, id, models.StatusTransition{
		From:        models.StatusPending,
		To:          models.StatusApproved,
		ProcessedBy: adminID,
	})
	if err != nil {
		// Another admin processed it between our read and the transition.
		if _, cerr := s.accounts.IncrementBalance(ctx, entry.AccountID, entry.Amount); cerr != nil {
			s.log.Error().Err(cerr).
				Str("withdrawal_id", id.Hex()).
				Str("amount", entry.Amount.String()).
				Msg("failed to reverse withdrawal debit")
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.ErrAlreadyProcessed()
		}
		return nil, apperror.InternalError(fmt.Errorf("approving withdrawal: %w", err))
	}

	s.log.Info().
		Str("withdrawal_id", id.Hex()).
		Str("admin_id", adminID.Hex()).
		Str("amount", updated.Amount.String()).
		Msg("withdrawal approved")

	s.notifier.Notify(ctx, models.EventWithdrawalApproved,
		fmt.Sprintf("Your withdrawal of %s (ref %s) has been approved.", money(updated.Amount), updated.Reference),
		account.Phone)
	return updated, nil
}

// Reject closes a pending withdrawal without touching the balance.
func (s *WithdrawalService) Reject(ctx context.Context, id, adminID primitive.ObjectID, reason string) (*models.LedgerEntry, error) {
	if _, err := s.pending(ctx, id); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Rejected by admin"
	}

	updated, err := s.ledger.Transition(ctx, id, models.StatusTransition{
		From:        models.StatusPending,
		To:          models.StatusRejected,
		ProcessedBy: adminID,
		Reason:      reason,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.ErrAlreadyProcessed()
		}
		return nil, apperror.InternalError(fmt.Errorf("rejecting withdrawal: %w", err))
	}

	s.log.Info().Str("withdrawal_id", id.Hex()).Str("admin_id", adminID.Hex()).Msg("withdrawal rejected")

	if account, err := s.accounts.FindByID(ctx, updated.AccountID); err == nil {
		s.notifier.Notify(ctx, models.EventWithdrawalRejected,
			fmt.Sprintf("Your withdrawal of %s (ref %s) was rejected. Reason: %s", money(updated.Amount), updated.Reference, reason),
			account.Phone)
	}
	return updated, nil
}

// pending loads a withdrawal and fails unless it can still be processed.
func (s *WithdrawalService) pending(ctx context.Context, id primitive.ObjectID) (*models.LedgerEntry, error) {
	entry, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("Withdrawal", "loading withdrawal", err)
	}
	if entry.Kind != models.KindWithdrawal {
		return nil, apperror.ErrNotFound("Withdrawal")
	}
	if entry.Status != models.StatusPending {
		return nil, apperror.ErrAlreadyProcessed()
	}
	return entry, nil
}
