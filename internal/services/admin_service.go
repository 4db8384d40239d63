package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/ArowuTest/tripledigit-backend/pkg/smsgateway"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminService backs the admin console: manual credits, payout settings,
// bulk SMS and platform statistics.
type AdminService struct {
	accounts repositories.AccountRepository
	ledger   repositories.LedgerRepository
	smsLogs  repositories.NotificationLogRepository
	payouts  repositories.PayoutConfigRepository
	gateway  smsgateway.Gateway
	notifier Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewAdminService creates a new AdminService
func NewAdminService(store *repositories.Store, gateway smsgateway.Gateway, notifier Notifier, m *metrics.Metrics, log zerolog.Logger) *AdminService {
	return &AdminService{
		accounts: store.Accounts,
		ledger:   store.Ledger,
		smsLogs:  store.NotificationLogs,
		payouts:  store.PayoutConfig,
		gateway:  gateway,
		notifier: notifier,
		metrics:  m,
		log:      log.With().Str("component", "admin").Logger(),
	}
}

// ListAccounts returns one page of accounts and the total count.
func (s *AdminService) ListAccounts(ctx context.Context, page, limit int) ([]*models.Account, int64, error) {
	accounts, err := s.accounts.List(ctx, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("listing accounts: %w", err))
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("counting accounts: %w", err))
	}
	return accounts, total, nil
}

// Credit adds funds to an account outside the payment flow.
func (s *AdminService) Credit(ctx context.Context, adminID primitive.ObjectID, req *models.CreditRequest) (*models.Account, *models.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return nil, nil, apperror.ErrInvalidAmount()
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, nil, apperror.Validation("Reason is required")
	}
	id, err := ParseID("User", req.UserID)
	if err != nil {
		return nil, nil, err
	}

	account, err := s.accounts.IncrementBalance(ctx, id, req.Amount)
	if err != nil {
		return nil, nil, storeError("User", "crediting account", err)
	}

	now := time.Now()
	entry := &models.LedgerEntry{
		AccountID:   id,
		Kind:        models.KindCredit,
		Amount:      req.Amount,
		Status:      models.StatusCompleted,
		Reason:      reason,
		ProcessedBy: &adminID,
		ProcessedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.ledger.Create(ctx, entry); err != nil {
		return nil, nil, apperror.InternalError(fmt.Errorf("recording credit: %w", err))
	}

	s.log.Info().
		Str("account_id", id.Hex()).
		Str("admin_id", adminID.Hex()).
		Str("amount", req.Amount.String()).
		Msg("account credited")

	s.notifier.Notify(ctx, models.EventCredit,
		fmt.Sprintf("Your account has been credited with %s. Reason: %s. New balance: %s",
			money(req.Amount), reason, money(account.Balance)),
		account.Phone)
	return account, entry, nil
}

// UpdatePayoutConfig merges a partial change into the payout settings.
func (s *AdminService) UpdatePayoutConfig(ctx context.Context, adminID primitive.ObjectID, update models.PayoutConfigUpdate) (*models.PayoutConfig, error) {
	if update.Empty() {
		return nil, apperror.Validation("No settings supplied")
	}

	current, err := s.payouts.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading payout config: %w", err))
	}
	next, err := current.Apply(update)
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}
	next.UpdatedBy = adminID.Hex()
	next.UpdatedAt = time.Now()

	if err := s.payouts.Save(ctx, next); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("saving payout config: %w", err))
	}

	s.log.Info().
		Str("admin_id", adminID.Hex()).
		Str("min_bet", next.MinBet.String()).
		Str("max_bet", next.MaxBet.String()).
		Msg("payout config updated")
	return next, nil
}

// SendSMS sends message to the selected accounts and records the outcome.
func (s *AdminService) SendSMS(ctx context.Context, adminID primitive.ObjectID, req *models.SendSMSRequest) (*models.BroadcastResult, error) {
	ids := make([]primitive.ObjectID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return nil, apperror.Validation(fmt.Sprintf("Invalid user id %q", raw))
		}
		ids = append(ids, id)
	}

	accounts, err := s.accounts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading recipients: %w", err))
	}
	return s.broadcast(ctx, adminID, accounts, req.Message)
}

// SendSMSAll sends message to every player account.
func (s *AdminService) SendSMSAll(ctx context.Context, adminID primitive.ObjectID, message string) (*models.BroadcastResult, error) {
	accounts, err := s.accounts.FindByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading recipients: %w", err))
	}
	return s.broadcast(ctx, adminID, accounts, message)
}

func (s *AdminService) broadcast(ctx context.Context, adminID primitive.ObjectID, accounts []*models.Account, message string) (*models.BroadcastResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperror.Validation("Message is required")
	}

	phones := make([]string, 0, len(accounts))
	for _, a := range accounts {
		if a.Phone != "" {
			phones = append(phones, a.Phone)
		}
	}
	if len(phones) == 0 {
		return nil, apperror.Validation("No recipients with a phone number")
	}

	bulk := s.gateway.SendBulk(ctx, phones, message)
	status := models.NotificationStatusFor(bulk.Sent, bulk.Failed)
	s.metrics.ObserveNotification(string(status))

	entry := &models.NotificationLog{
		Recipients:       phones,
		Message:          message,
		Status:           status,
		Source:           models.EventAdminBroadcast,
		IssuedBy:         adminID.Hex(),
		SentCount:        bulk.Sent,
		FailedCount:      bulk.Failed,
		ProviderResponse: bulk.Summary(),
		CreatedAt:        time.Now(),
	}
	if err := s.smsLogs.Create(ctx, entry); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("recording sms log: %w", err))
	}

	s.log.Info().
		Str("admin_id", adminID.Hex()).
		Int("sent", bulk.Sent).
		Int("failed", bulk.Failed).
		Msg("admin sms sent")

	return &models.BroadcastResult{Sent: bulk.Sent, Failed: bulk.Failed, Log: entry}, nil
}

// SMSLogs lists notification logs, newest first.
func (s *AdminService) SMSLogs(ctx context.Context, page, limit int) ([]*models.NotificationLog, int64, error) {
	logs, err := s.smsLogs.List(ctx, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("listing sms logs: %w", err))
	}
	total, err := s.smsLogs.Count(ctx)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("counting sms logs: %w", err))
	}
	return logs, total, nil
}

// Stats folds the ledger aggregation into dashboard totals.
func (s *AdminService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	buckets, err := s.ledger.Aggregate(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("aggregating ledger: %w", err))
	}
	total, err := s.accounts.Count(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("counting accounts: %w", err))
	}

	stats := &models.DashboardStats{
		TotalAccounts:      total,
		TotalDeposits:      decimal.Zero,
		TotalWithdrawals:   decimal.Zero,
		PendingWithdrawSum: decimal.Zero,
		TotalCredits:       decimal.Zero,
		TotalBets:          decimal.Zero,
		TotalWins:          decimal.Zero,
		Breakdown:          buckets,
	}
	if stats.Breakdown == nil {
		stats.Breakdown = []models.LedgerAggregate{}
	}

	for _, b := range buckets {
		switch {
		case b.Kind == models.KindDeposit && b.Status == models.StatusCompleted:
			stats.TotalDeposits = stats.TotalDeposits.Add(b.Total)
			stats.DepositCount += b.Count
		case b.Kind == models.KindWithdrawal && b.Status == models.StatusApproved:
			stats.TotalWithdrawals = stats.TotalWithdrawals.Add(b.Total)
			stats.WithdrawalCount += b.Count
		case b.Kind == models.KindWithdrawal && b.Status == models.StatusPending:
			stats.PendingWithdrawSum = stats.PendingWithdrawSum.Add(b.Total)
			stats.PendingWithdrawals += b.Count
		case b.Kind == models.KindCredit:
			stats.TotalCredits = stats.TotalCredits.Add(b.Total)
		case b.Kind == models.KindBet:
			stats.TotalBets = stats.TotalBets.Add(b.Total)
			stats.BetCount += b.Count
		case b.Kind == models.KindWin:
			stats.TotalWins = stats.TotalWins.Add(b.Total)
			stats.WinCount += b.Count
		}
	}
	stats.HouseProfit = stats.TotalBets.Sub(stats.TotalWins)
	return stats, nil
}
