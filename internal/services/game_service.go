package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// winNotifyMatches is the smallest match count that triggers a win message.
const winNotifyMatches = 2

// GameService settles wagers on the three-digit game
type GameService struct {
	accounts repositories.AccountRepository
	ledger   repositories.LedgerRepository
	wagers   repositories.WagerRepository
	payouts  repositories.PayoutConfigRepository
	drawer   utils.DigitDrawer
	notifier Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
}

// NewGameService creates a new GameService
func NewGameService(store *repositories.Store, drawer utils.DigitDrawer, notifier Notifier, m *metrics.Metrics, log zerolog.Logger) *GameService {
	return &GameService{
		accounts: store.Accounts,
		ledger:   store.Ledger,
		wagers:   store.Wagers,
		payouts:  store.PayoutConfig,
		drawer:   drawer,
		notifier: notifier,
		metrics:  m,
		log:      log.With().Str("component", "game").Logger(),
	}
}

// Settings returns the payout configuration currently in force.
func (s *GameService) Settings(ctx context.Context) (*models.PayoutConfig, error) {
	cfg, err := s.payouts.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("loading payout config: %w", err))
	}
	return cfg, nil
}

// Play validates a wager, draws the digits once and settles the result
// against the account balance.
func (s *GameService) Play(ctx context.Context, accountID primitive.ObjectID, req *models.PlayRequest) (*models.WagerRecord, error) {
	guesses, ok := utils.ParseGuesses(req.Guesses)
	if !ok {
		return nil, apperror.ErrInvalidGuesses()
	}

	cfg, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	bet := req.BetAmount
	if bet.LessThan(cfg.MinBet) || bet.GreaterThan(cfg.MaxBet) {
		return nil, apperror.ErrBetOutOfRange(cfg.MinBet.String(), cfg.MaxBet.String())
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, storeError("User", "loading account", err)
	}
	if account.Balance.LessThan(bet) {
		return nil, apperror.ErrInsufficientBalance()
	}

	drawn, err := s.drawer.Draw()
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("drawing digits: %w", err))
	}

	matches := utils.CountMatches(guesses, drawn)
	multiplier := cfg.Multiplier(matches)
	payout := bet.Mul(multiplier)
	profit := payout.Sub(bet)

	before, after, err := s.settle(ctx, account, bet, profit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	wager := &models.WagerRecord{
		AccountID:     accountID,
		BetAmount:     bet,
		Guesses:       guesses,
		Drawn:         drawn,
		Matches:       matches,
		Multiplier:    multiplier,
		Payout:        payout,
		Profit:        profit,
		BalanceBefore: before,
		BalanceAfter:  after,
		CreatedAt:     now,
	}
	if err := s.wagers.Create(ctx, wager); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("recording wager: %w", err))
	}

	if err := s.ledger.Create(ctx, &models.LedgerEntry{
		AccountID: accountID,
		Kind:      models.KindBet,
		Amount:    bet,
		Status:    models.StatusCompleted,
		Reference: wager.ID.Hex(),
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("recording bet entry: %w", err))
	}

	if payout.IsPositive() {
		if err := s.ledger.Create(ctx, &models.LedgerEntry{
			AccountID: accountID,
			Kind:      models.KindWin,
			Amount:    payout,
			Status:    models.StatusCompleted,
			Reference: wager.ID.Hex(),
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("recording win entry: %w", err))
		}
	}

	s.metrics.ObserveWager(matches, bet, payout)
	s.log.Info().
		Str("account_id", accountID.Hex()).
		Str("wager_id", wager.ID.Hex()).
		Int("matches", matches).
		Str("bet", bet.String()).
		Str("payout", payout.String()).
		Msg("wager settled")

	if matches >= winNotifyMatches {
		s.notifier.Notify(ctx, models.EventWin,
			fmt.Sprintf("Congratulations! You matched %d digits (%v) and won %s. New balance: %s",
				matches, drawn, money(payout), money(after)),
			account.Phone)
	}
	return wager, nil
}

// settle applies profit to the balance with compare-and-swap, re-reading
// and re-checking the balance after every lost race.
func (s *GameService) settle(ctx context.Context, account *models.Account, bet, profit decimal.Decimal) (before, after decimal.Decimal, err error) {
	current := account
	for attempt := 1; attempt <= maxBalanceAttempts; attempt++ {
		before = current.Balance
		after = before.Add(profit)

		swapped, err := s.accounts.CompareAndSwapBalance(ctx, current.ID, before, after)
		if err != nil {
			return before, after, apperror.InternalError(fmt.Errorf("updating balance: %w", err))
		}
		if swapped {
			return before, after, nil
		}

		s.log.Warn().Str("account_id", current.ID.Hex()).Int("attempt", attempt).Msg("balance changed during wager, retrying")
		if current, err = s.accounts.FindByID(ctx, current.ID); err != nil {
			return before, after, storeError("User", "reloading account", err)
		}
		if current.Balance.LessThan(bet) {
			return before, after, apperror.ErrInsufficientBalance()
		}
	}
	return before, after, apperror.ErrBalanceConflict()
}

// History lists the caller's wagers, newest first.
func (s *GameService) History(ctx context.Context, accountID primitive.ObjectID, page, limit int) ([]*models.WagerRecord, error) {
	wagers, err := s.wagers.ListByAccount(ctx, accountID, utils.Skip(page, limit), int64(limit))
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("listing wagers: %w", err))
	}
	return wagers, nil
}
