package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories"
	"github.com/ArowuTest/tripledigit-backend/internal/repositories/memory"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/logger"
	"github.com/ArowuTest/tripledigit-backend/pkg/metrics"
	"github.com/ArowuTest/tripledigit-backend/pkg/smsgateway"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sentNotification struct {
	Event   models.NotificationEvent
	Message string
	Phones  []string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, event models.NotificationEvent, message string, phones ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Event: event, Message: message, Phones: phones})
}

func (n *recordingNotifier) events() []models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationEvent, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Event)
	}
	return out
}

// scriptedGateway fails every phone listed in fail.
type scriptedGateway struct {
	fail map[string]bool
}

func (g *scriptedGateway) Send(_ context.Context, phone, _ string) smsgateway.SendResult {
	if g.fail[phone] {
		return smsgateway.SendResult{Phone: phone, StatusCode: 422, ErrorKind: smsgateway.KindInvalidNumber}
	}
	return smsgateway.SendResult{Phone: phone, Success: true, StatusCode: 200}
}

func (g *scriptedGateway) SendBulk(ctx context.Context, phones []string, message string) smsgateway.BulkResult {
	var b smsgateway.BulkResult
	for _, p := range phones {
		r := g.Send(ctx, p, message)
		if r.Success {
			b.Sent++
		} else {
			b.Failed++
		}
		b.Results = append(b.Results, r)
	}
	return b
}

type fixture struct {
	store    *repositories.Store
	notifier *recordingNotifier
	gateway  *scriptedGateway
	tokens   *utils.TokenManager
	auth     *AuthService
	game     *GameService
	withdraw *WithdrawalService
	payments *PaymentService
	admin    *AdminService
}

func newFixture(t *testing.T, drawn models.Digits) *fixture {
	t.Helper()
	log := logger.Nop()
	f := &fixture{
		store:    memory.NewStore(),
		notifier: &recordingNotifier{},
		gateway:  &scriptedGateway{fail: map[string]bool{}},
		tokens:   utils.NewTokenManager("test-secret", time.Hour, "test"),
	}
	m := metrics.New()
	f.auth = NewAuthService(f.store.Accounts, f.tokens, log)
	f.game = NewGameService(f.store, utils.FixedDrawer(drawn), f.notifier, m, log)
	f.withdraw = NewWithdrawalService(f.store, f.notifier, "https://play.example.com/", log)
	f.payments = NewPaymentService(f.store, f.notifier, "", log)
	f.admin = NewAdminService(f.store, f.gateway, f.notifier, m, log)
	return f
}

func (f *fixture) account(t *testing.T, email string, balance string, role models.Role) *models.Account {
	t.Helper()
	a := &models.Account{
		Email:   email,
		Phone:   "+2348000000000",
		Balance: decimal.RequireFromString(balance),
		Role:    role,
	}
	require.NoError(t, f.store.Accounts.Create(context.Background(), a))
	return a
}

func (f *fixture) balance(t *testing.T, id primitive.ObjectID) decimal.Decimal {
	t.Helper()
	a, err := f.store.Accounts.FindByID(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, code), "want %s, got %v", code, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ---- auth ----

func TestAuth_RegisterCreatesPlayerWithZeroBalance(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()

	res, err := f.auth.Register(ctx, &models.RegisterRequest{Email: "Admin@Example.com", Password: "secret1", Phone: "0803 123 4567"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin@example.com", res.Account.Email)
	assert.Equal(t, models.RoleUser, res.Account.Role, "emails never grant admin")
	assert.True(t, res.Account.Balance.IsZero())
	assert.Equal(t, "+08031234567", res.Account.Phone)

	principal, err := f.tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Account.ID.Hex(), principal.AccountID)
	assert.Equal(t, models.RoleUser, principal.Role)
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	req := &models.RegisterRequest{Email: "p@example.com", Password: "secret1", Phone: "+2348000000001"}

	_, err := f.auth.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "P@EXAMPLE.COM"
	_, err = f.auth.Register(ctx, req)
	assertCode(t, err, "VAL_006")
}

func TestAuth_Login(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	_, err := f.auth.Register(ctx, &models.RegisterRequest{Email: "p@example.com", Password: "secret1", Phone: "+2348000000001"})
	require.NoError(t, err)

	res, err := f.auth.Login(ctx, &models.LoginRequest{Email: "P@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = f.auth.Login(ctx, &models.LoginRequest{Email: "p@example.com", Password: "wrong"})
	assertCode(t, err, "AUTH_001")

	_, err = f.auth.Login(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	assertCode(t, err, "AUTH_001")
}

func TestAuth_EnsureAdmin(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()

	admin, created, err := f.auth.EnsureAdmin(ctx, "ops@example.com", "adminpass", "+2348000000009")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, admin.IsAdmin())

	again, created, err := f.auth.EnsureAdmin(ctx, "ops@example.com", "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)

	player := f.account(t, "player@example.com", "0", models.RoleUser)
	promoted, created, err := f.auth.EnsureAdmin(ctx, "player@example.com", "", "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, promoted.IsAdmin())

	stored, err := f.store.Accounts.FindByID(ctx, player.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}

// ---- game ----

func TestGame_PlaySettlesTwoMatches(t *testing.T) {
	f := newFixture(t, models.Digits{4, 4, 9})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "50", models.RoleUser)

	wager, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("10"), Guesses: []int{4, 4, 4}})
	require.NoError(t, err)

	assert.Equal(t, 2, wager.Matches)
	assert.True(t, dec("10").Equal(wager.Multiplier))
	assert.True(t, dec("100").Equal(wager.Payout))
	assert.True(t, dec("90").Equal(wager.Profit))
	assert.True(t, dec("50").Equal(wager.BalanceBefore))
	assert.True(t, dec("140").Equal(wager.BalanceAfter))
	assert.True(t, dec("140").Equal(f.balance(t, a.ID)))

	entries, err := f.store.Ledger.List(ctx, models.LedgerFilter{AccountID: &a.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	kinds := []models.LedgerKind{entries[0].Kind, entries[1].Kind}
	assert.ElementsMatch(t, []models.LedgerKind{models.KindBet, models.KindWin}, kinds)

	assert.Equal(t, []models.NotificationEvent{models.EventWin}, f.notifier.events())
}

func TestGame_PlayIsPositional(t *testing.T) {
	f := newFixture(t, models.Digits{3, 2, 1})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "10", models.RoleUser)

	wager, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("1"), Guesses: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 1, wager.Matches)
	assert.True(t, dec("11").Equal(f.balance(t, a.ID)))
	assert.Empty(t, f.notifier.events(), "one match does not notify")
}

func TestGame_PlayLossRecordsOnlyBet(t *testing.T) {
	f := newFixture(t, models.Digits{9, 9, 9})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "10", models.RoleUser)

	wager, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("2.50"), Guesses: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.Zero(t, wager.Matches)
	assert.True(t, wager.Payout.IsZero())
	assert.True(t, dec("7.5").Equal(f.balance(t, a.ID)))

	entries, err := f.store.Ledger.List(ctx, models.LedgerFilter{AccountID: &a.ID}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.KindBet, entries[0].Kind)
}

func TestGame_PlayRejections(t *testing.T) {
	tests := []struct {
		name    string
		bet     string
		guesses []int
		code    string
	}{
		{"below min bet", "0.5", []int{1, 2, 3}, "VAL_004"},
		{"above max bet", "1001", []int{1, 2, 3}, "VAL_004"},
		{"more than balance", "20", []int{1, 2, 3}, apperror.CodeInsufficientBalance},
		{"two guesses", "1", []int{1, 2}, "VAL_005"},
		{"guess out of range", "1", []int{1, 2, 10}, "VAL_005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, models.Digits{1, 2, 3})
			a := f.account(t, "p@example.com", "15", models.RoleUser)

			_, err := f.game.Play(context.Background(), a.ID, &models.PlayRequest{BetAmount: dec(tt.bet), Guesses: tt.guesses})
			assertCode(t, err, tt.code)
			assert.True(t, dec("15").Equal(f.balance(t, a.ID)), "balance unchanged")
		})
	}
}

func TestGame_PlayUsesCurrentPayoutConfig(t *testing.T) {
	f := newFixture(t, models.Digits{1, 2, 3})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	_, err := f.admin.UpdatePayoutConfig(ctx, admin.ID, models.PayoutConfigUpdate{
		Multipliers: map[string]decimal.Decimal{"3": dec("500")},
	})
	require.NoError(t, err)

	wager, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("2"), Guesses: []int{1, 2, 3}})
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(wager.Payout))
	assert.True(t, dec("1098").Equal(f.balance(t, a.ID)))
}

func TestGame_History(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	for i := 0; i < 3; i++ {
		_, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("1"), Guesses: []int{5, 5, 5}})
		require.NoError(t, err)
	}

	wagers, err := f.game.History(ctx, a.ID, 1, 2)
	require.NoError(t, err)
	assert.Len(t, wagers, 2)

	wagers, err = f.game.History(ctx, a.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, wagers, 1)
}

// racingAccounts loses every compare-and-swap after running onSwap, as if
// another request had changed the balance first.
type racingAccounts struct {
	repositories.AccountRepository
	mu     sync.Mutex
	swaps  int
	onSwap func(ctx context.Context, id primitive.ObjectID)
}

func (r *racingAccounts) CompareAndSwapBalance(ctx context.Context, id primitive.ObjectID, _, _ decimal.Decimal) (bool, error) {
	r.mu.Lock()
	r.swaps++
	r.mu.Unlock()
	if r.onSwap != nil {
		r.onSwap(ctx, id)
	}
	return false, nil
}

func (f *fixture) withRacingAccounts(drawn models.Digits, onSwap func(ctx context.Context, id primitive.ObjectID)) *racingAccounts {
	racing := &racingAccounts{AccountRepository: f.store.Accounts, onSwap: onSwap}
	store := *f.store
	store.Accounts = racing
	f.game = NewGameService(&store, utils.FixedDrawer(drawn), f.notifier, metrics.New(), logger.Nop())
	return racing
}

func TestGame_PlayGivesUpAfterLostRaces(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "10", models.RoleUser)
	racing := f.withRacingAccounts(models.Digits{0, 0, 0}, nil)

	_, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("5"), Guesses: []int{1, 1, 1}})
	assertCode(t, err, apperror.CodeBalanceConflict)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 409, appErr.HTTPStatus)
	assert.Equal(t, maxBalanceAttempts, racing.swaps)

	assert.True(t, dec("10").Equal(f.balance(t, a.ID)), "balance unchanged")
	wagers, err := f.store.Wagers.ListByAccount(ctx, a.ID, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, wagers)
	entries, err := f.store.Ledger.List(ctx, models.LedgerFilter{AccountID: &a.ID}, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestGame_PlayRechecksBalanceAfterLostRace(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "10", models.RoleUser)

	// the competing request spends most of the balance before our swap lands
	var once sync.Once
	racing := f.withRacingAccounts(models.Digits{0, 0, 0}, func(ctx context.Context, id primitive.ObjectID) {
		once.Do(func() {
			_, err := f.store.Accounts.IncrementBalance(ctx, id, dec("-8"))
			require.NoError(t, err)
		})
	})

	_, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("5"), Guesses: []int{1, 1, 1}})
	assertCode(t, err, apperror.CodeInsufficientBalance)
	assert.Equal(t, 1, racing.swaps, "no retry once the balance no longer covers the bet")
	assert.True(t, dec("2").Equal(f.balance(t, a.ID)))
}

func TestGame_ConcurrentWagersNeverOverdraw(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "10", models.RoleUser)

	const players = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		settled  int
		failures []error
	)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("5"), Guesses: []int{1, 1, 1}})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				return
			}
			settled++
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, settled, 1)
	assert.LessOrEqual(t, settled, 2)
	for _, err := range failures {
		assert.True(t,
			apperror.HasCode(err, apperror.CodeInsufficientBalance) || apperror.HasCode(err, apperror.CodeBalanceConflict),
			"unexpected error %v", err)
	}

	balance := f.balance(t, a.ID)
	assert.False(t, balance.IsNegative())
	assert.True(t, dec("10").Sub(dec("5").Mul(decimal.NewFromInt(int64(settled)))).Equal(balance))

	bets, err := f.store.Ledger.List(ctx, models.LedgerFilter{AccountID: &a.ID, Kind: models.KindBet}, 0, 100)
	require.NoError(t, err)
	assert.Len(t, bets, settled, "one bet entry per settled wager")
	wagers, err := f.store.Wagers.ListByAccount(ctx, a.ID, 0, 100)
	require.NoError(t, err)
	assert.Len(t, wagers, settled)
}

// ---- withdrawals ----

func TestWithdrawal_RequestAlertsUserAndAdmins(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	entry, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("40"), Details: map[string]interface{}{"bank": "GTB"}})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, entry.Status)
	assert.Regexp(t, `^WD-[0-9A-F]{10}$`, entry.Reference)
	assert.True(t, dec("100").Equal(f.balance(t, a.ID)), "no hold at request time")

	assert.Equal(t, []models.NotificationEvent{models.EventWithdrawalRequested, models.EventWithdrawalAlert}, f.notifier.events())
	assert.Contains(t, f.notifier.sent[1].Message, "https://play.example.com/admin/withdrawals")
}

func TestWithdrawal_RequestValidation(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	a := f.account(t, "p@example.com", "10", models.RoleUser)

	_, err := f.withdraw.Request(context.Background(), a.ID, &models.WithdrawalRequest{Amount: dec("0")})
	assertCode(t, err, "VAL_002")

	_, err = f.withdraw.Request(context.Background(), a.ID, &models.WithdrawalRequest{Amount: dec("11")})
	assertCode(t, err, apperror.CodeInsufficientBalance)
}

func TestWithdrawal_ApproveDebitsOnce(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	entry, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("40")})
	require.NoError(t, err)

	approved, err := f.withdraw.Approve(ctx, entry.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ProcessedBy)
	assert.Equal(t, admin.ID, *approved.ProcessedBy)
	assert.NotNil(t, approved.ProcessedAt)
	assert.True(t, dec("60").Equal(f.balance(t, a.ID)))

	_, err = f.withdraw.Approve(ctx, entry.ID, admin.ID)
	assertCode(t, err, apperror.CodeAlreadyProcessed)
	_, err = f.withdraw.Reject(ctx, entry.ID, admin.ID, "late")
	assertCode(t, err, apperror.CodeAlreadyProcessed)
	assert.True(t, dec("60").Equal(f.balance(t, a.ID)))
}

func TestWithdrawal_ApproveRechecksBalance(t *testing.T) {
	f := newFixture(t, models.Digits{9, 9, 9})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "50", models.RoleUser)

	entry, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("50")})
	require.NoError(t, err)

	// Lose most of the balance before approval.
	_, err = f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("30"), Guesses: []int{1, 2, 3}})
	require.NoError(t, err)

	_, err = f.withdraw.Approve(ctx, entry.ID, admin.ID)
	assertCode(t, err, apperror.CodeInsufficientBalance)

	stored, err := f.store.Ledger.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.True(t, dec("20").Equal(f.balance(t, a.ID)))
}

func TestWithdrawal_RejectKeepsBalance(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	entry, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("40")})
	require.NoError(t, err)

	rejected, err := f.withdraw.Reject(ctx, entry.ID, admin.ID, "KYC incomplete")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "KYC incomplete", rejected.Reason)
	assert.True(t, dec("100").Equal(f.balance(t, a.ID)))

	_, err = f.withdraw.Approve(ctx, entry.ID, admin.ID)
	assertCode(t, err, apperror.CodeAlreadyProcessed)
}

func TestWithdrawal_UnknownID(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	_, err := f.withdraw.Approve(context.Background(), primitive.NewObjectID(), primitive.NewObjectID())
	assertCode(t, err, apperror.CodeNotFound)
}

func TestWithdrawal_ConcurrentApprovalsDebitOnce(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "100", models.RoleUser)

	entry, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("30")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.withdraw.Approve(ctx, entry.ID, admin.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	assert.True(t, dec("70").Equal(f.balance(t, a.ID)))
}

func TestWithdrawal_MineAndList(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "a@example.com", "100", models.RoleUser)
	b := f.account(t, "b@example.com", "100", models.RoleUser)

	first, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("10")})
	require.NoError(t, err)
	_, err = f.withdraw.Request(ctx, b.ID, &models.WithdrawalRequest{Amount: dec("10")})
	require.NoError(t, err)
	_, err = f.withdraw.Approve(ctx, first.ID, admin.ID)
	require.NoError(t, err)

	mine, err := f.withdraw.Mine(ctx, a.ID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.withdraw.List(ctx, "", 1, 50)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := f.withdraw.List(ctx, models.StatusPending, 1, 50)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].AccountID)
}

// ---- payments ----

func TestPayment_CompletedDepositCreditsExactly(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	a := f.account(t, "p@example.com", "0", models.RoleUser)

	body := []byte(`{"status":"completed","amount":"25.50","reference":"PAY-1","metadata":{"userId":"` + a.ID.Hex() + `"}}`)
	msg, err := f.payments.HandleWebhook(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, "Deposit processed", msg)
	assert.True(t, dec("25.50").Equal(f.balance(t, a.ID)))

	entries, err := f.store.Ledger.List(ctx, models.LedgerFilter{AccountID: &a.ID, Kind: models.KindDeposit}, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.StatusCompleted, entries[0].Status)
	assert.Equal(t, "PAY-1", entries[0].Reference)
	assert.Equal(t, "completed", entries[0].Details["status"])

	// No idempotency: a replay credits again.
	_, err = f.payments.HandleWebhook(ctx, body)
	require.NoError(t, err)
	assert.True(t, dec("51").Equal(f.balance(t, a.ID)))
	assert.Equal(t, []models.NotificationEvent{models.EventDeposit, models.EventDeposit}, f.notifier.events())
}

func TestPayment_LocatesByEmailAndAcceptsNumericAmount(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	a := f.account(t, "p@example.com", "1", models.RoleUser)

	_, err := f.payments.HandleWebhook(context.Background(), []byte(`{"status":"completed","amount":10.25,"metadata":{"email":"P@example.com"}}`))
	require.NoError(t, err)
	assert.True(t, dec("11.25").Equal(f.balance(t, a.ID)))
}

func TestPayment_Rejections(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	a := f.account(t, "p@example.com", "5", models.RoleUser)
	ctx := context.Background()

	_, err := f.payments.HandleWebhook(ctx, []byte(`{"status":"completed","amount":"10","metadata":{"email":"ghost@example.com"}}`))
	assertCode(t, err, apperror.CodeNotFound)

	_, err = f.payments.HandleWebhook(ctx, []byte(`{"status":"completed","amount":"-3","metadata":{"userId":"`+a.ID.Hex()+`"}}`))
	assertCode(t, err, "VAL_002")

	_, err = f.payments.HandleWebhook(ctx, []byte(`{"status":"completed","amount":"abc"}`))
	assertCode(t, err, "VAL_001")

	// valid JSON that is not an object cannot be recorded as entry details
	_, err = f.payments.HandleWebhook(ctx, []byte(`["completed", 10]`))
	assertCode(t, err, "VAL_001")

	_, err = f.payments.HandleWebhook(ctx, []byte(`not json`))
	assertCode(t, err, "VAL_001")

	msg, err := f.payments.HandleWebhook(ctx, []byte(`{"status":"failed","amount":"10","metadata":{"userId":"`+a.ID.Hex()+`"}}`))
	require.NoError(t, err)
	assert.Equal(t, "Webhook received", msg)
	assert.True(t, dec("5").Equal(f.balance(t, a.ID)))
}

func TestPayment_VerifySignature(t *testing.T) {
	body := []byte(`{"status":"completed"}`)
	mac := hmac.New(sha256.New, []byte("hook-secret"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	open := NewPaymentService(memory.NewStore(), &recordingNotifier{}, "", logger.Nop())
	assert.NoError(t, open.VerifySignature(body, ""))

	signed := NewPaymentService(memory.NewStore(), &recordingNotifier{}, "hook-secret", logger.Nop())
	assert.NoError(t, signed.VerifySignature(body, good))
	assert.Error(t, signed.VerifySignature(body, ""))
	assert.Error(t, signed.VerifySignature(body, "zz"))
	assert.Error(t, signed.VerifySignature([]byte(`{"status":"tampered"}`), good))
}

// ---- admin ----

func TestAdmin_Credit(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "5", models.RoleUser)

	account, entry, err := f.admin.Credit(ctx, admin.ID, &models.CreditRequest{UserID: a.ID.Hex(), Amount: dec("7.25"), Reason: "goodwill"})
	require.NoError(t, err)
	assert.True(t, dec("12.25").Equal(account.Balance))
	assert.Equal(t, models.KindCredit, entry.Kind)
	assert.Equal(t, "goodwill", entry.Reason)
	assert.Equal(t, admin.ID, *entry.ProcessedBy)
	assert.Equal(t, []models.NotificationEvent{models.EventCredit}, f.notifier.events())

	_, _, err = f.admin.Credit(ctx, admin.ID, &models.CreditRequest{UserID: a.ID.Hex(), Amount: dec("0"), Reason: "x"})
	assertCode(t, err, "VAL_002")

	_, _, err = f.admin.Credit(ctx, admin.ID, &models.CreditRequest{UserID: primitive.NewObjectID().Hex(), Amount: dec("1"), Reason: "x"})
	assertCode(t, err, apperror.CodeNotFound)
}

func TestAdmin_UpdatePayoutConfig(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)

	maxBet := dec("500")
	cfg, err := f.admin.UpdatePayoutConfig(ctx, admin.ID, models.PayoutConfigUpdate{MaxBet: &maxBet})
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(cfg.MaxBet))
	assert.True(t, dec("1").Equal(cfg.MinBet), "untouched fields keep their value")
	assert.True(t, dec("100").Equal(cfg.Multipliers["3"]))
	assert.Equal(t, admin.ID.Hex(), cfg.UpdatedBy)

	minBet := dec("600")
	_, err = f.admin.UpdatePayoutConfig(ctx, admin.ID, models.PayoutConfigUpdate{MinBet: &minBet})
	assertCode(t, err, "VAL_001")

	_, err = f.admin.UpdatePayoutConfig(ctx, admin.ID, models.PayoutConfigUpdate{Multipliers: map[string]decimal.Decimal{"0": dec("1")}})
	assertCode(t, err, "VAL_001")

	_, err = f.admin.UpdatePayoutConfig(ctx, admin.ID, models.PayoutConfigUpdate{})
	assertCode(t, err, "VAL_001")

	stored, err := f.game.Settings(ctx)
	require.NoError(t, err)
	assert.True(t, dec("500").Equal(stored.MaxBet))
}

func TestAdmin_SendSMSRecordsPartialOutcome(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)

	ok := &models.Account{Email: "ok@example.com", Phone: "+2348000000001", Role: models.RoleUser}
	bad := &models.Account{Email: "bad@example.com", Phone: "+2348000000002", Role: models.RoleUser}
	require.NoError(t, f.store.Accounts.Create(ctx, ok))
	require.NoError(t, f.store.Accounts.Create(ctx, bad))
	f.gateway.fail[bad.Phone] = true

	res, err := f.admin.SendSMS(ctx, admin.ID, &models.SendSMSRequest{UserIDs: []string{ok.ID.Hex(), bad.ID.Hex()}, Message: "Promo"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, models.NotificationPartial, res.Log.Status)
	assert.Equal(t, admin.ID.Hex(), res.Log.IssuedBy)

	logs, total, err := f.admin.SMSLogs(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, models.EventAdminBroadcast, logs[0].Source)

	_, err = f.admin.SendSMS(ctx, admin.ID, &models.SendSMSRequest{UserIDs: []string{"not-an-id"}, Message: "x"})
	assertCode(t, err, "VAL_001")
}

func TestAdmin_SendSMSAllSkipsAdmins(t *testing.T) {
	f := newFixture(t, models.Digits{0, 0, 0})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	f.account(t, "a@example.com", "0", models.RoleUser)
	f.account(t, "b@example.com", "0", models.RoleUser)

	res, err := f.admin.SendSMSAll(ctx, admin.ID, "Weekend bonus")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Len(t, res.Log.Recipients, 2)
	assert.Equal(t, models.NotificationSent, res.Log.Status)
}

func TestAdmin_Stats(t *testing.T) {
	f := newFixture(t, models.Digits{4, 4, 9})
	ctx := context.Background()
	admin := f.account(t, "ops@example.com", "0", models.RoleAdmin)
	a := f.account(t, "p@example.com", "0", models.RoleUser)

	_, err := f.payments.HandleWebhook(ctx, []byte(`{"status":"completed","amount":"100","metadata":{"userId":"`+a.ID.Hex()+`"}}`))
	require.NoError(t, err)
	_, err = f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("10"), Guesses: []int{4, 4, 4}})
	require.NoError(t, err)
	_, err = f.game.Play(ctx, a.ID, &models.PlayRequest{BetAmount: dec("5"), Guesses: []int{0, 0, 0}})
	require.NoError(t, err)
	w, err := f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("20")})
	require.NoError(t, err)
	_, err = f.withdraw.Request(ctx, a.ID, &models.WithdrawalRequest{Amount: dec("15")})
	require.NoError(t, err)
	_, err = f.withdraw.Approve(ctx, w.ID, admin.ID)
	require.NoError(t, err)
	_, _, err = f.admin.Credit(ctx, admin.ID, &models.CreditRequest{UserID: a.ID.Hex(), Amount: dec("3"), Reason: "bonus"})
	require.NoError(t, err)

	stats, err := f.admin.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalAccounts)
	assert.True(t, dec("100").Equal(stats.TotalDeposits))
	assert.Equal(t, int64(1), stats.DepositCount)
	assert.True(t, dec("20").Equal(stats.TotalWithdrawals))
	assert.Equal(t, int64(1), stats.PendingWithdrawals)
	assert.True(t, dec("15").Equal(stats.PendingWithdrawSum))
	assert.True(t, dec("3").Equal(stats.TotalCredits))
	assert.True(t, dec("15").Equal(stats.TotalBets))
	assert.Equal(t, int64(2), stats.BetCount)
	assert.True(t, dec("100").Equal(stats.TotalWins))
	assert.True(t, dec("-85").Equal(stats.HouseProfit))
}
