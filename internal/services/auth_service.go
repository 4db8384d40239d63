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
	"github.com/ArowuTest/tripledigit-backend/pkg/smsgateway"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles signup, login and admin provisioning
type AuthService struct {
	accounts repositories.AccountRepository
	tokens   *utils.TokenManager
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(accounts repositories.AccountRepository, tokens *utils.TokenManager, log zerolog.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		log:      log.With().Str("component", "auth").Logger(),
	}
}

// Register creates a player account and signs it in. New accounts always
// start with a zero balance and the user role.
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.AuthResult, error) {
	email := normalizeEmail(req.Email)
	phone := smsgateway.NormalizePhone(req.Phone)
	if phone == "" {
		return nil, apperror.Validation("A valid phone number is required")
	}

	_, err := s.accounts.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperror.ErrEmailTaken()
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, apperror.InternalError(fmt.Errorf("looking up email: %w", err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now()
	account := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		Phone:        phone,
		Balance:      decimal.Zero,
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperror.ErrEmailTaken()
		}
		return nil, apperror.InternalError(fmt.Errorf("creating account: %w", err))
	}

	s.log.Info().Str("account_id", account.ID.Hex()).Msg("account registered")
	return s.issue(account)
}

// Login verifies credentials. Unknown email and wrong password produce the
// same error.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResult, error) {
	account, err := s.accounts.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, apperror.ErrInvalidCredentials()
		}
		return nil, apperror.InternalError(fmt.Errorf("looking up email: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials()
	}
	return s.issue(account)
}

// Me returns the account behind an authenticated principal.
func (s *AuthService) Me(ctx context.Context, accountID string) (*models.Account, error) {
	id, err := ParseID("User", accountID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("User", "loading account", err)
	}
	return account, nil
}

// EnsureAdmin creates an admin account, or promotes the existing account
// with that email. The password is only set on creation. It reports whether
// a new account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password, phone string) (*models.Account, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, apperror.Validation("Admin email is required")
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			if err := s.accounts.SetRole(ctx, existing.ID, models.RoleAdmin); err != nil {
				return nil, false, apperror.InternalError(fmt.Errorf("promoting account: %w", err))
			}
			existing.Role = models.RoleAdmin
			s.log.Info().Str("account_id", existing.ID.Hex()).Msg("account promoted to admin")
		}
		return existing, false, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, false, apperror.InternalError(fmt.Errorf("looking up admin: %w", err))
	}

	if len(password) < 6 {
		return nil, false, apperror.Validation("Admin password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("hashing password: %w", err))
	}

	now := time.Now()
	admin := &models.Account{
		Email:        email,
		PasswordHash: string(hash),
		Phone:        smsgateway.NormalizePhone(phone),
		Balance:      decimal.Zero,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return nil, false, apperror.InternalError(fmt.Errorf("creating admin: %w", err))
	}

	s.log.Info().Str("account_id", admin.ID.Hex()).Msg("admin account created")
	return admin, true, nil
}

func (s *AuthService) issue(account *models.Account) (*models.AuthResult, error) {
	token, err := s.tokens.Generate(account)
	if err != nil {
		return nil, apperror.InternalError(err)
	}
	return &models.AuthResult{Token: token, Account: account}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
