package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to an HTTP response.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"error"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // internal cause, logged but never sent to clients
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// ---- Validation (VAL) ----

// Validation returns a generic 400 with the given message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

func ErrInvalidAmount() *AppError {
	return New("VAL_002", "Invalid amount", http.StatusBadRequest)
}

func ErrInsufficientBalance() *AppError {
	return New("VAL_003", "Insufficient balance", http.StatusBadRequest)
}

func ErrBetOutOfRange(min, max string) *AppError {
	return New("VAL_004", fmt.Sprintf("Bet must be between %s and %s", min, max), http.StatusBadRequest)
}

func ErrInvalidGuesses() *AppError {
	return New("VAL_005", "Exactly three guesses between 0 and 9 are required", http.StatusBadRequest)
}

func ErrEmailTaken() *AppError {
	return New("VAL_006", "Email already registered", http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrMissingToken() *AppError {
	return New("AUTH_002", "Authorization header is required", http.StatusUnauthorized)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

func ErrTokenExpired() *AppError {
	return New("AUTH_004", "Token has expired", http.StatusUnauthorized)
}

func ErrForbidden() *AppError {
	return New("AUTH_005", "Admin access required", http.StatusForbidden)
}

func ErrInvalidSignature() *AppError {
	return New("AUTH_006", "Invalid webhook signature", http.StatusUnauthorized)
}

// ---- Resources & state (TXN) ----

func ErrNotFound(entity string) *AppError {
	return New("TXN_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrAlreadyProcessed() *AppError {
	return New("TXN_002", "Transaction already processed", http.StatusBadRequest)
}

// ErrBalanceConflict is returned when a balance kept changing under
// concurrent writes and the retry budget ran out.
func ErrBalanceConflict() *AppError {
	return New("TXN_003", "Balance changed concurrently, please retry", http.StatusConflict)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

const (
	CodeInsufficientBalance = "VAL_003"
	CodeNotFound            = "TXN_001"
	CodeAlreadyProcessed    = "TXN_002"
	CodeBalanceConflict     = "TXN_003"
)
