package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/google/uuid"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 200
)

// DigitDrawer produces the digits a wager is settled against.
type DigitDrawer interface {
	Draw() (models.Digits, error)
}

// CryptoDrawer draws independent uniform digits from crypto/rand.
type CryptoDrawer struct{}

// Draw returns three digits in the range 0-9
func (CryptoDrawer) Draw() (models.Digits, error) {
	var d models.Digits
	ten := big.NewInt(10)
	for i := range d {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return d, err
		}
		d[i] = int(n.Int64())
	}
	return d, nil
}

// FixedDrawer always returns the same digits.
type FixedDrawer models.Digits

func (f FixedDrawer) Draw() (models.Digits, error) {
	return models.Digits(f), nil
}

// ParseGuesses validates that exactly three single digits were supplied.
func ParseGuesses(guesses []int) (models.Digits, bool) {
	var d models.Digits
	if len(guesses) != models.DigitCount {
		return d, false
	}
	for i, g := range guesses {
		if g < 0 || g > 9 {
			return d, false
		}
		d[i] = g
	}
	return d, true
}

// CountMatches counts positions where guess and drawn agree. Order matters:
// [1,2,3] against [3,2,1] is one match.
func CountMatches(guess, drawn models.Digits) int {
	matches := 0
	for i := range guess {
		if guess[i] == drawn[i] {
			matches++
		}
	}
	return matches
}

// GenerateReference returns a short unique reference such as WD-3F9A0C1B7E.
func GenerateReference(prefix string) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return prefix + "-" + id[:10]
}

// ParsePagination reads page and limit query values, falling back to the
// defaults on missing or out-of-range input.
func ParsePagination(pageStr, limitStr string) (page, limit int) {
	page, limit = 1, DefaultPageLimit
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
		limit = l
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// Skip converts a page/limit pair into a document offset.
func Skip(page, limit int) int64 {
	if page < 1 {
		page = 1
	}
	return int64((page - 1) * limit)
}
