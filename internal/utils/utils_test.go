package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCountMatches(t *testing.T) {
	tests := []struct {
		name  string
		guess models.Digits
		drawn models.Digits
		want  int
	}{
		{"positional not set based", models.Digits{1, 2, 3}, models.Digits{3, 2, 1}, 1},
		{"all match", models.Digits{7, 7, 7}, models.Digits{7, 7, 7}, 3},
		{"two match", models.Digits{4, 4, 4}, models.Digits{4, 4, 9}, 2},
		{"none", models.Digits{0, 1, 2}, models.Digits{9, 8, 7}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CountMatches(tt.guess, tt.drawn))
		})
	}
}

func TestParseGuesses(t *testing.T) {
	d, ok := ParseGuesses([]int{0, 5, 9})
	require.True(t, ok)
	assert.Equal(t, models.Digits{0, 5, 9}, d)

	for _, bad := range [][]int{nil, {1, 2}, {1, 2, 3, 4}, {1, 10, 2}, {-1, 0, 0}} {
		_, ok := ParseGuesses(bad)
		assert.False(t, ok, "%v", bad)
	}
}

func TestCryptoDrawer_Range(t *testing.T) {
	var drawer CryptoDrawer
	for i := 0; i < 200; i++ {
		d, err := drawer.Draw()
		require.NoError(t, err)
		for _, v := range d {
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 9)
		}
	}
}

func TestFixedDrawer(t *testing.T) {
	d, err := FixedDrawer{4, 4, 9}.Draw()
	require.NoError(t, err)
	assert.Equal(t, models.Digits{4, 4, 9}, d)
}

func TestGenerateReference(t *testing.T) {
	a := GenerateReference("WD")
	b := GenerateReference("WD")

	assert.True(t, strings.HasPrefix(a, "WD-"))
	assert.Len(t, a, 13)
	assert.NotEqual(t, a, b)
	assert.Equal(t, strings.ToUpper(a), a)
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		page, limit         string
		wantPage, wantLimit int
	}{
		{"", "", 1, DefaultPageLimit},
		{"3", "20", 3, 20},
		{"0", "-5", 1, DefaultPageLimit},
		{"abc", "1000", 1, MaxPageLimit},
	}
	for _, tt := range tests {
		page, limit := ParsePagination(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, page)
		assert.Equal(t, tt.wantLimit, limit)
	}

	assert.Equal(t, int64(40), Skip(3, 20))
	assert.Equal(t, int64(0), Skip(0, 20))
}

func testAccount(role models.Role) *models.Account {
	return &models.Account{ID: primitive.NewObjectID(), Email: "p@example.com", Role: role}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "tripledigit-test")
	acct := testAccount(models.RoleAdmin)

	token, err := m.Generate(acct)
	require.NoError(t, err)

	p, err := m.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, acct.ID.Hex(), p.AccountID)
	assert.Equal(t, "p@example.com", p.Email)
	assert.Equal(t, models.RoleAdmin, p.Role)
}

func TestTokenManager_Expired(t *testing.T) {
	m := NewTokenManager("secret", -time.Minute, "tripledigit-test")

	token, err := m.Generate(testAccount(models.RoleUser))
	require.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := NewTokenManager("secret", time.Hour, "tripledigit-test")

	other := NewTokenManager("other-secret", time.Hour, "tripledigit-test")
	foreign, err := other.Generate(testAccount(models.RoleUser))
	require.NoError(t, err)
	_, err = m.Validate(foreign)
	assert.Error(t, err, "wrong secret")

	wrongIssuer := NewTokenManager("secret", time.Hour, "someone-else")
	tok, err := wrongIssuer.Generate(testAccount(models.RoleUser))
	require.NoError(t, err)
	_, err = m.Validate(tok)
	assert.Error(t, err, "wrong issuer")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
		"iss":  "tripledigit-test",
	})
	s, err := forged.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = m.Validate(s)
	assert.Error(t, err, "unknown role")

	_, err = m.Validate("not-a-jwt")
	assert.Error(t, err)
}
