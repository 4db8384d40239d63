package models

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PayoutConfigID is the fixed document id of the payout configuration
const PayoutConfigID = "payout_config"

// PayoutConfig holds the bet limits and the match-count multiplier table.
// Zero matches always pays nothing and has no entry in Multipliers.
type PayoutConfig struct {
	ID          string                     `bson:"_id" json:"-"`
	MinBet      decimal.Decimal            `bson:"minBet" json:"minBet"`
	MaxBet      decimal.Decimal            `bson:"maxBet" json:"maxBet"`
	Multipliers map[string]decimal.Decimal `bson:"multipliers" json:"multipliers"`
	UpdatedBy   string                     `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt   time.Time                  `bson:"updatedAt" json:"updatedAt"`
}

// DefaultPayoutConfig returns the configuration used until an admin changes it.
func DefaultPayoutConfig() *PayoutConfig {
	return &PayoutConfig{
		ID:     PayoutConfigID,
		MinBet: decimal.NewFromInt(1),
		MaxBet: decimal.NewFromInt(1000),
		Multipliers: map[string]decimal.Decimal{
			"1": decimal.NewFromInt(2),
			"2": decimal.NewFromInt(10),
			"3": decimal.NewFromInt(100),
		},
		UpdatedAt: time.Now(),
	}
}

// Multiplier returns the payout factor for the given match count.
func (p *PayoutConfig) Multiplier(matches int) decimal.Decimal {
	if matches <= 0 {
		return decimal.Zero
	}
	if m, ok := p.Multipliers[strconv.Itoa(matches)]; ok {
		return m
	}
	return decimal.Zero
}

// Validate checks bet limits and multiplier table.
func (p *PayoutConfig) Validate() error {
	if !p.MinBet.IsPositive() {
		return errors.New("minBet must be greater than zero")
	}
	if p.MaxBet.LessThan(p.MinBet) {
		return errors.New("maxBet must not be below minBet")
	}
	for k, m := range p.Multipliers {
		if !validMultiplierKey(k) {
			return fmt.Errorf("multiplier key %q must be one of 1, 2, 3", k)
		}
		if m.IsNegative() {
			return fmt.Errorf("multiplier for %s matches must not be negative", k)
		}
	}
	return nil
}

// PayoutConfigUpdate is a partial change; nil or absent fields keep their
// current value.
type PayoutConfigUpdate struct {
	MinBet      *decimal.Decimal           `json:"minBet"`
	MaxBet      *decimal.Decimal           `json:"maxBet"`
	Multipliers map[string]decimal.Decimal `json:"multipliers"`
}

// Empty reports whether the update changes nothing.
func (u PayoutConfigUpdate) Empty() bool {
	return u.MinBet == nil && u.MaxBet == nil && len(u.Multipliers) == 0
}

// Apply returns a copy of p with u merged in, validated as a whole.
func (p *PayoutConfig) Apply(u PayoutConfigUpdate) (*PayoutConfig, error) {
	next := &PayoutConfig{
		ID:          PayoutConfigID,
		MinBet:      p.MinBet,
		MaxBet:      p.MaxBet,
		Multipliers: make(map[string]decimal.Decimal, len(p.Multipliers)),
		UpdatedBy:   p.UpdatedBy,
		UpdatedAt:   p.UpdatedAt,
	}
	for k, v := range p.Multipliers {
		next.Multipliers[k] = v
	}

	if u.MinBet != nil {
		next.MinBet = *u.MinBet
	}
	if u.MaxBet != nil {
		next.MaxBet = *u.MaxBet
	}
	for k, v := range u.Multipliers {
		if !validMultiplierKey(k) {
			return nil, fmt.Errorf("multiplier key %q must be one of 1, 2, 3", k)
		}
		next.Multipliers[k] = v
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}
	return next, nil
}

func validMultiplierKey(k string) bool {
	n, err := strconv.Atoi(k)
	return err == nil && n >= 1 && n <= DigitCount && strconv.Itoa(n) == k
}
