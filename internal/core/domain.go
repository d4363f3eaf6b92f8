package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// HappinessUnrated marks a transaction the user has not rated yet.
	HappinessUnrated = 0

	HappinessMin = 1
	HappinessMax = 5
)

// CategoryOther is the designated label for merchants no rule or
// classifier can place.
const CategoryOther = "Other"

type (
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is one purchase in a reflection session. Category is
	// empty until categorized, Happiness is HappinessUnrated until the
	// user rates it, and Regret is derived from Amount and Happiness:
	// it is only meaningful while Rated() is true and must never be set
	// directly.
	Transaction struct {
		Date      Date
		Merchant  string
		Amount    Money
		Category  string
		Happiness int
		Regret    Money
	}
)

var (
	ErrInvalidDate    = errors.New("invalid date")
	ErrEmptyMerchant  = errors.New("empty merchant")
	ErrNegativeAmount = errors.New("negative amount")
	ErrHappinessRange = errors.New("happiness out of range 1-5")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// RegretScore computes amount * (1 - happiness/5) in cents with half-up
// rounding. Both arguments are expected to come from validated
// transactions; the error returns guard the invariant rather than model
// a recoverable path.
func RegretScore(amount Money, happiness int) (Money, error) {
	if amount.Cents < 0 {
		return Money{}, ErrNegativeAmount
	}
	if happiness < HappinessMin || happiness > HappinessMax {
		return Money{}, ErrHappinessRange
	}
	n := amount.Cents * int64(HappinessMax-happiness)
	q := n / int64(HappinessMax)
	if n%int64(HappinessMax)*2 >= int64(HappinessMax) {
		q++
	}
	return Money{Cents: q}, nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Merchant) == "" {
		return ErrEmptyMerchant
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Happiness != HappinessUnrated &&
		(t.Happiness < HappinessMin || t.Happiness > HappinessMax) {
		return ErrHappinessRange
	}
	return nil
}

// Rated reports whether the user has assigned a happiness score.
func (t Transaction) Rated() bool {
	return t.Happiness != HappinessUnrated
}

// Rate sets the happiness score and recomputes the regret score. The
// two fields always move together.
func (t *Transaction) Rate(happiness int) error {
	r, err := RegretScore(t.Amount, happiness)
	if err != nil {
		return err
	}
	t.Happiness = happiness
	t.Regret = r
	return nil
}

// SetAmount changes the amount and, for rated transactions, recomputes
// the regret score so it never drifts from its inputs.
func (t *Transaction) SetAmount(amount Money) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	t.Amount = amount
	if t.Rated() {
		r, err := RegretScore(t.Amount, t.Happiness)
		if err != nil {
			return err
		}
		t.Regret = r
	}
	return nil
}
