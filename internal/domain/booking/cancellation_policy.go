package booking

import (
	"errors"
	"strings"
	"time"

	"campbook/internal/domain/shared/money"
)

var ErrUnknownPolicy = errors.New("booking: unknown cancellation policy")

type CancellationPolicy string

const (
	PolicyFlexible    CancellationPolicy = "FLEXIBLE"
	PolicyModerate    CancellationPolicy = "MODERATE"
	PolicyStrict      CancellationPolicy = "STRICT"
	PolicySuperStrict CancellationPolicy = "SUPER_STRICT"
)

// refundTier pays `early` percent when cancelled at least minDays before check-in, `late` otherwise.
type refundTier struct {
	minDays int
	early   int
	late    int
}

var refundTiers = map[CancellationPolicy]refundTier{
	PolicyFlexible:    {minDays: 1, early: 100, late: 0},
	PolicyModerate:    {minDays: 5, early: 100, late: 50},
	PolicyStrict:      {minDays: 7, early: 50, late: 0},
	PolicySuperStrict: {minDays: 0, early: 0, late: 0},
}

func ParsePolicy(raw string) (CancellationPolicy, error) {
	p := CancellationPolicy(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := refundTiers[p]; !ok {
		return "", ErrUnknownPolicy
	}
	return p, nil
}

func (p CancellationPolicy) Valid() bool {
	_, ok := refundTiers[p]
	return ok
}

// Refund is the outcome of applying a policy at cancellation time.
type Refund struct {
	Policy     CancellationPolicy
	DaysUntil  int
	Percentage int
	Amount     money.Money
	Penalty    money.Money
}

// DaysUntil counts whole days, rounded up, from cancelAt to checkIn. Never negative.
func DaysUntil(checkIn, cancelAt time.Time) int {
	d := checkIn.Sub(cancelAt)
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	return days
}

// RefundPercentage looks up the refund share for a policy.
func RefundPercentage(policy CancellationPolicy, daysUntil int) (int, error) {
	tier, ok := refundTiers[policy]
	if !ok {
		return 0, ErrUnknownPolicy
	}
	if daysUntil < 0 {
		daysUntil = 0
	}
	if daysUntil >= tier.minDays {
		return tier.early, nil
	}
	return tier.late, nil
}

// ResolveRefund applies the policy table to a booking total. Pure; the caller guards
// against resolving refunds for bookings that are already cancelled.
func ResolveRefund(policy CancellationPolicy, total money.Money, checkIn, cancelAt time.Time) (Refund, error) {
	days := DaysUntil(checkIn, cancelAt)
	percent, err := RefundPercentage(policy, days)
	if err != nil {
		return Refund{}, err
	}
	amount := total.Percent(percent)
	penalty, err := total.Sub(amount)
	if err != nil {
		return Refund{}, err
	}
	return Refund{
		Policy:     policy,
		DaysUntil:  days,
		Percentage: percent,
		Amount:     amount,
		Penalty:    penalty,
	}, nil
}
