package money

import (
	"errors"
	"math"
	"strconv"
)

const ratePrecision = 1_000_000

var ErrInvalidRate = errors.New("money: rate must be between 0 and 1")

// Rate is a fraction stored in parts per million, so 0.08 is Rate(80000).
type Rate int64

// RateFromFloat converts a decimal fraction to a Rate rounding to the nearest ppm.
func RateFromFloat(f float64) Rate {
	return Rate(math.Round(f * ratePrecision))
}

// RateFromPercent converts whole percents to a Rate.
func RateFromPercent(p int) Rate {
	return Rate(int64(p) * ratePrecision / 100)
}

func (r Rate) Float64() float64 {
	return float64(r) / ratePrecision
}

// Validate checks the rate lies inside [0, 1].
func (r Rate) Validate() error {
	if r < 0 || r > ratePrecision {
		return ErrInvalidRate
	}
	return nil
}

func (r Rate) String() string {
	return strconv.FormatFloat(r.Float64(), 'f', -1, 64)
}
