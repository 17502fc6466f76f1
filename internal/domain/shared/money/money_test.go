package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campbook/internal/domain/shared/money"
)

func TestNew_NormalizesCurrency(t *testing.T) {
	m, err := money.New(1250, "usd")

	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)
	assert.Equal(t, int64(1250), m.Amount)
}

func TestNew_RejectsBadCurrency(t *testing.T) {
	_, err := money.New(100, "US")

	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	_, err := money.Must(100, "USD").Add(money.Must(100, "EUR"))

	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestMulRate_RoundsHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		rate   money.Rate
		want   int64
	}{
		{"exact", 30000, money.RateFromFloat(0.1), 3000},
		{"tax on 380.00", 38000, money.RateFromFloat(0.08), 3040},
		{"half rounds up", 5, money.RateFromFloat(0.5), 3},
		{"below half rounds down", 4, money.RateFromFloat(0.1), 0},
		{"negative half rounds away", -5, money.RateFromFloat(0.5), -3},
		{"large amount", 12_345_678_901, money.RateFromFloat(0.0875), 1_080_246_904},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := money.Must(tt.amount, "USD").MulRate(tt.rate)
			assert.Equal(t, tt.want, got.Amount)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, int64(20520), money.Must(41040, "USD").Percent(50).Amount)
	assert.Equal(t, int64(1), money.Must(1, "USD").Percent(50).Amount)
	assert.Equal(t, int64(0), money.Must(41040, "USD").Percent(0).Amount)
}

func TestRate_Validate(t *testing.T) {
	assert.NoError(t, money.RateFromFloat(0).Validate())
	assert.NoError(t, money.RateFromFloat(1).Validate())
	assert.ErrorIs(t, money.RateFromFloat(1.2).Validate(), money.ErrInvalidRate)
	assert.ErrorIs(t, money.RateFromFloat(-0.1).Validate(), money.ErrInvalidRate)
}

func TestString(t *testing.T) {
	assert.Equal(t, "USD 410.40", money.Must(41040, "USD").String())
	assert.Equal(t, "USD -0.05", money.Must(-5, "USD").String())
}
