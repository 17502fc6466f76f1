package dto

import (
	"time"

	"campbook/internal/domain/shared/daterange"
	"campbook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Display  string `json:"display"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency, Display: value.String()}
}

type DateRangeDTO struct {
	CheckIn  string `json:"check_in"`
	CheckOut string `json:"check_out"`
	Nights   int    `json:"nights"`
}

func MapRange(r daterange.DateRange) DateRangeDTO {
	return DateRangeDTO{
		CheckIn:  r.CheckIn.Format(time.DateOnly),
		CheckOut: r.CheckOut.Format(time.DateOnly),
		Nights:   r.Nights(),
	}
}
