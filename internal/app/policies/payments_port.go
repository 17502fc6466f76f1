package policies

import (
	"context"

	"campbook/internal/domain/shared/money"
)

// PaymentsPort is the external payment collaborator. Amounts come from the engine; the
// port never computes money itself.
type PaymentsPort interface {
	PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error)
	Refund(ctx context.Context, bookingID string, amount money.Money) (string, error)
}
