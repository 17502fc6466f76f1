package memory

import (
	"context"
	"fmt"
	"sync"

	"campbook/internal/app/policies"
	"campbook/internal/domain/shared/money"
)

// Payments records holds and refunds without moving money.
type Payments struct {
	mu      sync.Mutex
	seq     int
	Holds   map[string]money.Money
	Refunds map[string]money.Money
}

func NewPayments() *Payments {
	return &Payments{Holds: map[string]money.Money{}, Refunds: map[string]money.Money{}}
}

func (p *Payments) PlaceHold(ctx context.Context, bookingID string, amount money.Money) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.Holds[bookingID] = amount
	return fmt.Sprintf("hold-%04d", p.seq), nil
}

func (p *Payments) Refund(ctx context.Context, bookingID string, amount money.Money) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	p.Refunds[bookingID] = amount
	return fmt.Sprintf("refund-%04d", p.seq), nil
}

var _ policies.PaymentsPort = (*Payments)(nil)
