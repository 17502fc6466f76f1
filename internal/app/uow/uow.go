package uow

import (
	"context"
	"errors"

	domainavailability "campbook/internal/domain/availability"
	domainbooking "campbook/internal/domain/booking"
	domaincampsites "campbook/internal/domain/campsites"
)

// ErrConcurrentUpdate means another unit changed the same aggregate first; the command may be retried.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside one transaction boundary.
type UnitOfWork interface {
	Campsites() domaincampsites.Repository
	Bookings() domainbooking.Repository
	Calendars() domainavailability.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Factory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// contextInjector is implemented by units that carry driver state (sessions) in context.
type contextInjector interface {
	InjectContext(context.Context) context.Context
}

// Start begins a unit and returns the context repositories must be called with.
func Start(ctx context.Context, factory Factory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	execCtx := ctx
	if injector, ok := unit.(contextInjector); ok {
		execCtx = injector.InjectContext(ctx)
	}
	return unit, ContextWithUnitOfWork(execCtx, unit), nil
}

// ReadOnly reuses the unit already in ctx, or opens a read-only one released by the returned func.
func ReadOnly(ctx context.Context, factory Factory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	unit, execCtx, err := Start(ctx, factory, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, nil, err
	}
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}
