package middleware

import (
	"context"

	"campbook/internal/app/commands"
	"campbook/internal/app/uow"
)

// Transaction runs each command inside its own unit of work, committing only on success.
func Transaction(factory uow.Factory) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if _, nested := uow.FromContext(ctx); nested {
				return next.Dispatch(ctx, cmd)
			}
			unit, execCtx, err := uow.Start(ctx, factory, uow.TxOptions{})
			if err != nil {
				return nil, err
			}
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, err
			}
			committed = true
			return res, nil
		})
	}
}
