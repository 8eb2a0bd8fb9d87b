package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/models"
)

// toConnectError maps domain errors to Connect codes. Unknown errors are
// logged and returned as CodeInternal.
func toConnectError(ctx context.Context, op string, err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	code := codeOf(err)
	if code == connect.CodeInternal {
		slog.ErrorContext(ctx, op+" failed", "error", err)
	} else {
		slog.InfoContext(ctx, op+" rejected", "code", code, "error", err)
	}
	return connect.NewError(code, err)
}

func codeOf(err error) connect.Code {
	switch {
	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrInvalidExpense),
		errors.Is(err, models.ErrInvalidSettlement),
		errors.Is(err, models.ErrInvalidGroup):
		return connect.CodeInvalidArgument
	case errors.Is(err, models.ErrExceedsDebt),
		errors.Is(err, models.ErrInvalidStateTransition),
		errors.Is(err, models.ErrLedgerInconsistent),
		errors.Is(err, models.ErrUnsettledBalance):
		return connect.CodeFailedPrecondition
	case errors.Is(err, models.ErrUnauthorized):
		return connect.CodePermissionDenied
	case errors.Is(err, models.ErrNotFound):
		return connect.CodeNotFound
	case errors.Is(err, models.ErrConcurrentUpdate):
		return connect.CodeAborted
	case errors.Is(err, context.Canceled):
		return connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return connect.CodeDeadlineExceeded
	default:
		return connect.CodeInternal
	}
}
