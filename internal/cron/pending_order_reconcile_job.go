package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-core/internal/orders"
	"github.com/angelmondragon/storefront-core/pkg/commerceapi"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
	"github.com/angelmondragon/storefront-core/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const pendingOrderReconcileJobName = "pending-order-reconcile"

type orderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*commerceapi.Order, error)
}

// PendingOrderReconcileJobParams configure the pending order reconciler.
type PendingOrderReconcileJobParams struct {
	Logger *logger.Logger
	Orders orderReader
	Ledger orders.Ledger
	// UserID resolves whose ledger to reconcile on each run.
	UserID func(ctx context.Context) (string, error)
}

type pendingOrderReconcileJob struct {
	logg   *logger.Logger
	orders orderReader
	ledger orders.Ledger
	userID func(ctx context.Context) (string, error)
}

// NewPendingOrderReconcileJob builds the job that re-queries orders left
// pending by an abandoned or failed checkout and drops the ones the server
// has settled.
func NewPendingOrderReconcileJob(params PendingOrderReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger required")
	}
	if params.UserID == nil {
		return nil, fmt.Errorf("user id resolver required")
	}
	return &pendingOrderReconcileJob{
		logg:   params.Logger,
		orders: params.Orders,
		ledger: params.Ledger,
		userID: params.UserID,
	}, nil
}

func (j *pendingOrderReconcileJob) Name() string { return pendingOrderReconcileJobName }

func (j *pendingOrderReconcileJob) Run(ctx context.Context) error {
	userID, err := j.userID(ctx)
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	ctx = j.logg.WithUserID(ctx, userID)

	pending, err := j.ledger.List(ctx, userID)
	if err != nil {
		return err
	}

	var errs error
	settled := 0
	for _, id := range pending {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		done, err := j.reconcile(ctx, userID, id)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", id, err))
			continue
		}
		if done {
			settled++
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"pending": len(pending),
		"settled": settled,
	}), "pending orders reconciled")
	return errs
}

func (j *pendingOrderReconcileJob) reconcile(ctx context.Context, userID string, id uuid.UUID) (bool, error) {
	orderCtx := j.logg.WithOrderID(ctx, id.String())
	order, err := j.orders.GetOrder(orderCtx, id)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			j.logg.Warn(orderCtx, "pending order no longer exists")
			return true, j.ledger.Remove(ctx, userID, id)
		}
		return false, err
	}
	if !order.PaymentStatus.IsSettled() && !order.OrderStatus.IsClosed() {
		return false, nil
	}
	j.logg.Info(j.logg.WithFields(orderCtx, map[string]any{
		"payment_status": order.PaymentStatus.String(),
		"order_status":   order.OrderStatus.String(),
	}), "pending order settled")
	return true, j.ledger.Remove(ctx, userID, id)
}
