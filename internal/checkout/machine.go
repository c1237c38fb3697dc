package checkout

import (
	"fmt"

	"github.com/angelmondragon/storefront-core/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-core/pkg/errors"
)

type Status = enums.CheckoutStatus

var transitions = map[Status][]Status{
	enums.CheckoutStatusSelectingAddress: {
		enums.CheckoutStatusAddressConfirmed,
	},
	enums.CheckoutStatusAddressConfirmed: {
		enums.CheckoutStatusSelectingAddress,
		enums.CheckoutStatusApplyingCoupon,
		enums.CheckoutStatusSelectingPayment,
	},
	enums.CheckoutStatusApplyingCoupon: {
		enums.CheckoutStatusApplyingCoupon,
		enums.CheckoutStatusSelectingAddress,
		enums.CheckoutStatusSelectingPayment,
	},
	enums.CheckoutStatusSelectingPayment: {
		enums.CheckoutStatusSelectingAddress,
		enums.CheckoutStatusApplyingCoupon,
		enums.CheckoutStatusPlacingOrder,
	},
	enums.CheckoutStatusPlacingOrder: {
		enums.CheckoutStatusCompleted,
		enums.CheckoutStatusAwaitingGatewayPayment,
		enums.CheckoutStatusSelectingPayment,
		enums.CheckoutStatusFailed,
	},
	enums.CheckoutStatusAwaitingGatewayPayment: {
		enums.CheckoutStatusVerifyingPayment,
		enums.CheckoutStatusFailed,
		enums.CheckoutStatusAbandoned,
	},
	enums.CheckoutStatusVerifyingPayment: {
		enums.CheckoutStatusCompleted,
		enums.CheckoutStatusFailed,
	},
	enums.CheckoutStatusFailed: {
		enums.CheckoutStatusSelectingPayment,
	},
}

// CanTransition reports whether a session may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func illegalTransition(from, to Status) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move checkout from %s to %s", from, to))
}

func requireStatus(current Status, allowed ...Status) error {
	for _, status := range allowed {
		if status == current {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("operation not allowed while checkout is %s", current))
}
