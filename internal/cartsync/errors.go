package cartsync

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/hifideliveryeats/cartsync/pkg/errors"
)

// IsNetworkFailure reports whether err came from an unreachable or failing backend.
func IsNetworkFailure(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeNetwork)
}

// IsStockExceeded reports whether err is a stock ceiling rejection, local or remote.
func IsStockExceeded(err error) bool {
	return pkgerrors.Is(err, pkgerrors.CodeStockExceeded)
}

func stockExceeded(itemID string, available, requested int) *pkgerrors.Error {
	return pkgerrors.New(
		pkgerrors.CodeStockExceeded,
		fmt.Sprintf("%q is limited to %d units in stock", itemID, available),
	).WithDetails(map[string]any{
		"menu_item_id":    itemID,
		"stock_available": available,
		"requested":       requested,
	})
}

// asBackendError keeps coded errors from the client and classifies the rest
// as network failures.
func asBackendError(err error, message string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, message+" interrupted")
	}
	return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, message)
}

func errorCode(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return string(typed.Code())
	}
	return string(pkgerrors.CodeNetwork)
}
