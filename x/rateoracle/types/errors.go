package types

import (
	"errors"

	errorsmod "cosmossdk.io/errors"
)

// errors
var (
	ErrRateOutOfRange         = errorsmod.Register(ModuleName, 2, "rate exceeds maximum basis points")
	ErrTooManyRates           = errorsmod.Register(ModuleName, 3, "too many rates")
	ErrInvalidPosition        = errorsmod.Register(ModuleName, 4, "invalid lane position")
	ErrAddressZero            = errorsmod.Register(ModuleName, 5, "zero address")
	ErrTokenAlreadyRegistered = errorsmod.Register(ModuleName, 6, "position already registered")
	ErrTokenNotRegistered     = errorsmod.Register(ModuleName, 7, "token not registered")
	ErrRequestNotFound        = errorsmod.Register(ModuleName, 8, "request not found")
	ErrRequestAlreadyOpen     = errorsmod.Register(ModuleName, 9, "request already open")
	ErrUpdateTooFrequent      = errorsmod.Register(ModuleName, 10, "update too frequent")
	ErrPaused                 = errorsmod.Register(ModuleName, 11, "oracle is paused")
	ErrReentrantCall          = errorsmod.Register(ModuleName, 12, "reentrant call")
	ErrInvalidRates           = errorsmod.Register(ModuleName, 13, "invalid rates")
	ErrInvalidResponse        = errorsmod.Register(ModuleName, 14, "invalid response payload")
	ErrIndexOutOfBounds       = errorsmod.Register(ModuleName, 15, "history index out of bounds")
	ErrInvalidTimeRange       = errorsmod.Register(ModuleName, 16, "invalid time range")
	ErrInvalidSource          = errorsmod.Register(ModuleName, 17, "invalid source")
	ErrInvalidSubscriptionID  = errorsmod.Register(ModuleName, 18, "invalid subscription id")
	ErrInvalidDonID           = errorsmod.Register(ModuleName, 19, "invalid don id")
	ErrInvalidGasLimit        = errorsmod.Register(ModuleName, 20, "invalid gas limit")
	ErrRouterNotSet           = errorsmod.Register(ModuleName, 21, "request router not set")
	ErrInvalidParams          = errorsmod.Register(ModuleName, 22, "invalid params")
)

// IsRoundConsumed reports whether a fulfillment error still closed the pending
// request. The state write of such a fulfillment must be kept.
func IsRoundConsumed(err error) bool {
	return errors.Is(err, ErrInvalidRates) || errors.Is(err, ErrInvalidResponse)
}
