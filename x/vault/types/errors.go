package types

import (
	"cosmossdk.io/errors"
)

// Module error codes
var (
	// Validation errors
	ErrInvalidAmount          = errors.Register("vault", 1, "invalid amount")
	ErrInvalidAddress         = errors.Register("vault", 2, "invalid address")
	ErrDepositsDisabled       = errors.Register("vault", 3, "deposits are disabled")
	ErrDepositBelowMinimum    = errors.Register("vault", 4, "deposit below minimum")
	ErrDepositAboveMaximum    = errors.Register("vault", 5, "deposit above single-deposit maximum")
	ErrInvalidSharePrice      = errors.Register("vault", 6, "share price must be positive")
	ErrInvalidFeeRate         = errors.Register("vault", 7, "fee rate out of bounds")
	ErrInvalidWithdrawalDelay = errors.Register("vault", 8, "withdrawal delay out of bounds")
	ErrInvalidDepositLimits   = errors.Register("vault", 9, "invalid deposit limits")

	// Authorization errors
	ErrNotOwner        = errors.Register("vault", 20, "caller is not the owner")
	ErrNotManager      = errors.Register("vault", 21, "caller is not the manager")
	ErrNotRequester    = errors.Register("vault", 22, "caller is not the requester")
	ErrNotPendingOwner = errors.Register("vault", 23, "caller is not the pending owner")

	// Request state errors
	ErrVaultPaused         = errors.Register("vault", 30, "vault is paused")
	ErrVaultNotInitialized = errors.Register("vault", 31, "vault state not initialized")
	ErrRequestNotFound     = errors.Register("vault", 32, "withdrawal request not found")
	ErrAlreadyApproved     = errors.Register("vault", 33, "withdrawal request already approved")
	ErrNotApproved         = errors.Register("vault", 34, "withdrawal request not approved")
	ErrAlreadyClaimed      = errors.Register("vault", 35, "withdrawal request already claimed")
	ErrDelayNotElapsed     = errors.Register("vault", 36, "withdrawal delay not elapsed")

	// Liquidity errors
	ErrInsufficientShares  = errors.Register("vault", 50, "insufficient share balance")
	ErrInsufficientCustody = errors.Register("vault", 51, "insufficient custodied balance")

	// Arithmetic errors
	ErrZeroShares    = errors.Register("vault", 60, "computed share amount is zero")
	ErrShareOverflow = errors.Register("vault", 61, "share amount exceeds mint ceiling")
)
