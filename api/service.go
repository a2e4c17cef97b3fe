package api

import (
	"github.com/openalpha/fundvault/api/types"
)

// Re-export types for convenience
type (
	VaultStateInfo      = types.VaultStateInfo
	VaultStats          = types.VaultStats
	AUMPoint            = types.AUMPoint
	FeePreviewInfo      = types.FeePreviewInfo
	RequestInfo         = types.RequestInfo
	DepositEstimate     = types.DepositEstimate
	WithdrawalEstimate  = types.WithdrawalEstimate
	DepositResult       = types.DepositResult
	WithdrawalResult    = types.WithdrawalResult
	ApprovalResult      = types.ApprovalResult
	ClaimResult         = types.ClaimResult
	CancelResult        = types.CancelResult
	FeeCollectionResult = types.FeeCollectionResult
	VaultService        = types.VaultService
)
