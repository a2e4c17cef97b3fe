package types

import (
	"cosmossdk.io/math"
)

// VaultService defines the interface for vault operations
type VaultService interface {
	// Vault queries
	GetVaultState() (*VaultStateInfo, error)
	GetVaultStats() (*VaultStats, error)
	GetAUMHistory(days int) ([]*AUMPoint, error)
	GetFeePreview() (*FeePreviewInfo, error)

	// Withdrawal request queries
	GetWithdrawalRequest(requestID uint64) (*RequestInfo, error)
	GetPendingRequests(offset, limit int) ([]*RequestInfo, int, error)
	GetUserRequests(user string) ([]*RequestInfo, error)

	// Estimates
	EstimateDeposit(amount math.Int) (*DepositEstimate, error)
	EstimateWithdrawal(shares math.Int) (*WithdrawalEstimate, error)

	// Transactions
	Deposit(user string, amount math.Int) (*DepositResult, error)
	RequestWithdrawal(user string, shares math.Int) (*WithdrawalResult, error)
	ApproveWithdrawal(manager string, requestID uint64) (*ApprovalResult, error)
	ProcessWithdrawal(user string, requestID uint64) (*ClaimResult, error)
	CancelWithdrawal(user string, requestID uint64) (*CancelResult, error)
	CollectFees(caller string) (*FeeCollectionResult, error)
}

// Data types for vault service

type VaultStateInfo struct {
	Owner             string `json:"owner"`
	PendingOwner      string `json:"pending_owner,omitempty"`
	Manager           string `json:"manager"`
	FeeCollector      string `json:"fee_collector"`
	SharePrice        string `json:"share_price"`
	HighWaterMark     string `json:"high_water_mark"`
	ManagementFeeBps  int64  `json:"management_fee_bps"`
	PerformanceFeeBps int64  `json:"performance_fee_bps"`
	LastFeeCollection int64  `json:"last_fee_collection"`
	WithdrawalDelay   int64  `json:"withdrawal_delay"`
	MinDeposit        string `json:"min_deposit"`
	MaxSingleDeposit  string `json:"max_single_deposit"`
	DepositsEnabled   bool   `json:"deposits_enabled"`
	Paused            bool   `json:"paused"`
}

type VaultStats struct {
	AUM                 string `json:"aum"`
	CustodyBalance      string `json:"custody_balance"`
	TotalShares         string `json:"total_shares"`
	LockedShares        string `json:"locked_shares"`
	SharePrice          string `json:"share_price"`
	HighWaterMark       string `json:"high_water_mark"`
	PendingRequestCount int    `json:"pending_request_count"`
	PendingRequestValue string `json:"pending_request_value"`
	Paused              bool   `json:"paused"`
}

type AUMPoint struct {
	Timestamp  int64  `json:"timestamp"`
	AUM        string `json:"aum"`
	SharePrice string `json:"share_price"`
}

type FeePreviewInfo struct {
	ManagementFee    string `json:"management_fee"`
	PerformanceFee   string `json:"performance_fee"`
	TotalFee         string `json:"total_fee"`
	Collectable      bool   `json:"collectable"`
	NextCollectionAt int64  `json:"next_collection_at"`
}

type RequestInfo struct {
	RequestID        uint64 `json:"request_id"`
	Requester        string `json:"requester"`
	Shares           string `json:"shares"`
	SettlementAmount string `json:"settlement_amount"`
	Status           string `json:"status"` // "pending", "approved", "claimed"
	RequestedAt      int64  `json:"requested_at"`
	AvailableAt      int64  `json:"available_at"`
}

type DepositEstimate struct {
	Amount          string `json:"amount"`
	EstimatedShares string `json:"estimated_shares"`
	SharePrice      string `json:"share_price"`
	MinDeposit      string `json:"min_deposit"`
	MaxDeposit      string `json:"max_deposit"`
}

type WithdrawalEstimate struct {
	Shares          string `json:"shares"`
	EstimatedAmount string `json:"estimated_amount"`
	SharePrice      string `json:"share_price"`
	AvailableAt     int64  `json:"available_at"`
	DelaySeconds    int64  `json:"delay_seconds"`
}

type DepositResult struct {
	User        string `json:"user"`
	Amount      string `json:"amount"`
	Shares      string `json:"shares"`
	SharePrice  string `json:"share_price"`
	DepositedAt int64  `json:"deposited_at"`
}

type WithdrawalResult struct {
	RequestID        uint64 `json:"request_id"`
	User             string `json:"user"`
	Shares           string `json:"shares"`
	SettlementAmount string `json:"settlement_amount"`
	AvailableAt      int64  `json:"available_at"`
}

type ApprovalResult struct {
	RequestID  uint64 `json:"request_id"`
	Shares     string `json:"shares"`
	ApprovedAt int64  `json:"approved_at"`
}

type ClaimResult struct {
	RequestID uint64 `json:"request_id"`
	Amount    string `json:"amount"`
	ClaimedAt int64  `json:"claimed_at"`
}

type CancelResult struct {
	RequestID      uint64 `json:"request_id"`
	SharesReturned string `json:"shares_returned"`
	CancelledAt    int64  `json:"cancelled_at"`
}

type FeeCollectionResult struct {
	Collected      bool   `json:"collected"`
	ManagementFee  string `json:"management_fee"`
	PerformanceFee string `json:"performance_fee"`
	CollectedAt    int64  `json:"collected_at"`
}
