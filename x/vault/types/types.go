package types

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Module constants
const (
	ModuleName = "vault"
	StoreKey   = ModuleName
)

// Asset denominations
const (
	// SettlementDenom is the 6-decimal settlement asset held in custody.
	SettlementDenom = "uusdc"
	// ShareDenom is the 18-decimal claim token minted against deposits.
	ShareDenom = "ashare"
)

// Policy bounds and time gates (seconds unless noted)
const (
	BpsDenominator       = 10000
	MaxManagementFeeBps  = 500
	MaxPerformanceFeeBps = 3000

	// MaxWithdrawalDelay bounds the cooling-off period at 7 days.
	MaxWithdrawalDelay = 7 * 24 * 60 * 60

	// FeeCollectionInterval is the minimum time between fee settlements (30 days).
	FeeCollectionInterval = 30 * 24 * 60 * 60

	// FeeStalenessThreshold forces fee settlement during a deposit when the
	// fee clock has not advanced for this long (90 days).
	FeeStalenessThreshold = 90 * 24 * 60 * 60

	SecondsPerYear = 365 * 24 * 60 * 60
)

// Default vault parameters
const (
	DefaultManagementFeeBps  = 200
	DefaultPerformanceFeeBps = 2000
	DefaultWithdrawalDelay   = 24 * 60 * 60
)

var (
	// ShareScale is the share precision base: 10^18 base units per whole share.
	ShareScale = math.NewIntWithDecimal(1, 18)

	// PriceScale is the settlement precision base used by the AUM and fee math.
	PriceScale = math.NewIntWithDecimal(1, 6)

	// MaxShareMint caps a single mint at 10^30 base share units.
	MaxShareMint = math.NewIntWithDecimal(1, 30)

	// DefaultSharePrice is par: 1.000000 settlement units per 10^18 share units.
	DefaultSharePrice = math.NewInt(1000000)

	// DefaultMinDeposit is one whole settlement unit.
	DefaultMinDeposit = math.NewInt(1000000)

	// DefaultMaxSingleDeposit is one million whole settlement units.
	DefaultMaxSingleDeposit = math.NewInt(1000000000000)
)

// Withdrawal request status labels used by the view layer
const (
	RequestStatusPending  = "pending"
	RequestStatusApproved = "approved"
	RequestStatusClaimed  = "claimed"
)

// VaultState is the singleton accounting state of the vault.
type VaultState struct {
	SharePrice            math.Int `json:"share_price"`
	ManagementFeeBps      int64    `json:"management_fee_bps"`
	PerformanceFeeBps     int64    `json:"performance_fee_bps"`
	HighWaterMark         math.Int `json:"high_water_mark"`
	LastFeeCollectionTime int64    `json:"last_fee_collection_time"`
	WithdrawalDelay       int64    `json:"withdrawal_delay"`
	MinDeposit            math.Int `json:"min_deposit"`
	MaxSingleDeposit      math.Int `json:"max_single_deposit"`
	DepositsEnabled       bool     `json:"deposits_enabled"`
	Owner                 string   `json:"owner"`
	PendingOwner          string   `json:"pending_owner,omitempty"`
	Manager               string   `json:"manager"`
	FeeCollector          string   `json:"fee_collector"`
	Paused                bool     `json:"paused"`
}

// NewVaultState creates a vault state with default parameters and the given
// role assignments. The fee clock starts at now.
func NewVaultState(owner, manager, feeCollector string, now int64) *VaultState {
	return &VaultState{
		SharePrice:            DefaultSharePrice,
		ManagementFeeBps:      DefaultManagementFeeBps,
		PerformanceFeeBps:     DefaultPerformanceFeeBps,
		HighWaterMark:         math.ZeroInt(),
		LastFeeCollectionTime: now,
		WithdrawalDelay:       DefaultWithdrawalDelay,
		MinDeposit:            DefaultMinDeposit,
		MaxSingleDeposit:      DefaultMaxSingleDeposit,
		DepositsEnabled:       true,
		Owner:                 owner,
		Manager:               manager,
		FeeCollector:          feeCollector,
	}
}

// SharesForDeposit converts a settlement amount into share units at the
// current price, rounding down.
func (s *VaultState) SharesForDeposit(amount math.Int) math.Int {
	return amount.Mul(ShareScale).Quo(s.SharePrice)
}

// SettlementForShares converts share units into settlement units at the
// current price, rounding down.
func (s *VaultState) SettlementForShares(shares math.Int) math.Int {
	return shares.Mul(s.SharePrice).Quo(ShareScale)
}

// AUMForCustody values a custodied settlement balance at the current price.
func (s *VaultState) AUMForCustody(custody math.Int) math.Int {
	return custody.Mul(s.SharePrice).Quo(PriceScale)
}

// ManagementFee accrues the pro-rata annual management fee on the given AUM
// over elapsed seconds, rounding down.
func (s *VaultState) ManagementFee(aum math.Int, elapsedSeconds int64) math.Int {
	if elapsedSeconds <= 0 {
		return math.ZeroInt()
	}
	numerator := aum.Mul(math.NewInt(s.ManagementFeeBps)).Mul(math.NewInt(elapsedSeconds))
	return numerator.Quo(math.NewInt(SecondsPerYear * BpsDenominator))
}

// PerformanceFee charges the performance rate on AUM growth above the
// high-water mark, rounding down. Zero when AUM is at or below the mark.
func (s *VaultState) PerformanceFee(aum math.Int) math.Int {
	if aum.LTE(s.HighWaterMark) {
		return math.ZeroInt()
	}
	excess := aum.Sub(s.HighWaterMark)
	return excess.Mul(math.NewInt(s.PerformanceFeeBps)).Quo(math.NewInt(BpsDenominator))
}

// FeeInSettlement converts an AUM-scale fee back into settlement units at
// the current price, rounding down.
func (s *VaultState) FeeInSettlement(fee math.Int) math.Int {
	return fee.Mul(PriceScale).Quo(s.SharePrice)
}

// FeeClockStale reports whether the fee clock lags now by more than the
// 90-day staleness threshold.
func (s *VaultState) FeeClockStale(now int64) bool {
	return now-s.LastFeeCollectionTime > FeeStalenessThreshold
}

// Validate checks the vault state for internal consistency.
func (s *VaultState) Validate() error {
	if s.SharePrice.IsNil() || !s.SharePrice.IsPositive() {
		return ErrInvalidSharePrice
	}
	if s.ManagementFeeBps < 0 || s.ManagementFeeBps > MaxManagementFeeBps {
		return ErrInvalidFeeRate
	}
	if s.PerformanceFeeBps < 0 || s.PerformanceFeeBps > MaxPerformanceFeeBps {
		return ErrInvalidFeeRate
	}
	if s.WithdrawalDelay < 0 || s.WithdrawalDelay > MaxWithdrawalDelay {
		return ErrInvalidWithdrawalDelay
	}
	if s.MinDeposit.IsNil() || !s.MinDeposit.IsPositive() {
		return ErrInvalidDepositLimits
	}
	if s.MaxSingleDeposit.IsNil() || s.MaxSingleDeposit.LT(s.MinDeposit) {
		return ErrInvalidDepositLimits
	}
	if s.HighWaterMark.IsNil() || s.HighWaterMark.IsNegative() {
		return ErrInvalidAmount
	}
	if _, err := sdk.AccAddressFromBech32(s.Owner); err != nil {
		return ErrInvalidAddress
	}
	if _, err := sdk.AccAddressFromBech32(s.Manager); err != nil {
		return ErrInvalidAddress
	}
	if _, err := sdk.AccAddressFromBech32(s.FeeCollector); err != nil {
		return ErrInvalidAddress
	}
	if s.PendingOwner != "" {
		if _, err := sdk.AccAddressFromBech32(s.PendingOwner); err != nil {
			return ErrInvalidAddress
		}
	}
	return nil
}

// WithdrawalRequest is a queued exit. Amounts are frozen at creation time;
// a later price change never alters an existing request.
type WithdrawalRequest struct {
	ID               uint64   `json:"id"`
	Requester        string   `json:"requester"`
	ShareAmount      math.Int `json:"share_amount"`
	SettlementAmount math.Int `json:"settlement_amount"`
	CreatedAt        int64    `json:"created_at"`
	Approved         bool     `json:"approved"`
	Claimed          bool     `json:"claimed"`
}

// NewWithdrawalRequest creates an unapproved, unclaimed request.
func NewWithdrawalRequest(id uint64, requester string, shareAmount, settlementAmount math.Int, now int64) *WithdrawalRequest {
	return &WithdrawalRequest{
		ID:               id,
		Requester:        requester,
		ShareAmount:      shareAmount,
		SettlementAmount: settlementAmount,
		CreatedAt:        now,
	}
}

// DelayElapsed reports whether the cooling-off period has passed at the
// given time. The boundary instant itself counts as elapsed.
func (r *WithdrawalRequest) DelayElapsed(now, delaySeconds int64) bool {
	return now >= r.CreatedAt+delaySeconds
}

// IsPending reports whether the request still awaits manager approval.
func (r *WithdrawalRequest) IsPending() bool {
	return !r.Approved && !r.Claimed
}

// Status returns the lifecycle label for the request.
func (r *WithdrawalRequest) Status() string {
	switch {
	case r.Claimed:
		return RequestStatusClaimed
	case r.Approved:
		return RequestStatusApproved
	default:
		return RequestStatusPending
	}
}

// Validate checks a stored request for consistency.
func (r *WithdrawalRequest) Validate() error {
	if _, err := sdk.AccAddressFromBech32(r.Requester); err != nil {
		return ErrInvalidAddress
	}
	if r.ShareAmount.IsNil() || !r.ShareAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if r.SettlementAmount.IsNil() || r.SettlementAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if r.Claimed && !r.Approved {
		return ErrNotApproved
	}
	return nil
}
