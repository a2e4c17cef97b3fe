package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// QueryServer defines the vault QueryServer
type QueryServer struct {
	keeper *Keeper
}

// NewQueryServerImpl creates a new QueryServer instance
func NewQueryServerImpl(keeper *Keeper) *QueryServer {
	return &QueryServer{keeper: keeper}
}

// VaultState returns the vault configuration and accounting state
func (q *QueryServer) VaultState(ctx context.Context) (*types.VaultState, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	state := q.keeper.GetVaultState(sdkCtx)
	if state == nil {
		return nil, types.ErrVaultNotInitialized
	}
	return state, nil
}

// AUM returns assets under management alongside the raw custody balance
// and the share price used to value it
func (q *QueryServer) AUM(ctx context.Context) (aum, custody, sharePrice math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	state := q.keeper.GetVaultState(sdkCtx)
	if state == nil {
		return math.ZeroInt(), math.ZeroInt(), math.ZeroInt(), types.ErrVaultNotInitialized
	}

	custody = q.keeper.GetCustodyBalance(sdkCtx)
	aum = state.AUMForCustody(custody)
	return aum, custody, state.SharePrice, nil
}

// WithdrawalRequest returns a withdrawal request by ID
func (q *QueryServer) WithdrawalRequest(ctx context.Context, requestID uint64) (*types.WithdrawalRequest, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	request := q.keeper.GetWithdrawalRequest(sdkCtx, requestID)
	if request == nil {
		return nil, types.ErrRequestNotFound
	}
	return request, nil
}

// UserRequests returns a user's surviving withdrawal requests together with
// the full ID history, which keeps entries for cancelled requests
func (q *QueryServer) UserRequests(ctx context.Context, user string) ([]*types.WithdrawalRequest, []uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	ids := q.keeper.GetUserRequestIDs(sdkCtx, user)
	requests := q.keeper.GetUserRequests(sdkCtx, user)
	return requests, ids, nil
}

// PendingRequests returns withdrawal requests that are neither approved nor
// claimed, paginated in request ID order
func (q *QueryServer) PendingRequests(ctx context.Context, offset, limit uint64) ([]*types.WithdrawalRequest, uint64, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	allPending := q.keeper.GetPendingRequests(sdkCtx)

	total := uint64(len(allPending))

	// Apply pagination
	if offset >= total {
		return []*types.WithdrawalRequest{}, total, nil
	}

	end := offset + limit
	if end > total || limit == 0 {
		end = total
	}

	return allPending[offset:end], total, nil
}

// FeePreview returns the fees a collection would charge right now without
// mutating any state
func (q *QueryServer) FeePreview(ctx context.Context) (managementFee, performanceFee math.Int, collectable bool, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	return q.keeper.PreviewFees(sdkCtx)
}

// EstimateDeposit estimates shares minted for a given deposit amount
func (q *QueryServer) EstimateDeposit(ctx context.Context, amount math.Int) (shares, sharePrice math.Int, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	state := q.keeper.GetVaultState(sdkCtx)
	if state == nil {
		return math.ZeroInt(), math.ZeroInt(), types.ErrVaultNotInitialized
	}
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAmount
	}

	shares = state.SharesForDeposit(amount)
	return shares, state.SharePrice, nil
}

// EstimateWithdrawal estimates the settlement amount for a share redemption
// and the earliest time a request made now would become approvable
func (q *QueryServer) EstimateWithdrawal(ctx context.Context, shareAmount math.Int) (settlementAmount math.Int, availableAt int64, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	state := q.keeper.GetVaultState(sdkCtx)
	if state == nil {
		return math.ZeroInt(), 0, types.ErrVaultNotInitialized
	}
	if shareAmount.IsNil() || !shareAmount.IsPositive() {
		return math.ZeroInt(), 0, types.ErrInvalidAmount
	}

	settlementAmount = state.SettlementForShares(shareAmount)
	availableAt = sdkCtx.BlockTime().Unix() + state.WithdrawalDelay
	return settlementAmount, availableAt, nil
}

// ShareConservation reports whether outstanding request shares match the
// module's locked share balance
func (q *QueryServer) ShareConservation(ctx context.Context) (lockedShares, moduleBalance math.Int, ok bool, err error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)
	lockedShares, moduleBalance, ok = q.keeper.ShareConservation(sdkCtx)
	return lockedShares, moduleBalance, ok, nil
}
