package keeper

import (
	"strconv"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// RequestWithdrawal locks the caller's shares in vault custody and queues a
// withdrawal entry. The settlement amount is frozen at the current price and
// never recomputed.
func (k *Keeper) RequestWithdrawal(ctx sdk.Context, requester string, shareAmount math.Int) (*types.WithdrawalRequest, error) {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return nil, types.ErrVaultNotInitialized
	}
	if state.Paused {
		return nil, types.ErrVaultPaused
	}
	if shareAmount.IsNil() || !shareAmount.IsPositive() {
		return nil, types.ErrInvalidAmount
	}

	requesterAddr, err := sdk.AccAddressFromBech32(requester)
	if err != nil {
		return nil, types.ErrInvalidAddress
	}

	balance := k.bankKeeper.GetBalance(ctx, requesterAddr, types.ShareDenom).Amount
	if balance.LT(shareAmount) {
		return nil, types.ErrInsufficientShares
	}

	shareCoins := sdk.NewCoins(sdk.NewCoin(types.ShareDenom, shareAmount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, requesterAddr, types.ModuleName, shareCoins); err != nil {
		return nil, err
	}

	id := k.allocateRequestID(ctx)
	settlementAmount := state.SettlementForShares(shareAmount)
	request := types.NewWithdrawalRequest(id, requester, shareAmount, settlementAmount, ctx.BlockTime().Unix())
	k.SetWithdrawalRequest(ctx, request)
	k.AppendUserRequestID(ctx, requester, id)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_withdrawal_requested",
			sdk.NewAttribute("requester", requester),
			sdk.NewAttribute("request_id", strconv.FormatUint(id, 10)),
			sdk.NewAttribute("share_amount", shareAmount.String()),
		),
	)

	k.logger.Info("Withdrawal requested",
		"requester", requester,
		"request_id", id,
		"share_amount", shareAmount.String(),
		"settlement_amount", settlementAmount.String(),
	)

	return request, nil
}

// ApproveWithdrawal marks a matured request approved and burns its locked
// shares. Manager only. Once burned, the settlement obligation is fixed and
// independent of later share-supply changes.
func (k *Keeper) ApproveWithdrawal(ctx sdk.Context, manager string, requestID uint64) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if state.Paused {
		return types.ErrVaultPaused
	}
	if manager != state.Manager {
		return types.ErrNotManager
	}

	request := k.GetWithdrawalRequest(ctx, requestID)
	if request == nil {
		return types.ErrRequestNotFound
	}
	if request.Approved {
		return types.ErrAlreadyApproved
	}
	if !request.DelayElapsed(ctx.BlockTime().Unix(), state.WithdrawalDelay) {
		return types.ErrDelayNotElapsed
	}

	// Commit the flip before the external burn.
	request.Approved = true
	k.SetWithdrawalRequest(ctx, request)

	shareCoins := sdk.NewCoins(sdk.NewCoin(types.ShareDenom, request.ShareAmount))
	if err := k.bankKeeper.BurnCoins(ctx, types.ModuleName, shareCoins); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_withdrawal_approved",
			sdk.NewAttribute("request_id", strconv.FormatUint(requestID, 10)),
		),
	)

	k.logger.Info("Withdrawal approved",
		"request_id", requestID,
		"shares_burned", request.ShareAmount.String(),
	)

	return nil
}

// ProcessWithdrawal pays out an approved request to its requester. Callable
// while paused so queued users can always exit. Exactly-once per id: replay
// fails with an already-claimed error, never a silent no-op.
func (k *Keeper) ProcessWithdrawal(ctx sdk.Context, requester string, requestID uint64) (math.Int, error) {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrVaultNotInitialized
	}

	request := k.GetWithdrawalRequest(ctx, requestID)
	if request == nil {
		return math.ZeroInt(), types.ErrRequestNotFound
	}
	if request.Requester != requester {
		return math.ZeroInt(), types.ErrNotRequester
	}
	if !request.Approved {
		return math.ZeroInt(), types.ErrNotApproved
	}
	if request.Claimed {
		return math.ZeroInt(), types.ErrAlreadyClaimed
	}

	requesterAddr, err := sdk.AccAddressFromBech32(requester)
	if err != nil {
		return math.ZeroInt(), types.ErrInvalidAddress
	}

	custody := k.GetCustodyBalance(ctx)
	if custody.LT(request.SettlementAmount) {
		return math.ZeroInt(), types.ErrInsufficientCustody
	}

	// Mark claimed before paying out.
	request.Claimed = true
	k.SetWithdrawalRequest(ctx, request)

	payout := sdk.NewCoins(sdk.NewCoin(types.SettlementDenom, request.SettlementAmount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, requesterAddr, payout); err != nil {
		return math.ZeroInt(), err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_withdrawal_processed",
			sdk.NewAttribute("requester", requester),
			sdk.NewAttribute("request_id", strconv.FormatUint(requestID, 10)),
			sdk.NewAttribute("settlement_amount", request.SettlementAmount.String()),
		),
	)

	k.logger.Info("Withdrawal processed",
		"requester", requester,
		"request_id", requestID,
		"settlement_amount", request.SettlementAmount.String(),
	)

	return request.SettlementAmount, nil
}

// CancelWithdrawal returns the locked shares and erases the request entry.
// Requester only, pre-approval only, callable while paused. The erasure is
// committed before the share transfer so a reentrant call cannot observe a
// live entry.
func (k *Keeper) CancelWithdrawal(ctx sdk.Context, requester string, requestID uint64) (math.Int, error) {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrVaultNotInitialized
	}

	request := k.GetWithdrawalRequest(ctx, requestID)
	if request == nil {
		return math.ZeroInt(), types.ErrRequestNotFound
	}
	if request.Requester != requester {
		return math.ZeroInt(), types.ErrNotRequester
	}
	if request.Approved {
		return math.ZeroInt(), types.ErrAlreadyApproved
	}

	requesterAddr, err := sdk.AccAddressFromBech32(requester)
	if err != nil {
		return math.ZeroInt(), types.ErrInvalidAddress
	}

	k.DeleteWithdrawalRequest(ctx, requestID)

	shareCoins := sdk.NewCoins(sdk.NewCoin(types.ShareDenom, request.ShareAmount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, requesterAddr, shareCoins); err != nil {
		return math.ZeroInt(), err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_withdrawal_cancelled",
			sdk.NewAttribute("requester", requester),
			sdk.NewAttribute("request_id", strconv.FormatUint(requestID, 10)),
			sdk.NewAttribute("share_amount", request.ShareAmount.String()),
		),
	)

	k.logger.Info("Withdrawal cancelled",
		"requester", requester,
		"request_id", requestID,
		"share_amount", request.ShareAmount.String(),
	)

	return request.ShareAmount, nil
}

// GetPendingRequests returns live requests that still await approval, in id
// order. Cancelled entries no longer exist in the store, so they can never
// be miscounted as pending.
func (k *Keeper) GetPendingRequests(ctx sdk.Context) []*types.WithdrawalRequest {
	all := k.GetAllWithdrawalRequests(ctx)
	pending := make([]*types.WithdrawalRequest, 0)
	for _, request := range all {
		if request.IsPending() {
			pending = append(pending, request)
		}
	}
	return pending
}

// GetUserRequests hydrates a user's id history into live request snapshots.
// Erased ids are skipped; GetUserRequestIDs still lists them.
func (k *Keeper) GetUserRequests(ctx sdk.Context, addr string) []*types.WithdrawalRequest {
	ids := k.GetUserRequestIDs(ctx, addr)
	requests := make([]*types.WithdrawalRequest, 0, len(ids))
	for _, id := range ids {
		if request := k.GetWithdrawalRequest(ctx, id); request != nil {
			requests = append(requests, request)
		}
	}
	return requests
}
