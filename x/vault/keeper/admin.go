package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// SetSharePrice updates the administered share price. Manager only. Queued
// withdrawal requests keep their frozen settlement amounts.
func (k *Keeper) SetSharePrice(ctx sdk.Context, manager string, price math.Int) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if manager != state.Manager {
		return types.ErrNotManager
	}
	if price.IsNil() || !price.IsPositive() {
		return types.ErrInvalidSharePrice
	}

	state.SharePrice = price
	k.SetVaultState(ctx, state)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_token_price_updated",
			sdk.NewAttribute("new_price", price.String()),
		),
	)

	k.logger.Info("Share price updated", "new_price", price.String())
	return nil
}

// SetFeeRates updates the management and performance fee rates. Owner only,
// bounded by policy.
func (k *Keeper) SetFeeRates(ctx sdk.Context, owner string, managementFeeBps, performanceFeeBps int64) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if managementFeeBps < 0 || managementFeeBps > types.MaxManagementFeeBps {
		return types.ErrInvalidFeeRate
	}
	if performanceFeeBps < 0 || performanceFeeBps > types.MaxPerformanceFeeBps {
		return types.ErrInvalidFeeRate
	}

	state.ManagementFeeBps = managementFeeBps
	state.PerformanceFeeBps = performanceFeeBps
	k.SetVaultState(ctx, state)

	k.logger.Info("Fee rates updated",
		"management_fee_bps", managementFeeBps,
		"performance_fee_bps", performanceFeeBps,
	)
	return nil
}

// SetDepositLimits updates the single-deposit admission bounds. Owner only.
func (k *Keeper) SetDepositLimits(ctx sdk.Context, owner string, minDeposit, maxSingleDeposit math.Int) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if minDeposit.IsNil() || !minDeposit.IsPositive() {
		return types.ErrInvalidDepositLimits
	}
	if maxSingleDeposit.IsNil() || maxSingleDeposit.LT(minDeposit) {
		return types.ErrInvalidDepositLimits
	}

	state.MinDeposit = minDeposit
	state.MaxSingleDeposit = maxSingleDeposit
	k.SetVaultState(ctx, state)

	k.logger.Info("Deposit limits updated",
		"min_deposit", minDeposit.String(),
		"max_single_deposit", maxSingleDeposit.String(),
	)
	return nil
}

// SetDepositsEnabled toggles deposit admission. Owner only, independent of
// the pause flag.
func (k *Keeper) SetDepositsEnabled(ctx sdk.Context, owner string, enabled bool) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}

	state.DepositsEnabled = enabled
	k.SetVaultState(ctx, state)

	k.logger.Info("Deposit admission toggled", "enabled", enabled)
	return nil
}

// SetWithdrawalDelay updates the cooling-off period. Owner only, bounded at
// 7 days. Existing requests mature against the new delay.
func (k *Keeper) SetWithdrawalDelay(ctx sdk.Context, owner string, delaySeconds int64) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if delaySeconds < 0 || delaySeconds > types.MaxWithdrawalDelay {
		return types.ErrInvalidWithdrawalDelay
	}

	state.WithdrawalDelay = delaySeconds
	k.SetVaultState(ctx, state)

	k.logger.Info("Withdrawal delay updated", "delay_seconds", delaySeconds)
	return nil
}

// SetManager reassigns the manager role. Owner only.
func (k *Keeper) SetManager(ctx sdk.Context, owner, newManager string) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if _, err := sdk.AccAddressFromBech32(newManager); err != nil {
		return types.ErrInvalidAddress
	}

	state.Manager = newManager
	k.SetVaultState(ctx, state)

	k.logger.Info("Manager reassigned", "new_manager", newManager)
	return nil
}

// SetFeeCollector reassigns the fee payment destination. Owner only.
func (k *Keeper) SetFeeCollector(ctx sdk.Context, owner, newFeeCollector string) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if _, err := sdk.AccAddressFromBech32(newFeeCollector); err != nil {
		return types.ErrInvalidAddress
	}

	state.FeeCollector = newFeeCollector
	k.SetVaultState(ctx, state)

	k.logger.Info("Fee collector reassigned", "new_fee_collector", newFeeCollector)
	return nil
}

// SetPaused flips the pause gate. Owner only. Pause blocks deposits, new
// withdrawal requests and approvals; processing and cancellation stay open
// so queued users can always exit.
func (k *Keeper) SetPaused(ctx sdk.Context, owner string, paused bool) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}

	state.Paused = paused
	k.SetVaultState(ctx, state)

	k.logger.Info("Pause flag updated", "paused", paused)
	return nil
}

// TransferOwnership proposes a new owner. The handoff completes only when
// the proposed owner calls AcceptOwnership.
func (k *Keeper) TransferOwnership(ctx sdk.Context, owner, newOwner string) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if _, err := sdk.AccAddressFromBech32(newOwner); err != nil {
		return types.ErrInvalidAddress
	}

	state.PendingOwner = newOwner
	k.SetVaultState(ctx, state)

	k.logger.Info("Ownership transfer proposed", "pending_owner", newOwner)
	return nil
}

// AcceptOwnership completes a proposed ownership handoff. Pending owner only.
func (k *Keeper) AcceptOwnership(ctx sdk.Context, caller string) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if state.PendingOwner == "" || caller != state.PendingOwner {
		return types.ErrNotPendingOwner
	}

	state.Owner = state.PendingOwner
	state.PendingOwner = ""
	k.SetVaultState(ctx, state)

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_ownership_transferred",
			sdk.NewAttribute("new_owner", state.Owner),
		),
	)

	k.logger.Info("Ownership transferred", "new_owner", state.Owner)
	return nil
}

// EmergencyWithdraw sweeps any held asset to the owner, including the
// settlement asset, locked shares, or assets accidentally sent to the vault.
// Owner only. Not gated by pause.
func (k *Keeper) EmergencyWithdraw(ctx sdk.Context, owner, denom string, amount math.Int) error {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return types.ErrVaultNotInitialized
	}
	if owner != state.Owner {
		return types.ErrNotOwner
	}
	if amount.IsNil() || !amount.IsPositive() {
		return types.ErrInvalidAmount
	}

	ownerAddr, err := sdk.AccAddressFromBech32(owner)
	if err != nil {
		return types.ErrInvalidAddress
	}

	held := k.bankKeeper.GetBalance(ctx, k.moduleAddr, denom).Amount
	if held.LT(amount) {
		return types.ErrInsufficientCustody
	}

	coins := sdk.NewCoins(sdk.NewCoin(denom, amount))
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, ownerAddr, coins); err != nil {
		return err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_emergency_withdrawn",
			sdk.NewAttribute("asset", denom),
			sdk.NewAttribute("amount", amount.String()),
		),
	)

	k.logger.Info("Emergency withdrawal executed",
		"asset", denom,
		"amount", amount.String(),
		"owner", owner,
	)
	return nil
}
