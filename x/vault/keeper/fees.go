package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// CollectFees settles management and performance fees when the 30-day gate
// has passed. Callable by anyone. Inside the gate the call is a designed
// no-op: no state change, no event, no error. The returned flag reports
// whether a settlement cycle ran.
func (k *Keeper) CollectFees(ctx sdk.Context) (math.Int, math.Int, bool, error) {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), math.ZeroInt(), false, types.ErrVaultNotInitialized
	}

	now := ctx.BlockTime().Unix()
	if now-state.LastFeeCollectionTime < types.FeeCollectionInterval {
		return math.ZeroInt(), math.ZeroInt(), false, nil
	}

	managementFee, performanceFee, err := k.collectFees(ctx, state, now)
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), false, err
	}
	return managementFee, performanceFee, true, nil
}

// collectFees runs one fee settlement cycle. Callers must hold opLock and
// have cleared the 30-day gate. The fee clock advances even when both fees
// are zero; a failed fee payment aborts the cycle with no clock advance.
func (k *Keeper) collectFees(ctx sdk.Context, state *types.VaultState, now int64) (math.Int, math.Int, error) {
	elapsed := now - state.LastFeeCollectionTime

	custody := k.GetCustodyBalance(ctx)
	aum := state.AUMForCustody(custody)

	managementFee := state.ManagementFee(aum, elapsed)
	performanceFee := state.PerformanceFee(aum)
	totalFee := managementFee.Add(performanceFee)

	feeInAsset := math.ZeroInt()
	if totalFee.IsPositive() {
		feeInAsset = state.FeeInSettlement(totalFee)
		if custody.LT(feeInAsset) {
			return math.ZeroInt(), math.ZeroInt(), types.ErrInsufficientCustody
		}
	}

	if aum.GT(state.HighWaterMark) {
		state.HighWaterMark = aum
	}
	state.LastFeeCollectionTime = now
	k.SetVaultState(ctx, state)

	if totalFee.IsPositive() {
		if feeInAsset.IsPositive() {
			collectorAddr, err := sdk.AccAddressFromBech32(state.FeeCollector)
			if err != nil {
				return math.ZeroInt(), math.ZeroInt(), types.ErrInvalidAddress
			}
			feeCoins := sdk.NewCoins(sdk.NewCoin(types.SettlementDenom, feeInAsset))
			if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, collectorAddr, feeCoins); err != nil {
				return math.ZeroInt(), math.ZeroInt(), err
			}
		}

		ctx.EventManager().EmitEvent(
			sdk.NewEvent("vault_fees_collected",
				sdk.NewAttribute("management_fee", managementFee.String()),
				sdk.NewAttribute("performance_fee", performanceFee.String()),
				sdk.NewAttribute("fee_paid", feeInAsset.String()),
			),
		)

		k.logger.Info("Fees collected",
			"management_fee", managementFee.String(),
			"performance_fee", performanceFee.String(),
			"fee_paid", feeInAsset.String(),
			"aum", aum.String(),
			"high_water_mark", state.HighWaterMark.String(),
		)
	}

	return managementFee, performanceFee, nil
}

// GetAUM values the current custody balance at the administered price.
func (k *Keeper) GetAUM(ctx sdk.Context) (math.Int, error) {
	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrVaultNotInitialized
	}
	return state.AUMForCustody(k.GetCustodyBalance(ctx)), nil
}

// PreviewFees computes what a CollectFees call would settle at the current
// block time, without mutating anything. The flag reports whether the
// 30-day gate has been cleared.
func (k *Keeper) PreviewFees(ctx sdk.Context) (math.Int, math.Int, bool, error) {
	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), math.ZeroInt(), false, types.ErrVaultNotInitialized
	}

	now := ctx.BlockTime().Unix()
	elapsed := now - state.LastFeeCollectionTime
	if elapsed < types.FeeCollectionInterval {
		return math.ZeroInt(), math.ZeroInt(), false, nil
	}

	custody := k.GetCustodyBalance(ctx)
	aum := state.AUMForCustody(custody)
	return state.ManagementFee(aum, elapsed), state.PerformanceFee(aum), true, nil
}
