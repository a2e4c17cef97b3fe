package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// Deposit admits a settlement deposit and mints shares to the depositor at
// the administered price. All-or-nothing: any failure leaves state and
// balances untouched.
func (k *Keeper) Deposit(ctx sdk.Context, depositor string, amount math.Int) (math.Int, error) {
	k.opLock.Lock()
	defer k.opLock.Unlock()

	state := k.GetVaultState(ctx)
	if state == nil {
		return math.ZeroInt(), types.ErrVaultNotInitialized
	}
	if state.Paused {
		return math.ZeroInt(), types.ErrVaultPaused
	}
	if !state.DepositsEnabled {
		return math.ZeroInt(), types.ErrDepositsDisabled
	}
	if amount.IsNil() || !amount.IsPositive() {
		return math.ZeroInt(), types.ErrInvalidAmount
	}
	if amount.LT(state.MinDeposit) {
		return math.ZeroInt(), types.ErrDepositBelowMinimum
	}
	if amount.GT(state.MaxSingleDeposit) {
		return math.ZeroInt(), types.ErrDepositAboveMaximum
	}

	depositorAddr, err := sdk.AccAddressFromBech32(depositor)
	if err != nil {
		return math.ZeroInt(), types.ErrInvalidAddress
	}

	now := ctx.BlockTime().Unix()

	// A deposit settles overdue fees first, so the accrual window cannot
	// grow unbounded while nobody calls CollectFees.
	if state.FeeClockStale(now) {
		if _, _, err := k.collectFees(ctx, state, now); err != nil {
			return math.ZeroInt(), err
		}
		state = k.GetVaultState(ctx)
	}

	shares := state.SharesForDeposit(amount)
	if shares.IsZero() {
		return math.ZeroInt(), types.ErrZeroShares
	}
	if shares.GT(types.MaxShareMint) {
		return math.ZeroInt(), types.ErrShareOverflow
	}

	settlement := sdk.NewCoins(sdk.NewCoin(types.SettlementDenom, amount))
	if err := k.bankKeeper.SendCoinsFromAccountToModule(ctx, depositorAddr, types.ModuleName, settlement); err != nil {
		return math.ZeroInt(), err
	}

	shareCoins := sdk.NewCoins(sdk.NewCoin(types.ShareDenom, shares))
	if err := k.bankKeeper.MintCoins(ctx, types.ModuleName, shareCoins); err != nil {
		return math.ZeroInt(), err
	}
	if err := k.bankKeeper.SendCoinsFromModuleToAccount(ctx, types.ModuleName, depositorAddr, shareCoins); err != nil {
		return math.ZeroInt(), err
	}

	ctx.EventManager().EmitEvent(
		sdk.NewEvent("vault_deposited",
			sdk.NewAttribute("depositor", depositor),
			sdk.NewAttribute("settlement_amount", amount.String()),
			sdk.NewAttribute("shares_minted", shares.String()),
		),
	)

	k.logger.Info("Deposit processed",
		"depositor", depositor,
		"amount", amount.String(),
		"shares_minted", shares.String(),
	)

	return shares, nil
}
