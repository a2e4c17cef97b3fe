package keeper

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// InitGenesis restores vault state from a genesis snapshot. A zero fee
// collection time is replaced with the current block time so the fee clock
// starts at chain launch rather than the unix epoch.
func (k *Keeper) InitGenesis(ctx sdk.Context, genesis *types.GenesisState) error {
	if genesis == nil || genesis.VaultState == nil {
		return fmt.Errorf("vault genesis missing vault state")
	}

	state := *genesis.VaultState
	if state.LastFeeCollectionTime == 0 {
		state.LastFeeCollectionTime = ctx.BlockTime().Unix()
	}
	k.SetVaultState(ctx, &state)

	for _, request := range genesis.Requests {
		k.SetWithdrawalRequest(ctx, request)
	}

	for _, userList := range genesis.UserRequests {
		k.setUserRequestIDs(ctx, userList.Address, userList.RequestIDs)
	}

	k.setNextRequestID(ctx, genesis.NextRequestID)

	k.logger.Info("Initialized vault from genesis",
		"owner", state.Owner,
		"manager", state.Manager,
		"requests", len(genesis.Requests),
	)
	return nil
}

// ExportGenesis captures the full vault state for a chain export
func (k *Keeper) ExportGenesis(ctx sdk.Context) *types.GenesisState {
	return &types.GenesisState{
		VaultState:    k.GetVaultState(ctx),
		Requests:      k.GetAllWithdrawalRequests(ctx),
		UserRequests:  k.GetAllUserRequestLists(ctx),
		NextRequestID: k.GetNextRequestID(ctx),
	}
}

// InitDefaultVault seeds the vault with default parameters if no vault
// state exists. All three roles start at the chain authority address.
func (k *Keeper) InitDefaultVault(ctx sdk.Context) {
	if k.GetVaultState(ctx) != nil {
		return
	}

	state := types.NewVaultState(k.authority, k.authority, k.authority, ctx.BlockTime().Unix())
	k.SetVaultState(ctx, state)
	k.logger.Info("Initialized default vault", "authority", k.authority)
}
