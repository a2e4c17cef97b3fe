package keeper

import (
	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// ShareConservation checks that the shares escrowed for outstanding
// withdrawal requests equal the module account's share balance. Shares enter
// escrow at request time, leave by burn at approval, and leave by refund at
// cancellation, so only unapproved live requests should be backed by the
// module balance.
func (k *Keeper) ShareConservation(ctx sdk.Context) (lockedShares, moduleBalance math.Int, ok bool) {
	lockedShares = math.ZeroInt()
	for _, request := range k.GetAllWithdrawalRequests(ctx) {
		if !request.Approved {
			lockedShares = lockedShares.Add(request.ShareAmount)
		}
	}

	moduleBalance = k.GetLockedShares(ctx)
	return lockedShares, moduleBalance, lockedShares.Equal(moduleBalance)
}
