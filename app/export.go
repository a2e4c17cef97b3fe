package app

import (
	"encoding/json"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"

	vaulttypes "github.com/openalpha/fundvault/x/vault/types"
)

// ExportAppStateAndValidators exports the vault section of application state
// for a genesis file. SDK module state (accounts, balances) is not exported
// and must be carried over from the original genesis when restarting.
func (app *App) ExportAppStateAndValidators(
	forZeroHeight bool,
	jailAllowedAddrs []string,
	modulesToExport []string,
) (servertypes.ExportedApp, error) {
	height := app.LastBlockHeight()
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: height})

	vaultGenesis := app.VaultKeeper.ExportGenesis(ctx)
	vaultGenesisRaw, err := json.Marshal(vaultGenesis)
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	genesisState := map[string]json.RawMessage{
		vaulttypes.ModuleName: vaultGenesisRaw,
	}
	appState, err := json.MarshalIndent(genesisState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	if forZeroHeight {
		height = 0
	}

	return servertypes.ExportedApp{
		AppState: appState,
		Height:   height,
	}, nil
}
