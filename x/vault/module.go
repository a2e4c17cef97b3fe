package vault

import (
	"encoding/json"
	"fmt"

	"cosmossdk.io/core/appmodule"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/codec"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	"github.com/cosmos/cosmos-sdk/types/module"
	"github.com/grpc-ecosystem/grpc-gateway/runtime"

	"github.com/openalpha/fundvault/x/vault/keeper"
	"github.com/openalpha/fundvault/x/vault/types"
)

const (
	ModuleName = types.ModuleName
)

var (
	_ module.AppModuleBasic = AppModuleBasic{}
	_ appmodule.AppModule   = AppModule{}
)

// AppModuleBasic defines the basic application module for vault
type AppModuleBasic struct{}

// Name returns the module's name
func (AppModuleBasic) Name() string {
	return ModuleName
}

// RegisterLegacyAminoCodec registers the module's types on the given LegacyAmino codec
func (AppModuleBasic) RegisterLegacyAminoCodec(cdc *codec.LegacyAmino) {
	cdc.RegisterConcrete(&types.MsgDeposit{}, "vault/MsgDeposit", nil)
	cdc.RegisterConcrete(&types.MsgRequestWithdrawal{}, "vault/MsgRequestWithdrawal", nil)
	cdc.RegisterConcrete(&types.MsgApproveWithdrawal{}, "vault/MsgApproveWithdrawal", nil)
	cdc.RegisterConcrete(&types.MsgProcessWithdrawal{}, "vault/MsgProcessWithdrawal", nil)
	cdc.RegisterConcrete(&types.MsgCancelWithdrawal{}, "vault/MsgCancelWithdrawal", nil)
	cdc.RegisterConcrete(&types.MsgCollectFees{}, "vault/MsgCollectFees", nil)
	cdc.RegisterConcrete(&types.MsgSetSharePrice{}, "vault/MsgSetSharePrice", nil)
	cdc.RegisterConcrete(&types.MsgSetFeeRates{}, "vault/MsgSetFeeRates", nil)
	cdc.RegisterConcrete(&types.MsgSetDepositLimits{}, "vault/MsgSetDepositLimits", nil)
	cdc.RegisterConcrete(&types.MsgSetDepositsEnabled{}, "vault/MsgSetDepositsEnabled", nil)
	cdc.RegisterConcrete(&types.MsgSetWithdrawalDelay{}, "vault/MsgSetWithdrawalDelay", nil)
	cdc.RegisterConcrete(&types.MsgSetManager{}, "vault/MsgSetManager", nil)
	cdc.RegisterConcrete(&types.MsgSetFeeCollector{}, "vault/MsgSetFeeCollector", nil)
	cdc.RegisterConcrete(&types.MsgSetPaused{}, "vault/MsgSetPaused", nil)
	cdc.RegisterConcrete(&types.MsgTransferOwnership{}, "vault/MsgTransferOwnership", nil)
	cdc.RegisterConcrete(&types.MsgAcceptOwnership{}, "vault/MsgAcceptOwnership", nil)
	cdc.RegisterConcrete(&types.MsgEmergencyWithdraw{}, "vault/MsgEmergencyWithdraw", nil)
}

// RegisterInterfaces registers the module's interface types
func (AppModuleBasic) RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	types.RegisterInterfaces(registry)
}

// DefaultGenesis returns default genesis state as raw bytes
func (AppModuleBasic) DefaultGenesis(cdc codec.JSONCodec) json.RawMessage {
	bz, _ := json.Marshal(types.DefaultGenesisState())
	return bz
}

// ValidateGenesis performs genesis state validation
func (AppModuleBasic) ValidateGenesis(cdc codec.JSONCodec, config client.TxEncodingConfig, bz json.RawMessage) error {
	if len(bz) == 0 {
		return nil
	}
	var genesis types.GenesisState
	if err := json.Unmarshal(bz, &genesis); err != nil {
		return fmt.Errorf("failed to unmarshal vault genesis state: %w", err)
	}
	return genesis.Validate()
}

// RegisterGRPCGatewayRoutes registers the gRPC Gateway routes for the module
func (AppModuleBasic) RegisterGRPCGatewayRoutes(clientCtx client.Context, mux *runtime.ServeMux) {
	// TODO: Register gRPC gateway routes when proto generation is set up
}

// AppModule implements an application module for the vault module
type AppModule struct {
	AppModuleBasic
	keeper *keeper.Keeper
}

// NewAppModule creates a new AppModule object
func NewAppModule(k *keeper.Keeper) AppModule {
	return AppModule{
		AppModuleBasic: AppModuleBasic{},
		keeper:         k,
	}
}

// Name returns the module's name
func (am AppModule) Name() string {
	return ModuleName
}

// RegisterServices registers module services
func (am AppModule) RegisterServices(cfg module.Configurator) {
	types.RegisterMsgServer(cfg.MsgServer(), keeper.NewMsgServerImpl(am.keeper))
}

// IsOnePerModuleType implements the depinject.OnePerModuleType interface
func (am AppModule) IsOnePerModuleType() {}

// IsAppModule implements the appmodule.AppModule interface
func (am AppModule) IsAppModule() {}
