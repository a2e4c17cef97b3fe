package keeper

import (
	"context"

	"cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"

	"github.com/openalpha/fundvault/x/vault/types"
)

// MsgServer implements the vault message service
type MsgServer struct {
	keeper *Keeper
}

var _ types.MsgServer = (*MsgServer)(nil)

// NewMsgServerImpl creates a new MsgServer instance
func NewMsgServerImpl(keeper *Keeper) *MsgServer {
	return &MsgServer{keeper: keeper}
}

// Deposit handles MsgDeposit
func (m *MsgServer) Deposit(ctx context.Context, msg *types.MsgDeposit) (*types.MsgDepositResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, types.ErrInvalidAmount
	}

	shares, err := m.keeper.Deposit(sdkCtx, msg.Depositor, amount)
	if err != nil {
		return nil, err
	}

	return &types.MsgDepositResponse{SharesMinted: shares.String()}, nil
}

// RequestWithdrawal handles MsgRequestWithdrawal
func (m *MsgServer) RequestWithdrawal(ctx context.Context, msg *types.MsgRequestWithdrawal) (*types.MsgRequestWithdrawalResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	shareAmount, ok := math.NewIntFromString(msg.ShareAmount)
	if !ok {
		return nil, types.ErrInvalidAmount
	}

	request, err := m.keeper.RequestWithdrawal(sdkCtx, msg.Requester, shareAmount)
	if err != nil {
		return nil, err
	}

	state := m.keeper.GetVaultState(sdkCtx)
	availableAt := request.CreatedAt
	if state != nil {
		availableAt += state.WithdrawalDelay
	}

	return &types.MsgRequestWithdrawalResponse{
		RequestID:        request.ID,
		SettlementAmount: request.SettlementAmount.String(),
		AvailableAt:      availableAt,
	}, nil
}

// ApproveWithdrawal handles MsgApproveWithdrawal
func (m *MsgServer) ApproveWithdrawal(ctx context.Context, msg *types.MsgApproveWithdrawal) (*types.MsgApproveWithdrawalResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	request := m.keeper.GetWithdrawalRequest(sdkCtx, msg.RequestID)
	if err := m.keeper.ApproveWithdrawal(sdkCtx, msg.Manager, msg.RequestID); err != nil {
		return nil, err
	}

	resp := &types.MsgApproveWithdrawalResponse{}
	if request != nil {
		resp.SharesBurned = request.ShareAmount.String()
	}
	return resp, nil
}

// ProcessWithdrawal handles MsgProcessWithdrawal
func (m *MsgServer) ProcessWithdrawal(ctx context.Context, msg *types.MsgProcessWithdrawal) (*types.MsgProcessWithdrawalResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	settlementAmount, err := m.keeper.ProcessWithdrawal(sdkCtx, msg.Requester, msg.RequestID)
	if err != nil {
		return nil, err
	}

	return &types.MsgProcessWithdrawalResponse{SettlementAmount: settlementAmount.String()}, nil
}

// CancelWithdrawal handles MsgCancelWithdrawal
func (m *MsgServer) CancelWithdrawal(ctx context.Context, msg *types.MsgCancelWithdrawal) (*types.MsgCancelWithdrawalResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	sharesReturned, err := m.keeper.CancelWithdrawal(sdkCtx, msg.Requester, msg.RequestID)
	if err != nil {
		return nil, err
	}

	return &types.MsgCancelWithdrawalResponse{SharesReturned: sharesReturned.String()}, nil
}

// CollectFees handles MsgCollectFees
func (m *MsgServer) CollectFees(ctx context.Context, msg *types.MsgCollectFees) (*types.MsgCollectFeesResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	managementFee, performanceFee, collected, err := m.keeper.CollectFees(sdkCtx)
	if err != nil {
		return nil, err
	}

	return &types.MsgCollectFeesResponse{
		ManagementFee:  managementFee.String(),
		PerformanceFee: performanceFee.String(),
		Collected:      collected,
	}, nil
}

// SetSharePrice handles MsgSetSharePrice
func (m *MsgServer) SetSharePrice(ctx context.Context, msg *types.MsgSetSharePrice) (*types.MsgSetSharePriceResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	price, ok := math.NewIntFromString(msg.Price)
	if !ok {
		return nil, types.ErrInvalidSharePrice
	}

	if err := m.keeper.SetSharePrice(sdkCtx, msg.Manager, price); err != nil {
		return nil, err
	}
	return &types.MsgSetSharePriceResponse{}, nil
}

// SetFeeRates handles MsgSetFeeRates
func (m *MsgServer) SetFeeRates(ctx context.Context, msg *types.MsgSetFeeRates) (*types.MsgSetFeeRatesResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetFeeRates(sdkCtx, msg.Owner, msg.ManagementFeeBps, msg.PerformanceFeeBps); err != nil {
		return nil, err
	}
	return &types.MsgSetFeeRatesResponse{}, nil
}

// SetDepositLimits handles MsgSetDepositLimits
func (m *MsgServer) SetDepositLimits(ctx context.Context, msg *types.MsgSetDepositLimits) (*types.MsgSetDepositLimitsResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	minDeposit, ok := math.NewIntFromString(msg.MinDeposit)
	if !ok {
		return nil, types.ErrInvalidDepositLimits
	}
	maxSingleDeposit, ok := math.NewIntFromString(msg.MaxSingleDeposit)
	if !ok {
		return nil, types.ErrInvalidDepositLimits
	}

	if err := m.keeper.SetDepositLimits(sdkCtx, msg.Owner, minDeposit, maxSingleDeposit); err != nil {
		return nil, err
	}
	return &types.MsgSetDepositLimitsResponse{}, nil
}

// SetDepositsEnabled handles MsgSetDepositsEnabled
func (m *MsgServer) SetDepositsEnabled(ctx context.Context, msg *types.MsgSetDepositsEnabled) (*types.MsgSetDepositsEnabledResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetDepositsEnabled(sdkCtx, msg.Owner, msg.Enabled); err != nil {
		return nil, err
	}
	return &types.MsgSetDepositsEnabledResponse{}, nil
}

// SetWithdrawalDelay handles MsgSetWithdrawalDelay
func (m *MsgServer) SetWithdrawalDelay(ctx context.Context, msg *types.MsgSetWithdrawalDelay) (*types.MsgSetWithdrawalDelayResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetWithdrawalDelay(sdkCtx, msg.Owner, msg.DelaySeconds); err != nil {
		return nil, err
	}
	return &types.MsgSetWithdrawalDelayResponse{}, nil
}

// SetManager handles MsgSetManager
func (m *MsgServer) SetManager(ctx context.Context, msg *types.MsgSetManager) (*types.MsgSetManagerResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetManager(sdkCtx, msg.Owner, msg.NewManager); err != nil {
		return nil, err
	}
	return &types.MsgSetManagerResponse{}, nil
}

// SetFeeCollector handles MsgSetFeeCollector
func (m *MsgServer) SetFeeCollector(ctx context.Context, msg *types.MsgSetFeeCollector) (*types.MsgSetFeeCollectorResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetFeeCollector(sdkCtx, msg.Owner, msg.NewFeeCollector); err != nil {
		return nil, err
	}
	return &types.MsgSetFeeCollectorResponse{}, nil
}

// SetPaused handles MsgSetPaused
func (m *MsgServer) SetPaused(ctx context.Context, msg *types.MsgSetPaused) (*types.MsgSetPausedResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.SetPaused(sdkCtx, msg.Owner, msg.Paused); err != nil {
		return nil, err
	}
	return &types.MsgSetPausedResponse{}, nil
}

// TransferOwnership handles MsgTransferOwnership
func (m *MsgServer) TransferOwnership(ctx context.Context, msg *types.MsgTransferOwnership) (*types.MsgTransferOwnershipResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.TransferOwnership(sdkCtx, msg.Owner, msg.NewOwner); err != nil {
		return nil, err
	}
	return &types.MsgTransferOwnershipResponse{}, nil
}

// AcceptOwnership handles MsgAcceptOwnership
func (m *MsgServer) AcceptOwnership(ctx context.Context, msg *types.MsgAcceptOwnership) (*types.MsgAcceptOwnershipResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	if err := m.keeper.AcceptOwnership(sdkCtx, msg.NewOwner); err != nil {
		return nil, err
	}
	return &types.MsgAcceptOwnershipResponse{}, nil
}

// EmergencyWithdraw handles MsgEmergencyWithdraw
func (m *MsgServer) EmergencyWithdraw(ctx context.Context, msg *types.MsgEmergencyWithdraw) (*types.MsgEmergencyWithdrawResponse, error) {
	sdkCtx := sdk.UnwrapSDKContext(ctx)

	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok {
		return nil, types.ErrInvalidAmount
	}

	if err := m.keeper.EmergencyWithdraw(sdkCtx, msg.Owner, msg.Denom, amount); err != nil {
		return nil, err
	}
	return &types.MsgEmergencyWithdrawResponse{}, nil
}
