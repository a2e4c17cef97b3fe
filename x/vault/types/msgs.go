package types

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	cdctypes "github.com/cosmos/cosmos-sdk/codec/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Message types
const (
	TypeMsgDeposit            = "deposit"
	TypeMsgRequestWithdrawal  = "request_withdrawal"
	TypeMsgApproveWithdrawal  = "approve_withdrawal"
	TypeMsgProcessWithdrawal  = "process_withdrawal"
	TypeMsgCancelWithdrawal   = "cancel_withdrawal"
	TypeMsgCollectFees        = "collect_fees"
	TypeMsgSetSharePrice      = "set_share_price"
	TypeMsgSetFeeRates        = "set_fee_rates"
	TypeMsgSetDepositLimits   = "set_deposit_limits"
	TypeMsgSetDepositsEnabled = "set_deposits_enabled"
	TypeMsgSetWithdrawalDelay = "set_withdrawal_delay"
	TypeMsgSetManager         = "set_manager"
	TypeMsgSetFeeCollector    = "set_fee_collector"
	TypeMsgSetPaused          = "set_paused"
	TypeMsgTransferOwnership  = "transfer_ownership"
	TypeMsgAcceptOwnership    = "accept_ownership"
	TypeMsgEmergencyWithdraw  = "emergency_withdraw"
)

// RegisterInterfaces registers the module's message types
func RegisterInterfaces(registry cdctypes.InterfaceRegistry) {
	registry.RegisterImplementations((*sdk.Msg)(nil),
		&MsgDeposit{},
		&MsgRequestWithdrawal{},
		&MsgApproveWithdrawal{},
		&MsgProcessWithdrawal{},
		&MsgCancelWithdrawal{},
		&MsgCollectFees{},
		&MsgSetSharePrice{},
		&MsgSetFeeRates{},
		&MsgSetDepositLimits{},
		&MsgSetDepositsEnabled{},
		&MsgSetWithdrawalDelay{},
		&MsgSetManager{},
		&MsgSetFeeCollector{},
		&MsgSetPaused{},
		&MsgTransferOwnership{},
		&MsgAcceptOwnership{},
		&MsgEmergencyWithdraw{},
	)
}

// MsgServer defines the vault module's message service
type MsgServer interface {
	Deposit(context.Context, *MsgDeposit) (*MsgDepositResponse, error)
	RequestWithdrawal(context.Context, *MsgRequestWithdrawal) (*MsgRequestWithdrawalResponse, error)
	ApproveWithdrawal(context.Context, *MsgApproveWithdrawal) (*MsgApproveWithdrawalResponse, error)
	ProcessWithdrawal(context.Context, *MsgProcessWithdrawal) (*MsgProcessWithdrawalResponse, error)
	CancelWithdrawal(context.Context, *MsgCancelWithdrawal) (*MsgCancelWithdrawalResponse, error)
	CollectFees(context.Context, *MsgCollectFees) (*MsgCollectFeesResponse, error)
	SetSharePrice(context.Context, *MsgSetSharePrice) (*MsgSetSharePriceResponse, error)
	SetFeeRates(context.Context, *MsgSetFeeRates) (*MsgSetFeeRatesResponse, error)
	SetDepositLimits(context.Context, *MsgSetDepositLimits) (*MsgSetDepositLimitsResponse, error)
	SetDepositsEnabled(context.Context, *MsgSetDepositsEnabled) (*MsgSetDepositsEnabledResponse, error)
	SetWithdrawalDelay(context.Context, *MsgSetWithdrawalDelay) (*MsgSetWithdrawalDelayResponse, error)
	SetManager(context.Context, *MsgSetManager) (*MsgSetManagerResponse, error)
	SetFeeCollector(context.Context, *MsgSetFeeCollector) (*MsgSetFeeCollectorResponse, error)
	SetPaused(context.Context, *MsgSetPaused) (*MsgSetPausedResponse, error)
	TransferOwnership(context.Context, *MsgTransferOwnership) (*MsgTransferOwnershipResponse, error)
	AcceptOwnership(context.Context, *MsgAcceptOwnership) (*MsgAcceptOwnershipResponse, error)
	EmergencyWithdraw(context.Context, *MsgEmergencyWithdraw) (*MsgEmergencyWithdrawResponse, error)
}

// RegisterMsgServer registers the MsgServer with the message service router.
// Dispatch happens in-process through the module's msg server; gRPC service
// registration would require generated service descriptors.
func RegisterMsgServer(s interface{}, srv MsgServer) {
}

// MsgDeposit defines the Deposit message
type MsgDeposit struct {
	Depositor string `json:"depositor"`
	Amount    string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgDeposit) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgDeposit) Type() string { return TypeMsgDeposit }

// ValidateBasic implements sdk.Msg
func (msg MsgDeposit) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Depositor); err != nil {
		return err
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgDeposit) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Depositor)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgDeposit) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgDeposit) Reset() { *msg = MsgDeposit{} }

// String implements proto.Message
func (msg MsgDeposit) String() string {
	return fmt.Sprintf("MsgDeposit{Depositor: %s, Amount: %s}", msg.Depositor, msg.Amount)
}

// XXX_MessageName returns the message type URL for MsgDeposit
func (msg *MsgDeposit) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgDeposit"
}

// MsgDepositResponse defines the Deposit response
type MsgDepositResponse struct {
	SharesMinted string `json:"shares_minted"`
}

// MsgRequestWithdrawal defines the RequestWithdrawal message
type MsgRequestWithdrawal struct {
	Requester   string `json:"requester"`
	ShareAmount string `json:"share_amount"`
}

// Route implements sdk.Msg
func (msg MsgRequestWithdrawal) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgRequestWithdrawal) Type() string { return TypeMsgRequestWithdrawal }

// ValidateBasic implements sdk.Msg
func (msg MsgRequestWithdrawal) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Requester); err != nil {
		return err
	}
	shares, ok := math.NewIntFromString(msg.ShareAmount)
	if !ok || !shares.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgRequestWithdrawal) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Requester)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgRequestWithdrawal) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgRequestWithdrawal) Reset() { *msg = MsgRequestWithdrawal{} }

// String implements proto.Message
func (msg MsgRequestWithdrawal) String() string {
	return fmt.Sprintf("MsgRequestWithdrawal{Requester: %s, ShareAmount: %s}", msg.Requester, msg.ShareAmount)
}

// XXX_MessageName returns the message type URL for MsgRequestWithdrawal
func (msg *MsgRequestWithdrawal) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgRequestWithdrawal"
}

// MsgRequestWithdrawalResponse defines the RequestWithdrawal response
type MsgRequestWithdrawalResponse struct {
	RequestID        uint64 `json:"request_id"`
	SettlementAmount string `json:"settlement_amount"`
	AvailableAt      int64  `json:"available_at"`
}

// MsgApproveWithdrawal defines the ApproveWithdrawal message
type MsgApproveWithdrawal struct {
	Manager   string `json:"manager"`
	RequestID uint64 `json:"request_id"`
}

// Route implements sdk.Msg
func (msg MsgApproveWithdrawal) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgApproveWithdrawal) Type() string { return TypeMsgApproveWithdrawal }

// ValidateBasic implements sdk.Msg
func (msg MsgApproveWithdrawal) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Manager); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgApproveWithdrawal) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Manager)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgApproveWithdrawal) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgApproveWithdrawal) Reset() { *msg = MsgApproveWithdrawal{} }

// String implements proto.Message
func (msg MsgApproveWithdrawal) String() string {
	return fmt.Sprintf("MsgApproveWithdrawal{Manager: %s, RequestID: %d}", msg.Manager, msg.RequestID)
}

// XXX_MessageName returns the message type URL for MsgApproveWithdrawal
func (msg *MsgApproveWithdrawal) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgApproveWithdrawal"
}

// MsgApproveWithdrawalResponse defines the ApproveWithdrawal response
type MsgApproveWithdrawalResponse struct {
	SharesBurned string `json:"shares_burned"`
}

// MsgProcessWithdrawal defines the ProcessWithdrawal message
type MsgProcessWithdrawal struct {
	Requester string `json:"requester"`
	RequestID uint64 `json:"request_id"`
}

// Route implements sdk.Msg
func (msg MsgProcessWithdrawal) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgProcessWithdrawal) Type() string { return TypeMsgProcessWithdrawal }

// ValidateBasic implements sdk.Msg
func (msg MsgProcessWithdrawal) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Requester); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgProcessWithdrawal) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Requester)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgProcessWithdrawal) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgProcessWithdrawal) Reset() { *msg = MsgProcessWithdrawal{} }

// String implements proto.Message
func (msg MsgProcessWithdrawal) String() string {
	return fmt.Sprintf("MsgProcessWithdrawal{Requester: %s, RequestID: %d}", msg.Requester, msg.RequestID)
}

// XXX_MessageName returns the message type URL for MsgProcessWithdrawal
func (msg *MsgProcessWithdrawal) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgProcessWithdrawal"
}

// MsgProcessWithdrawalResponse defines the ProcessWithdrawal response
type MsgProcessWithdrawalResponse struct {
	SettlementAmount string `json:"settlement_amount"`
}

// MsgCancelWithdrawal defines the CancelWithdrawal message
type MsgCancelWithdrawal struct {
	Requester string `json:"requester"`
	RequestID uint64 `json:"request_id"`
}

// Route implements sdk.Msg
func (msg MsgCancelWithdrawal) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCancelWithdrawal) Type() string { return TypeMsgCancelWithdrawal }

// ValidateBasic implements sdk.Msg
func (msg MsgCancelWithdrawal) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Requester); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCancelWithdrawal) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Requester)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCancelWithdrawal) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCancelWithdrawal) Reset() { *msg = MsgCancelWithdrawal{} }

// String implements proto.Message
func (msg MsgCancelWithdrawal) String() string {
	return fmt.Sprintf("MsgCancelWithdrawal{Requester: %s, RequestID: %d}", msg.Requester, msg.RequestID)
}

// XXX_MessageName returns the message type URL for MsgCancelWithdrawal
func (msg *MsgCancelWithdrawal) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgCancelWithdrawal"
}

// MsgCancelWithdrawalResponse defines the CancelWithdrawal response
type MsgCancelWithdrawalResponse struct {
	SharesReturned string `json:"shares_returned"`
}

// MsgCollectFees defines the CollectFees message
type MsgCollectFees struct {
	Caller string `json:"caller"`
}

// Route implements sdk.Msg
func (msg MsgCollectFees) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgCollectFees) Type() string { return TypeMsgCollectFees }

// ValidateBasic implements sdk.Msg
func (msg MsgCollectFees) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Caller); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgCollectFees) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Caller)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgCollectFees) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgCollectFees) Reset() { *msg = MsgCollectFees{} }

// String implements proto.Message
func (msg MsgCollectFees) String() string {
	return fmt.Sprintf("MsgCollectFees{Caller: %s}", msg.Caller)
}

// XXX_MessageName returns the message type URL for MsgCollectFees
func (msg *MsgCollectFees) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgCollectFees"
}

// MsgCollectFeesResponse defines the CollectFees response
type MsgCollectFeesResponse struct {
	ManagementFee  string `json:"management_fee"`
	PerformanceFee string `json:"performance_fee"`
	Collected      bool   `json:"collected"`
}

// MsgSetSharePrice defines the SetSharePrice message
type MsgSetSharePrice struct {
	Manager string `json:"manager"`
	Price   string `json:"price"`
}

// Route implements sdk.Msg
func (msg MsgSetSharePrice) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetSharePrice) Type() string { return TypeMsgSetSharePrice }

// ValidateBasic implements sdk.Msg
func (msg MsgSetSharePrice) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Manager); err != nil {
		return err
	}
	price, ok := math.NewIntFromString(msg.Price)
	if !ok || !price.IsPositive() {
		return ErrInvalidSharePrice
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetSharePrice) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Manager)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetSharePrice) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetSharePrice) Reset() { *msg = MsgSetSharePrice{} }

// String implements proto.Message
func (msg MsgSetSharePrice) String() string {
	return fmt.Sprintf("MsgSetSharePrice{Manager: %s, Price: %s}", msg.Manager, msg.Price)
}

// XXX_MessageName returns the message type URL for MsgSetSharePrice
func (msg *MsgSetSharePrice) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetSharePrice"
}

// MsgSetSharePriceResponse defines the SetSharePrice response
type MsgSetSharePriceResponse struct{}

// MsgSetFeeRates defines the SetFeeRates message
type MsgSetFeeRates struct {
	Owner             string `json:"owner"`
	ManagementFeeBps  int64  `json:"management_fee_bps"`
	PerformanceFeeBps int64  `json:"performance_fee_bps"`
}

// Route implements sdk.Msg
func (msg MsgSetFeeRates) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetFeeRates) Type() string { return TypeMsgSetFeeRates }

// ValidateBasic implements sdk.Msg
func (msg MsgSetFeeRates) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.ManagementFeeBps < 0 || msg.ManagementFeeBps > MaxManagementFeeBps {
		return ErrInvalidFeeRate
	}
	if msg.PerformanceFeeBps < 0 || msg.PerformanceFeeBps > MaxPerformanceFeeBps {
		return ErrInvalidFeeRate
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetFeeRates) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetFeeRates) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetFeeRates) Reset() { *msg = MsgSetFeeRates{} }

// String implements proto.Message
func (msg MsgSetFeeRates) String() string {
	return fmt.Sprintf("MsgSetFeeRates{Owner: %s, ManagementFeeBps: %d, PerformanceFeeBps: %d}", msg.Owner, msg.ManagementFeeBps, msg.PerformanceFeeBps)
}

// XXX_MessageName returns the message type URL for MsgSetFeeRates
func (msg *MsgSetFeeRates) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetFeeRates"
}

// MsgSetFeeRatesResponse defines the SetFeeRates response
type MsgSetFeeRatesResponse struct{}

// MsgSetDepositLimits defines the SetDepositLimits message
type MsgSetDepositLimits struct {
	Owner            string `json:"owner"`
	MinDeposit       string `json:"min_deposit"`
	MaxSingleDeposit string `json:"max_single_deposit"`
}

// Route implements sdk.Msg
func (msg MsgSetDepositLimits) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetDepositLimits) Type() string { return TypeMsgSetDepositLimits }

// ValidateBasic implements sdk.Msg
func (msg MsgSetDepositLimits) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	minDeposit, ok := math.NewIntFromString(msg.MinDeposit)
	if !ok || !minDeposit.IsPositive() {
		return ErrInvalidDepositLimits
	}
	maxDeposit, ok := math.NewIntFromString(msg.MaxSingleDeposit)
	if !ok || maxDeposit.LT(minDeposit) {
		return ErrInvalidDepositLimits
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetDepositLimits) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetDepositLimits) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetDepositLimits) Reset() { *msg = MsgSetDepositLimits{} }

// String implements proto.Message
func (msg MsgSetDepositLimits) String() string {
	return fmt.Sprintf("MsgSetDepositLimits{Owner: %s, MinDeposit: %s, MaxSingleDeposit: %s}", msg.Owner, msg.MinDeposit, msg.MaxSingleDeposit)
}

// XXX_MessageName returns the message type URL for MsgSetDepositLimits
func (msg *MsgSetDepositLimits) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetDepositLimits"
}

// MsgSetDepositLimitsResponse defines the SetDepositLimits response
type MsgSetDepositLimitsResponse struct{}

// MsgSetDepositsEnabled defines the SetDepositsEnabled message
type MsgSetDepositsEnabled struct {
	Owner   string `json:"owner"`
	Enabled bool   `json:"enabled"`
}

// Route implements sdk.Msg
func (msg MsgSetDepositsEnabled) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetDepositsEnabled) Type() string { return TypeMsgSetDepositsEnabled }

// ValidateBasic implements sdk.Msg
func (msg MsgSetDepositsEnabled) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetDepositsEnabled) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetDepositsEnabled) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetDepositsEnabled) Reset() { *msg = MsgSetDepositsEnabled{} }

// String implements proto.Message
func (msg MsgSetDepositsEnabled) String() string {
	return fmt.Sprintf("MsgSetDepositsEnabled{Owner: %s, Enabled: %t}", msg.Owner, msg.Enabled)
}

// XXX_MessageName returns the message type URL for MsgSetDepositsEnabled
func (msg *MsgSetDepositsEnabled) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetDepositsEnabled"
}

// MsgSetDepositsEnabledResponse defines the SetDepositsEnabled response
type MsgSetDepositsEnabledResponse struct{}

// MsgSetWithdrawalDelay defines the SetWithdrawalDelay message
type MsgSetWithdrawalDelay struct {
	Owner        string `json:"owner"`
	DelaySeconds int64  `json:"delay_seconds"`
}

// Route implements sdk.Msg
func (msg MsgSetWithdrawalDelay) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetWithdrawalDelay) Type() string { return TypeMsgSetWithdrawalDelay }

// ValidateBasic implements sdk.Msg
func (msg MsgSetWithdrawalDelay) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.DelaySeconds < 0 || msg.DelaySeconds > MaxWithdrawalDelay {
		return ErrInvalidWithdrawalDelay
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetWithdrawalDelay) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetWithdrawalDelay) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetWithdrawalDelay) Reset() { *msg = MsgSetWithdrawalDelay{} }

// String implements proto.Message
func (msg MsgSetWithdrawalDelay) String() string {
	return fmt.Sprintf("MsgSetWithdrawalDelay{Owner: %s, DelaySeconds: %d}", msg.Owner, msg.DelaySeconds)
}

// XXX_MessageName returns the message type URL for MsgSetWithdrawalDelay
func (msg *MsgSetWithdrawalDelay) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetWithdrawalDelay"
}

// MsgSetWithdrawalDelayResponse defines the SetWithdrawalDelay response
type MsgSetWithdrawalDelayResponse struct{}

// MsgSetManager defines the SetManager message
type MsgSetManager struct {
	Owner      string `json:"owner"`
	NewManager string `json:"new_manager"`
}

// Route implements sdk.Msg
func (msg MsgSetManager) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetManager) Type() string { return TypeMsgSetManager }

// ValidateBasic implements sdk.Msg
func (msg MsgSetManager) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewManager); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetManager) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetManager) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetManager) Reset() { *msg = MsgSetManager{} }

// String implements proto.Message
func (msg MsgSetManager) String() string {
	return fmt.Sprintf("MsgSetManager{Owner: %s, NewManager: %s}", msg.Owner, msg.NewManager)
}

// XXX_MessageName returns the message type URL for MsgSetManager
func (msg *MsgSetManager) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetManager"
}

// MsgSetManagerResponse defines the SetManager response
type MsgSetManagerResponse struct{}

// MsgSetFeeCollector defines the SetFeeCollector message
type MsgSetFeeCollector struct {
	Owner           string `json:"owner"`
	NewFeeCollector string `json:"new_fee_collector"`
}

// Route implements sdk.Msg
func (msg MsgSetFeeCollector) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetFeeCollector) Type() string { return TypeMsgSetFeeCollector }

// ValidateBasic implements sdk.Msg
func (msg MsgSetFeeCollector) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewFeeCollector); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetFeeCollector) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetFeeCollector) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetFeeCollector) Reset() { *msg = MsgSetFeeCollector{} }

// String implements proto.Message
func (msg MsgSetFeeCollector) String() string {
	return fmt.Sprintf("MsgSetFeeCollector{Owner: %s, NewFeeCollector: %s}", msg.Owner, msg.NewFeeCollector)
}

// XXX_MessageName returns the message type URL for MsgSetFeeCollector
func (msg *MsgSetFeeCollector) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetFeeCollector"
}

// MsgSetFeeCollectorResponse defines the SetFeeCollector response
type MsgSetFeeCollectorResponse struct{}

// MsgSetPaused defines the SetPaused message
type MsgSetPaused struct {
	Owner  string `json:"owner"`
	Paused bool   `json:"paused"`
}

// Route implements sdk.Msg
func (msg MsgSetPaused) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgSetPaused) Type() string { return TypeMsgSetPaused }

// ValidateBasic implements sdk.Msg
func (msg MsgSetPaused) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgSetPaused) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgSetPaused) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgSetPaused) Reset() { *msg = MsgSetPaused{} }

// String implements proto.Message
func (msg MsgSetPaused) String() string {
	return fmt.Sprintf("MsgSetPaused{Owner: %s, Paused: %t}", msg.Owner, msg.Paused)
}

// XXX_MessageName returns the message type URL for MsgSetPaused
func (msg *MsgSetPaused) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgSetPaused"
}

// MsgSetPausedResponse defines the SetPaused response
type MsgSetPausedResponse struct{}

// MsgTransferOwnership defines the TransferOwnership message
type MsgTransferOwnership struct {
	Owner    string `json:"owner"`
	NewOwner string `json:"new_owner"`
}

// Route implements sdk.Msg
func (msg MsgTransferOwnership) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgTransferOwnership) Type() string { return TypeMsgTransferOwnership }

// ValidateBasic implements sdk.Msg
func (msg MsgTransferOwnership) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if _, err := sdk.AccAddressFromBech32(msg.NewOwner); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgTransferOwnership) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgTransferOwnership) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgTransferOwnership) Reset() { *msg = MsgTransferOwnership{} }

// String implements proto.Message
func (msg MsgTransferOwnership) String() string {
	return fmt.Sprintf("MsgTransferOwnership{Owner: %s, NewOwner: %s}", msg.Owner, msg.NewOwner)
}

// XXX_MessageName returns the message type URL for MsgTransferOwnership
func (msg *MsgTransferOwnership) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgTransferOwnership"
}

// MsgTransferOwnershipResponse defines the TransferOwnership response
type MsgTransferOwnershipResponse struct{}

// MsgAcceptOwnership defines the AcceptOwnership message
type MsgAcceptOwnership struct {
	NewOwner string `json:"new_owner"`
}

// Route implements sdk.Msg
func (msg MsgAcceptOwnership) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgAcceptOwnership) Type() string { return TypeMsgAcceptOwnership }

// ValidateBasic implements sdk.Msg
func (msg MsgAcceptOwnership) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.NewOwner); err != nil {
		return err
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgAcceptOwnership) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.NewOwner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgAcceptOwnership) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgAcceptOwnership) Reset() { *msg = MsgAcceptOwnership{} }

// String implements proto.Message
func (msg MsgAcceptOwnership) String() string {
	return fmt.Sprintf("MsgAcceptOwnership{NewOwner: %s}", msg.NewOwner)
}

// XXX_MessageName returns the message type URL for MsgAcceptOwnership
func (msg *MsgAcceptOwnership) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgAcceptOwnership"
}

// MsgAcceptOwnershipResponse defines the AcceptOwnership response
type MsgAcceptOwnershipResponse struct{}

// MsgEmergencyWithdraw defines the EmergencyWithdraw message
type MsgEmergencyWithdraw struct {
	Owner  string `json:"owner"`
	Denom  string `json:"denom"`
	Amount string `json:"amount"`
}

// Route implements sdk.Msg
func (msg MsgEmergencyWithdraw) Route() string { return ModuleName }

// Type implements sdk.Msg
func (msg MsgEmergencyWithdraw) Type() string { return TypeMsgEmergencyWithdraw }

// ValidateBasic implements sdk.Msg
func (msg MsgEmergencyWithdraw) ValidateBasic() error {
	if _, err := sdk.AccAddressFromBech32(msg.Owner); err != nil {
		return err
	}
	if msg.Denom == "" {
		return ErrInvalidAmount
	}
	amount, ok := math.NewIntFromString(msg.Amount)
	if !ok || !amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// GetSigners implements sdk.Msg
func (msg MsgEmergencyWithdraw) GetSigners() []sdk.AccAddress {
	addr, _ := sdk.AccAddressFromBech32(msg.Owner)
	return []sdk.AccAddress{addr}
}

// ProtoMessage implements proto.Message
func (*MsgEmergencyWithdraw) ProtoMessage() {}

// Reset implements proto.Message
func (msg *MsgEmergencyWithdraw) Reset() { *msg = MsgEmergencyWithdraw{} }

// String implements proto.Message
func (msg MsgEmergencyWithdraw) String() string {
	return fmt.Sprintf("MsgEmergencyWithdraw{Owner: %s, Denom: %s, Amount: %s}", msg.Owner, msg.Denom, msg.Amount)
}

// XXX_MessageName returns the message type URL for MsgEmergencyWithdraw
func (msg *MsgEmergencyWithdraw) XXX_MessageName() string {
	return "fundvault.vault.v1.MsgEmergencyWithdraw"
}

// MsgEmergencyWithdrawResponse defines the EmergencyWithdraw response
type MsgEmergencyWithdrawResponse struct{}

// Ensure all messages implement sdk.Msg interface
var (
	_ sdk.Msg = &MsgDeposit{}
	_ sdk.Msg = &MsgRequestWithdrawal{}
	_ sdk.Msg = &MsgApproveWithdrawal{}
	_ sdk.Msg = &MsgProcessWithdrawal{}
	_ sdk.Msg = &MsgCancelWithdrawal{}
	_ sdk.Msg = &MsgCollectFees{}
	_ sdk.Msg = &MsgSetSharePrice{}
	_ sdk.Msg = &MsgSetFeeRates{}
	_ sdk.Msg = &MsgSetDepositLimits{}
	_ sdk.Msg = &MsgSetDepositsEnabled{}
	_ sdk.Msg = &MsgSetWithdrawalDelay{}
	_ sdk.Msg = &MsgSetManager{}
	_ sdk.Msg = &MsgSetFeeCollector{}
	_ sdk.Msg = &MsgSetPaused{}
	_ sdk.Msg = &MsgTransferOwnership{}
	_ sdk.Msg = &MsgAcceptOwnership{}
	_ sdk.Msg = &MsgEmergencyWithdraw{}
)
