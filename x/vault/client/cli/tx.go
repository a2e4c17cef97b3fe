package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cosmossdk.io/math"
	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"
	"github.com/cosmos/cosmos-sdk/client/tx"

	"github.com/openalpha/fundvault/x/vault/types"
)

// GetTxCmd returns the transaction commands for the vault module
func GetTxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Vault module transaction commands",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdDeposit(),
		CmdRequestWithdrawal(),
		CmdApproveWithdrawal(),
		CmdProcessWithdrawal(),
		CmdCancelWithdrawal(),
		CmdCollectFees(),
		CmdSetSharePrice(),
		CmdSetFeeRates(),
		CmdSetDepositLimits(),
		CmdSetDepositsEnabled(),
		CmdSetWithdrawalDelay(),
		CmdSetManager(),
		CmdSetFeeCollector(),
		CmdSetPaused(),
		CmdTransferOwnership(),
		CmdAcceptOwnership(),
		CmdEmergencyWithdraw(),
	)

	return cmd
}

func parseIntAmount(raw string) (string, error) {
	amount, ok := math.NewIntFromString(raw)
	if !ok || !amount.IsPositive() {
		return "", fmt.Errorf("invalid amount: %s", raw)
	}
	return amount.String(), nil
}

// CmdDeposit returns the command to deposit settlement assets
func CmdDeposit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit [amount]",
		Short: "Deposit settlement assets and mint vault shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			amount, err := parseIntAmount(args[0])
			if err != nil {
				return err
			}

			msg := &types.MsgDeposit{
				Depositor: clientCtx.GetFromAddress().String(),
				Amount:    amount,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdRequestWithdrawal returns the command to open a withdrawal request
func CmdRequestWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request-withdrawal [share-amount]",
		Short: "Lock vault shares into a delayed withdrawal request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			shareAmount, err := parseIntAmount(args[0])
			if err != nil {
				return err
			}

			msg := &types.MsgRequestWithdrawal{
				Requester:   clientCtx.GetFromAddress().String(),
				ShareAmount: shareAmount,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdApproveWithdrawal returns the command to approve a matured request
func CmdApproveWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve-withdrawal [request-id]",
		Short: "Approve a matured withdrawal request (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %v", err)
			}

			msg := &types.MsgApproveWithdrawal{
				Manager:   clientCtx.GetFromAddress().String(),
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdProcessWithdrawal returns the command to claim an approved request
func CmdProcessWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process-withdrawal [request-id]",
		Short: "Claim the settlement payout of an approved withdrawal request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %v", err)
			}

			msg := &types.MsgProcessWithdrawal{
				Requester: clientCtx.GetFromAddress().String(),
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCancelWithdrawal returns the command to cancel an unapproved request
func CmdCancelWithdrawal() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel-withdrawal [request-id]",
		Short: "Cancel an unapproved withdrawal request and reclaim shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			requestID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid request id: %v", err)
			}

			msg := &types.MsgCancelWithdrawal{
				Requester: clientCtx.GetFromAddress().String(),
				RequestID: requestID,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdCollectFees returns the command to trigger a fee collection cycle
func CmdCollectFees() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect-fees",
		Short: "Collect accrued management and performance fees",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgCollectFees{
				Caller: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetSharePrice returns the command to update the administered share price
func CmdSetSharePrice() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-share-price [price]",
		Short: "Set the administered share price (manager only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			price, err := parseIntAmount(args[0])
			if err != nil {
				return err
			}

			msg := &types.MsgSetSharePrice{
				Manager: clientCtx.GetFromAddress().String(),
				Price:   price,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetFeeRates returns the command to update fee rates
func CmdSetFeeRates() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-fee-rates [management-bps] [performance-bps]",
		Short: "Set management and performance fee rates (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			managementFeeBps, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid management fee bps: %v", err)
			}
			performanceFeeBps, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid performance fee bps: %v", err)
			}

			msg := &types.MsgSetFeeRates{
				Owner:             clientCtx.GetFromAddress().String(),
				ManagementFeeBps:  managementFeeBps,
				PerformanceFeeBps: performanceFeeBps,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetDepositLimits returns the command to update deposit limits
func CmdSetDepositLimits() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-deposit-limits [min-deposit] [max-single-deposit]",
		Short: "Set per-deposit size limits (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			minDeposit, err := parseIntAmount(args[0])
			if err != nil {
				return err
			}
			maxSingleDeposit, err := parseIntAmount(args[1])
			if err != nil {
				return err
			}

			msg := &types.MsgSetDepositLimits{
				Owner:            clientCtx.GetFromAddress().String(),
				MinDeposit:       minDeposit,
				MaxSingleDeposit: maxSingleDeposit,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetDepositsEnabled returns the command to toggle deposit admission
func CmdSetDepositsEnabled() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-deposits-enabled [true|false]",
		Short: "Enable or disable new deposits (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			enabled, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid enabled flag: %v", err)
			}

			msg := &types.MsgSetDepositsEnabled{
				Owner:   clientCtx.GetFromAddress().String(),
				Enabled: enabled,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetWithdrawalDelay returns the command to update the withdrawal delay
func CmdSetWithdrawalDelay() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-withdrawal-delay [seconds]",
		Short: "Set the withdrawal request maturity delay (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			delaySeconds, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid delay seconds: %v", err)
			}

			msg := &types.MsgSetWithdrawalDelay{
				Owner:        clientCtx.GetFromAddress().String(),
				DelaySeconds: delaySeconds,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetManager returns the command to replace the manager role
func CmdSetManager() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-manager [address]",
		Short: "Set the vault manager address (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetManager{
				Owner:      clientCtx.GetFromAddress().String(),
				NewManager: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetFeeCollector returns the command to replace the fee collector role
func CmdSetFeeCollector() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-fee-collector [address]",
		Short: "Set the fee collector address (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgSetFeeCollector{
				Owner:           clientCtx.GetFromAddress().String(),
				NewFeeCollector: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdSetPaused returns the command to pause or unpause the vault
func CmdSetPaused() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-paused [true|false]",
		Short: "Pause or unpause deposits, requests and approvals (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			paused, err := strconv.ParseBool(args[0])
			if err != nil {
				return fmt.Errorf("invalid paused flag: %v", err)
			}

			msg := &types.MsgSetPaused{
				Owner:  clientCtx.GetFromAddress().String(),
				Paused: paused,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdTransferOwnership returns the command to nominate a new owner
func CmdTransferOwnership() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer-ownership [new-owner]",
		Short: "Nominate a new vault owner (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgTransferOwnership{
				Owner:    clientCtx.GetFromAddress().String(),
				NewOwner: args[0],
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdAcceptOwnership returns the command to accept a pending ownership transfer
func CmdAcceptOwnership() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept-ownership",
		Short: "Accept a pending ownership transfer",
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			msg := &types.MsgAcceptOwnership{
				NewOwner: clientCtx.GetFromAddress().String(),
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}

// CmdEmergencyWithdraw returns the command to sweep assets to the owner
func CmdEmergencyWithdraw() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emergency-withdraw [denom] [amount]",
		Short: "Sweep custodied assets to the owner (owner only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientTxContext(cmd)
			if err != nil {
				return err
			}

			amount, err := parseIntAmount(args[1])
			if err != nil {
				return err
			}

			msg := &types.MsgEmergencyWithdraw{
				Owner:  clientCtx.GetFromAddress().String(),
				Denom:  args[0],
				Amount: amount,
			}

			return tx.GenerateOrBroadcastTxCLI(clientCtx, cmd.Flags(), msg)
		},
	}

	flags.AddTxFlagsToCmd(cmd)
	return cmd
}
