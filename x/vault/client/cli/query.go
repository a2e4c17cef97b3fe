package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/fundvault/x/vault/types"
)

// VaultParams is a CLI-friendly vault parameter struct
type VaultParams struct {
	SettlementDenom    string `json:"settlement_denom"`
	ShareDenom         string `json:"share_denom"`
	SharePrice         string `json:"share_price"`
	ManagementFeeBps   string `json:"management_fee_bps"`
	PerformanceFeeBps  string `json:"performance_fee_bps"`
	WithdrawalDelay    string `json:"withdrawal_delay_seconds"`
	MinDeposit         string `json:"min_deposit"`
	MaxSingleDeposit   string `json:"max_single_deposit"`
	CollectionInterval string `json:"fee_collection_interval_seconds"`
}

// GetQueryCmd returns the cli query commands for the vault module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        "vault",
		Short:                      "Querying commands for the vault module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryParams(),
		CmdQueryState(),
		CmdQueryAUM(),
		CmdQueryRequest(),
		CmdQueryPendingRequests(),
		CmdQueryUserRequests(),
		CmdQueryFeePreview(),
	)

	return cmd
}

// CmdQueryParams returns the command to show the default vault parameters
func CmdQueryParams() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Show default vault parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := VaultParams{
				SettlementDenom:    types.SettlementDenom,
				ShareDenom:         types.ShareDenom,
				SharePrice:         types.DefaultSharePrice.String(),
				ManagementFeeBps:   fmt.Sprintf("%d", types.DefaultManagementFeeBps),
				PerformanceFeeBps:  fmt.Sprintf("%d", types.DefaultPerformanceFeeBps),
				WithdrawalDelay:    fmt.Sprintf("%d", types.DefaultWithdrawalDelay),
				MinDeposit:         types.DefaultMinDeposit.String(),
				MaxSingleDeposit:   types.DefaultMaxSingleDeposit.String(),
				CollectionInterval: fmt.Sprintf("%d", types.FeeCollectionInterval),
			}

			output, _ := json.MarshalIndent(params, "", "  ")
			fmt.Println(string(output))
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryState returns the command to query live vault state
func CmdQueryState() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Query live vault configuration and accounting state",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Vault state query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/state")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryAUM returns the command to query assets under management
func CmdQueryAUM() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aum",
		Short: "Query assets under management",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("AUM query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/aum")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryRequest returns the command to query a withdrawal request
func CmdQueryRequest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request [request-id]",
		Short: "Query a withdrawal request by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Request query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/requests/{request_id}")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryPendingRequests returns the command to query pending withdrawal requests
func CmdQueryPendingRequests() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending-requests",
		Short: "Query withdrawal requests awaiting approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Pending requests query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/requests/pending")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryUserRequests returns the command to query a user's withdrawal requests
func CmdQueryUserRequests() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user-requests [address]",
		Short: "Query withdrawal requests for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("User requests query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/users/{address}/requests")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryFeePreview returns the command to preview accrued fees
func CmdQueryFeePreview() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fee-preview",
		Short: "Preview fees a collection would charge now",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("Fee preview query requires running node connection")
			fmt.Println("Use REST API: GET /v1/vault/fees/preview")
			return nil
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
