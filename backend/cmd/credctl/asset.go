package main

import (
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/api"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func assetFlags(flags *pflag.FlagSet, asset *fabricclient.Asset) {
	flags.StringVar(&asset.Owner, "owner", "", "credential holder")
	flags.StringVar(&asset.Department, "department", "", "issuing department")
	flags.StringVar(&asset.AcademicYear, "academic-year", "", "academic year")
	flags.StringVar(&asset.StartDate, "start-date", "", "start of the programme")
	flags.StringVar(&asset.EndDate, "end-date", "", "end of the programme")
	flags.StringVar(&asset.CertificateType, "type", "", "certificate type")
	flags.StringVar(&asset.IssueDate, "issue-date", "", "issue date")
	flags.StringVar(&asset.Status, "status", fabricclient.StatusIssued, "lifecycle status")
	flags.StringVar(&asset.TxHash, "tx-hash", "", "reference to a related transaction")
}

// ledgerCommand runs fn against the gateway client and writes its result
func ledgerCommand(a *app, fn func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ledger, err := a.ledger()
		if err != nil {
			return err
		}
		data, err := fn(cmd, ledger, args)
		if err != nil {
			return err
		}
		return api.WriteSuccess(cmd.OutOrStdout(), data)
	}
}

func assetCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Manage credential assets",
	}

	var created fabricclient.Asset
	createCmd := &cobra.Command{
		Use:   "create <id>",
		Short: "Create a credential asset",
		Args:  cobra.ExactArgs(1),
		RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
			created.ID = args[0]
			if err := ledger.CreateAsset(cmd.Context(), created); err != nil {
				return nil, err
			}
			return ledger.ReadAsset(cmd.Context(), created.ID)
		}),
	}
	assetFlags(createCmd.Flags(), &created)

	var updated fabricclient.Asset
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Replace the fields of a credential asset",
		Args:  cobra.ExactArgs(1),
		RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
			updated.ID = args[0]
			if err := ledger.UpdateAsset(cmd.Context(), updated); err != nil {
				return nil, err
			}
			return ledger.ReadAsset(cmd.Context(), updated.ID)
		}),
	}
	assetFlags(updateCmd.Flags(), &updated)

	cmd.AddCommand(
		createCmd,
		updateCmd,
		&cobra.Command{
			Use:   "read <id>",
			Short: "Read a credential asset",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.ReadAsset(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a credential asset",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				if err := ledger.DeleteAsset(cmd.Context(), args[0]); err != nil {
					return nil, err
				}
				return map[string]string{"id": args[0]}, nil
			}),
		},
		&cobra.Command{
			Use:   "transfer <id> <new-owner>",
			Short: "Transfer a credential asset to a new owner",
			Args:  cobra.ExactArgs(2),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				previous, err := ledger.TransferAsset(cmd.Context(), args[0], args[1])
				if err != nil {
					return nil, err
				}
				return map[string]string{"id": args[0], "previousOwner": previous, "owner": args[1]}, nil
			}),
		},
		&cobra.Command{
			Use:   "status <id> <status>",
			Short: "Change the lifecycle status of a credential asset",
			Args:  cobra.ExactArgs(2),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				if err := ledger.UpdateAssetStatus(cmd.Context(), args[0], args[1]); err != nil {
					return nil, err
				}
				return ledger.ReadAsset(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "exists <id>",
			Short: "Report whether a credential asset exists",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				exists, err := ledger.AssetExists(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], "exists": exists}, nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every credential asset",
			Args:  cobra.NoArgs,
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetAllAssets(cmd.Context())
			}),
		},
		&cobra.Command{
			Use:   "by-owner <owner>",
			Short: "List the credential assets held by an owner",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetAssetsByOwner(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "by-status <status>",
			Short: "List the credential assets in a lifecycle status",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetAssetsByStatus(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "history <id>",
			Short: "Show the modification history of a credential asset",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetAssetHistory(cmd.Context(), args[0]), nil
			}),
		},
	)
	return cmd
}
