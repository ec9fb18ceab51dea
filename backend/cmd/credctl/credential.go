package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/common/api"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/fabricclient"
	"github.com/ddylanlay/Blockchain-based-Digital-Education-Certificates-sub000/backend/pkg/issuance"
	"github.com/spf13/cobra"
)

func credentialCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Commit and verify credential hashes",
	}

	var record fabricclient.CredentialHash
	storeCmd := &cobra.Command{
		Use:   "store <id>",
		Short: "Commit a precomputed credential hash",
		Args:  cobra.ExactArgs(1),
		RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
			record.ID = args[0]
			if err := ledger.StoreCredentialHash(cmd.Context(), record); err != nil {
				return nil, err
			}
			return ledger.GetCredentialHash(cmd.Context(), record.ID)
		}),
	}
	storeCmd.Flags().StringVar(&record.Hash, "hash", "", "credential hash")
	storeCmd.Flags().StringVar(&record.StudentWallet, "student", "", "student wallet")
	storeCmd.Flags().StringVar(&record.UniversityWallet, "university", "", "university wallet")
	storeCmd.Flags().StringVar(&record.IssueDate, "issue-date", "", "issue date")
	storeCmd.Flags().StringVar(&record.Status, "status", fabricclient.StatusIssued, "lifecycle status")
	_ = storeCmd.MarkFlagRequired("hash")

	cmd.AddCommand(
		storeCmd,
		&cobra.Command{
			Use:   "get <id>",
			Short: "Read a committed credential hash",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetCredentialHash(cmd.Context(), args[0])
			}),
		},
		&cobra.Command{
			Use:   "exists <id>",
			Short: "Report whether a credential hash is committed",
			Args:  cobra.ExactArgs(1),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				exists, err := ledger.CredentialHashExists(cmd.Context(), args[0])
				if err != nil {
					return nil, err
				}
				return map[string]any{"id": args[0], "exists": exists}, nil
			}),
		},
		&cobra.Command{
			Use:   "verify <id> <hash>",
			Short: "Compare a hash against the committed one",
			Args:  cobra.ExactArgs(2),
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.VerifyCredentialHash(cmd.Context(), args[0], args[1])
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List every committed credential hash",
			Args:  cobra.NoArgs,
			RunE: ledgerCommand(a, func(cmd *cobra.Command, ledger ledgerAPI, args []string) (any, error) {
				return ledger.GetAllCredentialHashes(cmd.Context())
			}),
		},
		issueCommand(a),
		checkCommand(a),
	)
	return cmd
}

func issueCommand(a *app) *cobra.Command {
	var (
		req      issuance.Request
		document string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Store a credential document off-chain and commit its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.readDocument(document)
			if err != nil {
				return err
			}
			if !json.Valid(raw) {
				return fmt.Errorf("%w: document %s is not JSON", issuance.ErrInvalidRequest, document)
			}
			req.Document = raw

			issuer, err := a.issuer()
			if err != nil {
				return err
			}
			issued, err := issuer.Issue(cmd.Context(), req)
			if err != nil {
				return err
			}
			return api.WriteSuccess(cmd.OutOrStdout(), issued)
		},
	}
	cmd.Flags().StringVar(&req.ID, "id", "", "credential id, generated when empty")
	cmd.Flags().StringVar(&req.StudentWallet, "student", "", "student wallet")
	cmd.Flags().StringVar(&req.UniversityWallet, "university", "", "university wallet")
	cmd.Flags().StringVar(&req.IssueDate, "issue-date", "", "issue date, today when empty")
	cmd.Flags().StringVarP(&document, "document", "f", "-", "JSON credential document, - for stdin")
	return cmd
}

func checkCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check <id>",
		Short: "Verify a stored credential document against its commitment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer, err := a.issuer()
			if err != nil {
				return err
			}
			result, err := issuer.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return api.WriteSuccess(cmd.OutOrStdout(), struct {
				*issuance.Result
				Valid bool `json:"valid"`
			}{result, result.Valid()})
		},
	}
}

func (a *app) readDocument(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(a.stdin)
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", issuance.ErrInvalidRequest, err)
	}
	return raw, err
}
