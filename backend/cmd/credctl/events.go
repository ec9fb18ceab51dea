package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

type eventLine struct {
	Name        string          `json:"name"`
	TxID        string          `json:"txId"`
	BlockNumber uint64          `json:"blockNumber"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

func eventsCommand(a *app) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream chaincode events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := a.ledger()
			if err != nil {
				return err
			}
			events, err := ledger.WatchEvents(cmd.Context(), filter)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for event := range events {
				line := eventLine{
					Name:        event.Name,
					TxID:        event.TxID,
					BlockNumber: event.BlockNumber,
				}
				if json.Valid(event.Payload) {
					line.Payload = event.Payload
				}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "regular expression on event names")
	return cmd
}
