// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthwire/otgw/pkg/otgw"
)

var summaryTimeout time.Duration

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Fetch the one-shot status summary (PS=1)",
	Long: `Requests the gateway's status summary line and prints the decoded
boiler and thermostat state.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), summaryTimeout)
		defer cancel()

		gw, err := connectGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		snap, err := gw.GetStatus(ctx)
		if err != nil {
			return err
		}
		return printSnapshot(snap, otgw.SourceBoiler, otgw.SourceThermostat)
	},
}

func init() {
	summaryCmd.Flags().DurationVar(&summaryTimeout, "timeout", 30*time.Second, "overall timeout for connect and summary")
	rootCmd.AddCommand(summaryCmd)
}
