// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthwire/otgw/pkg/otgw"
)

var reportsTimeout time.Duration

var reportsCmd = &cobra.Command{
	Use:   "reports [LETTER]",
	Short: "Fetch gateway configuration reports",
	Long: `Without arguments, sweeps all PR reports and prints the resulting
gateway state. With a single report letter (e.g. "A" or "L"), fetches
just that report.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), reportsTimeout)
		defer cancel()

		gw, err := connectGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		var snap otgw.Snapshot
		if len(args) == 1 {
			snap, err = gw.GetReport(ctx, otgw.Report(args[0]))
		} else {
			snap, err = gw.GetReports(ctx)
		}
		if err != nil {
			return err
		}
		return printSnapshot(snap, otgw.SourceGateway)
	},
}

// printSnapshot writes the named partitions as indented JSON. With no
// partitions given it prints the whole snapshot.
func printSnapshot(snap otgw.Snapshot, parts ...otgw.Source) error {
	var v any = snap
	if len(parts) == 1 {
		v = snap[parts[0]]
	} else if len(parts) > 1 {
		sel := otgw.Snapshot{}
		for _, p := range parts {
			sel[p] = snap[p]
		}
		v = sel
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return nil
}

func init() {
	reportsCmd.Flags().DurationVar(&reportsTimeout, "timeout", 60*time.Second, "overall timeout for connect and report sweep")
	rootCmd.AddCommand(reportsCmd)
}
