// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthwire/otgw/pkg/otgw"
)

var watchConnectTimeout time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream status updates as JSON lines",
	Long: `Connects to the gateway and prints one JSON line per status change
until interrupted. Useful for piping into jq or a log file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), watchConnectTimeout)
		defer cancel()

		gw, err := connectGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		enc := json.NewEncoder(os.Stdout)
		gw.Subscribe(func(snap otgw.Snapshot) {
			if err := enc.Encode(snap); err != nil {
				fmt.Fprintf(os.Stderr, "encode snapshot: %v\n", err)
			}
		})

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sig:
		case <-cmd.Context().Done():
		}
		return nil
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchConnectTimeout, "connect-timeout", 60*time.Second, "timeout for the initial connect")
	rootCmd.AddCommand(watchCmd)
}
