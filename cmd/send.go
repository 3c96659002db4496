// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearthwire/otgw/pkg/otgw"
)

var sendTimeout time.Duration

var sendCmd = &cobra.Command{
	Use:   "send CMD=VALUE",
	Short: "Send a raw gateway command and print the response",
	Long: `Sends a single two-letter gateway command, e.g. "TT=21.5" or "PR=A",
and prints the confirmed value from the response.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, value, ok := strings.Cut(args[0], "=")
		if !ok || len(code) != 2 {
			return fmt.Errorf("expected CMD=VALUE with a two-letter command, got %q", args[0])
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), sendTimeout)
		defer cancel()

		gw, err := connectGateway(ctx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		res, err := gw.SendTransparentCommand(ctx, otgw.Command(strings.ToUpper(code)), value)
		if err != nil {
			return err
		}
		fmt.Println(res.Value)
		if res.Extra != "" {
			fmt.Println(res.Extra)
		}
		return nil
	},
}

func init() {
	sendCmd.Flags().DurationVar(&sendTimeout, "timeout", 30*time.Second, "overall timeout for connect and command")
	rootCmd.AddCommand(sendCmd)
}
