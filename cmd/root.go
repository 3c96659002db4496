// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

// Package cmd implements the otgw command line interface.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hearthwire/otgw/internal/logging"
	"github.com/hearthwire/otgw/pkg/otgw"
	"github.com/hearthwire/otgw/pkg/transport"
)

var (
	cfgFile     string
	address     string
	baudRate    int
	noSSLVerify bool
	logLevel    string
	skipInit    bool
	rootLogger  *zap.SugaredLogger
)

var rootCmd = &cobra.Command{
	Use:   "otgw",
	Short: "OpenTherm Gateway client",
	Long: `Client for the OpenTherm Gateway (otgw.tclcode.com). Connects over a
serial device, a TCP serial bridge or a WebSocket relay, decodes the
OpenTherm traffic between thermostat and boiler and exposes the gateway's
command interface.`,
	Version: "1.0.0",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			viper.SetConfigName(".otgw")
			viper.SetConfigType("yaml")
			if home, err := os.UserHomeDir(); err == nil {
				viper.AddConfigPath(home)
			}
			viper.AddConfigPath(".")
		}
		if err := viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if cfgFile != "" || !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
		rootLogger = logging.New(viper.GetString("log-level"))
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default $HOME/.otgw.yaml)")
	pf.StringVarP(&address, "address", "a", "", "gateway address: serial device, host:port or ws(s):// URL")
	pf.IntVarP(&baudRate, "baud", "b", transport.DefaultBaudRate, "baud rate for serial connections")
	pf.BoolVar(&noSSLVerify, "no-ssl-verify", false, "skip TLS certificate verification for wss:// URLs")
	pf.StringVar(&logLevel, "log-level", logging.InfoLevel, "log level (debug, info, warn, error)")
	pf.BoolVar(&skipInit, "skip-init", false, "do not fetch reports and summary on connect")

	viper.SetEnvPrefix("OTGW")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlags(pf)
}

// dialerForFlags picks the transport from the address shape, honoring the
// serial and TLS flags.
func dialerForFlags(addr string) otgw.Dialer {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return transport.WebSocket(viper.GetBool("no-ssl-verify"))
	}
	if strings.Contains(addr, ":") && !strings.Contains(addr, "/") {
		return transport.TCP()
	}
	return transport.Serial(viper.GetInt("baud"))
}

// connectGateway builds a Gateway from the persistent flags and connects it.
func connectGateway(ctx context.Context) (*otgw.Gateway, error) {
	addr := viper.GetString("address")
	if addr == "" {
		return nil, fmt.Errorf("no gateway address given (use --address)")
	}
	gw := otgw.NewGateway(dialerForFlags(addr), otgw.GatewayConfig{
		SkipInit: viper.GetBool("skip-init"),
	}, rootLogger)
	if _, err := gw.Connect(ctx, addr); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	return gw, nil
}
