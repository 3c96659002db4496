// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthwire/otgw/pkg/mqttbridge"
)

var (
	mqttBroker   string
	mqttClientID string
	mqttUsername string
	mqttPassword string
	mqttPrefix   string
	mqttQoS      uint8
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Mirror gateway status to an MQTT broker",
	Long: `Connects to the gateway and an MQTT broker and republishes every
status change as retained JSON documents, one topic per partition, until
interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		broker := viper.GetString("mqtt-broker")
		if broker == "" {
			return fmt.Errorf("no MQTT broker given (use --mqtt-broker)")
		}

		connectCtx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		gw, err := connectGateway(connectCtx)
		if err != nil {
			return err
		}
		defer gw.Disconnect()

		bridge := mqttbridge.New(mqttbridge.Config{
			BrokerURL:   broker,
			ClientID:    viper.GetString("mqtt-client-id"),
			Username:    viper.GetString("mqtt-username"),
			Password:    viper.GetString("mqtt-password"),
			TopicPrefix: viper.GetString("mqtt-prefix"),
			QoS:         byte(viper.GetUint("mqtt-qos")),
		}, gw, rootLogger)
		if err := bridge.Connect(cmd.Context()); err != nil {
			return err
		}
		defer bridge.Close()

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
	f := publishCmd.Flags()
	f.StringVar(&mqttBroker, "mqtt-broker", "", "broker URL, e.g. tcp://localhost:1883")
	f.StringVar(&mqttClientID, "mqtt-client-id", "otgw", "MQTT client identifier")
	f.StringVar(&mqttUsername, "mqtt-username", "", "MQTT username")
	f.StringVar(&mqttPassword, "mqtt-password", "", "MQTT password")
	f.StringVar(&mqttPrefix, "mqtt-prefix", "otgw", "topic prefix for published documents")
	f.Uint8Var(&mqttQoS, "mqtt-qos", 0, "MQTT quality of service (0-2)")
	_ = viper.BindPFlags(f)
	rootCmd.AddCommand(publishCmd)
}
