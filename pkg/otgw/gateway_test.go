// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"strings"
	"testing"
	"time"
)

// summaryLineV5 is a 34-field PS reply used by the gateway tests.
var summaryLineV5 = strings.Join([]string{
	"00000011/00001010", "48.00", "00000011/00000011", "0.00", "0.00",
	"100.00", "25/5", "20.50", "35.50", "1.50", "2.25", "0.00", "19.25",
	"55.00", "45.00", "10.50", "40.00", "0.00", "120", "60/40", "85/20",
	"55.00", "75.00", "00000001/00000010", "50", "40",
	"100", "200", "300", "400", "500", "600", "700", "800",
}, ",")

// reportReplies is the firmware's PR vocabulary for the fake gateway.
var reportReplies = map[string]string{
	"A": "A=OpenTherm Gateway 5.0",
	"B": "B=17:52 12-03-2015",
	"C": "C=4 MHz",
	"D": "D=O",
	"G": "G=44",
	"I": "I=00",
	"L": "L=FXROBP",
	"M": "M=G",
	"O": "O=N",
	"P": "P=Low power",
	"Q": "Q=B",
	"R": "R=S",
	"S": "S=16.50",
	"T": "T=10",
	"V": "V=3",
	"W": "W=A",
}

// fakeFirmware scripts the command surface the Gateway methods exercise.
func fakeFirmware(line string) []string {
	cmd, value, ok := strings.Cut(line, "=")
	if !ok {
		return nil
	}
	switch cmd {
	case "PS":
		if value == "1" {
			return []string{"PS: 1", summaryLineV5}
		}
		return []string{"PS: " + value}
	case "PR":
		if reply, ok := reportReplies[value]; ok {
			return []string{"PR: " + reply}
		}
		return []string{"NG"}
	case "GW":
		if value == "R" {
			return []string{"GW: R", "OpenTherm Gateway 5.0"}
		}
		return []string{"GW: " + value}
	default:
		return []string{cmd + ": " + value}
	}
}

func newTestGateway(t *testing.T, cfg GatewayConfig) *Gateway {
	t.Helper()
	dial := func(context.Context, string) (Transport, error) {
		return newFakeTransport(fakeFirmware), nil
	}
	g := NewGateway(dial, cfg, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := g.Connect(ctx, "fake:1234"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(g.Disconnect)
	return g
}

func TestGateway_ConnectPrimesSnapshot(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{})

	snap := g.Snapshot()
	if snap[SourceGateway][GatewayAbout] != "OpenTherm Gateway 5.0" {
		t.Errorf("about report missing: %v", snap[SourceGateway][GatewayAbout])
	}
	if snap[SourceGateway][GatewayTempSensor] != "O" {
		t.Error("firmware 5 must include the temperature sensor report")
	}
	if snap[SourceGateway][GatewayMode] != "G" {
		t.Errorf("operating mode missing: %v", snap[SourceGateway][GatewayMode])
	}
	// The PS=1 summary fills the boiler and thermostat partitions.
	if snap[SourceBoiler][DataCHWaterTemp] != 55.0 {
		t.Errorf("summary boiler temperature missing: %v", snap[SourceBoiler][DataCHWaterTemp])
	}
	if snap[SourceThermostat][DataRoomTemp] != 19.25 {
		t.Errorf("summary room temperature missing: %v", snap[SourceThermostat][DataRoomTemp])
	}
}

func TestGateway_SkipInit(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})
	snap := g.Snapshot()
	if len(snap[SourceGateway]) != 0 {
		t.Errorf("skip-init connect must not prime the snapshot: %v", snap[SourceGateway])
	}
	if !g.Connected() {
		t.Error("gateway should be connected")
	}
}

func TestGateway_SetTargetTemp(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})
	ctx := context.Background()

	got, err := g.SetTargetTemp(ctx, 21.5, true)
	if err != nil {
		t.Fatalf("SetTargetTemp failed: %v", err)
	}
	if got != 21.5 {
		t.Errorf("expected 21.5, got %v", got)
	}
	snap := g.Snapshot()
	if snap[SourceThermostat][DataRoomSetpointOverride] != 21.5 {
		t.Error("override not reflected in snapshot")
	}
	if snap[SourceGateway][GatewayOverrideMode] != string(OverrideTemporary) {
		t.Errorf("expected temporary override mode, got %v", snap[SourceGateway][GatewayOverrideMode])
	}
}

func TestGateway_SetTargetTempZeroClears(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})
	ctx := context.Background()

	if _, err := g.SetTargetTemp(ctx, 21.5, false); err != nil {
		t.Fatalf("SetTargetTemp failed: %v", err)
	}
	if _, err := g.SetTargetTemp(ctx, 0, false); err != nil {
		t.Fatalf("SetTargetTemp(0) failed: %v", err)
	}
	snap := g.Snapshot()
	if snap[SourceGateway][GatewayOverrideMode] != string(OverrideDisabled) {
		t.Errorf("expected disabled override mode, got %v", snap[SourceGateway][GatewayOverrideMode])
	}
	if snap[SourceThermostat][DataRoomSetpointOverride] != nil {
		t.Errorf("expected cleared override, got %v", snap[SourceThermostat][DataRoomSetpointOverride])
	}
}

func TestGateway_SetMode(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})
	ctx := context.Background()

	mode, err := g.SetMode(ctx, OpModeGateway)
	if err != nil {
		t.Fatalf("SetMode failed: %v", err)
	}
	if mode != OpModeGateway {
		t.Errorf("expected gateway mode, got %v", mode)
	}
	if g.Snapshot()[SourceGateway][GatewayMode] != "G" {
		t.Error("mode not reflected in snapshot")
	}

	if _, err := g.SetMode(ctx, OpMode("X")); err == nil {
		t.Error("invalid mode must be rejected before hitting the wire")
	}
}

func TestGateway_InputValidation(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})
	ctx := context.Background()

	if _, err := g.SetTemperatureSensorFunction(ctx, "X"); err == nil {
		t.Error("invalid sensor function accepted")
	}
	if _, err := g.SetOutsideTemp(ctx, -50); err == nil {
		t.Error("outside temperature below -40 accepted")
	}
	if _, err := g.SetGPIOMode(ctx, "A", gpioModeDS1820); err == nil {
		t.Error("DS1820 mode on port A accepted")
	}
	if _, err := g.SetGPIOMode(ctx, "C", 1); err == nil {
		t.Error("unknown GPIO port accepted")
	}
	if _, err := g.SetLEDMode(ctx, "G", "F"); err == nil {
		t.Error("unknown LED accepted")
	}
	if _, err := g.SetLEDMode(ctx, "A", "Z"); err == nil {
		t.Error("unknown LED mode accepted")
	}
	if _, err := g.SetMaxRelativeMod(ctx, 101); err == nil {
		t.Error("modulation above 100 accepted")
	}
	if _, err := g.SetVentilation(ctx, -1); err == nil {
		t.Error("negative ventilation accepted")
	}
	if _, err := g.AddAlternative(ctx, 0); err == nil {
		t.Error("data-id 0 accepted")
	}
	if _, err := g.AddAlternative(ctx, 256); err == nil {
		t.Error("data-id 256 accepted")
	}
	if _, err := g.SetCHEnableBit(ctx, 2); err == nil {
		t.Error("enable bit 2 accepted")
	}
}

func TestGateway_GetStatus(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})

	snap, err := g.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus failed: %v", err)
	}
	if snap[SourceBoiler][DataDHWFlowRate] != 2.25 {
		t.Errorf("summary field missing: %v", snap[SourceBoiler][DataDHWFlowRate])
	}
	if snap[SourceThermostat][DataMasterCHEnabled] != true {
		t.Error("master status flag missing")
	}
}

func TestGateway_GetReport(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})

	snap, err := g.GetReport(context.Background(), ReportSetbackTemp)
	if err != nil {
		t.Fatalf("GetReport failed: %v", err)
	}
	if snap[SourceGateway][GatewaySetbackTemp] != 16.5 {
		t.Errorf("setback temperature: got %v", snap[SourceGateway][GatewaySetbackTemp])
	}
}

func TestGateway_Reset(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	snap, err := g.Reset(ctx)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snap[SourceGateway][GatewayAbout] != "OpenTherm Gateway 5.0" {
		t.Error("snapshot not rebuilt after reset")
	}
}

func TestGateway_SendTransparentCommand(t *testing.T) {
	g := newTestGateway(t, GatewayConfig{SkipInit: true})

	res, err := g.SendTransparentCommand(context.Background(), CmdVoltageRef, 3)
	if err != nil {
		t.Fatalf("SendTransparentCommand failed: %v", err)
	}
	if res.Value != "3" {
		t.Errorf("expected 3, got %q", res.Value)
	}
	// Transparent commands never touch the snapshot.
	if _, ok := g.Snapshot()[SourceGateway][GatewayVoltageRef]; ok {
		t.Error("transparent command leaked into the snapshot")
	}
}

func TestFirmwareMajorBefore(t *testing.T) {
	tests := []struct {
		about string
		major int
		want  bool
	}{
		{"A=OpenTherm Gateway 4.2.5", 5, true},
		{"A=OpenTherm Gateway 5.0", 5, false},
		{"A=OpenTherm Gateway 6.1", 5, false},
		{"OpenTherm Gateway 4.2.5", 5, true},
		{"A=garbage", 5, true},
		{"", 5, true},
	}
	for _, tt := range tests {
		if got := firmwareMajorBefore(tt.about, tt.major); got != tt.want {
			t.Errorf("firmwareMajorBefore(%q, %d) = %v, want %v", tt.about, tt.major, got, tt.want)
		}
	}
}
