// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"reflect"
	"testing"
)

func TestConvertReport(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		response string
		want     map[Source]map[string]any
	}{
		{
			"about", ReportAbout, "A=OpenTherm Gateway 4.2.5",
			map[Source]map[string]any{SourceGateway: {GatewayAbout: "OpenTherm Gateway 4.2.5"}},
		},
		{
			"build date", ReportBuildDate, "B=17:52 12-03-2015",
			map[Source]map[string]any{SourceGateway: {GatewayBuild: "17:52 12-03-2015"}},
		},
		{
			"clock speed", ReportClockSpeed, "C=4 MHz",
			map[Source]map[string]any{SourceGateway: {GatewayClockMHz: "4 MHz"}},
		},
		{
			"temp sensor", ReportTempSensor, "D=R",
			map[Source]map[string]any{SourceGateway: {GatewayTempSensor: "R"}},
		},
		{
			"gpio modes", ReportGPIOModes, "G=40",
			map[Source]map[string]any{SourceGateway: {GatewayGPIOA: 4, GatewayGPIOB: 0}},
		},
		{
			"gpio states", ReportGPIOStates, "I=10",
			map[Source]map[string]any{SourceGateway: {GatewayGPIOAState: 1, GatewayGPIOBState: 0}},
		},
		{
			"led modes", ReportLEDModes, "L=FXROBP",
			map[Source]map[string]any{SourceGateway: {
				GatewayLEDA: "F", GatewayLEDB: "X", GatewayLEDC: "R",
				GatewayLEDD: "O", GatewayLEDE: "B", GatewayLEDF: "P",
			}},
		},
		{
			"operating mode", ReportOpMode, "M=G",
			map[Source]map[string]any{SourceGateway: {GatewayMode: "G"}},
		},
		{
			"override disabled", ReportSetpointOverride, "O=N",
			map[Source]map[string]any{
				SourceGateway:    {GatewayOverrideMode: "N"},
				SourceThermostat: {DataRoomSetpointOverride: nil},
			},
		},
		{
			"override constant", ReportSetpointOverride, "O=c19.50",
			map[Source]map[string]any{
				SourceGateway:    {GatewayOverrideMode: "C"},
				SourceThermostat: {DataRoomSetpointOverride: 19.5},
			},
		},
		{
			"smart power", ReportSmartPower, "P=Medium power",
			map[Source]map[string]any{SourceGateway: {GatewaySmartPower: "medium power"}},
		},
		{
			"reset cause", ReportResetCause, "Q=B",
			map[Source]map[string]any{SourceGateway: {GatewayResetCause: "B"}},
		},
		{
			"thermostat detection", ReportThermostatDetect, "R=I",
			map[Source]map[string]any{SourceGateway: {GatewayThermostatDetect: "I"}},
		},
		{
			"setback temperature", ReportSetbackTemp, "S=16.50",
			map[Source]map[string]any{SourceGateway: {GatewaySetbackTemp: 16.5}},
		},
		{
			"tweaks", ReportTweaks, "T=10",
			map[Source]map[string]any{SourceGateway: {GatewayIgnoreTransitions: 1, GatewayOverrideHighByte: 0}},
		},
		{
			"voltage reference", ReportVoltageRef, "V=3",
			map[Source]map[string]any{SourceGateway: {GatewayVoltageRef: 3}},
		},
		{
			"dhw setting", ReportDHWSetting, "W=A",
			map[Source]map[string]any{SourceGateway: {GatewayDHWOverride: "A"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := convertReport(tt.report, tt.response)
			if !ok {
				t.Fatalf("convertReport(%s, %q) rejected", tt.report, tt.response)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvertReport_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		report   Report
		response string
	}{
		{"too short", ReportAbout, "A"},
		{"bad temp sensor", ReportTempSensor, "D=X"},
		{"gpio mode out of range", ReportGPIOModes, "G=80"},
		{"gpio mode not numeric", ReportGPIOModes, "G=X0"},
		{"bad led letter", ReportLEDModes, "L=FXROBZ"},
		{"bad operating mode", ReportOpMode, "M=X"},
		{"bad override setpoint", ReportSetpointOverride, "O=Cabc"},
		{"bare two-letter override reply", ReportSetpointOverride, "XY"},
		{"empty override value", ReportSetpointOverride, "O="},
		{"bad override mode", ReportSetpointOverride, "O=X19.5"},
		{"unknown smart power", ReportSmartPower, "P=Turbo power"},
		{"bad reset cause", ReportResetCause, "Q=Z"},
		{"bad detection", ReportThermostatDetect, "R=X"},
		{"bad setback", ReportSetbackTemp, "S=warm"},
		{"bad tweaks", ReportTweaks, "T=XY"},
		{"voltage out of range", ReportVoltageRef, "V=12"},
		{"unknown report", Report("Z"), "Z=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := convertReport(tt.report, tt.response); ok {
				t.Errorf("convertReport(%s, %q) should be rejected", tt.report, tt.response)
			}
		})
	}
}
