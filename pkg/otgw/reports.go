// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"strconv"
	"strings"
)

// Report responses arrive as "<code>=<value>". convertReport turns a
// resolved PR reply into a status update, validating the value against the
// report's vocabulary. Returns false for unknown report codes and for
// values that fail validation.
func convertReport(report Report, response string) (map[Source]map[string]any, bool) {
	if len(response) < 2 {
		return nil, false
	}
	value := response[2:]

	gw := func(field string, v any) (map[Source]map[string]any, bool) {
		return map[Source]map[string]any{SourceGateway: {field: v}}, true
	}

	switch report {
	case ReportAbout:
		return gw(GatewayAbout, value)
	case ReportBuildDate:
		return gw(GatewayBuild, value)
	case ReportClockSpeed:
		return gw(GatewayClockMHz, value)
	case ReportTempSensor:
		if value != "O" && value != "R" {
			return nil, false
		}
		return gw(GatewayTempSensor, value)
	case ReportGPIOModes:
		if len(value) < 2 {
			return nil, false
		}
		a, errA := strconv.Atoi(value[:1])
		b, errB := strconv.Atoi(value[1:2])
		if errA != nil || errB != nil || a > gpioModeMax || b > gpioModeMax {
			return nil, false
		}
		return map[Source]map[string]any{
			SourceGateway: {GatewayGPIOA: a, GatewayGPIOB: b},
		}, true
	case ReportGPIOStates:
		if len(value) < 2 {
			return nil, false
		}
		a, errA := strconv.Atoi(value[:1])
		b, errB := strconv.Atoi(value[1:2])
		if errA != nil || errB != nil {
			return nil, false
		}
		return map[Source]map[string]any{
			SourceGateway: {GatewayGPIOAState: a, GatewayGPIOBState: b},
		}, true
	case ReportLEDModes:
		if len(value) < 6 {
			return nil, false
		}
		update := map[string]any{}
		for i, field := range []string{
			GatewayLEDA, GatewayLEDB, GatewayLEDC, GatewayLEDD, GatewayLEDE, GatewayLEDF,
		} {
			mode := value[i : i+1]
			if !strings.Contains(ledModes, mode) {
				return nil, false
			}
			update[field] = mode
		}
		return map[Source]map[string]any{SourceGateway: update}, true
	case ReportOpMode:
		if value != string(OpModeGateway) && value != string(OpModeMonitor) {
			return nil, false
		}
		return gw(GatewayMode, value)
	case ReportSetpointOverride:
		if value == "" {
			return nil, false
		}
		mode := strings.ToUpper(value[:1])
		switch SetpointOverrideMode(mode) {
		case OverrideDisabled:
			return map[Source]map[string]any{
				SourceGateway:    {GatewayOverrideMode: mode},
				SourceThermostat: {DataRoomSetpointOverride: nil},
			}, true
		case OverrideTemporary, OverrideConstant:
			setp, err := strconv.ParseFloat(value[1:], 64)
			if err != nil {
				return nil, false
			}
			return map[Source]map[string]any{
				SourceGateway:    {GatewayOverrideMode: mode},
				SourceThermostat: {DataRoomSetpointOverride: setp},
			}, true
		}
		return nil, false
	case ReportSmartPower:
		mode := strings.ToLower(value)
		if !smartPowerModes[mode] {
			return nil, false
		}
		return gw(GatewaySmartPower, mode)
	case ReportResetCause:
		if len(value) != 1 || !strings.Contains(resetCauses, value) {
			return nil, false
		}
		return gw(GatewayResetCause, value)
	case ReportThermostatDetect:
		switch ThermostatDetection(value) {
		case DetectAuto, DetectCelcia20, DetectISense, DetectStandard:
			return gw(GatewayThermostatDetect, value)
		}
		return nil, false
	case ReportSetbackTemp:
		temp, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, false
		}
		return gw(GatewaySetbackTemp, temp)
	case ReportTweaks:
		if len(value) < 2 {
			return nil, false
		}
		it, errI := strconv.Atoi(value[:1])
		hb, errH := strconv.Atoi(value[1:2])
		if errI != nil || errH != nil {
			return nil, false
		}
		return map[Source]map[string]any{
			SourceGateway: {GatewayIgnoreTransitions: it, GatewayOverrideHighByte: hb},
		}, true
	case ReportVoltageRef:
		ref, err := strconv.Atoi(value)
		if err != nil || ref < 0 || ref > 9 {
			return nil, false
		}
		return gw(GatewayVoltageRef, ref)
	case ReportDHWSetting:
		return gw(GatewayDHWOverride, value)
	}
	return nil, false
}
