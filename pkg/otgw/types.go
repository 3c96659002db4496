// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

// Source identifies the device a status partition describes.
type Source string

// Status partitions. Every snapshot carries all three, even when empty.
const (
	SourceBoiler     Source = "boiler"
	SourceGateway    Source = "gateway"
	SourceThermostat Source = "thermostat"
)

// Origin is the single-letter prefix of a binary message line, identifying
// which side of the gateway produced the frame.
type Origin byte

const (
	OriginThermostat Origin = 'T' // request received from the thermostat
	OriginBoiler     Origin = 'B' // response received from the boiler
	OriginRequest    Origin = 'R' // request forwarded to the boiler, possibly modified
	OriginAnswer     Origin = 'A' // response returned to the thermostat, possibly modified
	OriginError      Origin = 'E' // frame the gateway flagged as erroneous
)

// MessageType is the 3-bit OpenTherm message type (bits 4-6 of the first
// frame byte).
type MessageType uint8

const (
	ReadData MessageType = iota
	WriteData
	InvalidData
	Reserved
	ReadAck
	WriteAck
	DataInvalid
	UnknownDataID
)

// MessageID is the OpenTherm Data-ID, selecting the meaning of the two data
// bytes of a frame.
type MessageID byte

const (
	MsgStatus        MessageID = 0x00
	MsgTSet          MessageID = 0x01
	MsgMConfig       MessageID = 0x02
	MsgSConfig       MessageID = 0x03
	MsgCommand       MessageID = 0x04
	MsgASFFlags      MessageID = 0x05
	MsgRBPFlags      MessageID = 0x06
	MsgCooling       MessageID = 0x07
	MsgTSetCH2       MessageID = 0x08
	MsgTrOverride    MessageID = 0x09
	MsgTSP           MessageID = 0x0A
	MsgTSPIndex      MessageID = 0x0B
	MsgFHBSize       MessageID = 0x0C
	MsgFHBIndex      MessageID = 0x0D
	MsgMaxRelMod     MessageID = 0x0E
	MsgMaxCapMinMod  MessageID = 0x0F
	MsgTrSet         MessageID = 0x10
	MsgRelMod        MessageID = 0x11
	MsgCHPressure    MessageID = 0x12
	MsgDHWFlow       MessageID = 0x13
	MsgTime          MessageID = 0x14
	MsgDate          MessageID = 0x15
	MsgYear          MessageID = 0x16
	MsgTrSetCH2      MessageID = 0x17
	MsgTRoom         MessageID = 0x18
	MsgTBoiler       MessageID = 0x19
	MsgTDHW          MessageID = 0x1A
	MsgTOutside      MessageID = 0x1B
	MsgTReturn       MessageID = 0x1C
	MsgTStorage      MessageID = 0x1D
	MsgTCollector    MessageID = 0x1E
	MsgTFlowCH2      MessageID = 0x1F
	MsgTDHW2         MessageID = 0x20
	MsgTExhaust      MessageID = 0x21
	MsgTDHWSetUL     MessageID = 0x30
	MsgTCHSetUL      MessageID = 0x31
	MsgOTCCurveUL    MessageID = 0x32
	MsgTDHWSet       MessageID = 0x38
	MsgMaxTSet       MessageID = 0x39
	MsgOTCCurve      MessageID = 0x3A
	MsgStatusVH      MessageID = 0x46
	MsgRelVentPos    MessageID = 0x47
	MsgRelVent       MessageID = 0x4D
	MsgRemoteOvrd    MessageID = 0x64
	MsgOEMDiag       MessageID = 0x73
	MsgBurnerStarts  MessageID = 0x74
	MsgCHPumpStarts  MessageID = 0x75
	MsgDHWPumpStarts MessageID = 0x76
	MsgDHWBurnStarts MessageID = 0x77
	MsgBurnerHours   MessageID = 0x78
	MsgCHPumpHours   MessageID = 0x79
	MsgDHWPumpHours  MessageID = 0x7A
	MsgDHWBurnHours  MessageID = 0x7B
	MsgOTVersionM    MessageID = 0x7C
	MsgOTVersionS    MessageID = 0x7D
	MsgVersionM      MessageID = 0x7E
	MsgVersionS      MessageID = 0x7F
)

// Command is a two-letter command code understood by the gateway firmware.
type Command string

const (
	CmdTargetTemp       Command = "TT"
	CmdTargetTempConst  Command = "TC"
	CmdOutsideTemp      Command = "OT"
	CmdSetClock         Command = "SC"
	CmdHotWater         Command = "HW"
	CmdReport           Command = "PR"
	CmdSummary          Command = "PS"
	CmdMode             Command = "GW"
	CmdLEDA             Command = "LA"
	CmdLEDB             Command = "LB"
	CmdLEDC             Command = "LC"
	CmdLEDD             Command = "LD"
	CmdLEDE             Command = "LE"
	CmdLEDF             Command = "LF"
	CmdGPIOA            Command = "GA"
	CmdGPIOB            Command = "GB"
	CmdSetback          Command = "SB"
	CmdTempSensor       Command = "TS"
	CmdAddAlternative   Command = "AA"
	CmdDelAlternative   Command = "DA"
	CmdUnknownID        Command = "UI"
	CmdKnownID          Command = "KI"
	CmdPriorityMsg      Command = "PM"
	CmdSetResponse      Command = "SR"
	CmdClearResponse    Command = "CR"
	CmdSetMaxCH         Command = "SH"
	CmdSetDHW           Command = "SW"
	CmdMaxModulation    Command = "MM"
	CmdControlSetpoint  Command = "CS"
	CmdControlSetpoint2 Command = "C2"
	CmdControlHeating   Command = "CH"
	CmdControlHeating2  Command = "H2"
	CmdVentSetpoint     Command = "VS"
	CmdResetCounter     Command = "RS"
	CmdIgnoreTrans      Command = "IT"
	CmdOverrideHigh     Command = "OH"
	CmdOverrideThrmst   Command = "FT"
	CmdVoltageRef       Command = "VR"
)

// Report identifies a PR= report code.
type Report string

const (
	ReportAbout            Report = "A"
	ReportBuildDate        Report = "B"
	ReportClockSpeed       Report = "C"
	ReportTempSensor       Report = "D"
	ReportGPIOModes        Report = "G"
	ReportGPIOStates       Report = "I"
	ReportLEDModes         Report = "L"
	ReportOpMode           Report = "M"
	ReportSetpointOverride Report = "O"
	ReportSmartPower       Report = "P"
	ReportResetCause       Report = "Q"
	ReportThermostatDetect Report = "R"
	ReportSetbackTemp      Report = "S"
	ReportTweaks           Report = "T"
	ReportVoltageRef       Report = "V"
	ReportDHWSetting       Report = "W"
)

// OpMode is the gateway operating mode.
type OpMode string

const (
	OpModeGateway OpMode = "G"
	OpModeMonitor OpMode = "M"
)

// SetpointOverrideMode describes how a setpoint override is held.
type SetpointOverrideMode string

const (
	OverrideTemporary SetpointOverrideMode = "T"
	OverrideConstant  SetpointOverrideMode = "C"
	OverrideDisabled  SetpointOverrideMode = "N"
)

// ThermostatDetection is the gateway's thermostat model detection state.
type ThermostatDetection string

const (
	DetectAuto     ThermostatDetection = "D"
	DetectCelcia20 ThermostatDetection = "C"
	DetectISense   ThermostatDetection = "I"
	DetectStandard ThermostatDetection = "S"
)

// ledModes lists the valid LED function letters accepted by LA..LF.
const ledModes = "RXTBOFHWCEMP"

// gpioModeMax is the highest GPIO function number; 7 (DS1820) is port B only.
const (
	gpioModeMax    = 7
	gpioModeDS1820 = 7
)

// smartPowerModes are the values PR=P may report, lowercased.
var smartPowerModes = map[string]bool{
	"low power":    true,
	"medium power": true,
	"high power":   true,
}

// resetCauses are the single-letter values PR=Q may report.
const resetCauses = "BCELOPSUW"
