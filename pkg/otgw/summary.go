// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"fmt"
	"strconv"
	"strings"
)

// The PS=1 summary reply is one comma-separated line of positional fields.
// Firmware before 5.0 emits 25 fields, 5.0 and later 34. Bit-string fields
// (like the master/slave status byte) are 8 characters, most significant
// bit first, so character 7 is bit 0.

const (
	summaryFieldsV4 = 25
	summaryFieldsV5 = 34
)

// summaryParser accumulates field conversions so one malformed field fails
// the whole line instead of panicking halfway through.
type summaryParser struct {
	fields []string
	err    error
}

func (p *summaryParser) fail(idx int, what string) {
	if p.err == nil {
		p.err = fmt.Errorf("summary field %d: bad %s %q", idx, what, p.fields[idx])
	}
}

func (p *summaryParser) float(idx int) float64 {
	v, err := strconv.ParseFloat(p.fields[idx], 64)
	if err != nil {
		p.fail(idx, "float")
	}
	return v
}

func (p *summaryParser) int(idx int) int {
	v, err := strconv.Atoi(p.fields[idx])
	if err != nil {
		p.fail(idx, "integer")
	}
	return v
}

// pair splits a "x/y" field and parses both halves as integers.
func (p *summaryParser) pair(idx int) (int, int) {
	parts := strings.SplitN(p.fields[idx], "/", 2)
	if len(parts) != 2 {
		p.fail(idx, "pair")
		return 0, 0
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		p.fail(idx, "pair")
	}
	return a, b
}

// bits splits a "xxxxxxxx/yyyyyyyy" field into the two bit strings.
func (p *summaryParser) bits(idx int) (string, string) {
	parts := strings.SplitN(p.fields[idx], "/", 2)
	if len(parts) != 2 || len(parts[0]) != 8 || len(parts[1]) != 8 {
		p.fail(idx, "status pair")
		return "00000000", "00000000"
	}
	return parts[0], parts[1]
}

func bit(s string, i int) bool {
	return s[i] == '1'
}

// parseSummary dispatches on the field count of a summary line and returns
// the boiler and thermostat partition updates.
func parseSummary(line string) (boiler, thermostat map[string]any, err error) {
	fields := strings.Split(line, ",")
	switch len(fields) {
	case summaryFieldsV5:
		return parseSummaryV5(fields)
	case summaryFieldsV4:
		return parseSummaryV4(fields)
	}
	return nil, nil, fmt.Errorf("summary line has %d fields, want %d or %d",
		len(fields), summaryFieldsV4, summaryFieldsV5)
}

func parseSummaryV4(fields []string) (map[string]any, map[string]any, error) {
	p := &summaryParser{fields: fields}
	master, slave := p.bits(0)
	remoteTransfer, remoteRW := p.bits(2)
	maxCap, minMod := p.pair(4)
	dhwMax, dhwMin := p.pair(13)
	chMax, chMin := p.pair(14)
	thermostat := map[string]any{
		DataMasterCHEnabled:      bit(master, 7),
		DataMasterDHWEnabled:     bit(master, 6),
		DataMasterCoolingEnabled: bit(master, 5),
		DataMasterOTCEnabled:     bit(master, 4),
		DataMasterCH2Enabled:     bit(master, 3),
		DataControlSetpoint:      p.float(1),
		DataRoomSetpoint:         p.float(5),
		DataRoomTemp:             p.float(8),
	}
	boiler := map[string]any{
		DataSlaveFaultIndication: bit(slave, 7),
		DataSlaveCHActive:        bit(slave, 6),
		DataSlaveDHWActive:       bit(slave, 5),
		DataSlaveFlameOn:         bit(slave, 4),
		DataSlaveCoolingActive:   bit(slave, 3),
		DataSlaveCH2Active:       bit(slave, 2),
		DataSlaveDiagIndication:  bit(slave, 1),
		DataRemoteTransferDHW:    bit(remoteTransfer, 7),
		DataRemoteTransferMaxCH:  bit(remoteTransfer, 6),
		DataRemoteRWDHW:          bit(remoteRW, 7),
		DataRemoteRWMaxCH:        bit(remoteRW, 6),
		DataSlaveMaxRelativeMod:  p.float(3),
		DataSlaveMaxCapacity:     maxCap,
		DataSlaveMinModLevel:     minMod,
		DataRelModLevel:          p.float(6),
		DataCHWaterPressure:      p.float(7),
		DataCHWaterTemp:          p.float(9),
		DataDHWTemp:              p.float(10),
		DataOutsideTemp:          p.float(11),
		DataReturnWaterTemp:      p.float(12),
		DataSlaveDHWMaxSetpoint:  dhwMax,
		DataSlaveDHWMinSetpoint:  dhwMin,
		DataSlaveCHMaxSetpoint:   chMax,
		DataSlaveCHMinSetpoint:   chMin,
		DataDHWSetpoint:          p.float(15),
		DataMaxCHSetpoint:        p.float(16),
		DataBurnerStarts:         p.int(17),
		DataCHPumpStarts:         p.int(18),
		DataDHWPumpStarts:        p.int(19),
		DataDHWBurnerStarts:      p.int(20),
		DataBurnerHours:          p.int(21),
		DataCHPumpHours:          p.int(22),
		DataDHWPumpHours:         p.int(23),
		DataDHWBurnerHours:       p.int(24),
	}
	if p.err != nil {
		return nil, nil, p.err
	}
	return boiler, thermostat, nil
}

func parseSummaryV5(fields []string) (map[string]any, map[string]any, error) {
	p := &summaryParser{fields: fields}
	master, slave := p.bits(0)
	remoteTransfer, remoteRW := p.bits(2)
	maxCap, minMod := p.pair(6)
	dhwMax, dhwMin := p.pair(19)
	chMax, chMin := p.pair(20)
	vhMaster, vhSlave := p.bits(23)
	thermostat := map[string]any{
		DataMasterCHEnabled:      bit(master, 7),
		DataMasterDHWEnabled:     bit(master, 6),
		DataMasterCoolingEnabled: bit(master, 5),
		DataMasterOTCEnabled:     bit(master, 4),
		DataMasterCH2Enabled:     bit(master, 3),
		DataControlSetpoint:      p.float(1),
		DataRoomSetpoint:         p.float(7),
		DataCoolingControl:       p.float(3),
		DataControlSetpoint2:     p.float(4),
		DataRoomSetpoint2:        p.float(11),
		DataRoomTemp:             p.float(12),
		DataVHMasterVentEnabled:  bit(vhMaster, 7),
		DataVHMasterBypassPos:    bit(vhMaster, 6),
		DataVHMasterBypassMode:   bit(vhMaster, 5),
		DataVHMasterFreeVentMode: bit(vhMaster, 4),
		DataVHControlSetpoint:    p.int(24),
	}
	boiler := map[string]any{
		DataSlaveFaultIndication:  bit(slave, 7),
		DataSlaveCHActive:         bit(slave, 6),
		DataSlaveDHWActive:        bit(slave, 5),
		DataSlaveFlameOn:          bit(slave, 4),
		DataSlaveCoolingActive:    bit(slave, 3),
		DataSlaveCH2Active:        bit(slave, 2),
		DataSlaveDiagIndication:   bit(slave, 1),
		DataRemoteTransferDHW:     bit(remoteTransfer, 7),
		DataRemoteTransferMaxCH:   bit(remoteTransfer, 6),
		DataRemoteRWDHW:           bit(remoteRW, 7),
		DataRemoteRWMaxCH:         bit(remoteRW, 6),
		DataSlaveMaxRelativeMod:   p.float(5),
		DataSlaveMaxCapacity:      maxCap,
		DataSlaveMinModLevel:      minMod,
		DataRelModLevel:           p.float(8),
		DataCHWaterPressure:       p.float(9),
		DataDHWFlowRate:           p.float(10),
		DataCHWaterTemp:           p.float(13),
		DataDHWTemp:               p.float(14),
		DataOutsideTemp:           p.float(15),
		DataReturnWaterTemp:       p.float(16),
		DataCHWaterTemp2:          p.float(17),
		DataExhaustTemp:           p.int(18),
		DataSlaveDHWMaxSetpoint:   dhwMax,
		DataSlaveDHWMinSetpoint:   dhwMin,
		DataSlaveCHMaxSetpoint:    chMax,
		DataSlaveCHMinSetpoint:    chMin,
		DataDHWSetpoint:           p.float(21),
		DataMaxCHSetpoint:         p.float(22),
		DataVHSlaveFaultIndicate:  bit(vhSlave, 7),
		DataVHSlaveVentMode:       bit(vhSlave, 6),
		DataVHSlaveBypassStatus:   bit(vhSlave, 5),
		DataVHSlaveBypassAuto:     bit(vhSlave, 4),
		DataVHSlaveFreeVentStatus: bit(vhSlave, 3),
		DataVHSlaveDiagIndicate:   bit(vhSlave, 1),
		DataVHRelativeVent:        p.int(25),
		DataBurnerStarts:          p.int(26),
		DataCHPumpStarts:          p.int(27),
		DataDHWPumpStarts:         p.int(28),
		DataDHWBurnerStarts:       p.int(29),
		DataBurnerHours:           p.int(30),
		DataCHPumpHours:           p.int(31),
		DataDHWPumpHours:          p.int(32),
		DataDHWBurnerHours:        p.int(33),
	}
	if p.err != nil {
		return nil, nil, p.err
	}
	return boiler, thermostat, nil
}
