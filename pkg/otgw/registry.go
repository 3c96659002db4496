// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

// The decode registry maps every known Data-ID to the list of actions that
// turn its two data bytes into status fields, split by frame direction.
// READ_DATA and WRITE_DATA frames travel master-to-slave, READ_ACK and
// WRITE_ACK slave-to-master. The registry is immutable after init.

type byteLoc uint8

const (
	locMSB byteLoc = iota
	locLSB
	locBoth
)

type primitive uint8

const (
	primFlag8 primitive = iota
	primU8
	primS8
	primF88
	primU16
	primS16
	// Named quirk handlers. These submit to the status store themselves
	// and suppress the frame's accumulated update.
	quirkOverrideReport
	quirkRoomSetpointAck
)

// decodeAction applies one primitive to the designated byte(s). For
// primFlag8, fields maps bit 0..7 in order; an empty name skips the bit.
// For the other primitives only fields[0] is used.
type decodeAction struct {
	prim   primitive
	loc    byteLoc
	fields []string
}

type decodeEntry struct {
	masterToSlave []decodeAction
	slaveToMaster []decodeAction
}

func flags(names ...string) decodeAction {
	return decodeAction{prim: primFlag8, fields: names}
}

func one(p primitive, loc byteLoc, field string) decodeAction {
	return decodeAction{prim: p, loc: loc, fields: []string{field}}
}

var registry = map[MessageID]decodeEntry{
	MsgStatus: {
		masterToSlave: []decodeAction{
			withLoc(locMSB, flags(
				DataMasterCHEnabled,
				DataMasterDHWEnabled,
				DataMasterCoolingEnabled,
				DataMasterOTCEnabled,
				DataMasterCH2Enabled,
			)),
		},
		slaveToMaster: []decodeAction{
			withLoc(locLSB, flags(
				DataSlaveFaultIndication,
				DataSlaveCHActive,
				DataSlaveDHWActive,
				DataSlaveFlameOn,
				DataSlaveCoolingActive,
				DataSlaveCH2Active,
				DataSlaveDiagIndication,
			)),
		},
	},
	MsgTSet: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataControlSetpoint)},
	},
	MsgMConfig: {
		masterToSlave: []decodeAction{one(primU8, locLSB, DataMasterMemberID)},
	},
	MsgSConfig: {
		slaveToMaster: []decodeAction{
			withLoc(locMSB, flags(
				DataSlaveDHWPresent,
				DataSlaveControlType,
				DataSlaveCoolingSupported,
				DataSlaveDHWConfig,
				DataSlaveLowOffPump,
				DataSlaveCH2Present,
			)),
			one(primU8, locLSB, DataSlaveMemberID),
		},
	},
	MsgCommand: {},
	MsgASFFlags: {
		slaveToMaster: []decodeAction{
			withLoc(locMSB, flags(
				DataSlaveServiceRequired,
				DataSlaveRemoteReset,
				DataSlaveLowWaterPress,
				DataSlaveGasFault,
				DataSlaveAirPressFault,
				DataSlaveWaterOvertemp,
			)),
			one(primU8, locLSB, DataSlaveOEMFault),
		},
	},
	MsgRBPFlags: {
		slaveToMaster: []decodeAction{
			withLoc(locMSB, flags(
				DataRemoteTransferDHW,
				DataRemoteTransferMaxCH,
			)),
			withLoc(locLSB, flags(
				DataRemoteRWDHW,
				DataRemoteRWMaxCH,
			)),
		},
	},
	MsgCooling: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataCoolingControl)},
	},
	MsgTSetCH2: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataControlSetpoint2)},
	},
	MsgTrOverride: {
		slaveToMaster: []decodeAction{{prim: quirkOverrideReport, loc: locBoth}},
	},
	MsgTSP:      {},
	MsgTSPIndex: {},
	MsgFHBSize:  {},
	MsgFHBIndex: {},
	MsgMaxRelMod: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataSlaveMaxRelativeMod)},
	},
	MsgMaxCapMinMod: {
		slaveToMaster: []decodeAction{
			one(primU8, locMSB, DataSlaveMaxCapacity),
			one(primU8, locLSB, DataSlaveMinModLevel),
		},
	},
	MsgTrSet: {
		masterToSlave: []decodeAction{one(primF88, locBoth, DataRoomSetpoint)},
		slaveToMaster: []decodeAction{{prim: quirkRoomSetpointAck, loc: locBoth}},
	},
	MsgRelMod: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataRelModLevel)},
	},
	MsgCHPressure: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataCHWaterPressure)},
	},
	MsgDHWFlow: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataDHWFlowRate)},
	},
	MsgTime: {},
	MsgDate: {},
	MsgYear: {},
	MsgTrSetCH2: {
		masterToSlave: []decodeAction{one(primF88, locBoth, DataRoomSetpoint2)},
	},
	MsgTRoom: {
		masterToSlave: []decodeAction{one(primF88, locBoth, DataRoomTemp)},
	},
	MsgTBoiler: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataCHWaterTemp)},
	},
	MsgTDHW: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataDHWTemp)},
	},
	MsgTOutside: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataOutsideTemp)},
	},
	MsgTReturn: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataReturnWaterTemp)},
	},
	MsgTStorage: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataSolarStorage)},
	},
	MsgTCollector: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataSolarCollector)},
	},
	MsgTFlowCH2: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataCHWaterTemp2)},
	},
	MsgTDHW2: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataDHWTemp2)},
	},
	MsgTExhaust: {
		slaveToMaster: []decodeAction{one(primS16, locBoth, DataExhaustTemp)},
	},
	MsgTDHWSetUL: {
		slaveToMaster: []decodeAction{
			one(primS8, locMSB, DataSlaveDHWMaxSetpoint),
			one(primS8, locLSB, DataSlaveDHWMinSetpoint),
		},
	},
	MsgTCHSetUL: {
		slaveToMaster: []decodeAction{
			one(primS8, locMSB, DataSlaveCHMaxSetpoint),
			one(primS8, locLSB, DataSlaveCHMinSetpoint),
		},
	},
	MsgOTCCurveUL: {},
	MsgTDHWSet: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataDHWSetpoint)},
	},
	MsgMaxTSet: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataMaxCHSetpoint)},
	},
	MsgOTCCurve: {},
	MsgStatusVH: {
		masterToSlave: []decodeAction{
			withLoc(locMSB, flags(
				DataVHMasterVentEnabled,
				DataVHMasterBypassPos,
				DataVHMasterBypassMode,
				DataVHMasterFreeVentMode,
			)),
		},
		slaveToMaster: []decodeAction{
			withLoc(locLSB, flags(
				DataVHSlaveFaultIndicate,
				DataVHSlaveVentMode,
				DataVHSlaveBypassStatus,
				DataVHSlaveBypassAuto,
				DataVHSlaveFreeVentStatus,
				"",
				DataVHSlaveDiagIndicate,
			)),
		},
	},
	MsgRelVentPos: {
		masterToSlave: []decodeAction{one(primU8, locMSB, DataVHControlSetpoint)},
	},
	MsgRelVent: {
		slaveToMaster: []decodeAction{one(primU8, locMSB, DataVHRelativeVent)},
	},
	MsgRemoteOvrd: {
		slaveToMaster: []decodeAction{
			withLoc(locLSB, flags(
				DataRemoteOverrideManual,
				DataRemoteOverrideAuto,
			)),
		},
	},
	MsgOEMDiag: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataOEMDiag)},
	},
	MsgBurnerStarts: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataBurnerStarts)},
	},
	MsgCHPumpStarts: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataCHPumpStarts)},
	},
	MsgDHWPumpStarts: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataDHWPumpStarts)},
	},
	MsgDHWBurnStarts: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataDHWBurnerStarts)},
	},
	MsgBurnerHours: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataBurnerHours)},
	},
	MsgCHPumpHours: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataCHPumpHours)},
	},
	MsgDHWPumpHours: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataDHWPumpHours)},
	},
	MsgDHWBurnHours: {
		slaveToMaster: []decodeAction{one(primU16, locBoth, DataDHWBurnerHours)},
	},
	MsgOTVersionM: {
		masterToSlave: []decodeAction{one(primF88, locBoth, DataMasterOTVersion)},
	},
	MsgOTVersionS: {
		slaveToMaster: []decodeAction{one(primF88, locBoth, DataSlaveOTVersion)},
	},
	MsgVersionM: {
		masterToSlave: []decodeAction{
			one(primU8, locMSB, DataMasterProductType),
			one(primU8, locLSB, DataMasterProductVersion),
		},
	},
	MsgVersionS: {
		slaveToMaster: []decodeAction{
			one(primU8, locMSB, DataSlaveProductType),
			one(primU8, locLSB, DataSlaveProductVersion),
		},
	},
}

func withLoc(loc byteLoc, a decodeAction) decodeAction {
	a.loc = loc
	return a
}

// actionsFor selects the registry actions for a frame's direction. The
// second return is false for Data-IDs not in the registry.
func actionsFor(id MessageID, t MessageType) ([]decodeAction, bool) {
	entry, ok := registry[id]
	if !ok {
		return nil, false
	}
	switch t {
	case ReadData, WriteData:
		return entry.masterToSlave, true
	case ReadAck, WriteAck:
		return entry.slaveToMaster, true
	}
	return nil, false
}
