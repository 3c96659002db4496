// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

// Status field names, as stored in the snapshot partitions. The names match
// the OpenTherm Gateway documentation so subscribers can key on them
// directly.

// Boiler/thermostat fields decoded from OpenTherm frames.
const (
	DataMasterCHEnabled      = "master_ch_enabled"
	DataMasterDHWEnabled     = "master_dhw_enabled"
	DataMasterCoolingEnabled = "master_cooling_enabled"
	DataMasterOTCEnabled     = "master_otc_enabled"
	DataMasterCH2Enabled     = "master_ch2_enabled"
	DataSlaveFaultIndication = "slave_fault_indication"
	DataSlaveCHActive        = "slave_ch_active"
	DataSlaveDHWActive       = "slave_dhw_active"
	DataSlaveFlameOn         = "slave_flame_on"
	DataSlaveCoolingActive   = "slave_cooling_active"
	DataSlaveCH2Active       = "slave_ch2_active"
	DataSlaveDiagIndication  = "slave_diagnostic_indication"

	DataControlSetpoint  = "control_setpoint"
	DataControlSetpoint2 = "control_setpoint_2"
	DataMasterMemberID   = "master_memberid"

	DataSlaveDHWPresent       = "slave_dhw_present"
	DataSlaveControlType      = "slave_control_type"
	DataSlaveCoolingSupported = "slave_cooling_supported"
	DataSlaveDHWConfig        = "slave_dhw_config"
	DataSlaveLowOffPump       = "slave_master_low_off_pump"
	DataSlaveCH2Present       = "slave_ch2_present"
	DataSlaveMemberID         = "slave_memberid"

	DataSlaveServiceRequired = "slave_service_required"
	DataSlaveRemoteReset     = "slave_remote_reset"
	DataSlaveLowWaterPress   = "slave_low_water_pressure"
	DataSlaveGasFault        = "slave_gas_fault"
	DataSlaveAirPressFault   = "slave_air_pressure_fault"
	DataSlaveWaterOvertemp   = "slave_water_overtemp"
	DataSlaveOEMFault        = "slave_oem_fault"

	DataRemoteTransferDHW   = "remote_transfer_dhw"
	DataRemoteTransferMaxCH = "remote_transfer_max_ch"
	DataRemoteRWDHW         = "remote_rw_dhw"
	DataRemoteRWMaxCH       = "remote_rw_max_ch"

	DataCoolingControl = "cooling_control"

	DataRoomSetpointOverride = "room_setpoint_ovrd"
	DataRoomSetpoint         = "room_setpoint"
	DataRoomSetpoint2        = "room_setpoint_2"
	DataRoomTemp             = "room_temp"

	DataSlaveMaxRelativeMod = "slave_max_relative_modulation"
	DataSlaveMaxCapacity    = "slave_max_capacity"
	DataSlaveMinModLevel    = "slave_min_mod_level"
	DataRelModLevel         = "relative_mod_level"

	DataCHWaterPressure = "ch_water_pressure"
	DataDHWFlowRate     = "dhw_flow_rate"
	DataCHWaterTemp     = "ch_water_temp"
	DataCHWaterTemp2    = "ch_water_temp_2"
	DataDHWTemp         = "dhw_temp"
	DataDHWTemp2        = "dhw_temp_2"
	DataOutsideTemp     = "outside_temp"
	DataReturnWaterTemp = "return_water_temp"
	DataSolarStorage    = "solar_storage_temp"
	DataSolarCollector  = "solar_coll_temp"
	DataExhaustTemp     = "exhaust_temp"

	DataSlaveDHWMaxSetpoint = "slave_dhw_max_setp"
	DataSlaveDHWMinSetpoint = "slave_dhw_min_setp"
	DataSlaveCHMaxSetpoint  = "slave_ch_max_setp"
	DataSlaveCHMinSetpoint  = "slave_ch_min_setp"
	DataDHWSetpoint         = "dhw_setpoint"
	DataMaxCHSetpoint       = "max_ch_setpoint"

	DataVHMasterVentEnabled   = "vh_master_vent_enabled"
	DataVHMasterBypassPos     = "vh_master_bypass_pos"
	DataVHMasterBypassMode    = "vh_master_bypass_mode"
	DataVHMasterFreeVentMode  = "vh_master_free_vent_mode"
	DataVHSlaveFaultIndicate  = "vh_slave_fault_indicate"
	DataVHSlaveVentMode       = "vh_slave_vent_mode"
	DataVHSlaveBypassStatus   = "vh_slave_bypass_status"
	DataVHSlaveBypassAuto     = "vh_slave_bypass_auto_status"
	DataVHSlaveFreeVentStatus = "vh_slave_free_vent_status"
	DataVHSlaveDiagIndicate   = "vh_slave_diag_indicate"
	DataVHControlSetpoint     = "vh_control_setpoint"
	DataVHRelativeVent        = "vh_relative_vent"

	DataRemoteOverrideManual = "rovrd_man_prio"
	DataRemoteOverrideAuto   = "rovrd_auto_prio"

	DataOEMDiag = "oem_diag"

	DataBurnerStarts    = "burner_starts"
	DataCHPumpStarts    = "ch_pump_starts"
	DataDHWPumpStarts   = "dhw_pump_starts"
	DataDHWBurnerStarts = "dhw_burner_starts"
	DataBurnerHours     = "burner_hours"
	DataCHPumpHours     = "ch_pump_hours"
	DataDHWPumpHours    = "dhw_pump_hours"
	DataDHWBurnerHours  = "dhw_burner_hours"

	DataMasterOTVersion      = "master_ot_version"
	DataSlaveOTVersion       = "slave_ot_version"
	DataMasterProductType    = "master_product_type"
	DataMasterProductVersion = "master_product_version"
	DataSlaveProductType     = "slave_product_type"
	DataSlaveProductVersion  = "slave_product_version"
)

// Gateway partition fields, populated from PR reports and commands.
const (
	GatewayMode              = "otgw_mode"
	GatewayDHWOverride       = "otgw_dhw_ovrd"
	GatewayAbout             = "otgw_about"
	GatewayBuild             = "otgw_build"
	GatewayClockMHz          = "otgw_clockmhz"
	GatewayLEDA              = "otgw_led_a"
	GatewayLEDB              = "otgw_led_b"
	GatewayLEDC              = "otgw_led_c"
	GatewayLEDD              = "otgw_led_d"
	GatewayLEDE              = "otgw_led_e"
	GatewayLEDF              = "otgw_led_f"
	GatewayGPIOA             = "otgw_gpio_a"
	GatewayGPIOB             = "otgw_gpio_b"
	GatewayGPIOAState        = "otgw_gpio_a_state"
	GatewayGPIOBState        = "otgw_gpio_b_state"
	GatewayResetCause        = "otgw_reset_cause"
	GatewaySetbackTemp       = "otgw_setback_temp"
	GatewayOverrideMode      = "otgw_setpoint_ovrd_mode"
	GatewaySmartPower        = "otgw_smart_pwr"
	GatewayTempSensor        = "otgw_temp_sensor"
	GatewayThermostatDetect  = "otgw_thermostat_detect"
	GatewayIgnoreTransitions = "otgw_ignore_transitions"
	GatewayOverrideHighByte  = "otgw_ovrd_high_byte"
	GatewayVoltageRef        = "otgw_vref"
)

// ledFieldByID maps an LED letter to its gateway status field.
var ledFieldByID = map[string]string{
	"A": GatewayLEDA,
	"B": GatewayLEDB,
	"C": GatewayLEDC,
	"D": GatewayLEDD,
	"E": GatewayLEDE,
	"F": GatewayLEDF,
}

// gpioFieldByID maps a GPIO letter to its gateway status field.
var gpioFieldByID = map[string]string{
	"A": GatewayGPIOA,
	"B": GatewayGPIOB,
}

// ledCommandByID maps an LED letter to the command configuring it.
var ledCommandByID = map[string]Command{
	"A": CmdLEDA,
	"B": CmdLEDB,
	"C": CmdLEDC,
	"D": CmdLEDD,
	"E": CmdLEDE,
	"F": CmdLEDF,
}

// gpioCommandByID maps a GPIO letter to the command configuring it.
var gpioCommandByID = map[string]Command{
	"A": CmdGPIOA,
	"B": CmdGPIOB,
}
