// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultCommandTimeout bounds the convenience methods when the caller's
// context carries no deadline of its own.
const DefaultCommandTimeout = 3 * time.Second

// reportOrder is the PR sweep performed after connect. About ("A") is
// fetched first and separately because the firmware version gates some of
// the other reports.
var reportOrder = []Report{
	ReportBuildDate,
	ReportClockSpeed,
	ReportTempSensor,
	ReportGPIOModes,
	ReportGPIOStates,
	ReportLEDModes,
	ReportOpMode,
	ReportSetpointOverride,
	ReportSmartPower,
	ReportResetCause,
	ReportThermostatDetect,
	ReportSetbackTemp,
	ReportTweaks,
	ReportVoltageRef,
	ReportDHWSetting,
}

// Gateway is the high-level client: connection management, the command
// surface of the gateway firmware, and the live status snapshot.
type Gateway struct {
	status   *StatusManager
	conn     *ConnectionManager
	gpioPoll *pollTask
	skipInit bool
	timeout  time.Duration

	log *zap.SugaredLogger
}

// GatewayConfig tunes a Gateway. The zero value selects all defaults.
type GatewayConfig struct {
	// SkipInit disables the PR/PS sweep after connect.
	SkipInit bool
	// CommandTimeout replaces DefaultCommandTimeout.
	CommandTimeout time.Duration
	// WatchdogTimeout replaces DefaultWatchdogTimeout.
	WatchdogTimeout time.Duration
}

// NewGateway creates a gateway client dialing through dial. A nil logger
// disables logging.
func NewGateway(dial Dialer, cfg GatewayConfig, log *zap.SugaredLogger) *Gateway {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	status := NewStatusManager(log)
	g := &Gateway{
		status:   status,
		conn:     NewConnectionManager(dial, status, cfg.WatchdogTimeout, log),
		skipInit: cfg.SkipInit,
		timeout:  cfg.CommandTimeout,
		log:      log,
	}
	g.gpioPoll = newPollTask("gpio state", g, ReportGPIOStates,
		map[Source]map[string]any{
			SourceGateway: {GatewayGPIOAState: 0, GatewayGPIOBState: 0},
		},
		func() bool {
			snap := status.Snapshot()
			return snap[SourceGateway][GatewayGPIOA] == 0 ||
				snap[SourceGateway][GatewayGPIOB] == 0
		},
		10*time.Second, log)
	return g
}

// Connect dials the gateway and, unless configured otherwise, primes the
// status snapshot from the PR and PS commands. Returns the snapshot.
func (g *Gateway) Connect(ctx context.Context, address string) (Snapshot, error) {
	if err := g.conn.Connect(ctx, address); err != nil {
		return nil, err
	}
	if !g.skipInit {
		if _, err := g.GetReports(ctx); err != nil {
			g.log.Warnw("initial report sweep incomplete", "error", err)
		}
		if _, err := g.GetStatus(ctx); err != nil {
			g.log.Warnw("initial status summary failed", "error", err)
		}
	}
	g.gpioPoll.startOrStopAsNeeded()
	return g.status.Snapshot(), nil
}

// Disconnect tears down the connection and all background routines.
func (g *Gateway) Disconnect() {
	g.gpioPoll.stop()
	g.conn.Disconnect()
}

// Reconnect redials the last-used address.
func (g *Gateway) Reconnect(ctx context.Context) error {
	return g.conn.Reconnect(ctx)
}

// Connected reports whether a live connection exists.
func (g *Gateway) Connected() bool {
	return g.conn.Connected()
}

// Subscribe registers a callback for status snapshots and returns its
// subscription handle.
func (g *Gateway) Subscribe(cb StatusCallback) *Subscription {
	return g.status.Subscribe(cb)
}

// Unsubscribe cancels a subscription returned by Subscribe.
func (g *Gateway) Unsubscribe(sub *Subscription) bool {
	return g.status.Unsubscribe(sub)
}

// Snapshot returns a copy of the current status.
func (g *Gateway) Snapshot() Snapshot {
	return g.status.Snapshot()
}

// issue sends a command with the default retry count, applying the
// configured command timeout when the context has no deadline.
func (g *Gateway) issue(ctx context.Context, cmd Command, value any) (string, error) {
	res, err := g.issueFull(ctx, cmd, value)
	return res.Value, err
}

func (g *Gateway) issueFull(ctx context.Context, cmd Command, value any) (Result, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return g.conn.Issue(ctx, cmd, value, DefaultRetries)
}

// SetTargetTemp sets the thermostat setpoint override and returns the
// accepted value. With temporary set, the thermostat program may override
// the temperature again; otherwise it holds until cleared. Setting 0
// clears the override.
func (g *Gateway) SetTargetTemp(ctx context.Context, temp float64, temporary bool) (float64, error) {
	cmd := CmdTargetTemp
	if !temporary {
		cmd = CmdTargetTempConst
	}
	ret, err := g.issue(ctx, cmd, fmt.Sprintf("%.1f", temp))
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected %s response %q: %w", cmd, ret, err)
	}
	if accepted < 0 || accepted > 30 {
		return accepted, nil
	}
	if accepted == 0 {
		g.status.SubmitFull(map[Source]map[string]any{
			SourceGateway:    {GatewayOverrideMode: string(OverrideDisabled)},
			SourceThermostat: {DataRoomSetpointOverride: nil},
		})
	} else {
		mode := OverrideConstant
		if temporary {
			mode = OverrideTemporary
		}
		g.status.SubmitFull(map[Source]map[string]any{
			SourceGateway:    {GatewayOverrideMode: string(mode)},
			SourceThermostat: {DataRoomSetpointOverride: accepted},
		})
	}
	return accepted, nil
}

// SetTemperatureSensorFunction selects what the gateway's temperature
// sensor measures: "O" for outside temperature, "R" for return water.
func (g *Gateway) SetTemperatureSensorFunction(ctx context.Context, function string) (string, error) {
	if function != "O" && function != "R" {
		return "", fmt.Errorf("invalid temperature sensor function %q", function)
	}
	ret, err := g.issue(ctx, CmdTempSensor, function)
	if err != nil {
		return "", err
	}
	g.status.Submit(SourceGateway, map[string]any{GatewayTempSensor: ret})
	return ret, nil
}

// SetOutsideTemp configures the outside temperature sent to the
// thermostat. Values above 64 clear a previously configured value; the
// gateway replies "-" in that case.
func (g *Gateway) SetOutsideTemp(ctx context.Context, temp float64) (string, error) {
	if temp < -40 {
		return "", fmt.Errorf("outside temperature %v below -40", temp)
	}
	ret, err := g.issue(ctx, CmdOutsideTemp, fmt.Sprintf("%.1f", temp))
	if err != nil {
		return "", err
	}
	if ret == "-" {
		g.status.Submit(SourceThermostat, map[string]any{DataOutsideTemp: 0.0})
		return ret, nil
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return "", fmt.Errorf("unexpected OT response %q: %w", ret, err)
	}
	g.status.Submit(SourceThermostat, map[string]any{DataOutsideTemp: accepted})
	return ret, nil
}

// SetClock sends the time and weekday for the gateway to answer the
// thermostat's next time request with. The reply has the form HH:MM/DOW.
func (g *Gateway) SetClock(ctx context.Context, t time.Time) (string, error) {
	dow := int(t.Weekday())
	if dow == 0 {
		dow = 7
	}
	return g.issue(ctx, CmdSetClock, fmt.Sprintf("%s/%d", t.Format("15:04"), dow))
}

// SetHotWaterOverride controls the domestic hot water enable option:
// "0" or "1" force the state, any other single character restores
// thermostat control (reply "A"). On newer firmware "P" requests a DHW
// push; that state is never reflected in the snapshot.
func (g *Gateway) SetHotWaterOverride(ctx context.Context, state string) (string, error) {
	ret, err := g.issue(ctx, CmdHotWater, state)
	if err != nil {
		return "", err
	}
	if ret != "P" {
		g.status.Submit(SourceGateway, map[string]any{GatewayDHWOverride: ret})
	}
	return ret, nil
}

// SetMode switches between gateway and monitor mode.
func (g *Gateway) SetMode(ctx context.Context, mode OpMode) (OpMode, error) {
	var value int
	switch mode {
	case OpModeMonitor:
		value = 0
	case OpModeGateway:
		value = 1
	default:
		return "", fmt.Errorf("invalid operating mode %q", mode)
	}
	ret, err := g.issue(ctx, CmdMode, value)
	if err != nil {
		return "", err
	}
	var newMode OpMode
	switch ret {
	case "0":
		newMode = OpModeMonitor
	case "1":
		newMode = OpModeGateway
	default:
		return "", fmt.Errorf("unexpected GW response %q", ret)
	}
	g.status.Submit(SourceGateway, map[string]any{GatewayMode: string(newMode)})
	return newMode, nil
}

// Reset restarts the gateway firmware, then rebuilds the status snapshot
// from scratch.
func (g *Gateway) Reset(ctx context.Context) (Snapshot, error) {
	if _, err := g.issue(ctx, CmdMode, "R"); err != nil {
		return nil, err
	}
	g.status.Reset()
	if _, err := g.GetReports(ctx); err != nil {
		return nil, err
	}
	if _, err := g.GetStatus(ctx); err != nil {
		return nil, err
	}
	return g.status.Snapshot(), nil
}

// SetLEDMode configures one of the six LEDs (A-F). Valid modes are the
// letters of ledModes, see the gateway firmware documentation.
func (g *Gateway) SetLEDMode(ctx context.Context, ledID, mode string) (string, error) {
	cmd, ok := ledCommandByID[ledID]
	if !ok || len(mode) != 1 || !strings.Contains(ledModes, mode) {
		return "", fmt.Errorf("invalid led %q or mode %q", ledID, mode)
	}
	ret, err := g.issue(ctx, cmd, mode)
	if err != nil {
		return "", err
	}
	g.status.Submit(SourceGateway, map[string]any{ledFieldByID[ledID]: ret})
	return ret, nil
}

// SetGPIOMode configures one of the two GPIO pins. Mode 7 (DS1820 sensor)
// is only valid on port B.
func (g *Gateway) SetGPIOMode(ctx context.Context, gpioID string, mode int) (int, error) {
	cmd, ok := gpioCommandByID[gpioID]
	if !ok || mode < 0 || mode > gpioModeMax {
		return 0, fmt.Errorf("invalid gpio %q or mode %d", gpioID, mode)
	}
	if mode == gpioModeDS1820 && gpioID != "B" {
		return 0, fmt.Errorf("gpio mode %d is only available on port B", mode)
	}
	ret, err := g.issue(ctx, cmd, mode)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.Atoi(ret)
	if err != nil {
		return 0, fmt.Errorf("unexpected %s response %q: %w", cmd, ret, err)
	}
	g.status.Submit(SourceGateway, map[string]any{gpioFieldByID[gpioID]: accepted})
	g.gpioPoll.startOrStopAsNeeded()
	return accepted, nil
}

// SetSetbackTemp configures the setback temperature used with the GPIO
// home/away functions.
func (g *Gateway) SetSetbackTemp(ctx context.Context, temp float64) (float64, error) {
	ret, err := g.issue(ctx, CmdSetback, temp)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected SB response %q: %w", ret, err)
	}
	g.status.Submit(SourceGateway, map[string]any{GatewaySetbackTemp: accepted})
	return accepted, nil
}

func (g *Gateway) issueDataID(ctx context.Context, cmd Command, id int) (int, error) {
	if id < 1 || id > 255 {
		return 0, fmt.Errorf("data-id %d out of range", id)
	}
	ret, err := g.issue(ctx, cmd, id)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.Atoi(ret)
	if err != nil {
		return 0, fmt.Errorf("unexpected %s response %q: %w", cmd, ret, err)
	}
	return accepted, nil
}

// AddAlternative adds a Data-ID to the table of alternatives sent to the
// boiler instead of IDs the boiler does not support.
func (g *Gateway) AddAlternative(ctx context.Context, id int) (int, error) {
	return g.issueDataID(ctx, CmdAddAlternative, id)
}

// DelAlternative removes one occurrence of a Data-ID from the table of
// alternatives.
func (g *Gateway) DelAlternative(ctx context.Context, id int) (int, error) {
	return g.issueDataID(ctx, CmdDelAlternative, id)
}

// AddUnknownID marks a Data-ID as unsupported by the boiler so the gateway
// substitutes an alternative for it.
func (g *Gateway) AddUnknownID(ctx context.Context, id int) (int, error) {
	return g.issueDataID(ctx, CmdUnknownID, id)
}

// DelUnknownID starts forwarding a Data-ID to the boiler again.
func (g *Gateway) DelUnknownID(ctx context.Context, id int) (int, error) {
	return g.issueDataID(ctx, CmdKnownID, id)
}

// SetMaxCHSetpoint sets the maximum central heating setpoint on boilers
// that support it.
func (g *Gateway) SetMaxCHSetpoint(ctx context.Context, temp float64) (float64, error) {
	ret, err := g.issue(ctx, CmdSetMaxCH, temp)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected SH response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataMaxCHSetpoint: accepted})
	return accepted, nil
}

// SetDHWSetpoint sets the domestic hot water setpoint on boilers that
// support it.
func (g *Gateway) SetDHWSetpoint(ctx context.Context, temp float64) (float64, error) {
	ret, err := g.issue(ctx, CmdSetDHW, temp)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected SW response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataDHWSetpoint: accepted})
	return accepted, nil
}

// SetMaxRelativeMod overrides the maximum relative modulation from the
// thermostat, 0 through 100.
func (g *Gateway) SetMaxRelativeMod(ctx context.Context, maxMod int) (int, error) {
	if maxMod < 0 || maxMod > 100 {
		return 0, fmt.Errorf("max relative modulation %d out of range", maxMod)
	}
	ret, err := g.issue(ctx, CmdMaxModulation, maxMod)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.Atoi(ret)
	if err != nil {
		return 0, fmt.Errorf("unexpected MM response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataSlaveMaxRelativeMod: accepted})
	return accepted, nil
}

// ClearMaxRelativeMod removes a previously configured modulation override.
func (g *Gateway) ClearMaxRelativeMod(ctx context.Context) error {
	ret, err := g.issue(ctx, CmdMaxModulation, "-")
	if err != nil {
		return err
	}
	if ret != "-" {
		return fmt.Errorf("unexpected MM response %q", ret)
	}
	return nil
}

// SetControlSetpoint manipulates the control setpoint sent to the boiler.
// Zero passes the thermostat's own value through.
func (g *Gateway) SetControlSetpoint(ctx context.Context, setpoint float64) (float64, error) {
	ret, err := g.issue(ctx, CmdControlSetpoint, setpoint)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected CS response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataControlSetpoint: accepted})
	return accepted, nil
}

// SetControlSetpoint2 manipulates the control setpoint for the second
// heating circuit.
func (g *Gateway) SetControlSetpoint2(ctx context.Context, setpoint float64) (float64, error) {
	ret, err := g.issue(ctx, CmdControlSetpoint2, setpoint)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.ParseFloat(ret, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected C2 response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataControlSetpoint2: accepted})
	return accepted, nil
}

// SetCHEnableBit controls the CH enable bit while a control setpoint
// override is active.
func (g *Gateway) SetCHEnableBit(ctx context.Context, bit int) (int, error) {
	return g.setEnableBit(ctx, CmdControlHeating, DataMasterCHEnabled, bit)
}

// SetCH2EnableBit controls the CH2 enable bit while a control setpoint
// override is active.
func (g *Gateway) SetCH2EnableBit(ctx context.Context, bit int) (int, error) {
	return g.setEnableBit(ctx, CmdControlHeating2, DataMasterCH2Enabled, bit)
}

func (g *Gateway) setEnableBit(ctx context.Context, cmd Command, field string, bit int) (int, error) {
	if bit != 0 && bit != 1 {
		return 0, fmt.Errorf("enable bit must be 0 or 1, got %d", bit)
	}
	ret, err := g.issue(ctx, cmd, bit)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.Atoi(ret)
	if err != nil {
		return 0, fmt.Errorf("unexpected %s response %q: %w", cmd, ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{field: accepted == 1})
	return accepted, nil
}

// SetVentilation configures a ventilation setpoint override, 0-100%.
func (g *Gateway) SetVentilation(ctx context.Context, pct int) (int, error) {
	if pct < 0 || pct > 100 {
		return 0, fmt.Errorf("ventilation setpoint %d out of range", pct)
	}
	ret, err := g.issue(ctx, CmdVentSetpoint, pct)
	if err != nil {
		return 0, err
	}
	accepted, err := strconv.Atoi(ret)
	if err != nil {
		return 0, fmt.Errorf("unexpected VS response %q: %w", ret, err)
	}
	g.status.Submit(SourceBoiler, map[string]any{DataCoolingControl: accepted})
	return accepted, nil
}

// SendTransparentCommand sends a raw firmware command without touching the
// status snapshot. See the gateway firmware documentation for the full
// command set.
func (g *Gateway) SendTransparentCommand(ctx context.Context, cmd Command, value any) (Result, error) {
	return g.issueFull(ctx, cmd, value)
}

// GetReport issues one PR command and folds the validated reply into the
// status snapshot.
func (g *Gateway) GetReport(ctx context.Context, report Report) (Snapshot, error) {
	ret, err := g.issue(ctx, CmdReport, string(report))
	if err != nil {
		return nil, err
	}
	update, ok := convertReport(report, ret)
	if !ok {
		return nil, fmt.Errorf("unusable PR=%s response %q", report, ret)
	}
	g.status.SubmitFull(update)
	return g.status.Snapshot(), nil
}

// GetReports sweeps all PR commands and rebuilds the gateway partition of
// the snapshot. Reports that fail or validate badly are skipped.
func (g *Gateway) GetReports(ctx context.Context) (Snapshot, error) {
	about, err := g.issue(ctx, CmdReport, string(ReportAbout))
	if err != nil {
		return nil, fmt.Errorf("report sweep: %w", err)
	}
	update := map[Source]map[string]any{
		SourceGateway:    {},
		SourceThermostat: {},
	}
	if conv, ok := convertReport(ReportAbout, about); ok {
		mergeUpdate(update, conv)
	}
	for _, report := range reportOrder {
		// The temperature sensor report was added in firmware 5.
		if report == ReportTempSensor && firmwareMajorBefore(about, 5) {
			continue
		}
		ret, err := g.issue(ctx, CmdReport, string(report))
		if err != nil {
			if errors.Is(err, ErrNotConnected) || ctx.Err() != nil {
				return nil, err
			}
			g.log.Warnw("report failed, skipping", "report", report, "error", err)
			continue
		}
		conv, ok := convertReport(report, ret)
		if !ok {
			g.log.Warnw("unusable report response, skipping",
				"report", report, "response", ret)
			continue
		}
		mergeUpdate(update, conv)
	}
	g.status.SubmitFull(update)
	return g.status.Snapshot(), nil
}

// GetStatus requests the one-shot summary (PS=1), parses its positional
// fields and updates the boiler and thermostat partitions. The gateway is
// switched back to reporting mode afterwards.
func (g *Gateway) GetStatus(ctx context.Context) (Snapshot, error) {
	res, err := g.issueFull(ctx, CmdSummary, 1)
	if err != nil {
		return nil, err
	}
	// Return to reporting mode.
	go func() {
		if _, err := g.issue(context.Background(), CmdSummary, 0); err != nil {
			g.log.Debugw("could not return to reporting mode", "error", err)
		}
	}()
	boiler, thermostat, err := parseSummary(res.Extra)
	if err != nil {
		return nil, err
	}
	g.status.SubmitFull(map[Source]map[string]any{
		SourceBoiler:     boiler,
		SourceThermostat: thermostat,
	})
	return g.status.Snapshot(), nil
}

func mergeUpdate(dst, src map[Source]map[string]any) {
	for part, fields := range src {
		if dst[part] == nil {
			dst[part] = map[string]any{}
		}
		for k, v := range fields {
			dst[part][k] = v
		}
	}
}

// firmwareMajorBefore inspects the about report ("A=OpenTherm Gateway
// 4.2.5") for a major version below the given one. Unparsable versions
// count as old.
func firmwareMajorBefore(about string, major int) bool {
	const prefix = "OpenTherm Gateway "
	value := about
	if len(value) >= 2 && value[1] == '=' {
		value = value[2:]
	}
	if !strings.HasPrefix(value, prefix) {
		return true
	}
	version := strings.TrimPrefix(value, prefix)
	dot := strings.IndexByte(version, '.')
	if dot < 0 {
		dot = len(version)
	}
	v, err := strconv.Atoi(version[:dot])
	if err != nil {
		return true
	}
	return v < major
}
