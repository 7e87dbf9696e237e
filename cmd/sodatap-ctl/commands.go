package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muellr/sodatap/internal/client"
	"github.com/muellr/sodatap/internal/config"
	"github.com/muellr/sodatap/internal/discovery"
	"github.com/muellr/sodatap/internal/transport"
	"github.com/muellr/sodatap/internal/ui"
)

// Command flags
var (
	gatewayURL  string
	unitMAC     string
	pinFlag     string
	mtuFlag     int
	timeoutSecs int
	scanTimeout int
	co2Flag     string
)

func init() {
	// Common flags for unit commands (persistent on root)
	rootCmd.PersistentFlags().StringVar(&gatewayURL, "gateway", "", "Gateway WebSocket URL (skips discovery)")
	rootCmd.PersistentFlags().StringVar(&unitMAC, "unit", "", "Unit BLE MAC address")
	rootCmd.PersistentFlags().StringVar(&pinFlag, "pin", "", "Unit PIN (prompted if not given)")
	rootCmd.PersistentFlags().IntVar(&mtuFlag, "mtu", 0, "Override BLE link MTU")
	rootCmd.PersistentFlags().IntVar(&timeoutSecs, "timeout", 30, "Operation timeout in seconds")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(wifiCmd)
	rootCmd.AddCommand(dispenseCmd)
	rootCmd.AddCommand(setTempCmd)
	rootCmd.AddCommand(setHardnessCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(changePinCmd)
	rootCmd.AddCommand(nicknameCmd)
}

// scanCmd discovers gateways on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Sodatap gateways on the network",
	Long: `Scan for Sodatap BLE gateways using mDNS/DNS-SD discovery.

This command listens for mDNS broadcasts from gateways and displays each
one with its address and the BLE MAC addresses of the units it can reach.`,
	Example: `  # Scan for 10 seconds (default)
  sodatap-ctl scan

  # Quick 3-second scan
  sodatap-ctl scan --scan-timeout 3`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().IntVar(&scanTimeout, "scan-timeout", 10, "Scan timeout in seconds")
}

func runScan(cmd *cobra.Command, args []string) error {
	fmt.Printf("Scanning for Sodatap gateways (timeout: %ds)...\n\n", scanTimeout)

	gateways, err := discovery.ScanForGateways(time.Duration(scanTimeout) * time.Second)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if len(gateways) == 0 {
		fmt.Println("No gateways found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the gateway is powered on and on the same network")
		fmt.Println("  - Check that mDNS traffic is not blocked by your router")
		fmt.Println("  - Try increasing --scan-timeout for slower networks")
		fmt.Println("  - Use --gateway to specify the WebSocket URL manually")
		return nil
	}

	fmt.Printf("Found %d gateway(s):\n\n", len(gateways))

	for i, gw := range gateways {
		fmt.Printf("%d. %s\n", i+1, gw.Name)
		fmt.Printf("   Address: %s:%d (%s)\n", gw.IP, gw.Port, gw.Hostname)
		fmt.Printf("   URL:     %s\n", gw.URL())
		if len(gw.Units) > 0 {
			fmt.Printf("   Units:   %v\n", gw.Units)
		} else {
			fmt.Printf("   Units:   none advertised\n")
		}
		fmt.Println()
	}

	fmt.Println("Use 'sodatap-ctl status --unit <mac>' to connect to a unit")

	return nil
}

// target bundles the resolved route to a unit and the loaded registry so
// commands can persist last-seen data after a successful operation.
type target struct {
	mac      string
	gateway  string
	client   *client.Client
	registry *config.Registry
}

// connectUnit resolves the gateway and unit from flags, the registry, and
// mDNS discovery (in that order), prompts for the PIN if needed, and
// returns a ready client. The connection itself is made lazily by the
// first operation.
func connectUnit(ctx context.Context) (*target, error) {
	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	mac := unitMAC
	if mac == "" {
		mac = registry.DefaultUnit()
	}
	if mac == "" {
		return nil, fmt.Errorf("no unit specified. Use --unit <mac> or run 'sodatap-ctl scan'")
	}

	gw := gatewayURL
	if gw == "" {
		if unit := registry.GetUnit(mac); unit != nil && unit.GatewayURL != "" {
			gw = unit.GatewayURL
		}
	}
	if gw == "" {
		fmt.Fprintf(os.Stderr, "Looking for a gateway advertising %s...\n", mac)
		gateway, err := discovery.NewScanner().FindGatewayForUnit(ctx, mac)
		if err != nil {
			return nil, fmt.Errorf("gateway discovery failed: %w", err)
		}
		gw = gateway.URL()
		fmt.Fprintf(os.Stderr, "Using gateway %s\n", gateway)
	}

	pin := pinFlag
	if pin == "" {
		pin, err = promptPIN()
		if err != nil {
			return nil, err
		}
	}

	bridge := transport.NewBridge(gw, mac)
	cli, err := client.NewClient(pin, bridge, nil)
	if err != nil {
		return nil, err
	}
	if mtuFlag > 0 {
		cli.SetMTU(mtuFlag)
	}

	return &target{mac: mac, gateway: gw, client: cli, registry: registry}, nil
}

// close disconnects and records the successful route in the registry.
func (t *target) close(ctx context.Context) {
	if t.client.Connected() {
		t.registry.UpdateUnitLastSeen(t.mac, t.gateway, t.client.DeviceID(), t.client.DeviceType())
		if err := t.registry.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save config: %v\n", err)
		}
	}
	_ = t.client.Disconnect(ctx)
}

func promptPIN() (string, error) {
	fmt.Fprint(os.Stderr, "Unit PIN: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read PIN: %w", err)
	}
	return string(raw), nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
}

// printBanner renders the command header once the route to the unit has
// been resolved, so read commands show which unit and gateway they hit.
func printBanner(cmd *cobra.Command, title string, t *target) {
	fmt.Println(ui.NewHeader(title, "sodatap-ctl "+cmd.Name(), map[string]string{
		"Unit":    t.mac,
		"Gateway": t.gateway,
	}).Render())
}

// statusCmd reads the unit's real-time state
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the unit's live status",
	Long: `Read and display the unit's real-time state: tap activity, filter and
CO2 cartridge remaining life, cooling set point, temperatures, and
controller health.`,
	Example: `  sodatap-ctl status --unit AA:BB:CC:DD:EE:FF
  sodatap-ctl status --gateway ws://192.168.1.40:8321/gatt --unit AA:BB:CC:DD:EE:FF`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	printBanner(cmd, "Unit Status", t)

	status, err := t.client.GetStatus(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable().
		Section("Dispensing").
		Rowf("Tap state", "%d", status.TapState).
		Rowf("Dispensing", "%v", status.WtrDispActive).
		Rowf("Cooling set point", "%d °C", status.SetPointCooling).
		Section("Consumables").
		Rowf("Filter remaining", "%d%%", status.FilterRest).
		Rowf("CO2 remaining", "%d%%", status.CO2Rest).
		Section("Health").
		Rowf("Boiler temp 1", "%d °C", status.TempBoil1).
		Rowf("Boiler temp 2", "%d °C", status.TempBoil2).
		Rowf("Compressor temp", "%d °C", status.TempComp).
		Rowf("Clean mode", "%d", status.CleanModeState).
		Rowf("Error bits", "0x%04x", status.ErrBits).
		Rowf("Main controller", "%d", status.MainControllerStatus).
		Rowf("Conn controller", "%d", status.ConnControllerStatus).
		Rowf("Firmware update", "%v", status.FirmUpdAvlb)

	fmt.Println(table.Render())
	return nil
}

// settingsCmd reads the unit's persisted configuration
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show the unit's settings",
	Long: `Read and display the unit's persisted configuration: cooling set point,
water hardness, calibration amounts, and filter parameters.`,
	RunE: runSettings,
}

func runSettings(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	printBanner(cmd, "Unit Settings", t)

	settings, err := t.client.GetSettings(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable().
		Section("Water").
		Rowf("Cooling set point", "%d °C", settings.SetPointCooling).
		Rowf("Heating set point", "%d °C", settings.SetPointHeating).
		Rowf("Water hardness", "%d", settings.WtrHardness).
		Section("Calibration").
		Rowf("Still water", "%d", settings.CalibStillWtr).
		Rowf("Soda water", "%d", settings.CalibSodaWtr).
		Rowf("Hot water", "%d", settings.CalibHotWtr).
		Rowf("Medium water ratio", "%.2f", settings.MediumWtrRatio).
		Rowf("Classic water ratio", "%.2f", settings.ClassicWtrRatio).
		Section("Filter").
		Rowf("Filter life time", "%d", settings.FilterLifeTm).
		Rowf("Post-flush quantity", "%d", settings.PostFlushQuantity)

	fmt.Println(table.Render())
	return nil
}

// infoCmd reads firmware and device information
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show system information",
	Long:  `Read and display firmware versions, the device name, and the reset count.`,
	RunE:  runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	printBanner(cmd, "System Information", t)

	info, err := t.client.GetSystemInfo(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable().
		Row("Device name", info.DevName).
		Row("Comm controller FW", info.SwVerCommCon).
		Row("Elec controller FW", info.SwVerElecCon).
		Row("Main controller FW", info.SwVerMainCon).
		Rowf("Reset count", "%d", info.ResetCnt).
		Row("Device ID", t.client.DeviceID()).
		Rowf("Device type", "%d", t.client.DeviceType())

	fmt.Println(table.Render())
	return nil
}

// identityCmd reads the serial number and service code
var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Show the unit's serial number and service code",
	RunE:  runIdentity,
}

func runIdentity(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	printBanner(cmd, "Unit Identity", t)

	identity, err := t.client.GetIdentity(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable().
		Row("Serial number", identity.SerialNo).
		Row("Service code", identity.ServiceCode)

	fmt.Println(table.Render())
	return nil
}

// wifiCmd reads WiFi and network state
var wifiCmd = &cobra.Command{
	Use:   "wifi",
	Short: "Show the unit's WiFi and network state",
	RunE:  runWifi,
}

func runWifi(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	printBanner(cmd, "WiFi and Network", t)

	wifi, err := t.client.GetWifiInfo(ctx)
	if err != nil {
		return err
	}

	table := ui.NewTable().
		Section("WiFi").
		Row("SSID", wifi.SSID).
		Rowf("Signal", "%d", wifi.Signal).
		Rowf("Cloud connected", "%v", wifi.CloudConnect).
		Section("Network").
		Row("IP address", wifi.IP).
		Row("Gateway", wifi.Gateway).
		Row("Gateway MAC", wifi.GatewayMAC).
		Row("Subnet", wifi.Subnet).
		Section("Hardware").
		Row("BLE MAC", wifi.BleMAC).
		Row("WiFi MAC", wifi.WifiMAC)

	fmt.Println(table.Render())
	return nil
}

// dispenseCmd starts a water dispense
var dispenseCmd = &cobra.Command{
	Use:   "dispense <amount-ml>",
	Short: "Dispense water",
	Long: `Start dispensing the given amount of water.

The amount must be between 100 and 1500 ml in steps of 100. The CO2
intensity selects still, medium, or high carbonation.`,
	Example: `  # 300 ml of still water
  sodatap-ctl dispense 300

  # 500 ml, highly carbonated
  sodatap-ctl dispense 500 --co2 high`,
	Args: cobra.ExactArgs(1),
	RunE: runDispense,
}

func init() {
	dispenseCmd.Flags().StringVar(&co2Flag, "co2", "still", "CO2 intensity (still, medium, high)")
}

func runDispense(cmd *cobra.Command, args []string) error {
	amount, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	var co2 int
	switch co2Flag {
	case "still":
		co2 = client.CO2Still
	case "medium":
		co2 = client.CO2Medium
	case "high":
		co2 = client.CO2High
	default:
		return fmt.Errorf("invalid co2 intensity %q (use still, medium, or high)", co2Flag)
	}

	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	ok, err := t.client.DispenseWater(ctx, amount, co2)
	if err != nil {
		fmt.Println(ui.RenderFailure("Dispense failed", err, nil))
		return err
	}
	if !ok {
		fmt.Println(ui.RenderWarning("Dispense not acknowledged", nil))
		return nil
	}

	fmt.Println(ui.RenderSuccess("Dispense started", map[string]string{
		"Amount": fmt.Sprintf("%d ml", amount),
		"CO2":    co2Flag,
	}))
	return nil
}

// setTempCmd sets the cooling temperature
var setTempCmd = &cobra.Command{
	Use:   "set-temp <celsius>",
	Short: "Set the cooling temperature",
	Long:  `Set the cooling set point. The temperature must be between 4 and 10 °C.`,
	Example: `  sodatap-ctl set-temp 6
  sodatap-ctl set-temp 4 --unit AA:BB:CC:DD:EE:FF`,
	Args: cobra.ExactArgs(1),
	RunE: runSetTemp,
}

func runSetTemp(cmd *cobra.Command, args []string) error {
	celsius, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid temperature: %w", err)
	}

	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	ok, err := t.client.SetTemperature(ctx, celsius)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(ui.RenderWarning("Temperature change not acknowledged", nil))
		return nil
	}

	fmt.Println(ui.RenderSuccess("Temperature set", map[string]string{
		"Cooling set point": fmt.Sprintf("%d °C", celsius),
	}))
	return nil
}

// setHardnessCmd sets the water hardness level
var setHardnessCmd = &cobra.Command{
	Use:   "set-hardness <level>",
	Short: "Set the water hardness level",
	Long: `Set the water hardness level used for filter life calculation.
The level must be between 1 and 9.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetHardness,
}

func runSetHardness(cmd *cobra.Command, args []string) error {
	level, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid hardness level: %w", err)
	}

	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	ok, err := t.client.SetWaterHardness(ctx, level)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(ui.RenderWarning("Hardness change not acknowledged", nil))
		return nil
	}

	fmt.Println(ui.RenderSuccess("Water hardness set", map[string]string{
		"Level": strconv.Itoa(level),
	}))
	return nil
}

// calibrateCmd sets a calibration amount
var calibrateCmd = &cobra.Command{
	Use:   "calibrate <still|soda> <amount>",
	Short: "Set a water calibration amount",
	Long: `Set the calibration amount for still or soda water. Dispense a
measured reference amount first, then store the actually dispensed
volume here so the unit can correct its flow estimate.`,
	Example: `  sodatap-ctl calibrate still 105
  sodatap-ctl calibrate soda 98`,
	Args: cobra.ExactArgs(2),
	RunE: runCalibrate,
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	kind := args[0]
	if kind != "still" && kind != "soda" {
		return fmt.Errorf("invalid calibration kind %q (use still or soda)", kind)
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	var ok bool
	if kind == "still" {
		ok, err = t.client.SetCalibrationStill(ctx, amount)
	} else {
		ok, err = t.client.SetCalibrationSoda(ctx, amount)
	}
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(ui.RenderWarning("Calibration not acknowledged", nil))
		return nil
	}

	fmt.Println(ui.RenderSuccess("Calibration set", map[string]string{
		"Kind":   kind,
		"Amount": strconv.Itoa(amount),
	}))
	return nil
}

// changePinCmd changes the unit's PIN
var changePinCmd = &cobra.Command{
	Use:   "change-pin",
	Short: "Change the unit's PIN",
	Long: `Change the unit's five-digit PIN. The current PIN is required to
authenticate; both PINs are prompted unless given via flags.`,
	RunE: runChangePin,
}

var newPinFlag string

func init() {
	changePinCmd.Flags().StringVar(&newPinFlag, "new-pin", "", "New PIN (prompted if not given)")
}

func runChangePin(cmd *cobra.Command, args []string) error {
	ctx, cancel := opContext()
	defer cancel()

	t, err := connectUnit(ctx)
	if err != nil {
		return err
	}
	defer t.close(ctx)

	newPIN := newPinFlag
	if newPIN == "" {
		fmt.Fprint(os.Stderr, "New PIN: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read new PIN: %w", err)
		}
		newPIN = string(raw)
	}

	ok, err := t.client.ChangePIN(ctx, newPIN)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println(ui.RenderWarning("PIN change not acknowledged", nil))
		return nil
	}

	fmt.Println(ui.RenderSuccess("PIN changed", nil))
	return nil
}

// nicknameCmd stores a friendly name for a unit in the local config
var nicknameCmd = &cobra.Command{
	Use:   "nickname <mac> <name>",
	Short: "Set a nickname for a unit",
	Long: `Store a user-friendly nickname for a unit in the local configuration.
The nickname is purely local; it is never sent to the unit.`,
	Args: cobra.ExactArgs(2),
	RunE: runNickname,
}

func runNickname(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry.SetUnitNickname(args[0], args[1])
	if err := registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("Unit %s is now known as %q\n", args[0], args[1])
	return nil
}
