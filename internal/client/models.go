package client

// Typed records decoded from unit responses. Fields absent from a response
// keep their documented defaults instead of failing the decode; older
// firmware omits fields newer firmware reports.

// SystemInfo holds firmware versions, device name, and reset count.
type SystemInfo struct {
	SwVerCommCon string // communication controller firmware
	SwVerElecCon string // electronics controller firmware
	SwVerMainCon string // main controller firmware
	DevName      string
	ResetCnt     int
}

// Settings holds the unit's persisted configuration.
type Settings struct {
	CalibStillWtr     int
	CalibSodaWtr      int
	FilterLifeTm      int
	PostFlushQuantity int
	SetPointCooling   int
	WtrHardness       int

	// Reported by boiler-equipped models only; zero elsewhere.
	SetPointHeating int
	CalibHotWtr     int
	MediumWtrRatio  float64
	ClassicWtrRatio float64
}

// Status holds the unit's real-time state.
type Status struct {
	TapState        int
	FilterRest      int
	CO2Rest         int
	WtrDispActive   bool
	FirmUpdAvlb     bool
	SetPointCooling int
	CleanModeState  int
	ErrBits         int

	// Reported by boiler-equipped models only; zero elsewhere.
	TempBoil1            int
	TempBoil2            int
	TempComp             int
	MainControllerStatus int
	ConnControllerStatus int
}

// Identity holds the unit's serial number and service code.
type Identity struct {
	SerialNo    string
	ServiceCode string
}

// WifiInfo holds the unit's WiFi and network state.
type WifiInfo struct {
	CloudConnect bool
	SSID         string
	Signal       int
	IP           string
	BleMAC       string
	WifiMAC      string
	Gateway      string
	GatewayMAC   string
	Subnet       string
}

// PinValidationResult is returned by ValidatePIN. DevID and DevType are
// only set when the PIN was accepted and the unit identified itself.
type PinValidationResult struct {
	IsValid bool
	DevID   string
	DevType int
}
