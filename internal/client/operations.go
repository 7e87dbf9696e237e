package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/muellr/sodatap/internal/logging"
	"github.com/muellr/sodatap/internal/protocol"
)

// DefaultHeatingCelsius is sent alongside every cooling set point; units
// without a boiler ignore it.
const DefaultHeatingCelsius = 65

// Calibration parameter keys.
const (
	calibStillKey = "calib_still_wtr"
	calibSodaKey  = "calib_soda_wtr"
)

func ctrl(v int) *int { return &v }

// query runs an EvtTypeRequest read with CtrlQuery and the given selector.
func (c *Client) query(ctx context.Context, selector int) (map[string]any, error) {
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlQuery),
		map[string]any{"evt_type": selector})
	if err != nil {
		return nil, err
	}
	return resp.Pars(), nil
}

// GetSystemInfo reads firmware versions, device name, and reset count.
func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	pars, err := c.query(ctx, protocol.QuerySystemInfo)
	if err != nil {
		return nil, err
	}
	return &SystemInfo{
		SwVerCommCon: valString(pars, "sw_ver_comm_con", "Unknown"),
		SwVerElecCon: valString(pars, "sw_ver_elec_con", "Unknown"),
		SwVerMainCon: valString(pars, "sw_ver_main_con", "Unknown"),
		DevName:      valString(pars, "dev_name", "Unknown"),
		ResetCnt:     valInt(pars, "reset_cnt", 0),
	}, nil
}

// GetSettings reads the unit's persisted configuration.
func (c *Client) GetSettings(ctx context.Context) (*Settings, error) {
	pars, err := c.query(ctx, protocol.QuerySettings)
	if err != nil {
		return nil, err
	}
	return &Settings{
		CalibStillWtr:     valInt(pars, calibStillKey, 0),
		CalibSodaWtr:      valInt(pars, calibSodaKey, 0),
		FilterLifeTm:      valInt(pars, "filter_life_tm", 0),
		PostFlushQuantity: valInt(pars, "post_flush_quantity", 0),
		SetPointCooling:   valInt(pars, "set_point_cooling", 0),
		WtrHardness:       valInt(pars, "wtr_hardness", 0),
		SetPointHeating:   valInt(pars, "set_point_heating", 0),
		CalibHotWtr:       valInt(pars, "calib_hot_wtr", 0),
		MediumWtrRatio:    valFloat(pars, "gbl_medium_wtr_ratio", 0),
		ClassicWtrRatio:   valFloat(pars, "gbl_classic_wtr_ratio", 0),
	}, nil
}

// GetStatus reads the unit's real-time state.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	pars, err := c.query(ctx, protocol.QueryStatus)
	if err != nil {
		return nil, err
	}
	return &Status{
		TapState:             valInt(pars, "tap_state", 0),
		FilterRest:           valInt(pars, "filter_rest", 0),
		CO2Rest:              valInt(pars, "co2_rest", 0),
		WtrDispActive:        valBool(pars, "wtr_disp_active", false),
		FirmUpdAvlb:          valBool(pars, "firm_upd_avlb", false),
		SetPointCooling:      valInt(pars, "set_point_cooling", 0),
		CleanModeState:       valInt(pars, "clean_mode_state", 0),
		ErrBits:              valInt(pars, "err_bits", 0),
		TempBoil1:            valInt(pars, "temp_boil_1", 0),
		TempBoil2:            valInt(pars, "temp_boil_2", 0),
		TempComp:             valInt(pars, "temp_comp", 0),
		MainControllerStatus: valInt(pars, "main_controller_status", 0),
		ConnControllerStatus: valInt(pars, "conn_controller_status", 0),
	}, nil
}

// GetIdentity reads the unit's serial number and service code. Unlike the
// other reads, these fields arrive as plain strings rather than val wrappers.
func (c *Client) GetIdentity(ctx context.Context) (*Identity, error) {
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlGetIdentity), nil)
	if err != nil {
		return nil, err
	}
	pars := resp.Pars()
	return &Identity{
		SerialNo:    rawString(pars, "ser_no", "Unknown"),
		ServiceCode: rawString(pars, "serv_code", "Unknown"),
	}, nil
}

// GetWifiInfo reads WiFi and network state.
func (c *Client) GetWifiInfo(ctx context.Context) (*WifiInfo, error) {
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlGetWifiInfo), nil)
	if err != nil {
		return nil, err
	}
	pars := resp.Pars()
	return &WifiInfo{
		CloudConnect: valBool(pars, "cloud_connect", false),
		SSID:         valString(pars, "ssid", ""),
		Signal:       valInt(pars, "signal", 0),
		IP:           valString(pars, "ip", ""),
		BleMAC:       valString(pars, "b_mac", ""),
		WifiMAC:      valString(pars, "w_mac", ""),
		Gateway:      valString(pars, "default_gateway", ""),
		GatewayMAC:   valString(pars, "default_gateway_mac", ""),
		Subnet:       valString(pars, "subnet", ""),
	}, nil
}

// SetTemperature sets the cooling set point (4-10°C). Returns true when the
// unit acknowledged the write.
func (c *Client) SetTemperature(ctx context.Context, coolingCelsius int) (bool, error) {
	if err := ValidateCoolingTemperature(coolingCelsius); err != nil {
		return false, err
	}

	logging.Info("Setting temperature", zap.Int("celsius", coolingCelsius))
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlWriteParam), map[string]any{
		"set_point_cooling": map[string]any{"val": coolingCelsius},
		"set_point_heating": map[string]any{"val": DefaultHeatingCelsius},
	})
	if err != nil {
		return false, err
	}
	return resp.Acknowledged(), nil
}

// SetWaterHardness sets the water hardness level (1-9).
func (c *Client) SetWaterHardness(ctx context.Context, level int) (bool, error) {
	if err := ValidateHardnessLevel(level); err != nil {
		return false, err
	}

	logging.Info("Setting water hardness", zap.Int("level", level))
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlWriteParam), map[string]any{
		"wtr_hardness": map[string]any{"val": level},
	})
	if err != nil {
		return false, err
	}
	return resp.Acknowledged(), nil
}

// ChangePIN changes the unit's PIN. On acknowledgment the client switches
// to the new PIN for subsequent transactions.
func (c *Client) ChangePIN(ctx context.Context, newPIN string) (bool, error) {
	if err := ValidatePINFormat(newPIN); err != nil {
		return false, err
	}

	logging.Info("Changing PIN")
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlChangePin), map[string]any{
		"new_pass": newPIN,
	})
	if err != nil {
		return false, err
	}
	if !resp.Acknowledged() {
		return false, nil
	}

	c.mu.Lock()
	c.pin = newPIN
	c.mu.Unlock()
	return true, nil
}

// DispenseWater starts dispensing. amountML must be 100-1500 in steps of
// 100; co2Intensity is CO2Still, CO2Medium, or CO2High.
func (c *Client) DispenseWater(ctx context.Context, amountML, co2Intensity int) (bool, error) {
	if err := ValidateDispense(amountML, co2Intensity); err != nil {
		return false, err
	}

	logging.Info("Dispensing water",
		zap.Int("amount_ml", amountML),
		zap.Int("co2_intensity", co2Intensity),
	)
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlDispense), map[string]any{
		"disp_amt": amountML,
		"co2_int":  co2Intensity,
	})
	if err != nil {
		return false, err
	}
	return resp.Acknowledged(), nil
}

// SetCalibrationStill sets the still water calibration amount.
func (c *Client) SetCalibrationStill(ctx context.Context, amount int) (bool, error) {
	return c.setCalibration(ctx, calibStillKey, amount)
}

// SetCalibrationSoda sets the soda water calibration amount.
func (c *Client) SetCalibrationSoda(ctx context.Context, amount int) (bool, error) {
	return c.setCalibration(ctx, calibSodaKey, amount)
}

func (c *Client) setCalibration(ctx context.Context, key string, amount int) (bool, error) {
	logging.Info("Setting calibration", zap.String("kind", key), zap.Int("amount", amount))
	resp, err := c.execute(ctx, protocol.EvtTypeRequest, ctrl(protocol.CtrlWriteParam), map[string]any{
		key: map[string]any{"val": amount},
	})
	if err != nil {
		return false, err
	}
	return resp.Acknowledged(), nil
}

// Response field helpers. Most read responses wrap each value in a
// {"val": ...} object; absent fields fall back to the caller's default.

func valObj(pars map[string]any, key string) (any, bool) {
	obj, ok := pars[key].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj["val"]
	return v, ok
}

func valString(pars map[string]any, key, def string) string {
	if v, ok := valObj(pars, key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func valInt(pars map[string]any, key string, def int) int {
	if v, ok := valObj(pars, key); ok {
		if f, ok := v.(float64); ok {
			return int(f)
		}
	}
	return def
}

func valFloat(pars map[string]any, key string, def float64) float64 {
	if v, ok := valObj(pars, key); ok {
		if f, ok := v.(float64); ok {
			return f
		}
	}
	return def
}

func valBool(pars map[string]any, key string, def bool) bool {
	if v, ok := valObj(pars, key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func rawString(pars map[string]any, key, def string) string {
	if s, ok := pars[key].(string); ok {
		return s
	}
	return def
}
