package machine

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type modeResponse struct {
	Envelope
	Mode          string `json:"mode"`
	ForceHardware bool   `json:"force_hardware"`
}

// SystemMode is the backend's configured operation mode.
type SystemMode struct {
	Mode          OperationMode
	ForceHardware bool
}

// SystemMode reads the operation mode used to pick the status banner.
func (c *Client) SystemMode(ctx context.Context) (SystemMode, error) {
	var resp modeResponse
	if err := c.get(ctx, "/api/system/mode", &resp); err != nil {
		return SystemMode{Mode: ModeUnknown}, err
	}
	return SystemMode{Mode: ParseMode(resp.Mode), ForceHardware: resp.ForceHardware}, nil
}

type updateConfigResponse struct {
	Envelope
	RestartNeeded bool `json:"restart_needed"`
}

// UpdateConfig sets section.key on the backend. The value is sent as a string and
// converted by the backend. It reports whether the backend needs a restart.
func (c *Client) UpdateConfig(ctx context.Context, section, key, value string) (bool, error) {
	if section == "" || key == "" {
		return false, fmt.Errorf("update config: section and key are required")
	}
	var resp updateConfigResponse
	err := c.post(ctx, "/update_config", map[string]any{
		"section": section,
		"key":     key,
		"value":   value,
	}, &resp)
	return resp.RestartNeeded, err
}

// Sensor is a single temperature probe.
type Sensor struct {
	ID          string  `json:"-"`
	Name        string  `json:"name"`
	Temperature float64 `json:"temperature"`
	HighLimit   float64 `json:"high_limit"`
	HighTemp    bool    `json:"high_temp"`
	LastReading any     `json:"last_reading"`
}

// Temperature is the temperature monitor status.
type Temperature struct {
	Envelope
	SensorMap          map[string]Sensor `json:"sensors"`
	HighLimit          float64           `json:"high_limit"`
	MonitoringInterval float64           `json:"monitoring_interval"`
	HighTempCondition  bool              `json:"high_temp_condition"`
	MonitoringEnabled  bool              `json:"monitoring_enabled"`
	PrimarySensor      string            `json:"primary_sensor"`
}

// Sensors returns the sensors sorted by id, primary sensor first.
func (t Temperature) Sensors() []Sensor {
	out := make([]Sensor, 0, len(t.SensorMap))
	for id, s := range t.SensorMap {
		s.ID = id
		if s.Name == "" {
			s.Name = id
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if (out[i].ID == t.PrimarySensor) != (out[j].ID == t.PrimarySensor) {
			return out[i].ID == t.PrimarySensor
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Temperature reads all temperature sensors.
func (c *Client) Temperature(ctx context.Context) (Temperature, error) {
	var resp Temperature
	err := c.get(ctx, "/temperature/status", &resp)
	return resp, err
}

// RFIDUser is the operator authenticated by card.
type RFIDUser struct {
	UserID      int    `json:"user_id"`
	ID          int    `json:"id"`
	Username    string `json:"username"`
	AccessLevel string `json:"access_level"`
}

// RFIDStatus is the card authentication state. The endpoint has no envelope.
type RFIDStatus struct {
	Envelope
	Authenticated bool      `json:"authenticated"`
	User          *RFIDUser `json:"user"`
	Expiry        float64   `json:"expiry"`
}

// ExpiresAt converts the unix expiry to a time, zero when not authenticated.
func (s RFIDStatus) ExpiresAt() time.Time {
	if !s.Authenticated || s.Expiry <= 0 {
		return time.Time{}
	}
	sec := int64(s.Expiry)
	return time.Unix(sec, int64((s.Expiry-float64(sec))*1e9))
}

// RFIDStatus reads the card authentication state.
func (c *Client) RFIDStatus(ctx context.Context) (RFIDStatus, error) {
	var resp RFIDStatus
	err := c.get(ctx, "/api/rfid/status", &resp)
	return resp, err
}

type logoutResponse struct {
	Envelope
	Success bool `json:"success"`
}

// RFIDLogout ends the card session. It reports false when no reader is active.
func (c *Client) RFIDLogout(ctx context.Context) (bool, error) {
	var resp logoutResponse
	err := c.post(ctx, "/api/rfid/logout", nil, &resp)
	return resp.Success, err
}
