package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gwillem/laserpanel/pkg/cycle"
	"github.com/gwillem/laserpanel/pkg/machine"
)

func TestParseOnOff(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"on", true, false},
		{"1", true, false},
		{"enable", true, false},
		{"off", false, false},
		{"no", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		got, err := parseOnOff(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, validateURL("http://127.0.0.1:5000"))
	assert.NoError(t, validateURL("https://laser.local"))
	assert.Error(t, validateURL("127.0.0.1:5000"))
	assert.Error(t, validateURL("ftp://laser.local"))
	assert.Error(t, validateURL("http://"))
}

func TestNumberValidators(t *testing.T) {
	assert.NoError(t, positiveInt("20"))
	assert.Error(t, positiveInt("0"))
	assert.Error(t, positiveInt("x"))
	assert.NoError(t, nonNegativeInt("0"))
	assert.Error(t, nonNegativeInt("-1"))
}

func TestAppendLogKeepsLastEntries(t *testing.T) {
	var logs []string
	for i := range maxLogs + 3 {
		logs = appendLog(logs, fmt.Sprintf("msg %d", i))
	}
	require.Len(t, logs, maxLogs)
	assert.Contains(t, logs[0], "msg 3")
	assert.Contains(t, logs[maxLogs-1], fmt.Sprintf("msg %d", maxLogs+2))
	assert.Regexp(t, `^\[\d\d:\d\d:\d\d\] `, logs[0])
}

func TestRenderBanner(t *testing.T) {
	assert.Empty(t, renderBanner(machine.Banner{Level: machine.BannerNone}))

	b := machine.NewBanner(machine.ModeSimulation, true)
	require.NotEqual(t, machine.BannerNone, b.Level)
	assert.Contains(t, renderBanner(b), b.Text)
}

func TestFireMode(t *testing.T) {
	assert.Equal(t, machine.Toggle, fireMode(true))
	assert.Equal(t, machine.Momentary, fireMode(false))
}

func TestCycleFlags(t *testing.T) {
	zero, three, negative := 0, 3, -1

	cfg := cycle.Config{MaxCycles: 5, Dwell: time.Second}
	require.NoError(t, (&CycleCommand{}).applyFlags(&cfg))
	assert.Equal(t, 5, cfg.MaxCycles)
	assert.Equal(t, time.Second, cfg.Dwell)

	require.NoError(t, (&CycleCommand{Cycles: &zero}).applyFlags(&cfg))
	assert.Equal(t, 0, cfg.MaxCycles)

	require.NoError(t, (&CycleCommand{Cycles: &three, Dwell: 200 * time.Millisecond}).applyFlags(&cfg))
	assert.Equal(t, 3, cfg.MaxCycles)
	assert.Equal(t, 200*time.Millisecond, cfg.Dwell)

	assert.Error(t, (&CycleCommand{Cycles: &negative}).applyFlags(&cfg))
}
