package main

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dual-roi-viewer/internal/config"
	"dual-roi-viewer/internal/core"
	"dual-roi-viewer/internal/device"
)

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, applyFlags(cfg, true, "pattern:0", "/tmp/out", "fyne"))

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "pattern:0", cfg.Device.ID)
	assert.Equal(t, "/tmp/out", cfg.Output.Dir)
	assert.Equal(t, config.BackendFyne, cfg.Display.Backend)

	cfg = config.Default()
	require.NoError(t, applyFlags(cfg, false, "", "", ""))
	assert.Equal(t, config.Default(), cfg)

	cfg = config.Default()
	assert.ErrorContains(t, applyFlags(cfg, false, "", "", "gtk"), "invalid display backend")
}

func TestInitLogger(t *testing.T) {
	logger := initLogger(config.LogConfig{Level: "debug", Format: "text"})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = initLogger(config.LogConfig{Level: "bogus", Format: "json"})
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestConfigureDevice_SkipsUnsupportedControls(t *testing.T) {
	logger, hook := test.NewNullLogger()
	dev, err := device.NewPatternDriver(device.PatternOptions{}, logger).Open(0)
	assert.NoError(t, err)
	defer dev.Close()

	configureDevice(dev, config.Default(), core.DefaultCaptureParams(), logger)

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = append(warned, e.Data["control"].(string))
		}
	}
	assert.Equal(t, []string{"white_balance_red", "white_balance_blue"}, warned)
}
