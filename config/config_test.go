// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package config_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/xr"
	"github.com/gogpu/xr/config"
	"github.com/gogpu/xr/xrtest"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	data, err := cfg.Marshal()
	require.NoError(t, err)
	again, err := config.Parse(data, ".yaml")
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestParseYAMLOverridesDefaults(t *testing.T) {
	cfg, err := config.Parse([]byte(`
driver:
  application_name: demo
  far_z: 50
  image_wait_timeout: 5ms
simulator:
  frames: 12
  formats: [bgra8unorm]
  events:
    - {frame: 4, state: stopping}
log:
  level: debug
`), ".yml")
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.Driver.ApplicationName)
	assert.Equal(t, float32(50), cfg.Driver.FarZ)
	assert.Equal(t, float32(0.1), cfg.Driver.NearZ, "unset fields keep defaults")
	assert.Equal(t, 5*time.Millisecond, cfg.Driver.ImageWaitTimeout.D())
	assert.Equal(t, 12, cfg.Simulator.Frames)
	assert.Equal(t, []xr.SessionState{xr.StateStopping}, cfg.Simulator.EventsAt(4))
	assert.Empty(t, cfg.Simulator.EventsAt(3))
	assert.Len(t, cfg.Simulator.Hands, 2)

	rc := cfg.Runtime()
	assert.Equal(t, []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm}, rc.Formats)
	assert.Equal(t, uint32(1440), rc.Views[0].RecommendedImageRectWidth)
}

func TestParseJSONC(t *testing.T) {
	cfg, err := config.Parse([]byte(`{
  // headset
  "driver": {"validation_layer": false, "graphics_version": "4.6"},
  "simulator": {
    "views": [{"width": 64, "height": 32}, {"width": 64, "height": 32},],
    "display_period": "8ms",
  },
}`), ".jsonc")
	require.NoError(t, err)

	require.NotNil(t, cfg.Driver.ValidationLayer)
	assert.False(t, *cfg.Driver.ValidationLayer)
	assert.Nil(t, cfg.Driver.DebugMessenger)
	assert.Equal(t, 8*time.Millisecond, cfg.Simulator.DisplayPeriod.D())
	assert.Equal(t, uint32(32), cfg.Simulator.Views[1].Height)
	assert.Equal(t, 8*time.Millisecond*90, cfg.Simulator.FrameBudget())
}

func TestParseUnknownFormat(t *testing.T) {
	_, err := config.Parse([]byte("a = 1"), ".toml")
	assert.ErrorIs(t, err, config.ErrFormat)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"state", "simulator: {events: [{frame: 1, state: dancing}]}", "dancing"},
		{"hand path", "simulator: {hands: [{id: 1, path: user/hand}]}", "hand 1"},
		{"duplicate hand", "simulator: {hands: [{id: 1, path: /user/hand/left}, {id: 1, path: /user/hand/right}]}", "duplicate hand id 1"},
		{"duration", "driver: {image_wait_timeout: soon}", "duration"},
		{"clip", "driver: {near_z: 10, far_z: 1}", "clip range"},
		{"version", "driver: {graphics_version: four}", "invalid version"},
		{"mono", "simulator: {views: [{width: 4, height: 4}]}", "1 views, want 2"},
		{"zero view", "simulator: {views: [{width: 0, height: 4}, {width: 4, height: 4}]}", "view 0 has zero size"},
		{"format", "simulator: {formats: [r8unorm]}", "unknown format"},
		{"log level", "log: {level: loud}", "unknown log level"},
		{"log format", "log: {format: xml}", "unknown log format"},
		{"grip", "driver: {grip_offset: vive}", "unknown grip offset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml), ".yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := config.ParseVersion("4.5.0")
	require.NoError(t, err)
	assert.Equal(t, xr.MakeVersion(4, 5, 0), v)

	v, err = config.ParseVersion("3")
	require.NoError(t, err)
	assert.Equal(t, xr.MakeVersion(3, 0, 0), v)

	for _, s := range []string{"", "1.2.3.4", "1..2", "-1"} {
		_, err := config.ParseVersion(s)
		assert.Error(t, err, s)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "xrsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulator: {frames: 3}\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Simulator.Frames)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestOptionsDriveTheDriver(t *testing.T) {
	cfg, err := config.Parse([]byte(`
driver:
  graphics_version: "2.1.0"
simulator:
  views: [{width: 32, height: 16}, {width: 32, height: 16}]
`), ".yaml")
	require.NoError(t, err)

	rt := xrtest.New(cfg.Runtime())
	d := xr.New(rt, xrtest.NewGraphics(), cfg.Options()...)
	err = d.Initialize()

	var setup *xr.SetupError
	require.True(t, errors.As(err, &setup), "got %v", err)
	assert.False(t, rt.Running())
}

func TestGripOffsetOption(t *testing.T) {
	plain := config.Default()
	cfg, err := config.Parse([]byte("driver: {grip_offset: index}\n"), ".yaml")
	require.NoError(t, err)
	assert.Len(t, cfg.Options(), len(plain.Options())+1)

	cfg.Driver.GripOffset = "none"
	assert.Len(t, cfg.Options(), len(plain.Options()))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Log = config.Log{Level: "warn", Format: "json"}

	log := cfg.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"msg":"shown"`)
}
