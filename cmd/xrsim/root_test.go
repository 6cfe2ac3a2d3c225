// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"bytes"
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/xr"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(func() { xr.SetLogger(nil) })

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xrsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const smallHeadset = `
simulator:
  views: [{width: 32, height: 16}, {width: 32, height: 16}]
  hands:
    - {id: 1, path: /user/hand/left, position: [0, 0, -1], trigger: 1}
`

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "xrsim", cmd.Use)

	for _, name := range []string{"run", "trace"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	cfg := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, cfg)
	assert.Equal(t, "c", cfg.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	run, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	frames := run.Flags().Lookup("frames")
	require.NotNil(t, frames)
	assert.Equal(t, "n", frames.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "run", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestRunJSON(t *testing.T) {
	path := writeConfig(t, smallHeadset)
	out, err := execute(t, "run", "-c", path, "-n", "6", "--format", "json")
	require.NoError(t, err)

	var res RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, 6, res.Ticks)
	assert.Equal(t, "focused", res.State)
	assert.Equal(t, 5, res.Frames)
	assert.Equal(t, res.Submitted, res.Frames)
	assert.Equal(t, 5, res.Rendered)
	assert.Equal(t, 10, res.Views)
	assert.Equal(t, 5, res.Poses)
	assert.Equal(t, 5, res.Haptics)
	assert.Zero(t, res.Errors)
}

func TestRunStoppingEvent(t *testing.T) {
	path := writeConfig(t, smallHeadset+`
  auto_states: false
  events:
    - {frame: 3, state: stopping}
`)
	out, err := execute(t, "run", "-c", path, "-n", "6", "--format", "json")
	require.NoError(t, err)

	var res RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "stopping", res.State)
	assert.Equal(t, 2, res.Frames)
}

func TestRunWritesArtifacts(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, smallHeadset)
	mirror := filepath.Join(dir, "mirror.png")
	tracePath := filepath.Join(dir, "run.cbor")

	out, err := execute(t, "run", "-c", path, "-n", "4", "--mirror", mirror, "--trace", tracePath)
	require.NoError(t, err)
	assert.Contains(t, out, "ticks=4")

	f, err := os.Open(mirror)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())

	dump, err := execute(t, "trace", tracePath)
	require.NoError(t, err)
	assert.Contains(t, dump, "   1 ")
	assert.Contains(t, dump, "ticks=4")
}

func TestRunBadConfig(t *testing.T) {
	path := writeConfig(t, "log: {level: loud}\n")
	_, err := execute(t, "run", "-c", path)
	assert.ErrorContains(t, err, "unknown log level")

	_, err = execute(t, "run", "--log-level", "chatty")
	assert.ErrorContains(t, err, "unknown log level")
}

func TestTraceMissingFile(t *testing.T) {
	_, err := execute(t, "trace", filepath.Join(t.TempDir(), "none.cbor"))
	assert.Error(t, err)
}
