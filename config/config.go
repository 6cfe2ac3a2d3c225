// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package config loads driver and simulator settings from a file.
//
// Files are YAML (.yaml, .yml) or JSON with comments and trailing commas
// (.json, .jsonc). A file has three sections:
//
//	driver:     options passed to xr.New
//	simulator:  the scripted runtime used by xrsim (views, images,
//	            formats, hands and scheduled session events)
//	log:        level and handler format of the xr logger
//
// Every field is optional; Default fills the gaps.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrFormat is returned for files whose extension names no known format.
var ErrFormat = errors.New("config: unknown file format")

// Config is the root of a configuration file.
type Config struct {
	Driver    Driver    `yaml:"driver" json:"driver"`
	Simulator Simulator `yaml:"simulator" json:"simulator"`
	Log       Log       `yaml:"log" json:"log"`
}

// Driver holds the options of xr.New.
type Driver struct {
	ApplicationName    string   `yaml:"application_name" json:"application_name"`
	ValidationLayer    *bool    `yaml:"validation_layer" json:"validation_layer"`
	DebugMessenger     *bool    `yaml:"debug_messenger" json:"debug_messenger"`
	GraphicsVersion    string   `yaml:"graphics_version" json:"graphics_version"`
	NearZ              float32  `yaml:"near_z" json:"near_z"`
	FarZ               float32  `yaml:"far_z" json:"far_z"`
	InteractionProfile string   `yaml:"interaction_profile" json:"interaction_profile"`
	BindingCapacity    int      `yaml:"binding_capacity" json:"binding_capacity"`
	SwapchainAttempts  int      `yaml:"swapchain_attempts" json:"swapchain_attempts"`
	ImageWaitTimeout   Duration `yaml:"image_wait_timeout" json:"image_wait_timeout"`
	ImageWaitAttempts  int      `yaml:"image_wait_attempts" json:"image_wait_attempts"`
	GripOffset         string   `yaml:"grip_offset,omitempty" json:"grip_offset,omitempty"`
}

// Simulator describes the scripted runtime and the run it performs.
type Simulator struct {
	Frames        int      `yaml:"frames" json:"frames"`
	Views         []View   `yaml:"views" json:"views"`
	Images        int      `yaml:"images" json:"images"`
	Formats       []string `yaml:"formats" json:"formats"`
	DisplayPeriod Duration `yaml:"display_period" json:"display_period"`
	AutoStates    bool     `yaml:"auto_states" json:"auto_states"`
	SkipRender    bool     `yaml:"skip_render" json:"skip_render"`
	Hands         []Hand   `yaml:"hands" json:"hands"`
	Events        []Event  `yaml:"events,omitempty" json:"events,omitempty"`
}

// View is the recommended size of one eye.
type View struct {
	Width  uint32 `yaml:"width" json:"width"`
	Height uint32 `yaml:"height" json:"height"`
}

// Hand is a tracked controller of the simulated run.
type Hand struct {
	ID       uint64     `yaml:"id" json:"id"`
	Path     string     `yaml:"path" json:"path"`
	Position [3]float32 `yaml:"position" json:"position"`
	Trigger  float32    `yaml:"trigger" json:"trigger"`
	Lever    float32    `yaml:"lever" json:"lever"`
}

// Event schedules a session state change before a given frame.
type Event struct {
	Frame int    `yaml:"frame" json:"frame"`
	State string `yaml:"state" json:"state"`
}

// Log configures the xr logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Duration is a time.Duration written as a string such as "11ms".
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("config: duration must be a string: %w", err)
	}
	return d.parse(s)
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) parse(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	*d = Duration(v)
	return nil
}

// Default returns the configuration used when no file is given: one
// stereo headset with two 1440x1600 views, three images per view and
// both hands tracked.
func Default() *Config {
	return &Config{
		Driver: Driver{
			ApplicationName:    "xrsim",
			GraphicsVersion:    "4.5.0",
			NearZ:              0.1,
			FarZ:               1000,
			InteractionProfile: "/interaction_profiles/valve/index_controller",
			BindingCapacity:    64,
			SwapchainAttempts:  3,
			ImageWaitTimeout:   Duration(time.Millisecond),
			ImageWaitAttempts:  8,
		},
		Simulator: Simulator{
			Frames:        90,
			Views:         []View{{Width: 1440, Height: 1600}, {Width: 1440, Height: 1600}},
			Images:        3,
			Formats:       []string{"rgba8unorm", "bgra8unorm"},
			DisplayPeriod: Duration(11 * time.Millisecond),
			AutoStates:    true,
			Hands: []Hand{
				{ID: 1, Path: "/user/hand/left", Position: [3]float32{-0.2, -0.3, -0.4}},
				{ID: 2, Path: "/user/hand/right", Position: [3]float32{0.2, -0.3, -0.4}},
			},
		},
		Log: Log{Level: "info", Format: "text"},
	}
}

// Load reads the file at path over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext (".yaml", ".yml",
// ".json" or ".jsonc") over Default and validates the result.
func Parse(data []byte, ext string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w %q", ErrFormat, ext)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) { return yaml.Marshal(c) }
