// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package xrtest

import (
	"math"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/xr"
)

// Config describes what the scripted runtime reports.
type Config struct {
	RuntimeName    string
	RuntimeVersion xr.Version

	Extensions []xr.ExtensionProperties
	APILayers  []xr.APILayerProperties
	System     xr.SystemProperties

	ViewConfigurations []xr.ViewConfigurationType
	Views              []xr.ViewConfigurationView
	BlendModes         []xr.EnvironmentBlendMode
	ReferenceSpaces    []xr.ReferenceSpaceType
	Requirements       xr.GraphicsRequirements

	Formats            []gputypes.TextureFormat
	ImagesPerSwapchain int

	// Fov is the field of view located for every view.
	Fov xr.Fovf

	DisplayPeriod time.Duration
	// SkipRender makes WaitFrame report ShouldRender false.
	SkipRender bool

	// AutoStates emits the session lifecycle a real runtime would:
	// idle and ready on session creation, synchronized, visible and
	// focused on begin, idle on end.
	AutoStates bool

	EventCapacity int
}

// DefaultConfig returns a stereo headset with two 64x64 views, three
// images per swapchain and the graphics binding extension.
func DefaultConfig() Config {
	quarter := float32(math.Pi / 4)
	return Config{
		RuntimeName:    "xrtest",
		RuntimeVersion: xr.MakeVersion(1, 0, 0),
		Extensions: []xr.ExtensionProperties{
			{Name: xr.GraphicsBindingExtension, Version: 1},
		},
		APILayers: []xr.APILayerProperties{
			{Name: xr.CoreValidationLayer, SpecVersion: xr.MakeVersion(1, 0, 0), Description: "core validation"},
		},
		System: xr.SystemProperties{
			SystemName:              "xrtest headset",
			VendorID:                0x1209,
			MaxLayerCount:           16,
			MaxSwapchainImageWidth:  4096,
			MaxSwapchainImageHeight: 4096,
			OrientationTracking:     true,
			PositionTracking:        true,
		},
		ViewConfigurations: []xr.ViewConfigurationType{xr.ViewConfigurationPrimaryStereo},
		Views: []xr.ViewConfigurationView{
			StereoView(64, 64),
			StereoView(64, 64),
		},
		BlendModes:      []xr.EnvironmentBlendMode{xr.BlendModeOpaque},
		ReferenceSpaces: []xr.ReferenceSpaceType{xr.ReferenceSpaceView, xr.ReferenceSpaceLocal, xr.ReferenceSpaceStage},
		Requirements: xr.GraphicsRequirements{
			MinAPIVersionSupported: xr.MakeVersion(3, 3, 0),
			MaxAPIVersionSupported: xr.MakeVersion(4, 6, 0),
		},
		Formats:            []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm},
		ImagesPerSwapchain: 3,
		Fov: xr.Fovf{
			AngleLeft:  -quarter,
			AngleRight: quarter,
			AngleUp:    quarter,
			AngleDown:  -quarter,
		},
		DisplayPeriod: 11 * time.Millisecond,
		EventCapacity: 64,
	}
}

// StereoView returns a view configuration view of the given recommended size.
func StereoView(width, height uint32) xr.ViewConfigurationView {
	return xr.ViewConfigurationView{
		RecommendedImageRectWidth:       width,
		MaxImageRectWidth:               width * 2,
		RecommendedImageRectHeight:      height,
		MaxImageRectHeight:              height * 2,
		RecommendedSwapchainSampleCount: 1,
		MaxSwapchainSampleCount:         4,
	}
}

func (c *Config) fillDefaults() {
	if c.ImagesPerSwapchain <= 0 {
		c.ImagesPerSwapchain = 3
	}
	if c.EventCapacity <= 0 {
		c.EventCapacity = 64
	}
	if c.DisplayPeriod <= 0 {
		c.DisplayPeriod = 11 * time.Millisecond
	}
}
