package chrome

import (
	"context"
	"sort"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"
	"go.uber.org/zap"

	"sessionrecorder/backend/pkg/logger"
)

// DefaultDevice is used when a recording request names no device.
const DefaultDevice = "Desktop 1920x1080"

const (
	desktopUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Safari/537.36"
	iPhoneUA  = "Mozilla/5.0 (iPhone; CPU iPhone OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	iPadUA    = "Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.6 Mobile/15E148 Safari/604.1"
	androidUA = "Mozilla/5.0 (Linux; Android 13; SM-S911B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/116.0.0.0 Mobile Safari/537.36"
)

// PredefinedDevices are the emulation profiles a recording browser can use.
var PredefinedDevices = map[string]device.Info{
	"iPhone 14 Pro": {
		Name:      "iPhone 14 Pro",
		UserAgent: iPhoneUA,
		Width:     393,
		Height:    852,
		Scale:     1.0, // 1.0 keeps text readable in the headful window
		Mobile:    true,
		Touch:     true,
	},
	"iPad Pro": {
		Name:      "iPad Pro",
		UserAgent: iPadUA,
		Width:     1024,
		Height:    1366,
		Scale:     1.0,
		Mobile:    true,
		Touch:     true,
	},
	"Galaxy S23": {
		Name:      "Galaxy S23",
		UserAgent: androidUA,
		Width:     360,
		Height:    780,
		Scale:     1.0,
		Mobile:    true,
		Touch:     true,
	},
	"Desktop 1280x800": {
		Name:      "Desktop 1280x800",
		UserAgent: desktopUA,
		Width:     1280,
		Height:    800,
		Scale:     1.0,
	},
	"Desktop 1920x1080": {
		Name:      "Desktop 1920x1080",
		UserAgent: desktopUA,
		Width:     1920,
		Height:    1080,
		Scale:     1.0,
	},
}

// GetDevice looks a profile up by name, falling back to DefaultDevice.
func GetDevice(name string) device.Info {
	if name == "" {
		return PredefinedDevices[DefaultDevice]
	}
	if dev, ok := PredefinedDevices[name]; ok {
		return dev
	}
	logger.L().Warn("Unknown device, using default", zap.String("device", name), zap.String("default", DefaultDevice))
	return PredefinedDevices[DefaultDevice]
}

// ApplyDeviceEmulation emulates dev in the browser tab behind ctx.
func ApplyDeviceEmulation(ctx context.Context, dev device.Info) error {
	logger.L().Debug("Applying device emulation",
		zap.String("device", dev.Name),
		zap.Int64("width", dev.Width),
		zap.Int64("height", dev.Height),
		zap.Bool("mobile", dev.Mobile))
	return chromedp.Run(ctx, chromedp.Emulate(dev))
}

// ListDevices returns the profile names in alphabetical order.
func ListDevices() []string {
	names := make([]string, 0, len(PredefinedDevices))
	for name := range PredefinedDevices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
