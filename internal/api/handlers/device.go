package handlers

import (
	"sessionrecorder/backend/pkg/chrome"
	"sessionrecorder/backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DeviceView struct {
	Name      string  `json:"name"`
	Width     int64   `json:"width"`
	Height    int64   `json:"height"`
	Scale     float64 `json:"scale"`
	Mobile    bool    `json:"mobile"`
	Touch     bool    `json:"touch"`
	UserAgent string  `json:"user_agent"`
	IsDefault bool    `json:"is_default"`
}

// GetDevices lists the emulation profiles a recording can use.
func GetDevices(c *gin.Context) {
	names := chrome.ListDevices()
	devices := make([]DeviceView, 0, len(names))
	for _, name := range names {
		dev := chrome.PredefinedDevices[name]
		devices = append(devices, DeviceView{
			Name:      dev.Name,
			Width:     dev.Width,
			Height:    dev.Height,
			Scale:     dev.Scale,
			Mobile:    dev.Mobile,
			Touch:     dev.Touch,
			UserAgent: dev.UserAgent,
			IsDefault: name == chrome.DefaultDevice,
		})
	}
	response.Success(c, devices)
}
