package handlers

import (
	"sessionrecorder/backend/internal/config"
	"sessionrecorder/backend/internal/generator"
	"sessionrecorder/backend/pkg/database"

	"github.com/gin-gonic/gin"
)

var (
	cfg        *config.Config
	recordings *database.RecordingStore
)

// Init hands the handlers their configuration and recording store.
func Init(c *config.Config, store *database.RecordingStore) {
	cfg = c
	recordings = store
}

func generatorConfig() generator.Config {
	return generator.Config{
		WaitTimeout:   cfg.Generator.WaitTimeout,
		NavigateDelay: cfg.Generator.NavigateDelay,
		StepDelay:     cfg.Generator.StepDelay,
	}
}

func defaultFileName() string {
	if cfg.Generator.DefaultFileName != "" {
		return cfg.Generator.DefaultFileName
	}
	return generator.DefaultFileName
}

func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
