package franchisecommand

import (
	"time"

	"franchise-service/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

// ConfigFrom takes the per-job timeout from the camunda section.
func ConfigFrom(cfg config.CamundaConfig) *Config {
	c := LoadConfig()
	if cfg.Timeout > 0 {
		c.Timeout = config.GetDuration(cfg.Timeout)
	}
	return c
}
