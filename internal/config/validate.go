package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the fields a command mode depends on and reports every
// problem at once.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireData := func() {
		if c.Data.Root == "" {
			problems = append(problems, "data.root is required")
		}
	}

	switch mode {
	case "build", "series", "summary", "join":
		requireData()
	case "predict":
		requireData()
		if c.Predict.ModelPath == "" {
			problems = append(problems, "predict.model_path is required")
		}
		if len(c.Predict.Features) == 0 {
			problems = append(problems, "predict.features must not be empty")
		}
	case "serve":
		requireData()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Cache.Enabled && c.Cache.Path == "" {
		problems = append(problems, "cache.path is required when cache.enabled")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}
