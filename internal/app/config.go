package app

import (
	"github.com/estateflow/server/internal/infra/config"
)

// LoadConfig loads application configuration. An empty path searches the
// default locations.
func LoadConfig(path string) (*config.Config, error) {
	return config.LoadFile(path)
}
