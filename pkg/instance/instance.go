package instance

import (
	"os"

	"github.com/angelmondragon/ecommerce-backend/pkg/env"
)

// GetID identifies the running api process in logs. DYNO wins over the host
// name so platform restarts keep a stable label.
func GetID() string {
	if id := env.First("", "ECOMMERCE_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
