// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// First returns the first of keys set to a non-blank value, or fallback.
func First(fallback string, keys ...string) string {
	for _, key := range keys {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	return fallback
}
