package instance

import (
	"os"
	"strings"
)

const defaultID = "worker-0"

// GetID returns the worker instance identifier used to tag distributed locks.
// ZM_WORKER_ID wins, then the container hostname, then a fixed default.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv("ZM_WORKER_ID")); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return defaultID
}
