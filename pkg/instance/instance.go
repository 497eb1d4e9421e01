package instance

import (
	"os"

	"github.com/angelmondragon/flowzz-ingest/pkg/env"
)

const fallbackID = "ingest-0"

// GetID identifies the process running an ingest: FLOWZZ_INSTANCE_ID or
// WORKER_ID when set, otherwise the hostname.
func GetID() string {
	if id := env.First("FLOWZZ_INSTANCE_ID", "WORKER_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
