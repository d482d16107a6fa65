package instance

import "os"

// EnvInstanceID overrides the detected replica identifier.
const EnvInstanceID = "MEDSTOCK_INSTANCE_ID"

const fallbackID = "medstock-0"

// GetID returns the replica identifier used in logs and lock ownership: the override,
// then the hostname, then a fixed default.
func GetID() string {
	if id := os.Getenv(EnvInstanceID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
