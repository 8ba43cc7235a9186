package env

import "os"

// Prefix namespaces the service's environment variables.
const Prefix = "CARTSYNC_"

// Get returns CARTSYNC_<key>, then the bare key, then fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(Prefix + key); val != "" {
		return val
	}
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
