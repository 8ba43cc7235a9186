package instance

import "os"

// GetID names the running process for logs: CARTSYNC_INSTANCE_ID, then the
// platform dyno name, then the hostname.
func GetID() string {
	for _, env := range []string{"CARTSYNC_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(env); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
