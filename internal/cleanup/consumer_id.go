package cleanup

import (
	"os"

	"github.com/oklog/ulid/v2"
)

// NewConsumerID returns a unique consumer name for the Redis group.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + ulid.Make().String()
}
