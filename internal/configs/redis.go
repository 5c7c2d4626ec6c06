package config

import (
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// NewRedisClient dials addr. It fails when the server is unreachable, so
// callers that must start offline should defer it until first use.
func NewRedisClient(addr string, timeout time.Duration) (rueidis.Client, error) {
	redisClient, err := rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress:      []string{addr},
			DisableCache:     true,
			ConnWriteTimeout: timeout,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return redisClient, nil
}
