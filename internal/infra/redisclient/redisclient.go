// Package redisclient constructs the shared Redis client used for the job
// queue and the conversation FSM store.
package redisclient

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New parses a redis:// URL and returns a ready client.
func New(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}
