package client

import (
	"fmt"

	"cake-marketplace/internal/config"

	radix "github.com/mediocregopher/radix/v3"
)

func InitRedisClient(cfg *config.Redis) (radix.Client, error) {
	pool, err := radix.NewPool("tcp", cfg.Addr, 10)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return pool, nil
}
