// Package rediscache implements the ResultCache port on Redis so repeated
// requests for an already transcribed object skip the model entirely.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/huzarta/piano-transcription-service/internal/core/ports/output"
)

type Cache struct {
	client *redis.Client
}

func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	return &Cache{client: client}, nil
}

func (c *Cache) Get(ctx context.Context, key string) (*ports.CachedResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Debug("result cache read failed")
		}
		return nil, false
	}

	var res ports.CachedResult
	if err := json.Unmarshal(data, &res); err != nil {
		log.WithError(err).Debug("result cache entry corrupt")
		return nil, false
	}
	return &res, true
}

func (c *Cache) Set(ctx context.Context, key string, res ports.CachedResult, ttl time.Duration) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
