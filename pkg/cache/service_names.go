// Package cache provides a read-through cache for service names, which the
// condition evaluator looks up on every event.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const serviceNameTTL = 10 * time.Minute

// ServiceNameLoader resolves a service ID to its display name.
type ServiceNameLoader interface {
	ServiceNameByID(ctx context.Context, id string) (string, error)
}

// ServiceNames caches service ID to name lookups in Redis. With a nil client
// it degrades to calling the loader directly.
type ServiceNames struct {
	client redis.UniversalClient
	loader ServiceNameLoader
	logger *slog.Logger
}

func NewServiceNames(client redis.UniversalClient, loader ServiceNameLoader, logger *slog.Logger) *ServiceNames {
	return &ServiceNames{
		client: client,
		loader: loader,
		logger: logger.With("module", "service_name_cache"),
	}
}

// NewRedisClient builds a Redis client from a URL, or returns nil when the
// URL is empty so callers fall back to direct lookups.
func NewRedisClient(redisURL string) (redis.UniversalClient, error) {
	if redisURL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return redis.NewClient(opts), nil
}

// Lookup returns the service name for an ID, empty string when the service is
// unknown. Cache failures fall through to the loader.
func (s *ServiceNames) Lookup(ctx context.Context, serviceID string) (string, error) {
	if serviceID == "" {
		return "", nil
	}

	if s.client == nil {
		return s.loader.ServiceNameByID(ctx, serviceID)
	}

	key := "praxisflow:service_name:" + serviceID

	cached, err := s.client.Get(ctx, key).Result()
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, redis.Nil) {
		s.logger.WarnContext(ctx, "Service name cache read failed", "service_id", serviceID, "error", err)
	}

	name, err := s.loader.ServiceNameByID(ctx, serviceID)
	if err != nil {
		return "", err
	}

	if err := s.client.Set(ctx, key, name, serviceNameTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "Service name cache write failed", "service_id", serviceID, "error", err)
	}

	return name, nil
}
