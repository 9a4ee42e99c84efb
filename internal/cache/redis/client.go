package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticket-triage/backend/pkg/logger"
)

type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// SetPrediction caches a classification result keyed by the hash of the
// normalized ticket text.
func (c *Client) SetPrediction(ctx context.Context, textHash string, result interface{}, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("prediction:%s", textHash), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set prediction cache: %w", err)
	}

	logger.Debug("Prediction cached", zap.String("text_hash", textHash), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetPrediction(ctx context.Context, textHash string, result interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("prediction:%s", textHash)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get prediction cache: %w", err)
	}

	err = json.Unmarshal(data, result)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	logger.Debug("Prediction cache hit", zap.String("text_hash", textHash))
	return true, nil
}

// InvalidatePredictions drops every cached prediction. Called after a model
// reload so stale results never outlive the model that produced them.
func (c *Client) InvalidatePredictions(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "prediction:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Prediction cache invalidated")
	return nil
}

func (c *Client) IncrementCounter(ctx context.Context, name string) error {
	return c.client.Incr(ctx, fmt.Sprintf("counter:%s", name)).Err()
}

func (c *Client) GetCounter(ctx context.Context, name string) (int64, error) {
	val, err := c.client.Get(ctx, fmt.Sprintf("counter:%s", name)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return val, err
}
