package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/horizonbi/backend/pkg/logger"
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

// SetInsights caches a company's computed insight set. Insight sets are
// derived data with a TTL, never the system of record.
func (c *Client) SetInsights(ctx context.Context, companyID string, insights interface{}, ttl time.Duration) error {
	data, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("failed to marshal insights: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("insights:%s", companyID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set insight cache: %w", err)
	}

	logger.Debug("Insights cached", zap.String("company_id", companyID), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetInsights(ctx context.Context, companyID string, insights interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("insights:%s", companyID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get insight cache: %w", err)
	}

	err = json.Unmarshal(data, insights)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal insights: %w", err)
	}

	logger.Debug("Insight cache hit", zap.String("company_id", companyID))
	return true, nil
}

// InvalidateInsights drops every cached insight set, used after a pipeline
// run changes the underlying indicator values.
func (c *Client) InvalidateInsights(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "insights:*", 0).Iterator()
	for iter.Next(ctx) {
		err := c.client.Del(ctx, iter.Val()).Err()
		if err != nil {
			logger.Warn("Failed to delete cache key", zap.Error(err))
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to iterate cache keys: %w", err)
	}

	logger.Info("Insight cache invalidated")
	return nil
}

func (c *Client) SetAnalysis(ctx context.Context, indicatorID string, analysis interface{}, ttl time.Duration) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	err = c.client.Set(ctx, fmt.Sprintf("analysis:%s", indicatorID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set analysis cache: %w", err)
	}

	return nil
}

func (c *Client) GetAnalysis(ctx context.Context, indicatorID string, analysis interface{}) (bool, error) {
	data, err := c.client.Get(ctx, fmt.Sprintf("analysis:%s", indicatorID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get analysis cache: %w", err)
	}

	err = json.Unmarshal(data, analysis)
	if err != nil {
		return false, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}

	logger.Debug("Analysis cache hit", zap.String("indicator_id", indicatorID))
	return true, nil
}
