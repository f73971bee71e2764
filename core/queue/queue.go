package queue

import (
	"context"
	"encoding/json"

	"tablepick/core/config"
	"tablepick/core/constants"
	"tablepick/core/logger"

	"github.com/hibiken/asynq"
)

// PushPayload is the body of a push:send task.
type PushPayload struct {
	UserID  string         `json:"user_id"`
	Type    string         `json:"type"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// Client wraps the asynq client for task producers.
type Client struct {
	inner *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{inner: asynq.NewClient(RedisOpt(cfg))}
}

// EnqueuePush schedules push delivery for one recipient. Errors are returned for
// logging only; callers treat push dispatch as fire-and-forget.
func (c *Client) EnqueuePush(ctx context.Context, payload PushPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	task := asynq.NewTask(constants.TaskTypePushSend, body, asynq.MaxRetry(3))
	if _, err := c.inner.EnqueueContext(ctx, task); err != nil {
		return err
	}
	logger.Debug("queue:EnqueuePush", "user_id", payload.UserID, "type", payload.Type)
	return nil
}

func (c *Client) Close() error {
	return c.inner.Close()
}
