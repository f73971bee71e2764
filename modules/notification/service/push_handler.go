package service

import (
	"context"
	"encoding/json"
	"fmt"

	"tablepick/core/logger"
	"tablepick/core/queue"

	"github.com/hibiken/asynq"
)

// PushSender delivers a push notification to a device. Delivery is a black box
// behind this interface; the default implementation only logs.
type PushSender interface {
	Send(ctx context.Context, payload queue.PushPayload) error
}

type logPushSender struct{}

func (logPushSender) Send(_ context.Context, payload queue.PushPayload) error {
	logger.Info("push delivered", "user_id", payload.UserID, "type", payload.Type, "title", payload.Title)
	return nil
}

// NewLogPushSender returns the logging fallback sender.
func NewLogPushSender() PushSender {
	return logPushSender{}
}

// PushHandler is the asynq consumer for push:send tasks.
type PushHandler struct {
	sender PushSender
}

func NewPushHandler(sender PushSender) *PushHandler {
	return &PushHandler{sender: sender}
}

func (h *PushHandler) HandlePushTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.PushPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("push:send payload: %w", err)
	}
	if err := h.sender.Send(ctx, payload); err != nil {
		logger.Error("PushHandler:HandlePushTask:Error", "user_id", payload.UserID, "error", err)
		return err
	}
	return nil
}
