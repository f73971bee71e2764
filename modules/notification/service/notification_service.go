package service

import (
	"context"
	"time"

	coreEntity "tablepick/core/entity"
	"tablepick/core/logger"
	"tablepick/core/params"
	"tablepick/core/queue"
	"tablepick/modules/notification/dto"
	"tablepick/modules/notification/entity"
	"tablepick/modules/notification/repository"

	"github.com/google/uuid"
)

type NotificationService struct {
	repo  *repository.NotificationRepository
	queue *queue.Client
}

func NewNotificationService(repo *repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{repo: repo, queue: queueClient}
}

func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Type:    req.Type,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

// Notify persists a notification and enqueues push delivery. Fire-and-forget:
// every failure is logged and swallowed so state transitions never depend on
// notification delivery.
func (s *NotificationService) Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any) {
	req := &dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    kind,
		Data:    data,
	}
	if err := s.Create(ctx, req); err != nil {
		logger.Error("NotificationService:Notify:Create:Error", "user_id", userID, "type", kind, "error", err)
	}
	if s.queue == nil {
		return
	}
	err := s.queue.EnqueuePush(ctx, queue.PushPayload{
		UserID:  userID.String(),
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    data,
	})
	if err != nil {
		logger.Error("NotificationService:Notify:Enqueue:Error", "user_id", userID, "type", kind, "error", err)
	}
}

// NotifyMany fans Notify out to each recipient.
func (s *NotificationService) NotifyMany(ctx context.Context, userIDs []uuid.UUID, kind, title, message string, data map[string]any) {
	for _, userID := range userIDs {
		s.Notify(ctx, userID, kind, title, message, data)
	}
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.GetByUserID(ctx, userID, queryParams)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkAsRead(ctx, userID, ids)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
