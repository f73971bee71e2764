package constants

// Database pool settings
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// Pagination defaults
const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Notification kinds
const (
	NotificationTypeInvite        = "invite"
	NotificationTypeRSVP          = "rsvp"
	NotificationTypeDeadline      = "deadline"
	NotificationTypeVotingOpen    = "voting_open"
	NotificationTypeSwipeProgress = "swipe_progress"
	NotificationTypeResult        = "result"
	NotificationTypeCancelled     = "cancelled"
	NotificationTypeLeft          = "left"
	NotificationTypeOwnership     = "ownership"
)

// Asynq task types
const (
	TaskTypePushSend  = "push:send"
	TaskTypePlanSweep = "plan:sweep"
)

// Per-plan lock settings
const (
	PlanLockTTLSeconds  = 5
	PlanLockRetryMillis = 50
)
