package entity

import (
	"time"

	coreEntity "tablepick/core/entity"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Invite is a participant's membership and response record on a plan. The owner
// is never represented as an invite.
type Invite struct {
	ID          string       `db:"id" json:"id"`
	PlanID      string       `db:"plan_id" json:"plan_id"`
	UserID      uuid.UUID    `db:"user_id" json:"user_id"`
	Status      InviteStatus `db:"status" json:"status"`
	RespondedAt *time.Time   `db:"responded_at" json:"responded_at,omitempty"`
	coreEntity.BaseEntity
}
