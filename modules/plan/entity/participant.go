package entity

import "github.com/google/uuid"

type ParticipantRole string

const (
	RoleOwner   ParticipantRole = "owner"
	RoleInvitee ParticipantRole = "invitee"
)

// Participant is the owner-or-invitee union used when computing required
// participant sets. The owner always appears first.
type Participant struct {
	UserID uuid.UUID
	Role   ParticipantRole
}
