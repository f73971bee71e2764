package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventInstant(t *testing.T) {
	loc := time.UTC

	cases := []struct {
		name string
		date string
		tm   string
		want time.Time
		ok   bool
	}{
		{"date and time", "2025-06-10", "7:30 PM", time.Date(2025, 6, 10, 19, 30, 0, 0, loc), true},
		{"lowercase time", "2025-06-10", "7:30 pm", time.Date(2025, 6, 10, 19, 30, 0, 0, loc), true},
		{"morning time", "2025-06-10", "9:05 AM", time.Date(2025, 6, 10, 9, 5, 0, 0, loc), true},
		{"no time falls to midnight", "2025-06-10", "", time.Date(2025, 6, 10, 0, 0, 0, 0, loc), true},
		{"unparseable time falls to midnight", "2025-06-10", "evening-ish", time.Date(2025, 6, 10, 0, 0, 0, 0, loc), true},
		{"24h clock is not accepted", "2025-06-10", "19:30", time.Date(2025, 6, 10, 0, 0, 0, 0, loc), true},
		{"no date", "", "7:30 PM", time.Time{}, false},
		{"bad date", "June 10th", "7:30 PM", time.Time{}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Plan{Date: tc.date, Time: tc.tm}
			got, ok := p.EventInstant(loc)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.True(t, got.Equal(tc.want), "got %s want %s", got, tc.want)
			}
		})
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from PlanStatus
		to   PlanStatus
		want bool
	}{
		{PlanStatusVoting, PlanStatusConfirmed, true},
		{PlanStatusVoting, PlanStatusCancelled, true},
		{PlanStatusVoting, PlanStatusCompleted, false},
		{PlanStatusConfirmed, PlanStatusCompleted, true},
		{PlanStatusConfirmed, PlanStatusCancelled, true},
		{PlanStatusConfirmed, PlanStatusVoting, false},
		{PlanStatusCompleted, PlanStatusCancelled, false},
		{PlanStatusCancelled, PlanStatusConfirmed, false},
	}
	for _, tc := range cases {
		p := &Plan{Status: tc.from}
		assert.Equal(t, tc.want, p.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestRequiredParticipantsExcludesDeclined(t *testing.T) {
	owner := uuid.New()
	accepted := uuid.New()
	pending := uuid.New()
	declined := uuid.New()

	p := &Plan{
		OwnerID: owner,
		Invites: []Invite{
			{UserID: accepted, Status: InviteStatusAccepted},
			{UserID: pending, Status: InviteStatusPending},
			{UserID: declined, Status: InviteStatusDeclined},
		},
	}

	parts := p.RequiredParticipants()
	require.Len(t, parts, 3)
	assert.Equal(t, owner, parts[0].UserID)
	assert.Equal(t, RoleOwner, parts[0].Role)

	ids := []uuid.UUID{parts[1].UserID, parts[2].UserID}
	assert.Contains(t, ids, accepted)
	assert.Contains(t, ids, pending)
}

func TestAllSwipesDone(t *testing.T) {
	owner := uuid.New()
	a := uuid.New()
	b := uuid.New()

	p := &Plan{
		OwnerID: owner,
		Invites: []Invite{
			{UserID: a, Status: InviteStatusAccepted},
			{UserID: b, Status: InviteStatusPending},
		},
		SwipesCompleted: IDSet{owner.String(), a.String()},
	}
	assert.False(t, p.AllSwipesDone())

	// Declining removes b from the quorum, so the remaining swipes suffice.
	p.Invites[1].Status = InviteStatusDeclined
	assert.True(t, p.AllSwipesDone())
}

func TestIDSet(t *testing.T) {
	s := IDSet{}
	s = s.Add("a")
	s = s.Add("b")
	s = s.Add("a")
	assert.Equal(t, IDSet{"a", "b"}, s)
	assert.True(t, s.Contains("a"))

	s = s.Remove("a")
	assert.Equal(t, IDSet{"b"}, s)
	assert.False(t, s.Contains("a"))
	assert.Equal(t, IDSet{"b"}, s.Remove("missing"))
}

func TestIsActiveParticipant(t *testing.T) {
	owner := uuid.New()
	declined := uuid.New()
	accepted := uuid.New()

	p := &Plan{
		OwnerID: owner,
		Invites: []Invite{
			{UserID: declined, Status: InviteStatusDeclined},
			{UserID: accepted, Status: InviteStatusAccepted},
		},
	}

	assert.True(t, p.IsActiveParticipant(owner))
	assert.True(t, p.IsActiveParticipant(accepted))
	assert.False(t, p.IsActiveParticipant(declined))
	assert.False(t, p.IsActiveParticipant(uuid.New()))

	// A declined invitee still has read standing.
	assert.True(t, p.HasStanding(declined))
	assert.False(t, p.HasStanding(uuid.New()))
}
