package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepAutoDeclinesPendingInvites(t *testing.T) {
	f := newFixture(testNow)
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	deadline := testNow.Add(time.Hour)
	plan := f.createScheduled(t, owner, "2025-06-10", "7:00 PM", deadline, a, b)

	_, appErr := f.svc.RSVP(context.Background(), plan.ID, a, RSVPActionAccept)
	require.Nil(t, appErr)
	f.notif.reset()

	asOf := deadline.Add(time.Minute)
	require.NoError(t, f.svc.SweepDeadlines(context.Background(), asOf))

	got := f.reload(t, plan.ID)
	invA := got.FindInvite(a)
	require.NotNil(t, invA)
	assert.Equal(t, entity.InviteStatusAccepted, invA.Status)

	invB := got.FindInvite(b)
	require.NotNil(t, invB)
	assert.Equal(t, entity.InviteStatusDeclined, invB.Status)
	require.NotNil(t, invB.RespondedAt)
	assert.True(t, invB.RespondedAt.Equal(asOf))

	// Both the lapsed invitee and the owner hear about the missed deadline.
	assert.True(t, f.notif.received(b, "deadline"))
	assert.True(t, f.notif.received(owner, "deadline"))
	assert.False(t, f.notif.received(a, "deadline"))
}

func TestSweepOpensVotingExactlyOnce(t *testing.T) {
	f := newFixture(testNow)
	owner := uuid.New()
	a := uuid.New()
	deadline := testNow.Add(time.Hour)
	plan := f.createScheduled(t, owner, "2025-06-10", "7:00 PM", deadline, a)

	_, appErr := f.svc.RSVP(context.Background(), plan.ID, a, RSVPActionAccept)
	require.Nil(t, appErr)
	f.notif.reset()

	asOf := deadline.Add(time.Minute)
	require.NoError(t, f.svc.SweepDeadlines(context.Background(), asOf))

	got := f.reload(t, plan.ID)
	require.NotNil(t, got.VotingOpenedAt)
	openedAt := *got.VotingOpenedAt
	assert.True(t, openedAt.Equal(asOf))
	assert.Equal(t, 1, f.notif.countBatches("voting_open"))

	// A later sweep leaves the opening timestamp alone and stays quiet.
	require.NoError(t, f.svc.SweepDeadlines(context.Background(), asOf.Add(time.Hour)))
	got = f.reload(t, plan.ID)
	require.NotNil(t, got.VotingOpenedAt)
	assert.True(t, got.VotingOpenedAt.Equal(openedAt))
	assert.Equal(t, 1, f.notif.countBatches("voting_open"))
}

func TestSweepConfirmsAfterEventTime(t *testing.T) {
	f := newFixture(testNow)
	owner := uuid.New()
	a := uuid.New()
	deadline := testNow.Add(time.Hour)
	plan := f.createScheduled(t, owner, "2025-06-10", "7:00 PM", deadline, a)

	_, appErr := f.svc.RSVP(context.Background(), plan.ID, a, RSVPActionAccept)
	require.Nil(t, appErr)
	f.clock.Set(deadline.Add(time.Minute))
	_, appErr = f.svc.Swipe(context.Background(), plan.ID, owner, []string{plan.Candidates[1].ID})
	require.Nil(t, appErr)
	f.notif.reset()

	asOf := time.Date(2025, 6, 10, 19, 30, 0, 0, time.Local)
	require.NoError(t, f.svc.SweepDeadlines(context.Background(), asOf))

	got := f.reload(t, plan.ID)
	assert.Equal(t, entity.PlanStatusConfirmed, got.Status)
	require.NotNil(t, got.ResolvedRestaurant.Candidate)
	assert.Equal(t, plan.Candidates[1].ID, got.ResolvedRestaurant.Candidate.ID)
	assert.Equal(t, 1, f.notif.countBatches("result"))
	assert.True(t, f.notif.received(owner, "result"))
	assert.True(t, f.notif.received(a, "result"))
}

func TestSweepNoCandidatesLeavesPlanInVoting(t *testing.T) {
	f := newFixture(testNow)
	owner := uuid.New()
	deadline := testNow.Add(-2 * time.Hour)

	// Seeded directly: the creation path never allows an empty candidate pool.
	plan := &entity.Plan{
		ID:              "stuck-plan",
		Kind:            entity.PlanKindScheduled,
		Status:          entity.PlanStatusVoting,
		OwnerID:         owner,
		Title:           "Empty plan",
		Date:            "2025-06-01",
		RSVPDeadline:    &deadline,
		Candidates:      entity.CandidateList{},
		Votes:           entity.VoteMap{},
		SwipesCompleted: entity.IDSet{},
	}
	require.NoError(t, f.repo.Create(context.Background(), plan))

	require.NoError(t, f.svc.SweepDeadlines(context.Background(), testNow))

	got := f.reload(t, plan.ID)
	assert.Equal(t, entity.PlanStatusVoting, got.Status)
	assert.Nil(t, got.ResolvedRestaurant.Candidate)
	// The deadline step still ran.
	require.NotNil(t, got.VotingOpenedAt)
}

func TestSweepContinuesPastFailingPlan(t *testing.T) {
	f := newFixture(testNow)
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	deadline := testNow.Add(time.Hour)
	broken := f.createScheduled(t, owner, "2025-06-10", "7:00 PM", deadline, a)
	healthy := f.createScheduled(t, owner, "2025-06-11", "8:00 PM", deadline, b)

	f.repo.saveErr[broken.ID] = errors.New("disk on fire")

	require.NoError(t, f.svc.SweepDeadlines(context.Background(), deadline.Add(time.Minute)))

	assert.Nil(t, f.reload(t, broken.ID).VotingOpenedAt)
	assert.NotNil(t, f.reload(t, healthy.ID).VotingOpenedAt)
}
