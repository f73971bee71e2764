package service

import (
	"context"
	"fmt"
	"time"

	"tablepick/core/constants"
	"tablepick/core/errors"
	"tablepick/core/logger"
	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
)

// SweepDeadlines applies time-driven transitions to every scheduled plan still
// in voting. It is idempotent for a fixed asOf: each step is guarded by the
// state it produces. A single plan's failure is logged and skipped; the sweep
// always continues to the next plan.
func (s *PlanService) SweepDeadlines(ctx context.Context, asOf time.Time) error {
	plans, err := s.repo.FindScheduledVoting(ctx)
	if err != nil {
		return fmt.Errorf("sweep: load plans: %w", err)
	}

	for _, plan := range plans {
		if err := s.sweepPlan(ctx, plan.ID, asOf); err != nil {
			logger.Error("PlanService:SweepDeadlines:PlanError", "plan_id", plan.ID, "error", err)
		}
	}
	return nil
}

// sweepPlan applies the timed transitions to one plan under its lock, with a
// fresh load so it composes with concurrent user-triggered mutators.
func (s *PlanService) sweepPlan(ctx context.Context, planID string, asOf time.Time) error {
	release, err := s.locker.Acquire(ctx, planID)
	if err != nil {
		return err
	}
	defer release()

	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return appErr
	}

	if !s.applyTimedTransitions(ctx, plan, asOf) {
		return nil
	}
	if err := s.repo.Save(ctx, plan); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to persist sweep transitions", err)
	}
	return nil
}

// applyTimedTransitions mutates the plan in place and dispatches the matching
// notifications. Returns whether anything changed. The three steps are
// independent and individually guarded, so re-running with the same asOf is a
// no-op after the first pass.
func (s *PlanService) applyTimedTransitions(ctx context.Context, plan *entity.Plan, asOf time.Time) bool {
	if plan.Kind != entity.PlanKindScheduled || plan.Status != entity.PlanStatusVoting {
		return false
	}

	changed := false
	deadlinePassed := plan.RSVPDeadline != nil && asOf.After(*plan.RSVPDeadline)

	// Step 1: auto-decline invites still pending past the RSVP deadline.
	if deadlinePassed {
		for i := range plan.Invites {
			invite := &plan.Invites[i]
			if invite.Status != entity.InviteStatusPending {
				continue
			}
			respondedAt := asOf
			invite.Status = entity.InviteStatusDeclined
			invite.RespondedAt = &respondedAt
			changed = true

			name := s.names.DisplayName(ctx, invite.UserID)
			s.notif.Notify(ctx, invite.UserID, constants.NotificationTypeDeadline,
				"RSVP deadline passed",
				fmt.Sprintf("The RSVP deadline for %s passed; you were removed from the plan", plan.Title),
				map[string]any{"plan_id": plan.ID})
			s.notif.Notify(ctx, plan.OwnerID, constants.NotificationTypeDeadline,
				"Missed RSVP",
				fmt.Sprintf("%s missed the RSVP deadline for %s", name, plan.Title),
				map[string]any{"plan_id": plan.ID, "user_id": invite.UserID.String()})
		}
	}

	// Step 2: open voting exactly once after the deadline. The nil check is the
	// idempotency guard against repeated sweeps.
	if deadlinePassed && plan.VotingOpenedAt == nil {
		openedAt := asOf
		plan.VotingOpenedAt = &openedAt
		changed = true

		recipients := append([]uuid.UUID{plan.OwnerID}, plan.AcceptedInviteeIDs()...)
		s.notif.NotifyMany(ctx, recipients, constants.NotificationTypeVotingOpen,
			"Voting is open",
			fmt.Sprintf("Start choosing a restaurant for %s", plan.Title),
			map[string]any{"plan_id": plan.ID})
	}

	// Step 3: the event time arrived; resolve a winner and confirm.
	if instant, ok := plan.EventInstant(s.loc); ok && asOf.After(instant) {
		winner := TallyWinner(plan.Candidates, plan.Votes)
		if winner == nil {
			// Known gap: a plan past its event time with no candidates stays in
			// voting. Surfaced here so the stuck state is visible.
			logger.Warn("PlanService:applyTimedTransitions:NoWinner",
				"plan_id", plan.ID, "candidates", len(plan.Candidates))
		} else {
			plan.ResolvedRestaurant = entity.NullableCandidate{Candidate: winner}
			plan.Status = entity.PlanStatusConfirmed
			changed = true

			recipients := append([]uuid.UUID{plan.OwnerID}, plan.AcceptedInviteeIDs()...)
			s.notif.NotifyMany(ctx, recipients, constants.NotificationTypeResult,
				"Restaurant chosen",
				fmt.Sprintf("%s is confirmed: %s", plan.Title, winner.Name),
				map[string]any{"plan_id": plan.ID, "candidate_id": winner.ID})
		}
	}

	return changed
}
