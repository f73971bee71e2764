package service

import (
	"context"
	"fmt"

	"tablepick/core/constants"
	"tablepick/core/errors"
	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
)

const (
	RSVPActionAccept  = "accept"
	RSVPActionDecline = "decline"
)

// RSVP records an invitee's accept/decline response. Valid only while the plan
// is in voting, before the RSVP deadline and before the event time. A second
// response is rejected and the first RespondedAt is preserved.
func (s *PlanService) RSVP(ctx context.Context, planID string, userID uuid.UUID, action string) (*entity.Plan, *errors.AppError) {
	if action != RSVPActionAccept && action != RSVPActionDecline {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "action must be accept or decline", nil)
	}

	release, err := s.locker.Acquire(ctx, planID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConflict, "Plan is busy, try again", err)
	}
	defer release()

	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return nil, appErr
	}
	if plan.Status != entity.PlanStatusVoting {
		return nil, errors.NewAppError(errors.ErrInvalidTransition,
			fmt.Sprintf("plan is %s; responses are only accepted while voting", plan.Status), nil)
	}

	invite := plan.FindInvite(userID)
	if invite == nil {
		return nil, errors.NewAppError(errors.ErrNotAParticipant, "You are not invited to this plan", nil)
	}
	if invite.Status != entity.InviteStatusPending {
		return nil, errors.NewAppError(errors.ErrAlreadyResponded, "You have already responded to this invite", nil)
	}

	now := s.clock.Now()
	if plan.RSVPDeadline != nil && now.After(*plan.RSVPDeadline) {
		return nil, errors.NewAppError(errors.ErrDeadlinePassed, "The RSVP deadline has passed", nil)
	}
	if instant, ok := plan.EventInstant(s.loc); ok && now.After(instant) {
		return nil, errors.NewAppError(errors.ErrPastEvent, "The event time has already passed", nil)
	}

	if action == RSVPActionAccept {
		invite.Status = entity.InviteStatusAccepted
	} else {
		invite.Status = entity.InviteStatusDeclined
	}
	invite.RespondedAt = &now

	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save response", err)
	}

	name := s.names.DisplayName(ctx, userID)
	s.notif.Notify(ctx, plan.OwnerID, constants.NotificationTypeRSVP,
		"Invite response",
		fmt.Sprintf("%s %sed your invite to %s", name, action, plan.Title),
		map[string]any{"plan_id": plan.ID, "user_id": userID.String(), "action": action})

	// Declining shrinks the required set, which can complete a group swipe.
	if action == RSVPActionDecline && plan.Kind == entity.PlanKindGroupSwipe {
		if appErr := s.finalizeIfComplete(ctx, planID, nil); appErr != nil {
			return nil, appErr
		}
		return s.loadPlan(ctx, planID)
	}

	return plan, nil
}

// Swipe records a participant's full vote submission. The submission is atomic:
// any unknown candidate id rejects the whole set before anything is persisted.
// Swiping implicitly accepts a pending invite.
func (s *PlanService) Swipe(ctx context.Context, planID string, userID uuid.UUID, candidateIDs []string) (*entity.Plan, *errors.AppError) {
	release, err := s.locker.Acquire(ctx, planID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConflict, "Plan is busy, try again", err)
	}
	defer release()

	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return nil, appErr
	}
	if plan.Status != entity.PlanStatusVoting {
		return nil, errors.NewAppError(errors.ErrInvalidTransition,
			fmt.Sprintf("plan is %s; votes are only accepted while voting", plan.Status), nil)
	}
	if !plan.IsActiveParticipant(userID) {
		return nil, errors.NewAppError(errors.ErrNotAParticipant, "You are not a participant of this plan", nil)
	}

	now := s.clock.Now()
	if instant, ok := plan.EventInstant(s.loc); ok && now.After(instant) {
		return nil, errors.NewAppError(errors.ErrPastEvent, "The event time has already passed", nil)
	}

	// On scheduled plans voting opens once everyone responded or the deadline passed.
	if plan.Kind == entity.PlanKindScheduled && !plan.AllResponded() &&
		plan.RSVPDeadline != nil && now.Before(*plan.RSVPDeadline) {
		return nil, errors.NewAppError(errors.ErrVotingNotOpen, "Voting has not opened yet; invites are still pending", nil)
	}

	if plan.SwipesCompleted.Contains(userID.String()) {
		return nil, errors.NewAppError(errors.ErrAlreadySwiped, "You have already submitted your votes", nil)
	}

	for _, candidateID := range candidateIDs {
		if !plan.Candidates.Contains(candidateID) {
			return nil, errors.NewAppError(errors.ErrInvalidCandidate,
				fmt.Sprintf("unknown candidate id: %s", candidateID), nil)
		}
	}

	if invite := plan.FindInvite(userID); invite != nil && invite.Status == entity.InviteStatusPending {
		invite.Status = entity.InviteStatusAccepted
		invite.RespondedAt = &now
	}

	plan.Votes[userID.String()] = candidateIDs
	plan.SwipesCompleted = plan.SwipesCompleted.Add(userID.String())

	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to save votes", err)
	}

	name := s.names.DisplayName(ctx, userID)
	s.notif.NotifyMany(ctx, plan.ActiveParticipantIDs(userID), constants.NotificationTypeSwipeProgress,
		"Swipe update",
		fmt.Sprintf("%s finished choosing for %s", name, plan.Title),
		map[string]any{"plan_id": plan.ID, "user_id": userID.String()})

	if appErr := s.finalizeIfComplete(ctx, planID, &userID); appErr != nil {
		return nil, appErr
	}
	return s.loadPlan(ctx, planID)
}

// Leave removes a participant from the plan and purges their votes. The owner
// must cancel or delegate instead. Losing the last accepted invitee cancels the
// plan.
func (s *PlanService) Leave(ctx context.Context, planID string, userID uuid.UUID) *errors.AppError {
	release, err := s.locker.Acquire(ctx, planID)
	if err != nil {
		return errors.NewAppError(errors.ErrConflict, "Plan is busy, try again", err)
	}
	defer release()

	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return appErr
	}
	if plan.Terminal() {
		return errors.NewAppError(errors.ErrInvalidTransition,
			fmt.Sprintf("plan is %s; membership can no longer change", plan.Status), nil)
	}
	if plan.OwnerID == userID {
		return errors.NewAppError(errors.ErrOwnerCannotLeave, "The owner cannot leave; cancel the plan or delegate ownership", nil)
	}

	invite := plan.FindInvite(userID)
	if invite == nil {
		return errors.NewAppError(errors.ErrNotAParticipant, "You are not a participant of this plan", nil)
	}
	wasAccepted := invite.Status == entity.InviteStatusAccepted

	plan.RemoveInvite(userID)
	delete(plan.Votes, userID.String())
	plan.SwipesCompleted = plan.SwipesCompleted.Remove(userID.String())

	autoCancel := wasAccepted && len(plan.AcceptedInviteeIDs()) == 0
	if autoCancel && plan.CanTransition(entity.PlanStatusCancelled) {
		now := s.clock.Now()
		plan.Status = entity.PlanStatusCancelled
		plan.CancelledAt = &now
	}

	if err := s.repo.Save(ctx, plan); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to leave plan", err)
	}

	name := s.names.DisplayName(ctx, userID)
	if autoCancel {
		s.notif.Notify(ctx, plan.OwnerID, constants.NotificationTypeCancelled,
			"Plan cancelled",
			fmt.Sprintf("%s was cancelled because no accepted participants remain", plan.Title),
			map[string]any{"plan_id": plan.ID})
	} else {
		s.notif.NotifyMany(ctx, plan.ActiveParticipantIDs(), constants.NotificationTypeLeft,
			"Participant left",
			fmt.Sprintf("%s left %s", name, plan.Title),
			map[string]any{"plan_id": plan.ID, "user_id": userID.String()})
	}

	return nil
}

// Delegate transfers ownership to an accepted invitee. The new owner stops being
// an invite; the old owner is assumed to have left and their votes are purged.
func (s *PlanService) Delegate(ctx context.Context, planID string, ownerID, newOwnerID uuid.UUID) (*entity.Plan, *errors.AppError) {
	release, err := s.locker.Acquire(ctx, planID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrConflict, "Plan is busy, try again", err)
	}
	defer release()

	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return nil, appErr
	}
	if plan.OwnerID != ownerID {
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the current owner can delegate ownership", nil)
	}
	if plan.Terminal() {
		return nil, errors.NewAppError(errors.ErrInvalidTransition,
			fmt.Sprintf("plan is %s; ownership can no longer change", plan.Status), nil)
	}

	invite := plan.FindInvite(newOwnerID)
	if invite == nil || invite.Status != entity.InviteStatusAccepted {
		return nil, errors.NewAppError(errors.ErrNotEligible, "The new owner must be an invitee who has accepted", nil)
	}

	// Policy threshold: delegation on tiny plans would strand the next owner.
	if 1+len(plan.Invites) < s.planCfg.MinParticipants {
		return nil, errors.NewAppError(errors.ErrTooFewParticipants,
			fmt.Sprintf("delegation requires at least %d participants", s.planCfg.MinParticipants), nil)
	}

	oldOwnerID := plan.OwnerID
	plan.OwnerID = newOwnerID
	plan.RemoveInvite(newOwnerID)
	delete(plan.Votes, oldOwnerID.String())
	plan.SwipesCompleted = plan.SwipesCompleted.Remove(oldOwnerID.String())

	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to delegate ownership", err)
	}

	newOwnerName := s.names.DisplayName(ctx, newOwnerID)
	s.notif.Notify(ctx, newOwnerID, constants.NotificationTypeOwnership,
		"You are the new organizer",
		fmt.Sprintf("You now organize %s", plan.Title),
		map[string]any{"plan_id": plan.ID})

	inviteeIDs := make([]uuid.UUID, 0, len(plan.Invites))
	for _, inv := range plan.Invites {
		inviteeIDs = append(inviteeIDs, inv.UserID)
	}
	s.notif.NotifyMany(ctx, inviteeIDs, constants.NotificationTypeOwnership,
		"New organizer",
		fmt.Sprintf("%s now organizes %s", newOwnerName, plan.Title),
		map[string]any{"plan_id": plan.ID, "new_owner_id": newOwnerID.String()})

	return plan, nil
}

// finalizeIfComplete re-reads the plan after a durable write and, when every
// required participant has finished voting, runs the tally and confirms. Callers
// hold the plan lock, so the transition fires exactly once even when the last
// two submissions land near-simultaneously.
func (s *PlanService) finalizeIfComplete(ctx context.Context, planID string, exclude *uuid.UUID) *errors.AppError {
	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return appErr
	}
	if plan.Status != entity.PlanStatusVoting || !plan.AllSwipesDone() {
		return nil
	}

	winner := TallyWinner(plan.Candidates, plan.Votes)
	if winner == nil {
		// No candidates to resolve; the plan stays open.
		return nil
	}

	plan.ResolvedRestaurant = entity.NullableCandidate{Candidate: winner}
	plan.Status = entity.PlanStatusConfirmed
	if err := s.repo.Save(ctx, plan); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to confirm plan", err)
	}

	recipients := plan.ActiveParticipantIDs()
	if exclude != nil {
		recipients = plan.ActiveParticipantIDs(*exclude)
	}
	s.notif.NotifyMany(ctx, recipients, constants.NotificationTypeResult,
		"Restaurant chosen",
		fmt.Sprintf("%s is confirmed: %s", plan.Title, winner.Name),
		map[string]any{"plan_id": plan.ID, "candidate_id": winner.ID})

	return nil
}
