package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tablepick/core/config"
	"tablepick/core/constants"
	"tablepick/core/errors"
	"tablepick/core/lock"
	"tablepick/core/logger"
	"tablepick/core/storage"
	"tablepick/core/utils"
	"tablepick/modules/plan/dto"
	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// PlanRepository is the persistence boundary for the plan aggregate.
type PlanRepository interface {
	Create(ctx context.Context, plan *entity.Plan) error
	// GetByID returns (nil, nil) when the plan does not exist.
	GetByID(ctx context.Context, id string) (*entity.Plan, error)
	// Save persists the whole aggregate, including invite reconciliation.
	Save(ctx context.Context, plan *entity.Plan) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Plan, error)
	// FindScheduledVoting returns scheduled plans still in voting, for the sweep.
	FindScheduledVoting(ctx context.Context) ([]entity.Plan, error)
}

// Notifier dispatches notifications. Implementations must never fail the caller:
// delivery problems are logged inside the implementation and swallowed.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, kind, title, message string, data map[string]any)
	NotifyMany(ctx context.Context, userIDs []uuid.UUID, kind, title, message string, data map[string]any)
}

// NameResolver formats user display names for notification bodies. A lookup
// failure returns a generic label rather than blocking the transition.
type NameResolver interface {
	DisplayName(ctx context.Context, userID uuid.UUID) string
}

type PlanService struct {
	repo    PlanRepository
	notif   Notifier
	names   NameResolver
	locker  lock.PlanLocker
	clock   Clock
	photos  storage.PhotoStorage
	planCfg config.PlanConfig
	loc     *time.Location
}

type PlanServiceInterface interface {
	Create(ctx context.Context, ownerID uuid.UUID, req *dto.CreatePlanRequest) (*entity.Plan, *errors.AppError)
	GetByID(ctx context.Context, planID string, callerID uuid.UUID) (*entity.Plan, *errors.AppError)
	ListMine(ctx context.Context, userID uuid.UUID) ([]entity.Plan, *errors.AppError)
	Confirm(ctx context.Context, planID string, ownerID uuid.UUID, overrideCandidateID string) (*entity.Plan, *errors.AppError)
	Complete(ctx context.Context, planID string, ownerID uuid.UUID) (*entity.Plan, *errors.AppError)
	Cancel(ctx context.Context, planID string, ownerID uuid.UUID) (*entity.Plan, *errors.AppError)
	RSVP(ctx context.Context, planID string, userID uuid.UUID, action string) (*entity.Plan, *errors.AppError)
	Swipe(ctx context.Context, planID string, userID uuid.UUID, candidateIDs []string) (*entity.Plan, *errors.AppError)
	Leave(ctx context.Context, planID string, userID uuid.UUID) *errors.AppError
	Delegate(ctx context.Context, planID string, ownerID, newOwnerID uuid.UUID) (*entity.Plan, *errors.AppError)
	SweepDeadlines(ctx context.Context, asOf time.Time) error
	PhotoUploadURL(ctx context.Context, planID string, ownerID uuid.UUID, candidateID string) (string, *errors.AppError)
}

func NewPlanService(repo PlanRepository, notif Notifier, names NameResolver, locker lock.PlanLocker, clock Clock, photos storage.PhotoStorage, planCfg config.PlanConfig) *PlanService {
	return &PlanService{
		repo:    repo,
		notif:   notif,
		names:   names,
		locker:  locker,
		clock:   clock,
		photos:  photos,
		planCfg: planCfg,
		loc:     time.Local,
	}
}

var _ PlanServiceInterface = (*PlanService)(nil)

// Create builds a new plan with its candidate pool and invite list.
func (s *PlanService) Create(ctx context.Context, ownerID uuid.UUID, req *dto.CreatePlanRequest) (*entity.Plan, *errors.AppError) {
	kind := entity.PlanKind(req.Kind)
	if kind != entity.PlanKindScheduled && kind != entity.PlanKindGroupSwipe {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "kind must be scheduled or group_swipe", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "title is required", nil)
	}
	if len(req.Candidates) == 0 {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "at least one restaurant candidate is required", nil)
	}
	if kind == entity.PlanKindScheduled {
		if req.Date == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "scheduled plans require a date", nil)
		}
		if req.RSVPDeadline == nil {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "scheduled plans require an RSVP deadline", nil)
		}
	}

	candidates := make(entity.CandidateList, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		if strings.TrimSpace(c.Name) == "" {
			return nil, errors.NewAppError(errors.ErrInvalidInput, "candidate name is required", nil)
		}
		candidates = append(candidates, entity.Candidate{
			ID:      utils.GenerateID(),
			Name:    c.Name,
			Address: c.Address,
			Rating:  c.Rating,
		})
	}

	now := s.clock.Now()
	plan := &entity.Plan{
		ID:              utils.GenerateID(),
		Kind:            kind,
		Status:          entity.PlanStatusVoting,
		OwnerID:         ownerID,
		Title:           req.Title,
		ShareSlug:       fmt.Sprintf("%s-%s", slug.Make(req.Title), utils.GenerateID()),
		Date:            req.Date,
		Time:            req.Time,
		Candidates:      candidates,
		Votes:           entity.VoteMap{},
		SwipesCompleted: entity.IDSet{},
	}
	if kind == entity.PlanKindScheduled {
		plan.RSVPDeadline = req.RSVPDeadline
	}
	plan.CreatedAt = now
	plan.UpdatedAt = now

	seen := map[uuid.UUID]bool{ownerID: true}
	for _, idStr := range req.InviteeIDs {
		userID, err := uuid.Parse(idStr)
		if err != nil || seen[userID] {
			continue
		}
		seen[userID] = true
		plan.Invites = append(plan.Invites, entity.Invite{
			ID:     utils.GenerateID(),
			PlanID: plan.ID,
			UserID: userID,
			Status: entity.InviteStatusPending,
		})
	}

	if err := s.repo.Create(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create plan", err)
	}

	ownerName := s.names.DisplayName(ctx, ownerID)
	for _, inv := range plan.Invites {
		s.notif.Notify(ctx, inv.UserID, constants.NotificationTypeInvite,
			"New dining plan",
			fmt.Sprintf("%s invited you to %s", ownerName, plan.Title),
			map[string]any{"plan_id": plan.ID})
	}

	return plan, nil
}

// GetByID returns the plan after applying any overdue time-driven transitions
// (check-on-access), so staleness is bounded by access rather than sweep cadence.
func (s *PlanService) GetByID(ctx context.Context, planID string, callerID uuid.UUID) (*entity.Plan, *errors.AppError) {
	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return nil, appErr
	}
	if !plan.HasStanding(callerID) {
		return nil, errors.NewAppError(errors.ErrNotAParticipant, "You are not a participant of this plan", nil)
	}

	if plan.Kind == entity.PlanKindScheduled && plan.Status == entity.PlanStatusVoting {
		if err := s.sweepPlan(ctx, planID, s.clock.Now()); err != nil {
			// The read still succeeds on stale state; the periodic sweep will catch up.
			logger.Warn("PlanService:GetByID:CheckOnAccess:Error", "plan_id", planID, "error", err)
		} else {
			return s.loadPlan(ctx, planID)
		}
	}
	return plan, nil
}

func (s *PlanService) ListMine(ctx context.Context, userID uuid.UUID) ([]entity.Plan, *errors.AppError) {
	plans, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list plans", err)
	}
	return plans, nil
}

// Confirm is the owner-triggered voting→confirmed transition. When no winner is
// resolved yet the tally runs over the current votes; the owner may instead
// override with an explicit candidate id before confirmation.
func (s *PlanService) Confirm(ctx context.Context, planID string, ownerID uuid.UUID, overrideCandidateID string) (*entity.Plan, *errors.AppError) {
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
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the owner can confirm the plan", nil)
	}
	if !plan.CanTransition(entity.PlanStatusConfirmed) {
		return nil, invalidTransition(plan.Status, entity.PlanStatusConfirmed)
	}

	if overrideCandidateID != "" {
		winner := findCandidate(plan.Candidates, overrideCandidateID)
		if winner == nil {
			return nil, errors.NewAppError(errors.ErrInvalidCandidate, "Override candidate is not part of this plan", nil)
		}
		plan.ResolvedRestaurant = entity.NullableCandidate{Candidate: winner}
	} else if plan.ResolvedRestaurant.Candidate == nil {
		winner := TallyWinner(plan.Candidates, plan.Votes)
		if winner == nil {
			return nil, errors.NewAppError(errors.ErrConflict, "No winner could be determined; the plan has no candidates", nil)
		}
		plan.ResolvedRestaurant = entity.NullableCandidate{Candidate: winner}
	}

	plan.Status = entity.PlanStatusConfirmed
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to confirm plan", err)
	}

	s.notif.NotifyMany(ctx, plan.AcceptedInviteeIDs(), constants.NotificationTypeResult,
		"Restaurant chosen",
		fmt.Sprintf("%s is confirmed: %s", plan.Title, plan.ResolvedRestaurant.Candidate.Name),
		map[string]any{"plan_id": plan.ID, "candidate_id": plan.ResolvedRestaurant.Candidate.ID})

	return plan, nil
}

// Complete is the owner-triggered confirmed→completed transition. There is no
// automatic trigger; detecting that the meal actually happened is out of scope.
func (s *PlanService) Complete(ctx context.Context, planID string, ownerID uuid.UUID) (*entity.Plan, *errors.AppError) {
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
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the owner can complete the plan", nil)
	}
	if !plan.CanTransition(entity.PlanStatusCompleted) {
		return nil, invalidTransition(plan.Status, entity.PlanStatusCompleted)
	}

	plan.Status = entity.PlanStatusCompleted
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to complete plan", err)
	}
	return plan, nil
}

// Cancel is the owner-triggered cancellation from voting or confirmed.
func (s *PlanService) Cancel(ctx context.Context, planID string, ownerID uuid.UUID) (*entity.Plan, *errors.AppError) {
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
		return nil, errors.NewAppError(errors.ErrForbidden, "Only the owner can cancel the plan", nil)
	}
	if !plan.CanTransition(entity.PlanStatusCancelled) {
		return nil, invalidTransition(plan.Status, entity.PlanStatusCancelled)
	}

	now := s.clock.Now()
	plan.Status = entity.PlanStatusCancelled
	plan.CancelledAt = &now
	if err := s.repo.Save(ctx, plan); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to cancel plan", err)
	}

	inviteeIDs := make([]uuid.UUID, 0, len(plan.Invites))
	for _, inv := range plan.Invites {
		inviteeIDs = append(inviteeIDs, inv.UserID)
	}
	s.notif.NotifyMany(ctx, inviteeIDs, constants.NotificationTypeCancelled,
		"Plan cancelled",
		fmt.Sprintf("%s has been cancelled", plan.Title),
		map[string]any{"plan_id": plan.ID})

	return plan, nil
}

// PhotoUploadURL issues a presigned upload URL for a candidate's photo.
func (s *PlanService) PhotoUploadURL(ctx context.Context, planID string, ownerID uuid.UUID, candidateID string) (string, *errors.AppError) {
	plan, appErr := s.loadPlan(ctx, planID)
	if appErr != nil {
		return "", appErr
	}
	if plan.OwnerID != ownerID {
		return "", errors.NewAppError(errors.ErrForbidden, "Only the owner can upload candidate photos", nil)
	}
	if !plan.Candidates.Contains(candidateID) {
		return "", errors.NewAppError(errors.ErrInvalidCandidate, "Candidate is not part of this plan", nil)
	}
	url, err := s.photos.PresignPhotoUpload(ctx, planID, candidateID)
	if err != nil {
		return "", errors.NewAppError(errors.ErrInternalServer, "Failed to create upload URL", err)
	}
	return url, nil
}

// loadPlan fetches the aggregate or maps a miss to NOT_FOUND.
func (s *PlanService) loadPlan(ctx context.Context, planID string) (*entity.Plan, *errors.AppError) {
	plan, err := s.repo.GetByID(ctx, planID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to load plan", err)
	}
	if plan == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Plan not found", nil)
	}
	return plan, nil
}

func invalidTransition(from, to entity.PlanStatus) *errors.AppError {
	return errors.NewAppError(errors.ErrInvalidTransition,
		fmt.Sprintf("cannot transition plan from %s to %s", from, to), nil)
}

func findCandidate(candidates entity.CandidateList, id string) *entity.Candidate {
	for _, c := range candidates {
		if c.ID == id {
			found := c
			return &found
		}
	}
	return nil
}
