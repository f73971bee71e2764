package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"tablepick/core/config"
	"tablepick/modules/plan/dto"
	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memoryRepo is an in-memory PlanRepository. It clones on every read and write
// so service-side mutations only become visible through Save, and it enforces
// the same version guard as the SQL implementation.
type memoryRepo struct {
	mu      sync.Mutex
	plans   map[string]*entity.Plan
	saveErr map[string]error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		plans:   map[string]*entity.Plan{},
		saveErr: map[string]error{},
	}
}

func clonePlan(p *entity.Plan) *entity.Plan {
	cp := *p
	cp.Candidates = append(entity.CandidateList(nil), p.Candidates...)
	cp.SwipesCompleted = append(entity.IDSet(nil), p.SwipesCompleted...)
	cp.Votes = entity.VoteMap{}
	for k, v := range p.Votes {
		cp.Votes[k] = append([]string(nil), v...)
	}
	if p.ResolvedRestaurant.Candidate != nil {
		c := *p.ResolvedRestaurant.Candidate
		cp.ResolvedRestaurant = entity.NullableCandidate{Candidate: &c}
	}
	cp.Invites = append([]entity.Invite(nil), p.Invites...)
	return &cp
}

func (r *memoryRepo) Create(_ context.Context, plan *entity.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.Version == 0 {
		plan.Version = 1
	}
	r.plans[plan.ID] = clonePlan(plan)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*entity.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, nil
	}
	return clonePlan(p), nil
}

func (r *memoryRepo) Save(_ context.Context, plan *entity.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.saveErr[plan.ID]; err != nil {
		return err
	}
	stored, ok := r.plans[plan.ID]
	if !ok || stored.Version != plan.Version {
		return fmt.Errorf("plan %s was modified concurrently", plan.ID)
	}
	next := clonePlan(plan)
	next.Version++
	r.plans[plan.ID] = next
	plan.Version = next.Version
	return nil
}

func (r *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]entity.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.Plan{}
	for _, p := range r.plans {
		if p.OwnerID == userID || p.FindInvite(userID) != nil {
			out = append(out, *clonePlan(p))
		}
	}
	return out, nil
}

func (r *memoryRepo) FindScheduledVoting(_ context.Context) ([]entity.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []entity.Plan{}
	for _, p := range r.plans {
		if p.Kind == entity.PlanKindScheduled && p.Status == entity.PlanStatusVoting {
			out = append(out, *clonePlan(p))
		}
	}
	return out, nil
}

type sentNotification struct {
	UserID uuid.UUID
	Kind   string
}

// recorderNotifier captures every dispatched notification, plus one batch entry
// per NotifyMany call so fan-out counts can be asserted.
type recorderNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	batches []string
}

func (n *recorderNotifier) Notify(_ context.Context, userID uuid.UUID, kind, _, _ string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind})
}

func (n *recorderNotifier) NotifyMany(_ context.Context, userIDs []uuid.UUID, kind, _, _ string, _ map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, kind)
	for _, id := range userIDs {
		n.sent = append(n.sent, sentNotification{UserID: id, Kind: kind})
	}
}

func (n *recorderNotifier) countKind(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, s := range n.sent {
		if s.Kind == kind {
			count++
		}
	}
	return count
}

func (n *recorderNotifier) countBatches(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, b := range n.batches {
		if b == kind {
			count++
		}
	}
	return count
}

func (n *recorderNotifier) received(userID uuid.UUID, kind string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, s := range n.sent {
		if s.UserID == userID && s.Kind == kind {
			return true
		}
	}
	return false
}

func (n *recorderNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
	n.batches = nil
}

type staticNames struct{}

func (staticNames) DisplayName(_ context.Context, userID uuid.UUID) string {
	return "user-" + userID.String()[:8]
}

// memoryLocker serializes per-plan operations with an in-process mutex.
type memoryLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{locks: map[string]*sync.Mutex{}}
}

func (l *memoryLocker) Acquire(_ context.Context, planID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[planID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[planID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock, nil
}

type stubPhotos struct{}

func (stubPhotos) PresignPhotoUpload(_ context.Context, planID, candidateID string) (string, error) {
	return fmt.Sprintf("https://photos.test/%s/%s", planID, candidateID), nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type fixture struct {
	svc   *PlanService
	repo  *memoryRepo
	notif *recorderNotifier
	clock *fakeClock
}

func newFixture(now time.Time) *fixture {
	repo := newMemoryRepo()
	notif := &recorderNotifier{}
	clock := &fakeClock{t: now}
	svc := NewPlanService(repo, notif, staticNames{}, newMemoryLocker(), clock, stubPhotos{},
		config.PlanConfig{MinParticipants: 3, SweepInterval: time.Minute})
	return &fixture{svc: svc, repo: repo, notif: notif, clock: clock}
}

func (f *fixture) createGroupSwipe(t *testing.T, owner uuid.UUID, invitees ...uuid.UUID) *entity.Plan {
	t.Helper()
	req := &dto.CreatePlanRequest{
		Kind:  string(entity.PlanKindGroupSwipe),
		Title: "Friday dinner",
		Candidates: []dto.CandidateInput{
			{Name: "Sushi Ichiban", Rating: 4.6},
			{Name: "Trattoria Nonna", Rating: 4.2},
			{Name: "Taqueria El Sol", Rating: 4.2},
		},
	}
	for _, id := range invitees {
		req.InviteeIDs = append(req.InviteeIDs, id.String())
	}
	plan, appErr := f.svc.Create(context.Background(), owner, req)
	require.Nil(t, appErr)
	f.notif.reset()
	return plan
}

func (f *fixture) createScheduled(t *testing.T, owner uuid.UUID, date, eventTime string, deadline time.Time, invitees ...uuid.UUID) *entity.Plan {
	t.Helper()
	req := &dto.CreatePlanRequest{
		Kind:         string(entity.PlanKindScheduled),
		Title:        "Team lunch",
		Date:         date,
		Time:         eventTime,
		RSVPDeadline: &deadline,
		Candidates: []dto.CandidateInput{
			{Name: "Pho Corner", Rating: 4.4},
			{Name: "Burger Union", Rating: 4.0},
		},
	}
	for _, id := range invitees {
		req.InviteeIDs = append(req.InviteeIDs, id.String())
	}
	plan, appErr := f.svc.Create(context.Background(), owner, req)
	require.Nil(t, appErr)
	f.notif.reset()
	return plan
}

// accept marks an invite accepted directly in the store, bypassing RSVP rules.
func (f *fixture) accept(t *testing.T, planID string, userID uuid.UUID) {
	t.Helper()
	plan, err := f.repo.GetByID(context.Background(), planID)
	require.NoError(t, err)
	require.NotNil(t, plan)
	inv := plan.FindInvite(userID)
	require.NotNil(t, inv)
	now := f.clock.Now()
	inv.Status = entity.InviteStatusAccepted
	inv.RespondedAt = &now
	require.NoError(t, f.repo.Save(context.Background(), plan))
}

func (f *fixture) reload(t *testing.T, planID string) *entity.Plan {
	t.Helper()
	plan, err := f.repo.GetByID(context.Background(), planID)
	require.NoError(t, err)
	require.NotNil(t, plan)
	return plan
}
