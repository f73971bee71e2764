package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tablepick/core/database"
	"tablepick/core/logger"
	"tablepick/modules/plan/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PlanRepository struct {
	db database.IDatabase
}

func NewPlanRepository(db database.IDatabase) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `
	id, kind, status, owner_id, title, share_slug, event_date, event_time,
	rsvp_deadline, voting_opened_at, candidates, votes, swipes_completed,
	resolved_restaurant, cancelled_at, version, created_at, updated_at
`

// Create inserts the plan and its invites in one transaction.
func (r *PlanRepository) Create(ctx context.Context, plan *entity.Plan) error {
	tx, err := r.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("PlanRepository:Create:Begin:Error:", err)
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	plan.Version = 1
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans (id, kind, status, owner_id, title, share_slug, event_date, event_time,
			rsvp_deadline, voting_opened_at, candidates, votes, swipes_completed,
			resolved_restaurant, cancelled_at, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`,
		plan.ID, plan.Kind, plan.Status, plan.OwnerID, plan.Title, plan.ShareSlug,
		plan.Date, plan.Time, plan.RSVPDeadline, plan.VotingOpenedAt,
		plan.Candidates, plan.Votes, plan.SwipesCompleted, plan.ResolvedRestaurant,
		plan.CancelledAt, plan.Version, plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		logger.Error("PlanRepository:Create:Plan:Error:", err)
		return err
	}

	for i := range plan.Invites {
		inv := &plan.Invites[i]
		inv.CreatedAt = now
		inv.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_invites (id, plan_id, user_id, status, responded_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, inv.ID, inv.PlanID, inv.UserID, inv.Status, inv.RespondedAt, inv.CreatedAt, inv.UpdatedAt)
		if err != nil {
			logger.Error("PlanRepository:Create:Invite:Error:", err)
			return err
		}
	}

	return tx.Commit()
}

// GetByID loads the aggregate. Returns (nil, nil) when the plan does not exist.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*entity.Plan, error) {
	var plan entity.Plan
	err := r.db.GetContext(ctx, &plan,
		fmt.Sprintf(`SELECT %s FROM plans WHERE id = $1`, planColumns), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		logger.Error("PlanRepository:GetByID:Error:", err)
		return nil, err
	}

	if err := r.loadInvites(ctx, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Save persists the aggregate with an optimistic version guard; the guard backs
// up the per-plan lock rather than replacing it.
func (r *PlanRepository) Save(ctx context.Context, plan *entity.Plan) error {
	tx, err := r.db.SQLx().BeginTxx(ctx, nil)
	if err != nil {
		logger.Error("PlanRepository:Save:Begin:Error:", err)
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	res, err := tx.ExecContext(ctx, `
		UPDATE plans SET
			status = $1, owner_id = $2, rsvp_deadline = $3, voting_opened_at = $4,
			votes = $5, swipes_completed = $6, resolved_restaurant = $7,
			cancelled_at = $8, version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11
	`,
		plan.Status, plan.OwnerID, plan.RSVPDeadline, plan.VotingOpenedAt,
		plan.Votes, plan.SwipesCompleted, plan.ResolvedRestaurant,
		plan.CancelledAt, now, plan.ID, plan.Version,
	)
	if err != nil {
		logger.Error("PlanRepository:Save:Plan:Error:", err)
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("plan %s was modified concurrently", plan.ID)
	}
	plan.Version++
	plan.UpdatedAt = now

	// Reconcile invites: drop removed rows, upsert the rest.
	keep := make([]string, 0, len(plan.Invites))
	for _, inv := range plan.Invites {
		keep = append(keep, inv.UserID.String())
	}
	if len(keep) == 0 {
		_, err = tx.ExecContext(ctx, `DELETE FROM plan_invites WHERE plan_id = $1`, plan.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM plan_invites WHERE plan_id = $1 AND NOT (user_id = ANY($2))`,
			plan.ID, pq.Array(keep))
	}
	if err != nil {
		logger.Error("PlanRepository:Save:DeleteInvites:Error:", err)
		return err
	}

	for i := range plan.Invites {
		inv := &plan.Invites[i]
		if inv.CreatedAt.IsZero() {
			inv.CreatedAt = now
		}
		inv.UpdatedAt = now
		_, err = tx.ExecContext(ctx, `
			INSERT INTO plan_invites (id, plan_id, user_id, status, responded_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (plan_id, user_id) DO UPDATE
			SET status = EXCLUDED.status, responded_at = EXCLUDED.responded_at, updated_at = EXCLUDED.updated_at
		`, inv.ID, inv.PlanID, inv.UserID, inv.Status, inv.RespondedAt, inv.CreatedAt, inv.UpdatedAt)
		if err != nil {
			logger.Error("PlanRepository:Save:UpsertInvite:Error:", err)
			return err
		}
	}

	return tx.Commit()
}

// ListByUser returns plans the user owns or is invited to.
func (r *PlanRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Plan, error) {
	var plans []entity.Plan
	err := r.db.SelectContext(ctx, &plans, fmt.Sprintf(`
		SELECT %s FROM plans
		WHERE owner_id = $1
		   OR id IN (SELECT plan_id FROM plan_invites WHERE user_id = $1)
		ORDER BY created_at DESC
	`, planColumns), userID)
	if err != nil {
		logger.Error("PlanRepository:ListByUser:Error:", err)
		return nil, err
	}

	for i := range plans {
		if err := r.loadInvites(ctx, &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// FindScheduledVoting returns the sweep's working set.
func (r *PlanRepository) FindScheduledVoting(ctx context.Context) ([]entity.Plan, error) {
	var plans []entity.Plan
	err := r.db.SelectContext(ctx, &plans, fmt.Sprintf(`
		SELECT %s FROM plans
		WHERE kind = $1 AND status = $2
		ORDER BY created_at
	`, planColumns), entity.PlanKindScheduled, entity.PlanStatusVoting)
	if err != nil {
		logger.Error("PlanRepository:FindScheduledVoting:Error:", err)
		return nil, err
	}

	for i := range plans {
		if err := r.loadInvites(ctx, &plans[i]); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

func (r *PlanRepository) loadInvites(ctx context.Context, plan *entity.Plan) error {
	err := r.db.SelectContext(ctx, &plan.Invites, `
		SELECT id, plan_id, user_id, status, responded_at, created_at, updated_at
		FROM plan_invites
		WHERE plan_id = $1
		ORDER BY created_at, id
	`, plan.ID)
	if err != nil {
		logger.Error("PlanRepository:loadInvites:Error:", err)
		return err
	}
	return nil
}
