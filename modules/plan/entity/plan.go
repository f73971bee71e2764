package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	coreEntity "tablepick/core/entity"

	"github.com/google/uuid"
)

type PlanKind string

const (
	PlanKindScheduled  PlanKind = "scheduled"
	PlanKindGroupSwipe PlanKind = "group_swipe"
)

type PlanStatus string

const (
	PlanStatusVoting    PlanStatus = "voting"
	PlanStatusConfirmed PlanStatus = "confirmed"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// Candidate is a restaurant option in a plan's voting pool. The candidate set is
// fixed at plan creation and never changes afterward.
type Candidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Address  string  `json:"address,omitempty"`
	Rating   float64 `json:"rating"`
	PhotoURL string  `json:"photo_url,omitempty"`
}

// CandidateList is a JSONB column holding the ordered candidate pool.
type CandidateList []Candidate

func (l CandidateList) Value() (driver.Value, error) {
	if l == nil {
		l = CandidateList{}
	}
	return json.Marshal(l)
}

func (l *CandidateList) Scan(value any) error {
	if value == nil {
		*l = CandidateList{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, l)
}

func (l CandidateList) Contains(candidateID string) bool {
	for _, c := range l {
		if c.ID == candidateID {
			return true
		}
	}
	return false
}

// VoteMap is a JSONB column mapping participant id to the set of liked candidate ids.
type VoteMap map[string][]string

func (m VoteMap) Value() (driver.Value, error) {
	if m == nil {
		m = VoteMap{}
	}
	return json.Marshal(m)
}

func (m *VoteMap) Scan(value any) error {
	if value == nil {
		*m = VoteMap{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}

// IDSet is a JSONB column holding a set of participant ids.
type IDSet []string

func (s IDSet) Value() (driver.Value, error) {
	if s == nil {
		s = IDSet{}
	}
	return json.Marshal(s)
}

func (s *IDSet) Scan(value any) error {
	if value == nil {
		*s = IDSet{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}

func (s IDSet) Contains(id string) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

func (s IDSet) Add(id string) IDSet {
	if s.Contains(id) {
		return s
	}
	return append(s, id)
}

func (s IDSet) Remove(id string) IDSet {
	out := s[:0]
	for _, v := range s {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// NullableCandidate is a JSONB candidate column that may be NULL.
type NullableCandidate struct {
	Candidate *Candidate
}

func (n NullableCandidate) Value() (driver.Value, error) {
	if n.Candidate == nil {
		return nil, nil
	}
	return json.Marshal(n.Candidate)
}

func (n *NullableCandidate) Scan(value any) error {
	if value == nil {
		n.Candidate = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	c := &Candidate{}
	if err := json.Unmarshal(b, c); err != nil {
		return err
	}
	n.Candidate = c
	return nil
}

func (n NullableCandidate) MarshalJSON() ([]byte, error) {
	if n.Candidate == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.Candidate)
}

func (n *NullableCandidate) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		n.Candidate = nil
		return nil
	}
	c := &Candidate{}
	if err := json.Unmarshal(b, c); err != nil {
		return err
	}
	n.Candidate = c
	return nil
}

// Plan is the shared dining-decision aggregate. Invites are loaded alongside the
// row; votes, candidates and the resolved winner live in JSONB columns.
type Plan struct {
	ID                 string            `db:"id" json:"id"`
	Kind               PlanKind          `db:"kind" json:"kind"`
	Status             PlanStatus        `db:"status" json:"status"`
	OwnerID            uuid.UUID         `db:"owner_id" json:"owner_id"`
	Title              string            `db:"title" json:"title"`
	ShareSlug          string            `db:"share_slug" json:"share_slug"`
	Date               string            `db:"event_date" json:"date,omitempty"`
	Time               string            `db:"event_time" json:"time,omitempty"`
	RSVPDeadline       *time.Time        `db:"rsvp_deadline" json:"rsvp_deadline,omitempty"`
	VotingOpenedAt     *time.Time        `db:"voting_opened_at" json:"voting_opened_at,omitempty"`
	Candidates         CandidateList     `db:"candidates" json:"candidates"`
	Votes              VoteMap           `db:"votes" json:"votes"`
	SwipesCompleted    IDSet             `db:"swipes_completed" json:"swipes_completed"`
	ResolvedRestaurant NullableCandidate `db:"resolved_restaurant" json:"resolved_restaurant"`
	CancelledAt        *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
	Version            int               `db:"version" json:"-"`
	coreEntity.BaseEntity

	Invites []Invite `db:"-" json:"invites"`
}

// Terminal reports whether the plan has reached a final status.
func (p *Plan) Terminal() bool {
	return p.Status == PlanStatusCompleted || p.Status == PlanStatusCancelled
}

// CanTransition encodes the legal status transitions.
func (p *Plan) CanTransition(to PlanStatus) bool {
	switch p.Status {
	case PlanStatusVoting:
		return to == PlanStatusConfirmed || to == PlanStatusCancelled
	case PlanStatusConfirmed:
		return to == PlanStatusCompleted || to == PlanStatusCancelled
	default:
		return false
	}
}

// FindInvite returns the invite for the given user, or nil.
func (p *Plan) FindInvite(userID uuid.UUID) *Invite {
	for i := range p.Invites {
		if p.Invites[i].UserID == userID {
			return &p.Invites[i]
		}
	}
	return nil
}

// RemoveInvite drops the user's invite from the aggregate.
func (p *Plan) RemoveInvite(userID uuid.UUID) {
	out := p.Invites[:0]
	for _, inv := range p.Invites {
		if inv.UserID != userID {
			out = append(out, inv)
		}
	}
	p.Invites = out
}

// RequiredParticipants is the quorum set: the owner plus every invitee who has
// not declined. It is recomputed from current state on every call, never
// snapshotted.
func (p *Plan) RequiredParticipants() []Participant {
	out := []Participant{{UserID: p.OwnerID, Role: RoleOwner}}
	for _, inv := range p.Invites {
		if inv.Status != InviteStatusDeclined {
			out = append(out, Participant{UserID: inv.UserID, Role: RoleInvitee})
		}
	}
	return out
}

// AllSwipesDone reports whether every required participant has finished voting.
func (p *Plan) AllSwipesDone() bool {
	for _, part := range p.RequiredParticipants() {
		if !p.SwipesCompleted.Contains(part.UserID.String()) {
			return false
		}
	}
	return true
}

// AllResponded reports whether no invite is still pending.
func (p *Plan) AllResponded() bool {
	for _, inv := range p.Invites {
		if inv.Status == InviteStatusPending {
			return false
		}
	}
	return true
}

// AcceptedInviteeIDs returns the user ids of invitees who accepted.
func (p *Plan) AcceptedInviteeIDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(p.Invites))
	for _, inv := range p.Invites {
		if inv.Status == InviteStatusAccepted {
			out = append(out, inv.UserID)
		}
	}
	return out
}

// ActiveParticipantIDs returns the owner plus non-declined invitees, minus the
// excluded ids. Used for "everyone else" notification fan-out.
func (p *Plan) ActiveParticipantIDs(exclude ...uuid.UUID) []uuid.UUID {
	skip := make(map[uuid.UUID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := make([]uuid.UUID, 0, len(p.Invites)+1)
	for _, part := range p.RequiredParticipants() {
		if !skip[part.UserID] {
			out = append(out, part.UserID)
		}
	}
	return out
}

// HasStanding reports whether the user is the owner or holds any invite.
func (p *Plan) HasStanding(userID uuid.UUID) bool {
	return p.OwnerID == userID || p.FindInvite(userID) != nil
}

// IsActiveParticipant reports whether the user is the owner or a non-declined invitee.
func (p *Plan) IsActiveParticipant(userID uuid.UUID) bool {
	if p.OwnerID == userID {
		return true
	}
	inv := p.FindInvite(userID)
	return inv != nil && inv.Status != InviteStatusDeclined
}

const (
	dateLayout = "2006-01-02"
	timeLayout = "3:04 PM"
)

// EventInstant computes the scheduled event time from the free-form date and time
// fields. A time string that does not match the 12-hour clock pattern degrades to
// the bare date at local midnight. Returns false when no date is set or the date
// itself does not parse.
func (p *Plan) EventInstant(loc *time.Location) (time.Time, bool) {
	if p.Date == "" {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(dateLayout, p.Date, loc)
	if err != nil {
		return time.Time{}, false
	}
	if p.Time == "" {
		return day, true
	}
	t, err := time.Parse(timeLayout, strings.ToUpper(strings.TrimSpace(p.Time)))
	if err != nil {
		// Unparseable time falls back to midnight of the event date.
		return day, true
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, loc), true
}
