package dto

import "time"

type CandidateInput struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
}

type CreatePlanRequest struct {
	Kind         string           `json:"kind"`
	Title        string           `json:"title"`
	Date         string           `json:"date"`
	Time         string           `json:"time"`
	RSVPDeadline *time.Time       `json:"rsvp_deadline"`
	Candidates   []CandidateInput `json:"candidates"`
	InviteeIDs   []string         `json:"invitee_ids"`
}

type RSVPRequest struct {
	Action string `json:"action"` // accept | decline
}

type SwipeRequest struct {
	CandidateIDs []string `json:"candidate_ids"`
}

type DelegateRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

type ConfirmRequest struct {
	// CandidateID lets the owner override the tally with an explicit winner.
	CandidateID string `json:"candidate_id,omitempty"`
}

type PhotoUploadURLResponse struct {
	UploadURL string `json:"upload_url"`
}
