package models

import "time"

// Complaint is a message submitted to administrators.
type Complaint struct {
	Base
	Name       string          `db:"name" json:"name"`
	Email      string          `db:"email" json:"email"`
	Department string          `db:"department" json:"department"`
	Subject    string          `db:"subject" json:"subject"`
	Message    string          `db:"message" json:"message"`
	Status     ComplaintStatus `db:"status" json:"status"`
	ResolvedBy *string         `db:"resolved_by" json:"resolvedBy"`
	ResolvedAt *time.Time      `db:"resolved_at" json:"resolvedAt"`
	UserID     *string         `db:"user_id" json:"userId"`
}

// Key returns the complaint id.
func (c Complaint) Key() string { return c.ID }

// CreateComplaintRequest is the payload for submitting a complaint.
type CreateComplaintRequest struct {
	Name       string          `json:"name" validate:"required,min=2,max=100"`
	Email      string          `json:"email" validate:"required,email"`
	Department string          `json:"department" validate:"required"`
	Subject    string          `json:"subject" validate:"required,min=5,max=200"`
	Message    string          `json:"message" validate:"required,min=10,max=1000"`
	Status     ComplaintStatus `json:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS RESOLVED CLOSED"`
	// UserID is stamped from the caller's token.
	UserID string `json:"-"`
}

// UniqueValues implements UniqueSource.
func (r CreateComplaintRequest) UniqueValues() map[string]string { return nil }

// UpdateComplaintRequest changes the handling state of a complaint.
type UpdateComplaintRequest struct {
	Status     ComplaintStatus `json:"status" validate:"required,oneof=PENDING IN_PROGRESS RESOLVED CLOSED"`
	ResolvedBy *string         `json:"resolvedBy" validate:"omitempty,max=200"`
	// ActorEmail identifies the administrator applying the change.
	ActorEmail string `json:"-"`
}

// UniqueValues implements UniqueSource.
func (r UpdateComplaintRequest) UniqueValues() map[string]string { return nil }
