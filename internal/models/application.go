package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationRejected:
		return true
	}
	return false
}

// CounselorApplication is a user's request to become a counselor.
type CounselorApplication struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	UserID          uuid.UUID         `db:"user_id" json:"user_id"`
	ApplicantName   string            `db:"applicant_name" json:"applicant_name"`
	Credentials     string            `db:"credentials" json:"credentials"`
	YearsExperience int               `db:"years_experience" json:"years_experience"`
	Specializations pq.StringArray    `db:"specializations" json:"specializations"`
	ProfessionalBio string            `db:"professional_bio" json:"professional_bio"`
	DocumentURLs    pq.StringArray    `db:"document_urls" json:"document_urls"`
	Status          ApplicationStatus `db:"status" json:"status"`
	ReviewedBy      *uuid.UUID        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes     string            `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt       time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updated_at"`
}
