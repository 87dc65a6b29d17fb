package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleCounselor Role = "counselor"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

// Account holds sign-in credentials. Its id is also the profile id.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Profile is the extended user record keyed by the account id.
type Profile struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Bio         string    `db:"bio" json:"bio"`
	AvatarURL   string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Role        Role      `db:"role" json:"role"`

	// Counselor fields
	Credentials     string         `db:"credentials" json:"credentials,omitempty"`
	YearsExperience int            `db:"years_experience" json:"years_experience"`
	Specializations pq.StringArray `db:"specializations" json:"specializations"`
	Availability    pq.StringArray `db:"availability" json:"availability"`
	ProfessionalBio string         `db:"professional_bio" json:"professional_bio,omitempty"`

	// Mental-health fields, visible to the owner only
	Interests        pq.StringArray `db:"interests" json:"interests"`
	Triggers         pq.StringArray `db:"triggers" json:"triggers"`
	CopingStrategies pq.StringArray `db:"coping_strategies" json:"coping_strategies"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CounselorListing is the public directory view of a counselor profile.
type CounselorListing struct {
	ID              uuid.UUID `json:"id"`
	DisplayName     string    `json:"display_name"`
	AvatarURL       string    `json:"avatar_url,omitempty"`
	Credentials     string    `json:"credentials"`
	YearsExperience int       `json:"years_experience"`
	Specializations []string  `json:"specializations"`
	Availability    []string  `json:"availability"`
	ProfessionalBio string    `json:"professional_bio"`
}

func (p Profile) Listing() CounselorListing {
	return CounselorListing{
		ID:              p.ID,
		DisplayName:     p.DisplayName,
		AvatarURL:       p.AvatarURL,
		Credentials:     p.Credentials,
		YearsExperience: p.YearsExperience,
		Specializations: nonNilStrings(p.Specializations),
		Availability:    nonNilStrings(p.Availability),
		ProfessionalBio: p.ProfessionalBio,
	}
}

// ProfileUpdate carries the editable profile fields; nil means unchanged.
type ProfileUpdate struct {
	DisplayName      *string   `json:"display_name"`
	Bio              *string   `json:"bio"`
	AvatarURL        *string   `json:"avatar_url"`
	Interests        *[]string `json:"interests"`
	Triggers         *[]string `json:"triggers"`
	CopingStrategies *[]string `json:"coping_strategies"`

	Credentials     *string   `json:"credentials"`
	YearsExperience *int      `json:"years_experience"`
	Specializations *[]string `json:"specializations"`
	Availability    *[]string `json:"availability"`
	ProfessionalBio *string   `json:"professional_bio"`
}

// TouchesCounselorFields reports whether the update edits counselor-only fields.
func (u ProfileUpdate) TouchesCounselorFields() bool {
	return u.Credentials != nil || u.YearsExperience != nil || u.Specializations != nil ||
		u.Availability != nil || u.ProfessionalBio != nil
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
