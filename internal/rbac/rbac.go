package rbac

import "github.com/AnshRaj112/solace-backend/internal/models"

type Capability string

const (
	CheckIn              Capability = "check_in"
	PostForum            Capability = "post_forum"
	ReportContent        Capability = "report_content"
	BookSession          Capability = "book_session"
	ApplyCounselor       Capability = "apply_counselor"
	ManageOwnSessions    Capability = "manage_own_sessions"
	EditCounselorProfile Capability = "edit_counselor_profile"
	ModerateForum        Capability = "moderate_forum"
	ReviewApplications   Capability = "review_applications"
	ManageUsers          Capability = "manage_users"
	ViewInsights         Capability = "view_insights"
	ViewAudit            Capability = "view_audit"
)

var all = []Capability{
	CheckIn, PostForum, ReportContent, BookSession, ApplyCounselor, ManageOwnSessions,
	EditCounselorProfile, ModerateForum, ReviewApplications, ManageUsers, ViewInsights, ViewAudit,
}

func Can(role models.Role, c Capability) bool {
	switch c {
	case CheckIn, PostForum, ReportContent, BookSession:
		return role.Valid()
	case ApplyCounselor:
		return role == models.RoleUser
	case ManageOwnSessions, EditCounselorProfile:
		return role == models.RoleCounselor
	case ModerateForum, ReviewApplications, ManageUsers, ViewInsights, ViewAudit:
		return role == models.RoleAdmin
	default:
		return false
	}
}

// Capabilities is the per-request view model derived once from the caller's role.
type Capabilities map[Capability]bool

func For(role models.Role) Capabilities {
	caps := make(Capabilities, len(all))
	for _, c := range all {
		caps[c] = Can(role, c)
	}
	return caps
}

func (c Capabilities) Has(capability Capability) bool {
	return c[capability]
}

// Normalize maps unknown role strings to the least privileged role.
func Normalize(role string) models.Role {
	r := models.Role(role)
	if r.Valid() {
		return r
	}
	return models.RoleUser
}
