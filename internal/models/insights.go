package models

// Insights is the admin dashboard summary.
type Insights struct {
	UsersByRole         map[string]int `json:"users_by_role"`
	PendingApplications int            `json:"pending_applications"`
	SessionsByStatus    map[string]int `json:"sessions_by_status"`
	PendingPosts        int            `json:"pending_posts"`
	FlaggedPosts        int            `json:"flagged_posts"`
	RemovedPosts        int            `json:"removed_posts"`
	CheckInsLast7Days   int            `json:"check_ins_last_7_days"`
}
