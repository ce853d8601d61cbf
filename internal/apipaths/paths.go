package apipaths

// Backend REST paths used by the client core and the pages around it.

const (
	Health = "/api/health"

	AuthLogin    = "/api/auth/login"
	AuthRegister = "/api/auth/register"
	AuthProfile  = "/api/auth/profile"

	Reports       = "/api/reports"
	MyReports     = "/api/reports/my-reports"
	Campaigns     = "/api/campaigns"
	Posts         = "/api/posts"
	MyPosts       = "/api/posts/my-posts"
	MyRewards     = "/api/rewards/my-rewards"
	Leaderboard   = "/api/rewards/leaderboard"
	Notifications = "/api/notifications"
	UnreadCount   = "/api/notifications/unread-count"

	AdminStats              = "/api/admin/stats"
	AdminReports            = "/api/admin/reports"
	AdminCampaigns          = "/api/admin/campaigns"
	AdminUsers              = "/api/admin/users"
	AdminPosts              = "/api/admin/posts"
	AdminAnalytics          = "/api/admin/analytics"
	AdminNotifications      = "/api/notifications/admin/all"
	AdminCreateNotification = "/api/notifications/admin/create"
)

func ReportByID(id string) string           { return "/api/reports/" + id }
func CampaignByID(id string) string         { return "/api/campaigns/" + id }
func CampaignJoin(id string) string         { return "/api/campaigns/" + id + "/join" }
func PostByID(id string) string             { return "/api/posts/" + id }
func PostLike(id string) string             { return "/api/posts/" + id + "/like" }
func PostComment(id string) string          { return "/api/posts/" + id + "/comment" }
func NotificationRead(id string) string     { return "/api/notifications/" + id + "/read" }
func AdminReportStatus(id string) string    { return "/api/admin/reports/" + id + "/status" }
func AdminCampaignFeature(id string) string { return "/api/admin/campaigns/" + id + "/feature" }
func AdminUserToggle(id string) string      { return "/api/admin/users/" + id + "/toggle-status" }
func AdminPostStatus(id string) string      { return "/api/admin/posts/" + id + "/status" }
