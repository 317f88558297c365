package types

import "time"

// AnalyticsReport is the full dashboard payload assembled by the analytics
// service. It mirrors the report the admin dashboard renders.
type AnalyticsReport struct {
	Overview       AnalyticsOverview     `json:"overview"`
	Recent         RecentCounts          `json:"recent"`
	ItemStats      ItemStats             `json:"item_stats"`
	RequestStats   RequestStats          `json:"request_stats"`
	UserActivity   UserActivity          `json:"user_activity"`
	Trends         Trends                `json:"trends"`
	EmailAnalytics EmailAnalytics        `json:"email_analytics"`
	RecentActivity []RecentActivityEntry `json:"recent_activity"`
}

// AnalyticsOverview holds the headline aggregate numbers.
type AnalyticsOverview struct {
	TotalUsers    int `json:"total_users"`
	TotalItems    int `json:"total_items"`
	TotalRequests int `json:"total_requests"`
	TotalAdmins   int `json:"total_admins"`

	// SuccessRate is claimed items over total items as a percentage,
	// rounded to two decimals.
	SuccessRate float64 `json:"success_rate"`

	// AvgResolutionTime is the mean wall-clock time between request
	// creation and decision, in whole hours.
	AvgResolutionTime int `json:"avg_resolution_time"`
}

// RecentCounts are entity counts over the trailing 30 days.
type RecentCounts struct {
	Items    int `json:"items"`
	Users    int `json:"users"`
	Requests int `json:"requests"`
}

// StatusCount is a generic status/count pair.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CategoryBreakdown carries per-status sub-counts for one item category.
type CategoryBreakdown struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Claimed  int    `json:"claimed"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

// LocationCount is an items-per-location pair.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// ItemStats groups item aggregations.
type ItemStats struct {
	ByStatus   []StatusCount       `json:"by_status"`
	ByCategory []CategoryBreakdown `json:"by_category"`
	ByLocation []LocationCount     `json:"by_location"`
}

// TypeBreakdown carries per-status sub-counts for one request type.
type TypeBreakdown struct {
	Type     string `json:"type"`
	Total    int    `json:"total"`
	Pending  int    `json:"pending"`
	Approved int    `json:"approved"`
	Rejected int    `json:"rejected"`
}

// RequestStats groups request aggregations.
type RequestStats struct {
	ByType []TypeBreakdown `json:"by_type"`
}

// UserVolume is a user ranked by report or claim volume.
type UserVolume struct {
	UserID int    `json:"user_id"`
	Name   string `json:"name"`
	Count  int    `json:"count"`
}

// UserActivity holds the top reporters and claimers.
type UserActivity struct {
	TopReporters []UserVolume `json:"top_reporters"`
	TopClaimers  []UserVolume `json:"top_claimers"`
}

// MonthlyBucket is one month of the trailing-12-month trend.
type MonthlyBucket struct {
	Year          int `json:"year"`
	Month         int `json:"month"`
	ItemsReported int `json:"items_reported"`
	ItemsClaimed  int `json:"items_claimed"`
}

// Trends groups trend series.
type Trends struct {
	Monthly []MonthlyBucket `json:"monthly"`
}

// SubscriptionOverview summarizes the subscription base.
type SubscriptionOverview struct {
	TotalUsers             int `json:"total_users"`
	UsersWithNotifications int `json:"users_with_notifications"`
	TotalSubscriptions     int `json:"total_subscriptions"`
}

// KeyCount is a subscription-key/subscriber-count pair.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// EmailAnalytics groups subscription aggregations.
type EmailAnalytics struct {
	Overview              SubscriptionOverview `json:"overview"`
	CategorySubscriptions []KeyCount           `json:"category_subscriptions"`
}

// RecentActivityEntry is one row of the recent-activity feed.
type RecentActivityEntry struct {
	ItemID    int        `json:"item_id"`
	Title     string     `json:"title"`
	Category  string     `json:"category"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
	Reporter  string     `json:"reporter,omitempty"`
	Claimer   string     `json:"claimer,omitempty"`
}

// UserAnalytics is the "users" slice of the specific analytics endpoint.
type UserAnalytics struct {
	Total              int             `json:"total"`
	Admins             int             `json:"admins"`
	Regular            int             `json:"regular"`
	RegistrationTrends []MonthlyBucket `json:"registration_trends"`
}

// ItemAnalytics is the "items" slice of the specific analytics endpoint.
type ItemAnalytics struct {
	Total     int     `json:"total"`
	Claimed   int     `json:"claimed"`
	Pending   int     `json:"pending"`
	Approved  int     `json:"approved"`
	ClaimRate float64 `json:"claim_rate"`
}

// RequestAnalytics is the "requests" slice of the specific analytics endpoint.
type RequestAnalytics struct {
	Total        int     `json:"total"`
	Pending      int     `json:"pending"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	ApprovalRate float64 `json:"approval_rate"`
}
