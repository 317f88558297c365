package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/campusfound/apiserver/types"
)

// ErrUnknownAnalyticsType is returned for an unrecognized specific
// analytics type.
var ErrUnknownAnalyticsType = errors.New("invalid analytics type")

const (
	recentWindow   = 30 * 24 * time.Hour
	trendMonths    = 12
	topUsersLimit  = 10
	locationsLimit = 10
	activityLimit  = 20
)

// AnalyticsRepository defines the read-side aggregations behind the
// dashboard.
type AnalyticsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountAdmins(ctx context.Context) (int, error)
	CountItems(ctx context.Context) (int, error)
	CountItemsWithStatus(ctx context.Context, status string) (int, error)
	CountRequests(ctx context.Context) (int, error)
	CountRequestsWithStatus(ctx context.Context, status string) (int, error)
	CountUsersSince(ctx context.Context, since time.Time) (int, error)
	CountItemsSince(ctx context.Context, since time.Time) (int, error)
	CountRequestsSince(ctx context.Context, since time.Time) (int, error)
	ItemsByStatus(ctx context.Context) ([]types.StatusCount, error)
	ItemsByCategory(ctx context.Context) ([]types.CategoryBreakdown, error)
	ItemsByLocation(ctx context.Context, limit int) ([]types.LocationCount, error)
	RequestsByType(ctx context.Context) ([]types.TypeBreakdown, error)
	TopReporters(ctx context.Context, limit int) ([]types.UserVolume, error)
	TopClaimers(ctx context.Context, limit int) ([]types.UserVolume, error)
	MonthlyItemTrends(ctx context.Context, since time.Time) ([]types.MonthlyBucket, error)
	MonthlyRegistrations(ctx context.Context) ([]types.MonthlyBucket, error)
	SubscriptionOverview(ctx context.Context) (types.SubscriptionOverview, error)
	CategorySubscriptions(ctx context.Context) ([]types.KeyCount, error)
	AvgResolutionHours(ctx context.Context) (int, error)
	RecentActivity(ctx context.Context, limit int) ([]types.RecentActivityEntry, error)
}

// AnalyticsService assembles the dashboard report and its CSV export.
// It has no write side effects.
type AnalyticsService struct {
	repo AnalyticsRepository
}

func NewAnalyticsService(repo AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// rate is a percentage rounded to two decimals, 0 when the base is 0.
func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*100*100) / 100
}

// Dashboard assembles the full analytics report.
func (s *AnalyticsService) Dashboard(ctx context.Context) (types.AnalyticsReport, error) {
	var report types.AnalyticsReport
	var err error

	if report.Overview.TotalUsers, err = s.repo.CountUsers(ctx); err != nil {
		return report, err
	}
	if report.Overview.TotalItems, err = s.repo.CountItems(ctx); err != nil {
		return report, err
	}
	if report.Overview.TotalRequests, err = s.repo.CountRequests(ctx); err != nil {
		return report, err
	}
	if report.Overview.TotalAdmins, err = s.repo.CountAdmins(ctx); err != nil {
		return report, err
	}

	claimed, err := s.repo.CountItemsWithStatus(ctx, types.ItemStatusClaimed)
	if err != nil {
		return report, err
	}
	report.Overview.SuccessRate = rate(claimed, report.Overview.TotalItems)

	if report.Overview.AvgResolutionTime, err = s.repo.AvgResolutionHours(ctx); err != nil {
		return report, err
	}

	since := time.Now().Add(-recentWindow)
	if report.Recent.Items, err = s.repo.CountItemsSince(ctx, since); err != nil {
		return report, err
	}
	if report.Recent.Users, err = s.repo.CountUsersSince(ctx, since); err != nil {
		return report, err
	}
	if report.Recent.Requests, err = s.repo.CountRequestsSince(ctx, since); err != nil {
		return report, err
	}

	if report.ItemStats.ByStatus, err = s.repo.ItemsByStatus(ctx); err != nil {
		return report, err
	}
	if report.ItemStats.ByCategory, err = s.repo.ItemsByCategory(ctx); err != nil {
		return report, err
	}
	if report.ItemStats.ByLocation, err = s.repo.ItemsByLocation(ctx, locationsLimit); err != nil {
		return report, err
	}
	if report.RequestStats.ByType, err = s.repo.RequestsByType(ctx); err != nil {
		return report, err
	}

	if report.UserActivity.TopReporters, err = s.repo.TopReporters(ctx, topUsersLimit); err != nil {
		return report, err
	}
	if report.UserActivity.TopClaimers, err = s.repo.TopClaimers(ctx, topUsersLimit); err != nil {
		return report, err
	}

	trendStart := time.Now().AddDate(0, -trendMonths, 0)
	if report.Trends.Monthly, err = s.repo.MonthlyItemTrends(ctx, trendStart); err != nil {
		return report, err
	}

	if report.EmailAnalytics.Overview, err = s.repo.SubscriptionOverview(ctx); err != nil {
		return report, err
	}
	if report.EmailAnalytics.CategorySubscriptions, err = s.repo.CategorySubscriptions(ctx); err != nil {
		return report, err
	}

	if report.RecentActivity, err = s.repo.RecentActivity(ctx, activityLimit); err != nil {
		return report, err
	}

	return report, nil
}

// Specific returns one targeted slice of the analytics by type name:
// users, items, requests or subscriptions.
func (s *AnalyticsService) Specific(ctx context.Context, analyticsType string) (any, error) {
	switch analyticsType {
	case "users":
		return s.userAnalytics(ctx)
	case "items":
		return s.itemAnalytics(ctx)
	case "requests":
		return s.requestAnalytics(ctx)
	case "subscriptions":
		return s.subscriptionAnalytics(ctx)
	default:
		return nil, ErrUnknownAnalyticsType
	}
}

func (s *AnalyticsService) userAnalytics(ctx context.Context) (types.UserAnalytics, error) {
	var out types.UserAnalytics
	var err error
	if out.Total, err = s.repo.CountUsers(ctx); err != nil {
		return out, err
	}
	if out.Admins, err = s.repo.CountAdmins(ctx); err != nil {
		return out, err
	}
	out.Regular = out.Total - out.Admins
	if out.RegistrationTrends, err = s.repo.MonthlyRegistrations(ctx); err != nil {
		return out, err
	}
	return out, nil
}

func (s *AnalyticsService) itemAnalytics(ctx context.Context) (types.ItemAnalytics, error) {
	var out types.ItemAnalytics
	var err error
	if out.Total, err = s.repo.CountItems(ctx); err != nil {
		return out, err
	}
	if out.Claimed, err = s.repo.CountItemsWithStatus(ctx, types.ItemStatusClaimed); err != nil {
		return out, err
	}
	if out.Pending, err = s.repo.CountItemsWithStatus(ctx, types.ItemStatusPending); err != nil {
		return out, err
	}
	if out.Approved, err = s.repo.CountItemsWithStatus(ctx, types.ItemStatusApproved); err != nil {
		return out, err
	}
	out.ClaimRate = rate(out.Claimed, out.Total)
	return out, nil
}

func (s *AnalyticsService) requestAnalytics(ctx context.Context) (types.RequestAnalytics, error) {
	var out types.RequestAnalytics
	var err error
	if out.Total, err = s.repo.CountRequests(ctx); err != nil {
		return out, err
	}
	if out.Pending, err = s.repo.CountRequestsWithStatus(ctx, types.RequestStatusPending); err != nil {
		return out, err
	}
	if out.Approved, err = s.repo.CountRequestsWithStatus(ctx, types.RequestStatusApproved); err != nil {
		return out, err
	}
	if out.Rejected, err = s.repo.CountRequestsWithStatus(ctx, types.RequestStatusRejected); err != nil {
		return out, err
	}
	out.ApprovalRate = rate(out.Approved, out.Total)
	return out, nil
}

func (s *AnalyticsService) subscriptionAnalytics(ctx context.Context) (types.EmailAnalytics, error) {
	var out types.EmailAnalytics
	var err error
	if out.Overview, err = s.repo.SubscriptionOverview(ctx); err != nil {
		return out, err
	}
	if out.CategorySubscriptions, err = s.repo.CategorySubscriptions(ctx); err != nil {
		return out, err
	}
	return out, nil
}

// ExportCSV flattens the dashboard report into a CSV document.
func (s *AnalyticsService) ExportCSV(ctx context.Context) ([]byte, error) {
	report, err := s.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	return FormatReportCSV(report, time.Now()), nil
}

// FormatReportCSV renders a report as CSV: a header, the overview section,
// and the items-by-category section.
func FormatReportCSV(report types.AnalyticsReport, generatedAt time.Time) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"Analytics Report"})
	_ = w.Write([]string{"Generated", generatedAt.UTC().Format(time.RFC3339)})
	_ = w.Write(nil)

	_ = w.Write([]string{"OVERVIEW"})
	_ = w.Write([]string{"Metric", "Value"})
	_ = w.Write([]string{"Total Users", strconv.Itoa(report.Overview.TotalUsers)})
	_ = w.Write([]string{"Total Items", strconv.Itoa(report.Overview.TotalItems)})
	_ = w.Write([]string{"Total Requests", strconv.Itoa(report.Overview.TotalRequests)})
	_ = w.Write([]string{"Total Admins", strconv.Itoa(report.Overview.TotalAdmins)})
	_ = w.Write([]string{"Success Rate", fmt.Sprintf("%.2f%%", report.Overview.SuccessRate)})
	_ = w.Write([]string{"Avg Resolution Time", fmt.Sprintf("%d hours", report.Overview.AvgResolutionTime)})
	_ = w.Write(nil)

	_ = w.Write([]string{"ITEMS BY CATEGORY"})
	_ = w.Write([]string{"Category", "Total", "Claimed", "Pending", "Approved", "Rejected"})
	for _, entry := range report.ItemStats.ByCategory {
		_ = w.Write([]string{
			entry.Category,
			strconv.Itoa(entry.Total),
			strconv.Itoa(entry.Claimed),
			strconv.Itoa(entry.Pending),
			strconv.Itoa(entry.Approved),
			strconv.Itoa(entry.Rejected),
		})
	}

	w.Flush()
	return buf.Bytes()
}
