package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/repository"
)

// allowedAnalyticsRanges is the closed set of day windows the dashboard
// can request. Anything else falls back to the default.
var allowedAnalyticsRanges = map[int]bool{7: true, 14: true, 30: true, 180: true, 365: true}

const defaultAnalyticsRange = 7

// Analytics aggregates visitor records in a bounded local-time window
// into daily trend, hour-of-day, and department breakdowns.
type Analytics struct {
	visitors repository.VisitorRepository
	now      func() time.Time
}

func NewAnalytics(visitors repository.VisitorRepository) *Analytics {
	return &Analytics{visitors: visitors, now: time.Now}
}

type Series struct {
	Labels []string `json:"labels"`
	Counts []int    `json:"counts"`
}

// PeakHour reports the busiest hour bucket; Hour is nil when the window
// has no timed visits at all.
type PeakHour struct {
	Hour  *int   `json:"hour"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type AnalyticsResult struct {
	RangeDays     int      `json:"rangeDays"`
	TotalVisitors int      `json:"totalVisitors"`
	ActivePasses  int      `json:"activePasses"`
	PeakHour      PeakHour `json:"peakHour"`
	Trend         Series   `json:"trend"`
	PeakHours     Series   `json:"peakHours"`
	Departments   Series   `json:"departments"`
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func dayLabel(t time.Time) string {
	return t.Format("02 Jan")
}

func hourLabel(hour int) string {
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%02d:00 %s", hour12, suffix)
}

// Aggregate fetches every record dated within the window and builds all
// breakdowns in a single pass. rangeDays outside the allow-list falls
// back to 7.
func (a *Analytics) Aggregate(ctx context.Context, rangeDays int) (*AnalyticsResult, error) {
	if !allowedAnalyticsRanges[rangeDays] {
		rangeDays = defaultAnalyticsRange
	}

	now := a.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start := dayStart.AddDate(0, 0, -(rangeDays - 1))
	end := dayStart.AddDate(0, 0, 1).Add(-time.Nanosecond)

	visitors, err := a.visitors.ListBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load analytics: %w", err)
	}

	// Trend buckets are pre-seeded in chronological order so zero-count
	// days still appear.
	trendCounts := make(map[string]int, rangeDays)
	trendKeys := make([]string, 0, rangeDays)
	trendLabels := make([]string, 0, rangeDays)
	for i := 0; i < rangeDays; i++ {
		day := start.AddDate(0, 0, i)
		trendKeys = append(trendKeys, dayKey(day))
		trendLabels = append(trendLabels, dayLabel(day))
		trendCounts[dayKey(day)] = 0
	}

	hourCounts := make([]int, 24)

	departmentCounts := make(map[string]int, len(domain.DepartmentOptions)+1)
	departmentOrder := make([]string, 0, len(domain.DepartmentOptions)+1)
	for _, dept := range domain.DepartmentOptions {
		departmentCounts[dept] = 0
		departmentOrder = append(departmentOrder, dept)
	}

	activePasses := 0

	for i := range visitors {
		v := &visitors[i]

		if strings.EqualFold(string(v.Status), string(domain.PassActive)) {
			activePasses++
		}

		trendDate := v.Date
		if trendDate.IsZero() {
			trendDate = v.TimeIn
		}
		if !trendDate.IsZero() {
			if _, ok := trendCounts[dayKey(trendDate)]; ok {
				trendCounts[dayKey(trendDate)]++
			}
		}

		if !v.TimeIn.IsZero() {
			hourCounts[v.TimeIn.Hour()]++
		}

		dept := domain.NormalizeDepartment(v.Department)
		if dept == "" {
			dept = "Other"
		}
		if _, ok := departmentCounts[dept]; !ok {
			departmentOrder = append(departmentOrder, dept)
		}
		departmentCounts[dept]++
	}

	// First occurrence wins ties.
	peakIndex, peakCount := 0, 0
	for hour, count := range hourCounts {
		if count > peakCount {
			peakIndex, peakCount = hour, count
		}
	}
	peakHour := PeakHour{Label: "-"}
	if peakCount > 0 {
		hour := peakIndex
		peakHour = PeakHour{Hour: &hour, Label: hourLabel(hour), Count: peakCount}
	}

	trend := Series{Labels: trendLabels, Counts: make([]int, 0, len(trendKeys))}
	for _, key := range trendKeys {
		trend.Counts = append(trend.Counts, trendCounts[key])
	}

	peakHours := Series{Labels: make([]string, 0, 24), Counts: hourCounts}
	for hour := 0; hour < 24; hour++ {
		peakHours.Labels = append(peakHours.Labels, hourLabel(hour))
	}

	departments := Series{
		Labels: departmentOrder,
		Counts: make([]int, 0, len(departmentOrder)),
	}
	for _, dept := range departmentOrder {
		departments.Counts = append(departments.Counts, departmentCounts[dept])
	}

	return &AnalyticsResult{
		RangeDays:     rangeDays,
		TotalVisitors: len(visitors),
		ActivePasses:  activePasses,
		PeakHour:      peakHour,
		Trend:         trend,
		PeakHours:     peakHours,
		Departments:   departments,
	}, nil
}
