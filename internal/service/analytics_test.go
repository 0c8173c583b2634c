package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ricoauto/gatepass/internal/domain"
	"github.com/ricoauto/gatepass/internal/repository"
)

type AnalyticsTestSuite struct {
	suite.Suite
	visitors  *repository.MemoryVisitorRepository
	analytics *Analytics
	now       time.Time
}

func (s *AnalyticsTestSuite) SetupTest() {
	s.visitors = repository.NewMemoryVisitorRepository()
	s.analytics = NewAnalytics(s.visitors)
	s.now = time.Date(2025, 3, 9, 12, 0, 0, 0, time.Local)
	s.analytics.now = func() time.Time { return s.now }
}

func (s *AnalyticsTestSuite) seed(name string, timeIn time.Time, department string, status domain.PassStatus) {
	_, err := s.visitors.Create(context.Background(), &domain.VisitorPass{
		PassID:       "PASS-" + timeIn.Format("20060102-150405") + "-" + name,
		Name:         name,
		Phone:        "9000000111",
		VisitType:    "Meeting",
		PersonToMeet: "Reception",
		Department:   department,
		Status:       status,
		Date:         timeIn,
		TimeIn:       timeIn,
	})
	s.Require().NoError(err)
}

func (s *AnalyticsTestSuite) TestEmptyStore() {
	result, err := s.analytics.Aggregate(context.Background(), 7)
	s.Require().NoError(err)

	s.Equal(7, result.RangeDays)
	s.Equal(0, result.TotalVisitors)
	s.Equal(0, result.ActivePasses)

	s.Nil(result.PeakHour.Hour)
	s.Equal("-", result.PeakHour.Label)
	s.Equal(0, result.PeakHour.Count)

	s.Len(result.Trend.Labels, 7)
	s.Len(result.Trend.Counts, 7)
	for _, count := range result.Trend.Counts {
		s.Equal(0, count)
	}
	s.Equal("03 Mar", result.Trend.Labels[0])
	s.Equal("09 Mar", result.Trend.Labels[6])

	s.Len(result.PeakHours.Labels, 24)
	s.Equal("12:00 AM", result.PeakHours.Labels[0])
	s.Equal("01:00 PM", result.PeakHours.Labels[13])

	s.Equal(domain.DepartmentOptions, result.Departments.Labels)
	for _, count := range result.Departments.Counts {
		s.Equal(0, count)
	}
}

func (s *AnalyticsTestSuite) TestUnknownRangeFallsBack() {
	for _, rangeDays := range []int{0, 9, -3, 1000} {
		result, err := s.analytics.Aggregate(context.Background(), rangeDays)
		s.Require().NoError(err)
		s.Equal(7, result.RangeDays)
		s.Len(result.Trend.Labels, 7)
	}
}

func (s *AnalyticsTestSuite) TestAllowedRanges() {
	for _, rangeDays := range []int{7, 14, 30, 180, 365} {
		result, err := s.analytics.Aggregate(context.Background(), rangeDays)
		s.Require().NoError(err)
		s.Equal(rangeDays, result.RangeDays)
		s.Len(result.Trend.Labels, rangeDays)
	}
}

func (s *AnalyticsTestSuite) TestCountsAndBuckets() {
	today := s.now
	yesterday := s.now.AddDate(0, 0, -1)
	lastWeek := s.now.AddDate(0, 0, -10)

	s.seed("A", time.Date(today.Year(), today.Month(), today.Day(), 9, 15, 0, 0, time.Local), "IT", domain.PassActive)
	s.seed("B", time.Date(today.Year(), today.Month(), today.Day(), 9, 45, 0, 0, time.Local), "HR", domain.PassCompleted)
	s.seed("C", time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 14, 0, 0, 0, time.Local), "Facilities", domain.PassActive)
	s.seed("D", lastWeek, "IT", domain.PassActive)

	result, err := s.analytics.Aggregate(context.Background(), 7)
	s.Require().NoError(err)

	// The 10-day-old record is outside the window entirely.
	s.Equal(3, result.TotalVisitors)
	s.Equal(2, result.ActivePasses)

	s.Require().NotNil(result.PeakHour.Hour)
	s.Equal(9, *result.PeakHour.Hour)
	s.Equal("09:00 AM", result.PeakHour.Label)
	s.Equal(2, result.PeakHour.Count)

	s.Equal(1, result.Trend.Counts[5])
	s.Equal(2, result.Trend.Counts[6])

	// Unrecognized departments collapse into a trailing Other bucket.
	s.Equal(len(domain.DepartmentOptions)+1, len(result.Departments.Labels))
	s.Equal("Other", result.Departments.Labels[len(result.Departments.Labels)-1])
	s.Equal(1, result.Departments.Counts[len(result.Departments.Counts)-1])
	s.Equal(1, result.Departments.Counts[0]) // IT
	s.Equal(1, result.Departments.Counts[1]) // HR
}

func (s *AnalyticsTestSuite) TestPeakHourFirstMaxWins() {
	today := s.now
	s.seed("A", time.Date(today.Year(), today.Month(), today.Day(), 8, 0, 0, 0, time.Local), "IT", domain.PassActive)
	s.seed("B", time.Date(today.Year(), today.Month(), today.Day(), 16, 0, 0, 0, time.Local), "IT", domain.PassActive)

	result, err := s.analytics.Aggregate(context.Background(), 7)
	s.Require().NoError(err)

	s.Require().NotNil(result.PeakHour.Hour)
	s.Equal(8, *result.PeakHour.Hour)
	s.Equal("08:00 AM", result.PeakHour.Label)
	s.Equal(1, result.PeakHour.Count)
}

func TestAnalyticsTestSuite(t *testing.T) {
	suite.Run(t, new(AnalyticsTestSuite))
}
