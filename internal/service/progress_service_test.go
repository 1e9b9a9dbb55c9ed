package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
	"github.com/noah-isme/postgrad-supervision-api/pkg/export"
)

// memoryCache stores JSON like the Redis-backed cache does.
type memoryCache struct {
	items map[string][]byte
	hits  int
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	raw, ok := m.items[key]
	if !ok {
		return false
	}
	m.hits++
	return json.Unmarshal(raw, dest) == nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err == nil {
		m.items[key] = raw
	}
}

func newProgressFixture(t *testing.T) (*ProgressService, *fakeSupervision, *fakeWeekly) {
	t.Helper()
	supervision := newFakeSupervision()
	st1 := supervision.addStudent("st-1", "u-st1", "Ada")
	supervision.addStudent("st-2", "u-st2", "Bob")
	supervision.addSupervisor("sup-1", "u-sup1")
	supervision.addSupervisor("sup-2", "u-sup2")
	direct := "sup-1"
	st1.SupervisorID = &direct
	supervision.join("st-2", "sup-1")

	weekly := newFakeWeekly()
	svc := NewProgressService(supervision, weekly, nil, nil, export.NewCSVExporter(), export.NewPDFExporter())
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }
	return svc, supervision, weekly
}

func submitWeek(weekly *fakeWeekly, studentID string, n int, file string) {
	at := time.Date(2024, 3, n, 9, 0, 0, 0, time.UTC)
	_ = weekly.Upsert(context.Background(), &models.WeeklySubmission{
		StudentID: studentID, WeekNumber: n, FileName: file,
		Status: models.WeeklySubmissionSubmitted, SubmittedAt: &at,
	})
}

func TestSummaryFillsSixWeekSlots(t *testing.T) {
	svc, supervision, weekly := newProgressFixture(t)
	submitWeek(weekly, "st-1", 1, "w1.pdf")
	submitWeek(weekly, "st-1", 3, "w3.pdf")
	supervision.students["st-1"].Progress = models.ProgressFor(2)

	summary, err := svc.Summary(context.Background(), "st-1", claims("u-sup1", models.RoleSupervisor))
	require.NoError(t, err)
	require.Len(t, summary.Weeks, models.TotalWeeks)
	assert.Equal(t, 2, summary.SubmittedWeeks)
	assert.Equal(t, 33, summary.Progress)
	assert.Equal(t, "Ada", summary.StudentName)
	assert.Equal(t, "w3.pdf", summary.Weeks[2].FileName)
	assert.Equal(t, models.WeeklySubmissionSubmitted, summary.Weeks[2].Status)
	assert.Empty(t, summary.Weeks[1].Status)
	assert.Equal(t, 6, summary.Weeks[5].WeekNumber)
}

func TestSummaryAccess(t *testing.T) {
	svc, _, _ := newProgressFixture(t)

	_, err := svc.Summary(context.Background(), "st-1", claims("u-st2", models.RoleStudent))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Summary(context.Background(), "st-1", claims("u-sup2", models.RoleSupervisor))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Summary(context.Background(), "st-2", claims("u-sup1", models.RoleSupervisor))
	assert.NoError(t, err)

	_, err = svc.Summary(context.Background(), "missing", claims("admin", models.RoleAdministrator))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	mine, err := svc.MySummary(context.Background(), claims("u-st2", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "st-2", mine.StudentID)

	_, err = svc.MySummary(context.Background(), claims("u-sup1", models.RoleSupervisor))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestSummaryUsesCache(t *testing.T) {
	svc, _, weekly := newProgressFixture(t)
	cache := &memoryCache{items: make(map[string][]byte)}
	svc.cache = cache
	submitWeek(weekly, "st-1", 1, "w1.pdf")
	admin := claims("admin", models.RoleAdministrator)

	first, err := svc.Summary(context.Background(), "st-1", admin)
	require.NoError(t, err)
	require.Contains(t, cache.items, progressKey("st-1"))

	submitWeek(weekly, "st-1", 2, "w2.pdf")
	second, err := svc.Summary(context.Background(), "st-1", admin)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first.Progress, second.Progress)

	delete(cache.items, progressKey("st-1"))
	third, err := svc.Summary(context.Background(), "st-1", admin)
	require.NoError(t, err)
	assert.Equal(t, 33, third.Progress)
}

func TestReportRendersCSV(t *testing.T) {
	svc, _, weekly := newProgressFixture(t)
	submitWeek(weekly, "st-1", 2, "w2.pdf")

	report, err := svc.Report(context.Background(), "st-1", "CSV", claims("u-st1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "progress_st-1_20240305.csv", report.Filename)
	assert.Equal(t, "text/csv", report.ContentType)

	body := string(report.Content)
	assert.Contains(t, body, "Student,Ada\n")
	assert.Contains(t, body, "Progress,17%\n")
	assert.Contains(t, body, "Week,Status,File,Submitted At\n")
	assert.Contains(t, body, "1,missing,,\n")
	assert.Contains(t, body, "2,submitted,w2.pdf,2024-03-02 09:00\n")
	assert.Equal(t, 5+1+1+models.TotalWeeks, strings.Count(body, "\n"))
}

func TestReportFormats(t *testing.T) {
	svc, _, _ := newProgressFixture(t)
	admin := claims("admin", models.RoleAdministrator)

	report, err := svc.Report(context.Background(), "st-1", "", admin)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", report.ContentType)
	assert.True(t, strings.HasPrefix(string(report.Content), "%PDF"))

	_, err = svc.Report(context.Background(), "st-1", "xlsx", admin)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestSupervisedStudents(t *testing.T) {
	svc, _, _ := newProgressFixture(t)

	students, err := svc.SupervisedStudents(context.Background(), claims("u-sup1", models.RoleSupervisor))
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada", students[0].Name)
	assert.True(t, students[0].Direct)
	assert.False(t, students[1].Direct)

	none, err := svc.SupervisedStudents(context.Background(), claims("u-sup2", models.RoleSupervisor))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = svc.SupervisedStudents(context.Background(), claims("u-st1", models.RoleStudent))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
