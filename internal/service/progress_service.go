package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
	"github.com/noah-isme/postgrad-supervision-api/pkg/export"
)

type progressStudentStore interface {
	supervisionLookup
	ListSupervisedStudents(ctx context.Context, supervisorID string) ([]models.StudentSummary, error)
	StudentName(ctx context.Context, studentID string) (string, error)
}

type progressSubmissionStore interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySubmission, error)
}

type progressCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
}

type reportRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

// ProgressReport is a rendered progress export.
type ProgressReport struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ProgressService builds weekly progress summaries and their exports.
type ProgressService struct {
	students    progressStudentStore
	access      supervisionAccess
	submissions progressSubmissionStore
	cache       progressCache
	renderers   map[string]reportRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewProgressService constructs a ProgressService. Renderers are keyed by
// their file extension.
func NewProgressService(students progressStudentStore, submissions progressSubmissionStore, cache progressCache, logger *zap.Logger, renderers ...reportRenderer) *ProgressService {
	if logger == nil {
		logger = zap.NewNop()
	}
	byFormat := make(map[string]reportRenderer, len(renderers))
	for _, r := range renderers {
		byFormat[r.Extension()] = r
	}
	return &ProgressService{
		students:    students,
		access:      supervisionAccess{lookup: students},
		submissions: submissions,
		cache:       cache,
		renderers:   byFormat,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Summary returns the progress of a student the actor may see.
func (s *ProgressService) Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.ProgressSummary, error) {
	if err := s.access.ensureStudentAccess(ctx, actor, studentID); err != nil {
		return nil, err
	}
	return s.summary(ctx, studentID)
}

// MySummary returns the progress of the authenticated student.
func (s *ProgressService) MySummary(ctx context.Context, actor *models.JWTClaims) (*models.ProgressSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students have personal progress")
	}
	student, err := s.access.studentFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.summary(ctx, student.ID)
}

// Report renders the student's progress in the requested format (pdf or csv).
func (s *ProgressService) Report(ctx context.Context, studentID, format string, actor *models.JWTClaims) (*ProgressReport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "pdf"
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported report format %q", format))
	}

	summary, err := s.Summary(ctx, studentID, actor)
	if err != nil {
		return nil, err
	}
	content, err := renderer.Render(progressDataset(summary))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render progress report")
	}
	return &ProgressReport{
		Filename:    fmt.Sprintf("progress_%s_%s.%s", studentID, summary.GeneratedAt.Format("20060102"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Content:     content,
	}, nil
}

// SupervisedStudents lists every student linked to the supervisor actor.
func (s *ProgressService) SupervisedStudents(ctx context.Context, actor *models.JWTClaims) ([]models.StudentSummary, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleSupervisor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only supervisors have supervised students")
	}
	supervisor, err := s.access.supervisorFor(ctx, actor)
	if err != nil {
		return nil, err
	}
	students, err := s.students.ListSupervisedStudents(ctx, supervisor.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list supervised students")
	}
	if students == nil {
		students = []models.StudentSummary{}
	}
	return students, nil
}

func (s *ProgressService) summary(ctx context.Context, studentID string) (*models.ProgressSummary, error) {
	var cached models.ProgressSummary
	if s.cache != nil && s.cache.Get(ctx, progressKey(studentID), &cached) {
		return &cached, nil
	}

	student, err := s.students.FindStudentByID(ctx, studentID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	name, err := s.students.StudentName(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to load student name", zap.String("student_id", studentID), zap.Error(err))
	}
	subs, err := s.submissions.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load weekly submissions")
	}

	summary := &models.ProgressSummary{
		StudentID:   student.ID,
		StudentName: name,
		Program:     student.Program,
		TotalWeeks:  models.TotalWeeks,
		Weeks:       make([]models.WeekSlot, models.TotalWeeks),
		GeneratedAt: s.now(),
	}
	for i := range summary.Weeks {
		summary.Weeks[i].WeekNumber = i + 1
	}
	for _, sub := range subs {
		if sub.WeekNumber < 1 || sub.WeekNumber > models.TotalWeeks {
			continue
		}
		slot := &summary.Weeks[sub.WeekNumber-1]
		slot.Status = sub.Status
		slot.FileName = sub.FileName
		slot.DocumentID = sub.DocumentID
		slot.SubmittedAt = sub.SubmittedAt
		if sub.Status == models.WeeklySubmissionSubmitted {
			summary.SubmittedWeeks++
		}
	}
	summary.Progress = models.ProgressFor(summary.SubmittedWeeks)
	if summary.Progress != student.Progress {
		s.logger.Warn("stored progress differs from weekly submissions",
			zap.String("student_id", studentID), zap.Int("stored", student.Progress), zap.Int("derived", summary.Progress))
	}

	if s.cache != nil {
		s.cache.Set(ctx, progressKey(studentID), summary, 0)
	}
	return summary, nil
}

func progressDataset(summary *models.ProgressSummary) export.Dataset {
	program := "-"
	if summary.Program != nil && *summary.Program != "" {
		program = *summary.Program
	}
	data := export.Dataset{
		Title: "Weekly Progress Report",
		Summary: []export.Field{
			{Label: "Student", Value: summary.StudentName},
			{Label: "Program", Value: program},
			{Label: "Progress", Value: strconv.Itoa(summary.Progress) + "%"},
			{Label: "Submitted", Value: fmt.Sprintf("%d of %d weeks", summary.SubmittedWeeks, summary.TotalWeeks)},
			{Label: "Generated", Value: summary.GeneratedAt.Format(time.RFC3339)},
		},
		Headers: []string{"Week", "Status", "File", "Submitted At"},
		Rows:    make([]map[string]string, 0, len(summary.Weeks)),
	}
	for _, week := range summary.Weeks {
		status := string(week.Status)
		if status == "" {
			status = "missing"
		}
		submittedAt := ""
		if week.SubmittedAt != nil {
			submittedAt = week.SubmittedAt.Format("2006-01-02 15:04")
		}
		data.Rows = append(data.Rows, map[string]string{
			"Week":         strconv.Itoa(week.WeekNumber),
			"Status":       status,
			"File":         week.FileName,
			"Submitted At": submittedAt,
		})
	}
	return data
}
