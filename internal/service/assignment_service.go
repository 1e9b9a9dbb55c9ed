package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type assignmentStore interface {
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	FindSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error)
	Resolve(ctx context.Context, studentID string) (*models.Supervision, error)
	CountJoinedStudents(ctx context.Context, supervisorID string) (int, error)
	Assign(ctx context.Context, studentID, supervisorID string, primary bool, at time.Time) error
	Unassign(ctx context.Context, studentID, supervisorID string, at time.Time) error
}

// AssignmentService lets administrators link supervisors to students. The
// join table and the direct link are both maintained; primary assignments
// also set the direct link.
type AssignmentService struct {
	repo      assignmentStore
	notifier  notificationDispatcher
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs an AssignmentService.
func NewAssignmentService(repo assignmentStore, notifier notificationDispatcher, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AssignmentService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Assign links the supervisor to the student, respecting the supervisor's capacity.
func (s *AssignmentService) Assign(ctx context.Context, req dto.AssignmentRequest, actor *models.JWTClaims) (*models.Supervision, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	if _, err := s.repo.FindStudentByID(ctx, req.StudentID); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to load student")
	}
	supervisor, err := s.repo.FindSupervisorByID(ctx, req.SupervisorID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
		}
		return nil, appErrors.Internal(err, "failed to load supervisor")
	}

	current, err := s.repo.Resolve(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve supervision")
	}
	alreadyJoined := false
	for _, link := range current.Joined {
		if link.SupervisorID == supervisor.ID {
			alreadyJoined = true
			break
		}
	}
	if !alreadyJoined {
		load, err := s.repo.CountJoinedStudents(ctx, supervisor.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count supervised students")
		}
		if !supervisor.HasCapacityFor(load) {
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrConflict, "supervisor has reached capacity"),
				map[string]interface{}{"capacity": *supervisor.Capacity, "current": load},
			)
		}
	}

	if err := s.repo.Assign(ctx, req.StudentID, supervisor.ID, req.Primary, time.Now().UTC()); err != nil {
		return nil, appErrors.Internal(err, "failed to assign supervisor")
	}

	updated, err := s.repo.Resolve(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve supervision")
	}
	if !alreadyJoined && s.notifier != nil {
		s.notifier.Notify(ctx, models.Notification{
			UserID:  updated.StudentUserID,
			Title:   "Supervisor assigned",
			Message: "A supervisor has been assigned to you",
			Type:    models.NotificationSystem,
			Icon:    models.NotificationSystem.Icon(),
		})
		s.notifier.Notify(ctx, models.Notification{
			UserID:  supervisor.UserID,
			Title:   "New student assigned",
			Message: fmt.Sprintf("You now supervise student %s", req.StudentID),
			Type:    models.NotificationSystem,
			Icon:    models.NotificationSystem.Icon(),
		})
	}
	return updated, nil
}

// Unassign removes the link between the supervisor and the student.
func (s *AssignmentService) Unassign(ctx context.Context, req dto.AssignmentRequest, actor *models.JWTClaims) (*models.Supervision, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.repo.Unassign(ctx, req.StudentID, req.SupervisorID, time.Now().UTC()); err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Internal(err, "failed to remove assignment")
	}
	updated, err := s.repo.Resolve(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to resolve supervision")
	}
	return updated, nil
}

// Supervision returns both supervisor links of a student.
func (s *AssignmentService) Supervision(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.Supervision, error) {
	if err := s.authorize(actor); err != nil {
		return nil, err
	}
	supervision, err := s.repo.Resolve(ctx, studentID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to resolve supervision")
	}
	return supervision, nil
}

func (s *AssignmentService) authorize(actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleAdministrator {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators manage assignments")
	}
	return nil
}
