package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type supervisionLookup interface {
	FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error)
	FindStudentByID(ctx context.Context, id string) (*models.Student, error)
	FindSupervisorByUserID(ctx context.Context, userID string) (*models.Supervisor, error)
	FindSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error)
	Resolve(ctx context.Context, studentID string) (*models.Supervision, error)
}

// supervisionAccess answers "may this actor touch that student's data" by
// resolving both supervisor links of the student in one lookup.
type supervisionAccess struct {
	lookup supervisionLookup
}

func (a supervisionAccess) studentFor(ctx context.Context, actor *models.JWTClaims) (*models.Student, error) {
	student, err := a.lookup.FindStudentByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "student profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load student profile")
	}
	return student, nil
}

func (a supervisionAccess) supervisorFor(ctx context.Context, actor *models.JWTClaims) (*models.Supervisor, error) {
	supervisor, err := a.lookup.FindSupervisorByUserID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "supervisor profile not found")
		}
		return nil, appErrors.Internal(err, "failed to load supervisor profile")
	}
	return supervisor, nil
}

func (a supervisionAccess) resolve(ctx context.Context, studentID string) (*models.Supervision, error) {
	supervision, err := a.lookup.Resolve(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Internal(err, "failed to resolve supervision")
	}
	return supervision, nil
}

// supervises reports whether supervisorID is linked to studentID directly or
// through the join table.
func (a supervisionAccess) supervises(ctx context.Context, supervisorID, studentID string) (bool, error) {
	supervision, err := a.resolve(ctx, studentID)
	if err != nil {
		return false, err
	}
	return supervision.IncludesSupervisor(supervisorID), nil
}

// ensureStudentAccess allows administrators, the student themself and any
// linked supervisor.
func (a supervisionAccess) ensureStudentAccess(ctx context.Context, actor *models.JWTClaims, studentID string) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdministrator:
		return nil
	case models.RoleStudent:
		student, err := a.studentFor(ctx, actor)
		if err != nil {
			return err
		}
		if student.ID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students may only access their own records")
		}
		return nil
	case models.RoleSupervisor:
		supervisor, err := a.supervisorFor(ctx, actor)
		if err != nil {
			return err
		}
		ok, err := a.supervises(ctx, supervisor.ID, studentID)
		if err != nil {
			return err
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "you do not supervise this student")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

// ensureDocumentView applies the read rules of a single document.
func (a supervisionAccess) ensureDocumentView(ctx context.Context, actor *models.JWTClaims, doc *models.Document) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdministrator:
		return nil
	case models.RoleStudent:
		student, err := a.studentFor(ctx, actor)
		if err != nil {
			return err
		}
		if doc.StudentID != nil {
			if *doc.StudentID == student.ID {
				return nil
			}
			return appErrors.Clone(appErrors.ErrForbidden, "document belongs to another student")
		}
		if doc.Type == models.DocumentTypeResource && doc.SupervisorID != nil {
			supervision, err := a.resolve(ctx, student.ID)
			if err != nil {
				return err
			}
			if supervision.IncludesSupervisor(*doc.SupervisorID) {
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrForbidden, "document is not shared with you")
	case models.RoleSupervisor:
		return a.ensureSupervisorOf(ctx, actor, doc, true)
	default:
		return appErrors.ErrForbidden
	}
}

// ensureReviewer allows administrators and supervisors linked to the
// document. Student-less resources are reviewable by their own supervisor.
func (a supervisionAccess) ensureReviewer(ctx context.Context, actor *models.JWTClaims, doc *models.Document) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleAdministrator:
		return nil
	case models.RoleSupervisor:
		return a.ensureSupervisorOf(ctx, actor, doc, false)
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "only supervisors and administrators can review documents")
	}
}

// ensureSupervisorOf checks the supervisor against the document's student.
// With ownerFallback a supervisor also keeps access to documents carrying
// their own supervisor_id after the student link is gone.
func (a supervisionAccess) ensureSupervisorOf(ctx context.Context, actor *models.JWTClaims, doc *models.Document, ownerFallback bool) error {
	supervisor, err := a.supervisorFor(ctx, actor)
	if err != nil {
		return err
	}
	if doc.StudentID == nil {
		if doc.SupervisorID != nil && *doc.SupervisorID == supervisor.ID {
			return nil
		}
		return appErrors.Clone(appErrors.ErrForbidden, "you do not own this document")
	}
	ok, err := a.supervises(ctx, supervisor.ID, *doc.StudentID)
	if err != nil {
		return err
	}
	if ok || (ownerFallback && doc.SupervisorID != nil && *doc.SupervisorID == supervisor.ID) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "you do not supervise this student")
}

type documentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Document, error)
}

func loadDocument(ctx context.Context, docs documentFinder, id string) (*models.Document, error) {
	doc, err := docs.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to load document")
	}
	return doc, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
