package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

// fakeSupervision is an in-memory copy of the students, supervisors and
// supervisor_students tables.
type fakeSupervision struct {
	students    map[string]*models.Student
	supervisors map[string]*models.Supervisor
	names       map[string]string
	joined      map[string][]string // student id -> supervisor ids in assignment order
}

func newFakeSupervision() *fakeSupervision {
	return &fakeSupervision{
		students:    make(map[string]*models.Student),
		supervisors: make(map[string]*models.Supervisor),
		names:       make(map[string]string),
		joined:      make(map[string][]string),
	}
}

func (f *fakeSupervision) addStudent(id, userID, name string) *models.Student {
	st := &models.Student{ID: id, UserID: userID}
	f.students[id] = st
	f.names[id] = name
	return st
}

func (f *fakeSupervision) addSupervisor(id, userID string) *models.Supervisor {
	sp := &models.Supervisor{ID: id, UserID: userID}
	f.supervisors[id] = sp
	return sp
}

func (f *fakeSupervision) join(studentID, supervisorID string) {
	f.joined[studentID] = append(f.joined[studentID], supervisorID)
}

func (f *fakeSupervision) FindStudentByUserID(ctx context.Context, userID string) (*models.Student, error) {
	for _, st := range f.students {
		if st.UserID == userID {
			return st, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupervision) FindStudentByID(ctx context.Context, id string) (*models.Student, error) {
	if st, ok := f.students[id]; ok {
		return st, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupervision) FindSupervisorByUserID(ctx context.Context, userID string) (*models.Supervisor, error) {
	for _, sp := range f.supervisors {
		if sp.UserID == userID {
			return sp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupervision) FindSupervisorByID(ctx context.Context, id string) (*models.Supervisor, error) {
	if sp, ok := f.supervisors[id]; ok {
		return sp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSupervision) Resolve(ctx context.Context, studentID string) (*models.Supervision, error) {
	st, ok := f.students[studentID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	result := &models.Supervision{StudentID: st.ID, StudentUserID: st.UserID, Joined: []models.SupervisorLink{}}
	if st.SupervisorID != nil {
		if sp, ok := f.supervisors[*st.SupervisorID]; ok {
			result.Direct = &models.SupervisorLink{SupervisorID: sp.ID, UserID: sp.UserID}
		}
	}
	for _, id := range f.joined[studentID] {
		sp := f.supervisors[id]
		result.Joined = append(result.Joined, models.SupervisorLink{SupervisorID: sp.ID, UserID: sp.UserID})
	}
	return result, nil
}

func (f *fakeSupervision) ListJoinedStudentUserIDs(ctx context.Context, supervisorID string) ([]string, error) {
	var ids []string
	for studentID, sups := range f.joined {
		for _, id := range sups {
			if id == supervisorID {
				ids = append(ids, f.students[studentID].UserID)
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *fakeSupervision) ListSupervisedStudents(ctx context.Context, supervisorID string) ([]models.StudentSummary, error) {
	var out []models.StudentSummary
	for _, st := range f.students {
		direct := st.SupervisorID != nil && *st.SupervisorID == supervisorID
		linked := direct
		for _, id := range f.joined[st.ID] {
			if id == supervisorID {
				linked = true
			}
		}
		if linked {
			out = append(out, models.StudentSummary{ID: st.ID, UserID: st.UserID, Name: f.names[st.ID], Progress: st.Progress, Direct: direct})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeSupervision) CountJoinedStudents(ctx context.Context, supervisorID string) (int, error) {
	count := 0
	for _, sups := range f.joined {
		for _, id := range sups {
			if id == supervisorID {
				count++
			}
		}
	}
	return count, nil
}

func (f *fakeSupervision) Assign(ctx context.Context, studentID, supervisorID string, primary bool, at time.Time) error {
	found := false
	for _, id := range f.joined[studentID] {
		if id == supervisorID {
			found = true
		}
	}
	if !found {
		f.join(studentID, supervisorID)
	}
	if primary {
		id := supervisorID
		f.students[studentID].SupervisorID = &id
	}
	return nil
}

func (f *fakeSupervision) Unassign(ctx context.Context, studentID, supervisorID string, at time.Time) error {
	removed := false
	kept := f.joined[studentID][:0]
	for _, id := range f.joined[studentID] {
		if id == supervisorID {
			removed = true
			continue
		}
		kept = append(kept, id)
	}
	f.joined[studentID] = kept
	st := f.students[studentID]
	if st != nil && st.SupervisorID != nil && *st.SupervisorID == supervisorID {
		st.SupervisorID = nil
		removed = true
	}
	if !removed {
		return sql.ErrNoRows
	}
	return nil
}

func (f *fakeSupervision) UpdateProgress(ctx context.Context, studentID string, progress int) error {
	st, ok := f.students[studentID]
	if !ok {
		return sql.ErrNoRows
	}
	st.Progress = progress
	return nil
}

func (f *fakeSupervision) StudentName(ctx context.Context, studentID string) (string, error) {
	if name, ok := f.names[studentID]; ok {
		return name, nil
	}
	return "", sql.ErrNoRows
}

type fakeDocuments struct {
	docs      map[string]*models.Document
	seq       int
	createErr error
	statusErr error
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{docs: make(map[string]*models.Document)}
}

func (f *fakeDocuments) Create(ctx context.Context, doc *models.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.seq++
	doc.ID = fmt.Sprintf("doc-%d", f.seq)
	doc.CreatedAt = time.Now().UTC()
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocuments) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if doc, ok := f.docs[id]; ok {
		copied := *doc
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDocuments) List(ctx context.Context, filter models.DocumentFilter, scope models.DocumentScope) ([]models.Document, int, error) {
	var out []models.Document
	for _, doc := range f.docs {
		out = append(out, *doc)
	}
	return out, len(out), nil
}

func (f *fakeDocuments) UpdateMetadata(ctx context.Context, doc *models.Document) error {
	if _, ok := f.docs[doc.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *doc
	f.docs[doc.ID] = &copied
	return nil
}

func (f *fakeDocuments) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	if f.statusErr != nil {
		return f.statusErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return sql.ErrNoRows
	}
	doc.Status = status
	return nil
}

func (f *fakeDocuments) Delete(ctx context.Context, id string) error {
	if _, ok := f.docs[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.docs, id)
	return nil
}

type weekKey struct {
	studentID string
	week      int
}

// fakeWeekly mirrors the unique (student_id, week_number) upsert.
type fakeWeekly struct {
	rows     map[weekKey]*models.WeeklySubmission
	countErr error
}

func newFakeWeekly() *fakeWeekly {
	return &fakeWeekly{rows: make(map[weekKey]*models.WeeklySubmission)}
}

func (f *fakeWeekly) Upsert(ctx context.Context, sub *models.WeeklySubmission) error {
	copied := *sub
	f.rows[weekKey{sub.StudentID, sub.WeekNumber}] = &copied
	return nil
}

func (f *fakeWeekly) CountSubmitted(ctx context.Context, studentID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	count := 0
	for key, row := range f.rows {
		if key.studentID == studentID && row.Status == models.WeeklySubmissionSubmitted {
			count++
		}
	}
	return count, nil
}

func (f *fakeWeekly) ListByStudent(ctx context.Context, studentID string) ([]models.WeeklySubmission, error) {
	var out []models.WeeklySubmission
	for key, row := range f.rows {
		if key.studentID == studentID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekNumber < out[j].WeekNumber })
	return out, nil
}

type recordingNotifier struct {
	sent []models.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n models.Notification) bool {
	r.sent = append(r.sent, n)
	return true
}

func (r *recordingNotifier) NotifyAll(ctx context.Context, userIDs []string, template models.Notification) int {
	for _, id := range userIDs {
		n := template
		n.UserID = id
		r.sent = append(r.sent, n)
	}
	return len(userIDs)
}

func (r *recordingNotifier) recipients() []string {
	ids := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		ids = append(ids, n.UserID)
	}
	return ids
}

type recordingInvalidator struct {
	invalidated []string
}

func (r *recordingInvalidator) InvalidateProgress(ctx context.Context, studentID string) {
	r.invalidated = append(r.invalidated, studentID)
}

func claims(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{UserID: userID, Role: role}
}
