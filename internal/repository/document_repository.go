package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
)

const documentColumns = `d.id, d.student_id, d.supervisor_id, d.title, d.description, d.file_path, d.file_name, d.file_size,
       d.file_type, d.week_number, d.type, d.status, d.uploaded_by, d.created_at, d.updated_at`

// DocumentRepository persists document metadata.
type DocumentRepository struct {
	db *sqlx.DB
	sb sq.StatementBuilderType
}

func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db, sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar)}
}

// Create stores metadata for an uploaded file.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	const query = `INSERT INTO documents
	(id, student_id, supervisor_id, title, description, file_path, file_name, file_size, file_type, week_number, type, status, uploaded_by, created_at, updated_at)
	VALUES (:id, :student_id, :supervisor_id, :title, :description, :file_path, :file_name, :file_size, :file_type, :week_number, :type, :status, :uploaded_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID retrieves one document.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d WHERE d.id = $1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &doc, nil
}

// List returns documents matching the filter inside the caller's scope,
// newest first, with the total count before paging.
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter, scope models.DocumentScope) ([]models.Document, int, error) {
	where := sq.And{}
	switch {
	case scope.StudentID != "":
		where = append(where, sq.Or{
			sq.Eq{"d.student_id": scope.StudentID},
			sq.And{
				sq.Eq{"d.student_id": nil},
				sq.Eq{"d.type": models.DocumentTypeResource},
				sq.Eq{"d.supervisor_id": scope.StudentSupervisors},
			},
		})
	case scope.SupervisorID != "":
		where = append(where, sq.Or{
			sq.Eq{"d.supervisor_id": scope.SupervisorID},
			sq.Expr("d.student_id IN (SELECT student_id FROM supervisor_students WHERE supervisor_id = ?)", scope.SupervisorID),
			sq.Expr("d.student_id IN (SELECT id FROM students WHERE supervisor_id = ?)", scope.SupervisorID),
		})
	}
	if filter.StudentID != "" {
		where = append(where, sq.Eq{"d.student_id": filter.StudentID})
	}
	if filter.SupervisorID != "" {
		where = append(where, sq.Eq{"d.supervisor_id": filter.SupervisorID})
	}
	if filter.Type != "" {
		where = append(where, sq.Eq{"d.type": filter.Type})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"d.status": filter.Status})
	}
	if filter.WeekNumber != nil {
		where = append(where, sq.Eq{"d.week_number": *filter.WeekNumber})
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	listBuilder := r.sb.Select(documentColumns).From("documents d").
		OrderBy("d.created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize))
	countBuilder := r.sb.Select("COUNT(*)").From("documents d")
	if len(where) > 0 {
		listBuilder = listBuilder.Where(where)
		countBuilder = countBuilder.Where(where)
	}

	query, args, err := listBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build document list query: %w", err)
	}
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build document count query: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return docs, total, nil
}

// UpdateMetadata edits title and description.
func (r *DocumentRepository) UpdateMetadata(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	const query = `UPDATE documents SET title = :title, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, doc)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return expectAffected(res)
}

// UpdateStatus moves a document to a new review status.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a document row. Weekly submissions referencing it keep their
// file reference with document_id cleared by the foreign key.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
