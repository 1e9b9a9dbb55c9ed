package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/dto"
	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	appErrors "github.com/noah-isme/postgrad-supervision-api/pkg/errors"
)

type documentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter, scope models.DocumentScope) ([]models.Document, int, error)
	UpdateMetadata(ctx context.Context, doc *models.Document) error
	UpdateStatus(ctx context.Context, id string, status models.DocumentStatus) error
	Delete(ctx context.Context, id string) error
}

type documentSupervisionStore interface {
	supervisionLookup
	ListJoinedStudentUserIDs(ctx context.Context, supervisorID string) ([]string, error)
	UpdateProgress(ctx context.Context, studentID string, progress int) error
	StudentName(ctx context.Context, studentID string) (string, error)
}

type weeklySubmissionStore interface {
	Upsert(ctx context.Context, sub *models.WeeklySubmission) error
	CountSubmitted(ctx context.Context, studentID string) (int, error)
}

type documentFileStorage interface {
	SaveStream(key string, r io.Reader) (string, error)
	Open(key string) (*os.File, error)
	Delete(key string) error
}

type downloadURLSigner interface {
	Generate(resourceID, key string) (string, time.Time, error)
	Parse(token string) (resourceID, key string, err error)
}

type notificationDispatcher interface {
	Notify(ctx context.Context, n models.Notification) bool
	NotifyAll(ctx context.Context, userIDs []string, template models.Notification) int
}

type progressInvalidator interface {
	InvalidateProgress(ctx context.Context, studentID string)
}

// DocumentUpload carries the uploaded file stream and its client metadata.
type DocumentUpload struct {
	Filename string
	Size     int64
	MimeType string
	Content  io.Reader
}

// DocumentDownload bundles an opened file with its response headers.
type DocumentDownload struct {
	File      *os.File
	Filename  string
	MimeType  string
	SizeBytes int64
}

// DocumentServiceConfig holds upload validation and link settings.
type DocumentServiceConfig struct {
	MaxFileSize       int64
	AllowedExtensions []string
	APIPrefix         string
}

// DocumentService runs the upload, progress and document management workflow.
type DocumentService struct {
	docs        documentStore
	supervision documentSupervisionStore
	access      supervisionAccess
	weekly      weeklySubmissionStore
	storage     documentFileStorage
	signer      downloadURLSigner
	notifier    notificationDispatcher
	cache       progressInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         DocumentServiceConfig
	extSet      map[string]struct{}
}

// NewDocumentService constructs the service with defaults.
func NewDocumentService(docs documentStore, supervision documentSupervisionStore, weekly weeklySubmissionStore, storage documentFileStorage, signer downloadURLSigner, notifier notificationDispatcher, cache progressInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg DocumentServiceConfig) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{"pdf", "doc", "docx", "txt", "jpg", "jpeg", "png"}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	extSet := make(map[string]struct{}, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		extSet[strings.TrimPrefix(strings.ToLower(ext), ".")] = struct{}{}
	}
	return &DocumentService{
		docs:        docs,
		supervision: supervision,
		access:      supervisionAccess{lookup: supervision},
		weekly:      weekly,
		storage:     storage,
		signer:      signer,
		notifier:    notifier,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		extSet:      extSet,
	}
}

// uploadTarget is the resolved ownership of a new document.
type uploadTarget struct {
	studentID    *string
	supervisorID *string
	supervision  *models.Supervision
}

// Upload validates and stores a file, records its metadata, then runs the
// weekly progress and notification side effects. Side effects never fail the
// upload once the document row exists.
func (s *DocumentService) Upload(ctx context.Context, meta dto.UploadDocumentRequest, upload DocumentUpload, actor *models.JWTClaims) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(meta); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document metadata")
	}
	ext, err := s.validateFile(upload)
	if err != nil {
		return nil, err
	}

	if meta.Type == "" {
		meta.Type = models.DocumentTypeResource
		if actor.Role == models.RoleStudent {
			meta.Type = models.DocumentTypeSubmission
		}
	}

	target, err := s.resolveTarget(ctx, meta, actor)
	if err != nil {
		return nil, err
	}

	key := s.storageKey(actor, ext)
	path, err := s.storage.SaveStream(key, upload.Content)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to store document file")
	}

	doc := &models.Document{
		StudentID:    target.studentID,
		SupervisorID: target.supervisorID,
		Title:        strings.TrimSpace(meta.Title),
		Description:  meta.Description,
		FilePath:     path,
		FileName:     filepath.Base(upload.Filename),
		FileSize:     upload.Size,
		FileType:     s.contentType(upload, ext),
		WeekNumber:   meta.WeekNumber,
		Type:         meta.Type,
		Status:       models.DocumentStatusSubmitted,
		UploadedBy:   actor.UserID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		if delErr := s.storage.Delete(path); delErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", path), zap.Error(delErr))
		}
		return nil, appErrors.Internal(err, "failed to save document metadata")
	}
	s.metrics.RecordUpload(string(actor.Role), string(doc.Type))

	if actor.Role == models.RoleStudent && doc.Type == models.DocumentTypeSubmission && doc.WeekNumber != nil {
		s.recordWeeklySubmission(ctx, *target.studentID, doc)
	}
	s.notifyUpload(ctx, actor, doc, target)

	return doc, nil
}

// List returns documents visible to the actor.
func (s *DocumentService) List(ctx context.Context, filter models.DocumentFilter, actor *models.JWTClaims) ([]models.Document, *models.Pagination, error) {
	if actor == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	scope, err := s.scopeFor(ctx, actor)
	if err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	docs, total, err := s.docs.List(ctx, filter, scope)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns a document the actor may view together with a signed download link.
func (s *DocumentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.DocumentResponse, error) {
	doc, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	resp := &dto.DocumentResponse{Document: *doc}
	if s.signer != nil {
		token, _, err := s.signer.Generate(doc.ID, doc.FilePath)
		if err != nil {
			s.logger.Warn("failed to sign download url", zap.String("document_id", doc.ID), zap.Error(err))
		} else {
			resp.DownloadURL = fmt.Sprintf("%s/documents/%s/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), doc.ID, token)
		}
	}
	return resp, nil
}

// Download opens the stored file. Bearer access is always enforced; a signed
// token, when supplied, must also match the document.
func (s *DocumentService) Download(ctx context.Context, id, token string, actor *models.JWTClaims) (*DocumentDownload, error) {
	doc, err := s.loadVisible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if token != "" {
		if s.signer == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "download signer unavailable")
		}
		docID, key, err := s.signer.Parse(token)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
		}
		if docID != doc.ID || key != doc.FilePath {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download token mismatch")
		}
	}

	file, err := s.storage.Open(doc.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document file is missing")
		}
		return nil, appErrors.Internal(err, "failed to open document file")
	}
	info, err := file.Stat()
	if err != nil {
		file.Close() //nolint:errcheck
		return nil, appErrors.Internal(err, "failed to read document file")
	}
	return &DocumentDownload{
		File:      file,
		Filename:  doc.FileName,
		MimeType:  doc.FileType,
		SizeBytes: info.Size(),
	}, nil
}

// Update edits the title or description. Only the uploader or an administrator may.
func (s *DocumentService) Update(ctx context.Context, id string, req dto.UpdateDocumentRequest, actor *models.JWTClaims) (*models.Document, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid document update")
	}
	doc, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		doc.Description = req.Description
	}
	if err := s.docs.UpdateMetadata(ctx, doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Internal(err, "failed to update document")
	}
	return doc, nil
}

// Delete removes the document row and its stored file. Weekly progress is
// not recomputed, but the cached summary is dropped since the slot loses its
// document link.
func (s *DocumentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	doc, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Internal(err, "failed to delete document")
	}
	if doc.StudentID != nil {
		s.invalidateProgress(ctx, *doc.StudentID)
	}
	if err := s.storage.Delete(doc.FilePath); err != nil {
		s.logger.Warn("failed to delete document file", zap.String("document_id", doc.ID), zap.String("path", doc.FilePath), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) validateFile(upload DocumentUpload) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(upload.Filename)), ".")
	if _, ok := s.extSet[ext]; !ok {
		return "", appErrors.Clone(appErrors.ErrInvalidFileType, fmt.Sprintf("file type not allowed, accepted: %s", strings.Join(s.cfg.AllowedExtensions, ", ")))
	}
	if upload.Content == nil || upload.Size <= 0 {
		return "", appErrors.Clone(appErrors.ErrValidation, "file is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return "", appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds %d bytes limit", s.cfg.MaxFileSize))
	}
	return ext, nil
}

// resolveTarget forces the actor's own row into the matching ownership field
// so nobody can upload on behalf of another identity.
func (s *DocumentService) resolveTarget(ctx context.Context, meta dto.UploadDocumentRequest, actor *models.JWTClaims) (*uploadTarget, error) {
	switch actor.Role {
	case models.RoleStudent:
		student, err := s.access.studentFor(ctx, actor)
		if err != nil {
			return nil, err
		}
		supervision, err := s.access.resolve(ctx, student.ID)
		if err != nil {
			return nil, err
		}
		target := &uploadTarget{studentID: &student.ID, supervision: supervision}
		if primary, ok := supervision.PrimarySupervisor(); ok {
			target.supervisorID = &primary.SupervisorID
		}
		return target, nil

	case models.RoleSupervisor:
		supervisor, err := s.access.supervisorFor(ctx, actor)
		if err != nil {
			return nil, err
		}
		target := &uploadTarget{supervisorID: &supervisor.ID}
		if studentID := optionalID(meta.StudentID); studentID != nil {
			supervision, err := s.access.resolve(ctx, *studentID)
			if err != nil {
				return nil, err
			}
			if !supervision.IncludesSupervisor(supervisor.ID) {
				return nil, appErrors.Clone(appErrors.ErrForbidden, "you do not supervise this student")
			}
			target.studentID = studentID
			target.supervision = supervision
		}
		return target, nil

	case models.RoleAdministrator:
		target := &uploadTarget{}
		if studentID := optionalID(meta.StudentID); studentID != nil {
			supervision, err := s.access.resolve(ctx, *studentID)
			if err != nil {
				return nil, err
			}
			target.studentID = studentID
			target.supervision = supervision
		}
		if supervisorID := optionalID(meta.SupervisorID); supervisorID != nil {
			if _, err := s.supervision.FindSupervisorByID(ctx, *supervisorID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "supervisor not found")
				}
				return nil, appErrors.Internal(err, "failed to load supervisor")
			}
			target.supervisorID = supervisorID
		}
		return target, nil

	default:
		return nil, appErrors.ErrForbidden
	}
}

// recordWeeklySubmission upserts the week slot and recomputes progress from
// the submitted slot count.
func (s *DocumentService) recordWeeklySubmission(ctx context.Context, studentID string, doc *models.Document) {
	now := time.Now().UTC()
	sub := &models.WeeklySubmission{
		StudentID:   studentID,
		WeekNumber:  *doc.WeekNumber,
		DocumentID:  &doc.ID,
		FilePath:    doc.FilePath,
		FileName:    doc.FileName,
		Status:      models.WeeklySubmissionSubmitted,
		SubmittedAt: &now,
		UpdatedAt:   now,
	}
	if err := s.weekly.Upsert(ctx, sub); err != nil {
		s.logger.Warn("failed to record weekly submission", zap.String("student_id", studentID), zap.Int("week", sub.WeekNumber), zap.Error(err))
		return
	}
	defer s.invalidateProgress(ctx, studentID)

	submitted, err := s.weekly.CountSubmitted(ctx, studentID)
	if err != nil {
		s.logger.Warn("failed to count weekly submissions", zap.String("student_id", studentID), zap.Error(err))
		return
	}
	if err := s.supervision.UpdateProgress(ctx, studentID, models.ProgressFor(submitted)); err != nil {
		s.logger.Warn("failed to update progress", zap.String("student_id", studentID), zap.Error(err))
	}
}

// invalidateProgress drops the cached summary whenever a slot changed, even
// if the progress recompute failed.
func (s *DocumentService) invalidateProgress(ctx context.Context, studentID string) {
	if s.cache != nil {
		s.cache.InvalidateProgress(ctx, studentID)
	}
}

func (s *DocumentService) notifyUpload(ctx context.Context, actor *models.JWTClaims, doc *models.Document, target *uploadTarget) {
	if s.notifier == nil {
		return
	}
	link := "/documents/" + doc.ID

	switch actor.Role {
	case models.RoleStudent:
		primary, ok := target.supervision.PrimarySupervisor()
		if !ok {
			s.logger.Debug("student has no supervisor to notify", zap.String("student_id", *doc.StudentID))
			return
		}
		name := s.studentName(ctx, *doc.StudentID)
		message := fmt.Sprintf("%s uploaded %q", name, doc.Title)
		if doc.WeekNumber != nil {
			message = fmt.Sprintf("%s submitted week %d: %q", name, *doc.WeekNumber, doc.Title)
		}
		s.notifier.Notify(ctx, models.Notification{
			UserID:  primary.UserID,
			Title:   "New submission",
			Message: message,
			Type:    models.NotificationSubmission,
			Icon:    models.NotificationSubmission.Icon(),
			Link:    &link,
		})

	case models.RoleSupervisor:
		if doc.Type != models.DocumentTypeResource {
			return
		}
		template := models.Notification{
			Title:   "New resource shared",
			Message: fmt.Sprintf("Your supervisor shared %q", doc.Title),
			Type:    models.NotificationResource,
			Icon:    models.NotificationResource.Icon(),
			Link:    &link,
		}
		if target.supervision != nil {
			template.UserID = target.supervision.StudentUserID
			s.notifier.Notify(ctx, template)
			return
		}
		userIDs, err := s.supervision.ListJoinedStudentUserIDs(ctx, *doc.SupervisorID)
		if err != nil {
			s.logger.Warn("failed to list supervised students for fan-out", zap.String("supervisor_id", *doc.SupervisorID), zap.Error(err))
			return
		}
		s.notifier.NotifyAll(ctx, userIDs, template)
	}
}

func (s *DocumentService) studentName(ctx context.Context, studentID string) string {
	name, err := s.supervision.StudentName(ctx, studentID)
	if err != nil || strings.TrimSpace(name) == "" {
		return "A student"
	}
	return name
}

func (s *DocumentService) scopeFor(ctx context.Context, actor *models.JWTClaims) (models.DocumentScope, error) {
	switch actor.Role {
	case models.RoleAdministrator:
		return models.DocumentScope{}, nil
	case models.RoleStudent:
		student, err := s.access.studentFor(ctx, actor)
		if err != nil {
			return models.DocumentScope{}, err
		}
		supervision, err := s.access.resolve(ctx, student.ID)
		if err != nil {
			return models.DocumentScope{}, err
		}
		scope := models.DocumentScope{StudentID: student.ID, StudentSupervisors: []string{}}
		if supervision.Direct != nil {
			scope.StudentSupervisors = append(scope.StudentSupervisors, supervision.Direct.SupervisorID)
		}
		for _, link := range supervision.Joined {
			scope.StudentSupervisors = append(scope.StudentSupervisors, link.SupervisorID)
		}
		return scope, nil
	case models.RoleSupervisor:
		supervisor, err := s.access.supervisorFor(ctx, actor)
		if err != nil {
			return models.DocumentScope{}, err
		}
		return models.DocumentScope{SupervisorID: supervisor.ID}, nil
	default:
		return models.DocumentScope{}, appErrors.ErrForbidden
	}
}

func (s *DocumentService) loadVisible(ctx context.Context, id string, actor *models.JWTClaims) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	doc, err := loadDocument(ctx, s.docs, id)
	if err != nil {
		return nil, err
	}
	if err := s.access.ensureDocumentView(ctx, actor, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) loadOwned(ctx context.Context, id string, actor *models.JWTClaims) (*models.Document, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	doc, err := loadDocument(ctx, s.docs, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != models.RoleAdministrator && doc.UploadedBy != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the uploader or an administrator can modify this document")
	}
	return doc, nil
}

func (s *DocumentService) storageKey(actor *models.JWTClaims, ext string) string {
	return fmt.Sprintf("%s/%s/%d_%s.%s", actor.Role, actor.UserID, time.Now().Unix(), randomSuffix(), ext)
}

func (s *DocumentService) contentType(upload DocumentUpload, ext string) string {
	if upload.MimeType != "" && upload.MimeType != "application/octet-stream" {
		return upload.MimeType
	}
	if byExt := mime.TypeByExtension("." + ext); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func optionalID(raw *string) *string {
	if raw == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}
