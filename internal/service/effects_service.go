package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/pkg/jobs"
	"github.com/noah-isme/postgrad-supervision-api/pkg/mailer"
)

// Job types handled by the effects queue.
const (
	JobTypeEmail        = "email"
	JobTypeNotification = "notification"
)

type effectQueue interface {
	Handle(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

// EffectsService runs best-effort side effects (emails, in-app notifications)
// off the request path. When the queue is missing or refuses a job the effect
// runs inline; failures are logged and never returned to the caller.
type EffectsService struct {
	queue         effectQueue
	sender        mailer.Sender
	notifications notificationWriter
	metrics       *MetricsService
	logger        *zap.Logger
	inlineTimeout time.Duration
}

// NewEffectsService wires the job handlers onto queue. queue may be nil.
func NewEffectsService(queue effectQueue, sender mailer.Sender, notifications notificationWriter, metrics *MetricsService, logger *zap.Logger) *EffectsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &EffectsService{
		queue:         queue,
		sender:        sender,
		notifications: notifications,
		metrics:       metrics,
		logger:        logger,
		inlineTimeout: 10 * time.Second,
	}
	if queue != nil {
		queue.Handle(JobTypeEmail, s.handleEmail)
		queue.Handle(JobTypeNotification, s.handleNotification)
	}
	return s
}

// SendEmail hands the message to the mail transport and reports whether it was
// accepted for delivery.
func (s *EffectsService) SendEmail(ctx context.Context, msg mailer.Message) bool {
	if s == nil || s.sender == nil {
		return false
	}
	return s.dispatch(ctx, JobTypeEmail, msg, func(ctx context.Context) error {
		return s.sender.Send(ctx, msg)
	})
}

// Notify records an in-app notification for its recipient.
func (s *EffectsService) Notify(ctx context.Context, n models.Notification) bool {
	if s == nil || s.notifications == nil || n.UserID == "" {
		return false
	}
	if n.Icon == nil {
		n.Icon = n.Type.Icon()
	}
	return s.dispatch(ctx, JobTypeNotification, n, func(ctx context.Context) error {
		return s.notifications.Create(ctx, &n)
	})
}

// NotifyAll fans one notification out to each recipient.
func (s *EffectsService) NotifyAll(ctx context.Context, userIDs []string, template models.Notification) int {
	delivered := 0
	for _, userID := range userIDs {
		n := template
		n.UserID = userID
		if s.Notify(ctx, n) {
			delivered++
		}
	}
	return delivered
}

func (s *EffectsService) dispatch(ctx context.Context, kind string, payload interface{}, inline func(context.Context) error) bool {
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: kind, Payload: payload})
		if err == nil {
			s.metrics.RecordEffect(kind, "queued")
			return true
		}
		s.logger.Warn("effect queue rejected job, running inline", zap.String("kind", kind), zap.Error(err))
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.inlineTimeout)
	defer cancel()
	if err := inline(runCtx); err != nil {
		s.metrics.RecordEffect(kind, "failed")
		s.logger.Warn("side effect failed", zap.String("kind", kind), zap.Error(err))
		return false
	}
	s.metrics.RecordEffect(kind, "delivered")
	return true
}

func (s *EffectsService) handleEmail(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(mailer.Message)
	if !ok {
		return fmt.Errorf("email job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.RecordEffect(JobTypeEmail, "failed")
		return err
	}
	s.metrics.RecordEffect(JobTypeEmail, "delivered")
	return nil
}

func (s *EffectsService) handleNotification(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("notification job %s: unexpected payload %T", job.ID, job.Payload)
	}
	if err := s.notifications.Create(ctx, &n); err != nil {
		s.metrics.RecordEffect(JobTypeNotification, "failed")
		return err
	}
	s.metrics.RecordEffect(JobTypeNotification, "delivered")
	return nil
}
