package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/postgrad-supervision-api/internal/models"
	"github.com/noah-isme/postgrad-supervision-api/pkg/jobs"
	"github.com/noah-isme/postgrad-supervision-api/pkg/mailer"
)

type stubQueue struct {
	handlers map[string]jobs.Handler
	enqueued []jobs.Job
	err      error
}

func newStubQueue() *stubQueue {
	return &stubQueue{handlers: make(map[string]jobs.Handler)}
}

func (q *stubQueue) Handle(jobType string, handler jobs.Handler) {
	q.handlers[jobType] = handler
}

func (q *stubQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

type stubSender struct {
	sent []mailer.Message
	err  error
}

func (s *stubSender) Send(ctx context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubNotificationWriter struct {
	created []models.Notification
	err     error
}

func (w *stubNotificationWriter) Create(ctx context.Context, n *models.Notification) error {
	if w.err != nil {
		return w.err
	}
	n.ID = "n-1"
	w.created = append(w.created, *n)
	return nil
}

func TestEffectsRunInlineWithoutQueue(t *testing.T) {
	sender := &stubSender{}
	writer := &stubNotificationWriter{}
	svc := NewEffectsService(nil, sender, writer, nil, nil)

	assert.True(t, svc.SendEmail(context.Background(), mailer.Message{To: "ada@example.com", Template: mailer.TemplateWelcome}))
	assert.True(t, svc.Notify(context.Background(), models.Notification{UserID: "u-1", Title: "hi"}))
	require.Len(t, sender.sent, 1)
	require.Len(t, writer.created, 1)
	assert.Equal(t, "u-1", writer.created[0].UserID)
}

func TestEffectsFillNotificationIcon(t *testing.T) {
	writer := &stubNotificationWriter{}
	svc := NewEffectsService(nil, nil, writer, nil, nil)
	custom := "star"

	assert.True(t, svc.Notify(context.Background(), models.Notification{UserID: "u-1", Type: models.NotificationFeedback}))
	assert.True(t, svc.Notify(context.Background(), models.Notification{UserID: "u-2", Type: models.NotificationFeedback, Icon: &custom}))
	require.Len(t, writer.created, 2)
	require.NotNil(t, writer.created[0].Icon)
	assert.Equal(t, "message-circle", *writer.created[0].Icon)
	assert.Equal(t, "star", *writer.created[1].Icon)
}

func TestEffectsQueueAndHandlers(t *testing.T) {
	queue := newStubQueue()
	sender := &stubSender{}
	writer := &stubNotificationWriter{}
	svc := NewEffectsService(queue, sender, writer, NewMetricsService(), nil)

	require.Contains(t, queue.handlers, JobTypeEmail)
	require.Contains(t, queue.handlers, JobTypeNotification)

	assert.Equal(t, 2, svc.NotifyAll(context.Background(), []string{"u-1", "u-2"}, models.Notification{Title: "resource"}))
	assert.True(t, svc.SendEmail(context.Background(), mailer.Message{To: "ada@example.com"}))
	require.Len(t, queue.enqueued, 3)
	assert.Empty(t, sender.sent)
	assert.Empty(t, writer.created)

	for _, job := range queue.enqueued {
		require.NoError(t, queue.handlers[job.Type](context.Background(), job))
	}
	assert.Len(t, sender.sent, 1)
	require.Len(t, writer.created, 2)
	assert.Equal(t, "u-2", writer.created[1].UserID)

	err := queue.handlers[JobTypeEmail](context.Background(), jobs.Job{ID: "bad", Type: JobTypeEmail, Payload: "oops"})
	assert.Error(t, err)
}

func TestEffectsFallBackWhenQueueRejects(t *testing.T) {
	queue := newStubQueue()
	queue.err = errors.New("queue is not running")
	writer := &stubNotificationWriter{}
	svc := NewEffectsService(queue, &stubSender{}, writer, nil, nil)

	assert.True(t, svc.Notify(context.Background(), models.Notification{UserID: "u-1"}))
	assert.Len(t, writer.created, 1)
}

func TestEffectsReportFailures(t *testing.T) {
	writer := &stubNotificationWriter{err: errors.New("db down")}
	sender := &stubSender{err: errors.New("smtp down")}
	svc := NewEffectsService(nil, sender, writer, nil, nil)

	assert.False(t, svc.SendEmail(context.Background(), mailer.Message{To: "ada@example.com"}))
	assert.False(t, svc.Notify(context.Background(), models.Notification{UserID: "u-1"}))
	assert.False(t, svc.Notify(context.Background(), models.Notification{}))
	assert.Equal(t, 0, svc.NotifyAll(context.Background(), []string{"u-1"}, models.Notification{}))
}

func TestEffectsSurviveCancelledRequest(t *testing.T) {
	writer := &stubNotificationWriter{}
	svc := NewEffectsService(nil, &stubSender{}, writer, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.True(t, svc.Notify(ctx, models.Notification{UserID: "u-1"}))
}

func TestEffectsWithRealQueue(t *testing.T) {
	queue := jobs.NewQueue("effects-test", jobs.QueueConfig{Workers: 1})
	writer := &stubNotificationWriter{}
	done := make(chan struct{})
	svc := NewEffectsService(queue, &stubSender{}, writer, nil, nil)
	queue.Handle("probe", func(ctx context.Context, job jobs.Job) error {
		close(done)
		return nil
	})
	queue.Start(context.Background())
	defer queue.Stop()

	assert.True(t, svc.Notify(context.Background(), models.Notification{UserID: "u-1"}))
	require.NoError(t, queue.Enqueue(jobs.Job{Type: "probe"}))
	<-done
	assert.Len(t, writer.created, 1)
}
