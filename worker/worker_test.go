package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"vinreport-web/models"
	"vinreport-web/queue"
	"vinreport-web/services/analytics"
)

type fakeQueue struct {
	mu        sync.Mutex
	pending   []*queue.Job
	completed chan *queue.Job
	failed    chan *queue.Job
}

func newFakeQueue(jobs ...*queue.Job) *fakeQueue {
	return &fakeQueue{
		pending:   jobs,
		completed: make(chan *queue.Job, len(jobs)),
		failed:    make(chan *queue.Job, len(jobs)),
	}
}

func (q *fakeQueue) Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil
	}
	job := q.pending[0]
	q.pending = q.pending[1:]
	return job, nil
}

func (q *fakeQueue) CompleteJob(ctx context.Context, job *queue.Job) error {
	q.completed <- job
	return nil
}

func (q *fakeQueue) FailJob(ctx context.Context, job *queue.Job, jobErr error) error {
	q.failed <- job
	return nil
}

func (q *fakeQueue) ProcessDelayedJobs(ctx context.Context) error { return nil }

type fakeSender struct {
	mu     sync.Mutex
	events []analytics.Event
	err    error
}

func (s *fakeSender) Send(ctx context.Context, ev analytics.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return s.err
}

type fakeStore struct {
	saved []models.ContactMessage
}

func (s *fakeStore) SaveContactMessage(ctx context.Context, msg models.ContactMessage) (int64, error) {
	s.saved = append(s.saved, msg)
	return int64(len(s.saved)), nil
}

type fakeMailer struct {
	to   []string
	sent []models.ContactMessage
	err  error
}

func (m *fakeMailer) SendContactMessage(to string, msg models.ContactMessage) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.sent = append(m.sent, msg)
	return nil
}

func analyticsJob() *queue.Job {
	return &queue.Job{
		ID:   "job-1",
		Type: queue.JobTypeAnalyticsEvent,
		Data: map[string]interface{}{
			"name":      analytics.EventVINSearch,
			"client_id": "123.456",
			"params":    map[string]interface{}{"vin": "1HGCM82633A004352"},
		},
	}
}

func contactJob() *queue.Job {
	return &queue.Job{
		ID:   "job-2",
		Type: queue.JobTypeContactMessage,
		Data: ContactJob(models.ContactMessage{
			Name:    "Ana",
			Email:   "ana@example.com",
			Subject: "Refund",
			Message: "Hello",
		}),
	}
}

func TestProcessJob_AnalyticsEvent(t *testing.T) {
	sender := &fakeSender{}
	w := NewWorker(newFakeQueue(), Options{Events: sender})

	require.NoError(t, w.processJob(context.Background(), analyticsJob()))
	require.Len(t, sender.events, 1)
	assert.Equal(t, "123.456", sender.events[0].ClientID)
	assert.Equal(t, "1HGCM82633A004352", sender.events[0].Params["vin"])
}

func TestProcessJob_AnalyticsWithoutSenderIsAcknowledged(t *testing.T) {
	w := NewWorker(newFakeQueue(), Options{})
	assert.NoError(t, w.processJob(context.Background(), analyticsJob()))
}

func TestProcessJob_MalformedAnalyticsEvent(t *testing.T) {
	w := NewWorker(newFakeQueue(), Options{Events: &fakeSender{}})
	job := &queue.Job{Type: queue.JobTypeAnalyticsEvent, Data: map[string]interface{}{}}
	err := w.processJob(context.Background(), job)
	assert.ErrorIs(t, err, analytics.ErrMalformedEvent)
	assert.True(t, queue.IsPermanent(err), "a malformed event never becomes valid on retry")
}

func TestProcessJob_MalformedContactIsPermanent(t *testing.T) {
	w := NewWorker(newFakeQueue(), Options{Store: &fakeStore{}})
	job := &queue.Job{Type: queue.JobTypeContactMessage, Data: map[string]interface{}{"name": "Ana"}}
	assert.True(t, queue.IsPermanent(w.processJob(context.Background(), job)))
}

func TestProcessJob_TransientErrorsAreRetried(t *testing.T) {
	w := NewWorker(newFakeQueue(), Options{Events: &fakeSender{err: errors.New("collect unavailable")}})
	err := w.processJob(context.Background(), analyticsJob())
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))

	mailer := &fakeMailer{err: errors.New("smtp down")}
	w = NewWorker(newFakeQueue(), Options{Mailer: mailer, ContactInbox: "support@example.com"})
	err = w.processJob(context.Background(), contactJob())
	require.Error(t, err)
	assert.False(t, queue.IsPermanent(err))
}

func TestProcessJob_ContactMessage(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{}
	w := NewWorker(newFakeQueue(), Options{Store: store, Mailer: mailer, ContactInbox: "support@example.com"})

	require.NoError(t, w.processJob(context.Background(), contactJob()))
	require.Len(t, store.saved, 1)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, []string{"support@example.com"}, mailer.to)
	assert.Equal(t, "1", mailer.sent[0].ID)
	assert.Equal(t, "Refund", mailer.sent[0].Subject)
}

func TestProcessJob_ContactRetryDoesNotStoreTwice(t *testing.T) {
	store := &fakeStore{}
	mailer := &fakeMailer{err: errors.New("smtp down")}
	w := NewWorker(newFakeQueue(), Options{Store: store, Mailer: mailer, ContactInbox: "support@example.com"})

	job := contactJob()
	assert.ErrorContains(t, w.processJob(context.Background(), job), "smtp down")

	mailer.err = nil
	require.NoError(t, w.processJob(context.Background(), job))
	assert.Len(t, store.saved, 1)
	assert.Len(t, mailer.sent, 1)
}

func TestProcessJob_UnknownType(t *testing.T) {
	w := NewWorker(newFakeQueue(), Options{})
	err := w.processJob(context.Background(), &queue.Job{Type: "bogus"})
	assert.ErrorContains(t, err, "unknown job type")
	assert.True(t, queue.IsPermanent(err))
}

func TestWorker_CompletesAndFailsJobs(t *testing.T) {
	defer goleak.VerifyNone(t)

	q := newFakeQueue(analyticsJob(), contactJob())
	sender := &fakeSender{err: errors.New("collect unavailable")}
	w := NewWorker(q, Options{Events: sender})

	w.Start(2)
	defer w.Stop()

	select {
	case job := <-q.failed:
		assert.Equal(t, "job-1", job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("analytics job was not failed")
	}

	select {
	case job := <-q.completed:
		assert.Equal(t, "job-2", job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("contact job was not completed")
	}
}

func TestWorker_StopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := NewWorker(newFakeQueue(), Options{})
	w.Start(1)
	w.Stop()
	w.Stop()
}

func TestContactFromJob(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	data := ContactJob(models.ContactMessage{
		Name: "Ana", Email: "ana@example.com", Message: "Hello", VIN: "1HGCM82633A004352", CreatedAt: created,
	})

	msg, err := ContactFromJob(data)
	require.NoError(t, err)
	assert.Equal(t, created, msg.CreatedAt)
	assert.Equal(t, "1HGCM82633A004352", msg.VIN)

	_, err = ContactFromJob(map[string]interface{}{"name": "Ana"})
	assert.Error(t, err)

	data["created_at"] = "yesterday"
	_, err = ContactFromJob(data)
	assert.ErrorContains(t, err, "invalid created_at")
}
