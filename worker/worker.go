package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"vinreport-web/models"
	"vinreport-web/queue"
	"vinreport-web/services/analytics"
)

const (
	dequeueTimeout    = 5 * time.Second
	delayedJobsPeriod = 10 * time.Second
)

type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	CompleteJob(ctx context.Context, job *queue.Job) error
	FailJob(ctx context.Context, job *queue.Job, jobErr error) error
	ProcessDelayedJobs(ctx context.Context) error
}

type EventSender interface {
	Send(ctx context.Context, ev analytics.Event) error
}

type MessageStore interface {
	SaveContactMessage(ctx context.Context, msg models.ContactMessage) (int64, error)
}

type Mailer interface {
	SendContactMessage(to string, msg models.ContactMessage) error
}

// Options wires the optional job consumers. A nil consumer means jobs of
// that kind are acknowledged without side effects.
type Options struct {
	Events       EventSender
	Store        MessageStore
	Mailer       Mailer
	ContactInbox string
}

// Worker drains analytics and contact jobs from the queue.
type Worker struct {
	queue    JobQueue
	opts     Options
	shutdown chan struct{}
	wg       sync.WaitGroup

	mu        sync.Mutex
	isRunning bool
}

func NewWorker(q JobQueue, opts Options) *Worker {
	return &Worker{
		queue:    q,
		opts:     opts,
		shutdown: make(chan struct{}),
	}
}

// Start begins processing jobs
func (w *Worker) Start(concurrency int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.isRunning {
		return
	}
	w.isRunning = true

	for i := 0; i < concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(i)
	}

	w.wg.Add(1)
	go w.promoteDelayed()

	log.Printf("Started %d worker goroutines", concurrency)
}

// Stop signals the worker goroutines and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.mu.Unlock()

	log.Println("Stopping worker...")
	close(w.shutdown)
	w.wg.Wait()
}

func (w *Worker) promoteDelayed() {
	defer w.wg.Done()

	ticker := time.NewTicker(delayedJobsPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.shutdown:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := w.queue.ProcessDelayedJobs(ctx); err != nil {
				log.Printf("Error promoting delayed jobs: %v", err)
			}
			cancel()
		}
	}
}

func (w *Worker) processJobs(workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.shutdown:
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		job, err := w.queue.Dequeue(ctx, dequeueTimeout)
		cancel()

		if err != nil {
			log.Printf("Worker %d: Error dequeuing job: %v", workerID, err)
			w.pause(time.Second)
			continue
		}

		if job == nil {
			w.pause(100 * time.Millisecond)
			continue
		}

		w.handle(workerID, job)
	}
}

func (w *Worker) handle(workerID int, job *queue.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	jobErr := w.processJob(ctx, job)
	cancel()

	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if jobErr != nil {
		log.Printf("Worker %d: Error processing job %s: %v", workerID, job.ID, jobErr)
		if err := w.queue.FailJob(ctx, job, jobErr); err != nil {
			log.Printf("Worker %d: Error marking job %s as failed: %v", workerID, job.ID, err)
		}
		return
	}

	if err := w.queue.CompleteJob(ctx, job); err != nil {
		log.Printf("Worker %d: Error marking job %s as complete: %v", workerID, job.ID, err)
	}
}

// pause sleeps for d unless the worker is stopped first.
func (w *Worker) pause(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-w.shutdown:
	case <-t.C:
	}
}

func (w *Worker) processJob(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypeAnalyticsEvent:
		return w.processAnalyticsEvent(ctx, job)
	case queue.JobTypeContactMessage:
		return w.processContactMessage(ctx, job)
	default:
		return queue.Permanent(fmt.Errorf("unknown job type: %s", job.Type))
	}
}

func (w *Worker) processAnalyticsEvent(ctx context.Context, job *queue.Job) error {
	if w.opts.Events == nil {
		return nil
	}

	ev, err := analytics.EventFromJob(job.Data)
	if err != nil {
		return queue.Permanent(err)
	}

	return w.opts.Events.Send(ctx, ev)
}

func (w *Worker) processContactMessage(ctx context.Context, job *queue.Job) error {
	msg, err := ContactFromJob(job.Data)
	if err != nil {
		return queue.Permanent(err)
	}

	// A retry after a failed email must not store the message twice.
	if w.opts.Store != nil && !stored(job.Data) {
		id, err := w.opts.Store.SaveContactMessage(ctx, msg)
		if err != nil {
			return fmt.Errorf("failed to save contact message: %v", err)
		}
		job.Data["stored_id"] = id
		msg.ID = fmt.Sprint(id)
	}

	if w.opts.Mailer != nil && w.opts.ContactInbox != "" {
		if err := w.opts.Mailer.SendContactMessage(w.opts.ContactInbox, msg); err != nil {
			return fmt.Errorf("failed to email contact message: %v", err)
		}
	}

	log.Printf("Processed contact message from %s", msg.Email)
	return nil
}

func stored(data map[string]interface{}) bool {
	_, ok := data["stored_id"]
	return ok
}
