package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type JobType string

const (
	JobTypeAnalyticsEvent JobType = "analytics_event"
	JobTypeContactMessage JobType = "contact_message"
)

const maxRetries = 5

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as one a retry cannot fix. FailJob sends such jobs
// straight to the failed list.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

type Job struct {
	ID         string                 `json:"id"`
	Type       JobType                `json:"type"`
	Data       map[string]interface{} `json:"data"`
	CreatedAt  time.Time              `json:"created_at"`
	RetryCount int                    `json:"retry_count"`

	// raw is the payload as popped from Redis, needed to LREM it from the
	// processing list.
	raw string
}

type Queue struct {
	client     *redis.Client
	queueName  string
	processing string
	delayed    string
	failed     string
}

func NewQueue(redisURL, queueName string) (*Queue, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Queue{
		client:     client,
		queueName:  queueName,
		processing: queueName + ":processing",
		delayed:    queueName + ":delayed",
		failed:     queueName + ":failed",
	}, nil
}

func (q *Queue) Enqueue(ctx context.Context, jobType JobType, data map[string]interface{}) error {
	job := Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}

	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}

	log.Printf("Enqueued job %s of type %s", job.ID, job.Type)
	return nil
}

// Dequeue pops the next job and parks it on the processing list. A nil job
// with a nil error means the timeout elapsed with nothing to do.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, fmt.Errorf("unexpected BLPOP result format")
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	job.raw = result[1]

	if err := q.client.RPush(ctx, q.processing, result[1]).Err(); err != nil {
		log.Printf("Warning: Failed to move job %s to processing queue: %v", job.ID, err)
	}

	return &job, nil
}

func (q *Queue) CompleteJob(ctx context.Context, job *Job) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing queue: %w", err)
	}

	log.Printf("Completed job %s of type %s", job.ID, job.Type)
	return nil
}

// FailJob schedules the job for a retry with exponential backoff, or moves
// it to the failed list once maxRetries is exhausted or jobErr is permanent.
func (q *Queue) FailJob(ctx context.Context, job *Job, jobErr error) error {
	if err := q.client.LRem(ctx, q.processing, 1, job.raw).Err(); err != nil {
		log.Printf("Warning: Failed to remove job %s from processing queue: %v", job.ID, err)
	}

	job.RetryCount++
	if job.Data == nil {
		job.Data = make(map[string]interface{})
	}
	job.Data["last_error"] = jobErr.Error()

	if IsPermanent(jobErr) {
		job.Data["permanent"] = true
		return q.pushFailed(ctx, job)
	}

	if job.RetryCount <= maxRetries {
		delay := 15 * time.Second * time.Duration(1<<(job.RetryCount-1))
		retryAt := time.Now().Add(delay)

		jobJSON, err := json.Marshal(job)
		if err != nil {
			return fmt.Errorf("failed to marshal job: %w", err)
		}

		if err := q.client.ZAdd(ctx, q.delayed, &redis.Z{
			Score:  float64(retryAt.Unix()),
			Member: jobJSON,
		}).Err(); err != nil {
			log.Printf("Warning: Failed to add job to delayed queue, adding to failed queue: %v", err)
			if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
				return fmt.Errorf("failed to push job to failed queue: %w", err)
			}
			return nil
		}

		log.Printf("Job %s of type %s scheduled for retry %d/%d in %v",
			job.ID, job.Type, job.RetryCount, maxRetries, delay)
		return nil
	}

	job.Data["all_retries_exhausted"] = true
	return q.pushFailed(ctx, job)
}

func (q *Queue) pushFailed(ctx context.Context, job *Job) error {
	jobJSON, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.RPush(ctx, q.failed, jobJSON).Err(); err != nil {
		return fmt.Errorf("failed to push job to failed queue: %w", err)
	}

	log.Printf("Job %s of type %s moved to failed queue after %d attempts: %v",
		job.ID, job.Type, job.RetryCount, job.Data["last_error"])
	return nil
}

// ProcessDelayedJobs moves every due retry back onto the main queue.
func (q *Queue) ProcessDelayedJobs(ctx context.Context) error {
	now := float64(time.Now().Unix())

	jobs, err := q.client.ZRangeByScore(ctx, q.delayed, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to get delayed jobs: %w", err)
	}

	for _, jobJSON := range jobs {
		removed, err := q.client.ZRem(ctx, q.delayed, jobJSON).Result()
		if err != nil {
			log.Printf("Warning: Failed to remove job from delayed queue: %v", err)
			continue
		}
		// another worker already claimed it
		if removed == 0 {
			continue
		}

		if err := q.client.RPush(ctx, q.queueName, jobJSON).Err(); err != nil {
			log.Printf("Warning: Failed to move delayed job to main queue: %v", err)
		}
	}

	return nil
}

func (q *Queue) Client() *redis.Client {
	return q.client
}

func (q *Queue) Close() error {
	return q.client.Close()
}
