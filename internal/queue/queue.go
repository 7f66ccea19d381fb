package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobType defines the type of job
type JobType string

const (
	JobTypePaymentNotification    JobType = "send_payment_notification"
	JobTypeWithdrawalNotification JobType = "send_withdrawal_notification"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents a background job. Rows are the source of truth; Redis only
// carries wake-up signals, so a flushed Redis loses no work.
type Job struct {
	ID         uuid.UUID       `json:"id" gorm:"type:uuid;primaryKey"`
	Type       JobType         `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	Status     JobStatus       `json:"status"`
	RetryCount int             `json:"retry_count" gorm:"default:0"`
	MaxRetries int             `json:"max_retries" gorm:"default:3"`
	NextRetry  *time.Time      `json:"next_retry,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// JobHandler is a function that processes a job
type JobHandler func(ctx context.Context, job Job) error

// Enqueuer is the narrow interface services use to hand off async work
type Enqueuer interface {
	EnqueueJob(jobType JobType, payload interface{}) (string, error)
}

// Queue is a database-backed job queue with an optional Redis signal channel
type Queue struct {
	db       *gorm.DB
	rdb      *redis.Client
	handlers map[JobType]JobHandler
	stop     chan struct{}
}

const signalList = "queue:signal"

// NewQueue creates a new queue. rdb may be nil; the queue then degrades to
// pure database polling.
func NewQueue(db *gorm.DB, rdb *redis.Client) *Queue {
	return &Queue{
		db:       db,
		rdb:      rdb,
		handlers: make(map[JobType]JobHandler),
		stop:     make(chan struct{}),
	}
}

// RegisterHandler registers a handler for a job type
func (q *Queue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.handlers[jobType] = handler
}

// EnqueueJob adds a job to the queue
func (q *Queue) EnqueueJob(jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: 3,
	}

	if err := q.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}

	// Best-effort wake-up so the worker doesn't wait for the next poll tick
	if q.rdb != nil {
		if err := q.rdb.LPush(context.Background(), signalList, job.ID.String()).Err(); err != nil {
			log.Printf("queue: redis signal failed for job %s: %v", job.ID, err)
		}
	}

	return job.ID.String(), nil
}

// getJob retrieves a job by ID
func (q *Queue) getJob(id string) (*Job, error) {
	var job Job
	if err := q.db.Where("id = ?", id).First(&job).Error; err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// ProcessJobs runs the worker loop until Stop is called. It wakes on Redis
// signals when available and otherwise polls the database.
func (q *Queue) ProcessJobs() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-q.stop:
			return
		default:
		}

		if q.rdb != nil {
			// Blocks up to a second, then we fall through to a DB sweep
			q.rdb.BRPop(context.Background(), time.Second, signalList)
		} else {
			select {
			case <-ticker.C:
			case <-q.stop:
				return
			}
		}

		q.drainPending()
	}
}

// Stop signals the worker loop to exit
func (q *Queue) Stop() {
	close(q.stop)
}

// drainPending claims and runs every due pending job
func (q *Queue) drainPending() {
	now := time.Now()
	var jobs []Job
	err := q.db.
		Where("status = ? AND (next_retry IS NULL OR next_retry <= ?)", JobStatusPending, now).
		Order("created_at").
		Limit(50).
		Find(&jobs).Error
	if err != nil {
		log.Printf("queue: failed to fetch pending jobs: %v", err)
		return
	}

	for _, job := range jobs {
		q.runJob(job)
	}
}

func (q *Queue) runJob(job Job) {
	// Claim the row; another worker may have taken it
	res := q.db.Model(&Job{}).
		Where("id = ? AND status = ?", job.ID, JobStatusPending).
		Update("status", JobStatusProcessing)
	if res.Error != nil || res.RowsAffected == 0 {
		return
	}

	handler, ok := q.handlers[job.Type]
	if !ok {
		q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(map[string]interface{}{
			"status": JobStatusFailed,
			"error":  fmt.Sprintf("no handler registered for job type %s", job.Type),
		})
		return
	}

	if err := handler(context.Background(), job); err != nil {
		q.failJob(job, err)
		return
	}

	q.db.Model(&Job{}).Where("id = ?", job.ID).Update("status", JobStatusCompleted)
}

func (q *Queue) failJob(job Job, jobErr error) {
	job.RetryCount++
	updates := map[string]interface{}{
		"retry_count": job.RetryCount,
		"error":       jobErr.Error(),
	}
	if job.RetryCount >= job.MaxRetries {
		updates["status"] = JobStatusFailed
		log.Printf("queue: job %s (%s) failed permanently: %v", job.ID, job.Type, jobErr)
	} else {
		next := time.Now().Add(calculateBackoff(job.RetryCount))
		updates["status"] = JobStatusPending
		updates["next_retry"] = next
	}
	if err := q.db.Model(&Job{}).Where("id = ?", job.ID).Updates(updates).Error; err != nil {
		log.Printf("queue: failed to record job failure for %s: %v", job.ID, err)
	}
}
