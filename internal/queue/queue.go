// Package queue submits batches to an asynq queue and reports their status.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/oklog/ulid/v2"
)

const (
	// TypeGenerateBatch is the asynq task type of one batch.
	TypeGenerateBatch = "batch:generate"
	// QueueName is the queue batches are enqueued on.
	QueueName = "videos"
	// Retention keeps finished tasks (and their results) readable.
	Retention = 24 * time.Hour

	MinVideos = 1
	MaxVideos = 20
)

// ErrJobNotFound is returned by Status for unknown or expired job ids.
var ErrJobNotFound = errors.New("job not found")

// Payload is the task body.
type Payload struct {
	CustomerName   string `json:"customer_name"`
	NumberOfVideos int    `json:"number_of_videos"`
}

// Validate normalises the payload and checks its bounds.
func (p *Payload) Validate() error {
	p.CustomerName = strings.TrimSpace(p.CustomerName)
	if p.CustomerName == "" {
		return errors.New("customer_name is required")
	}
	if p.NumberOfVideos < MinVideos || p.NumberOfVideos > MaxVideos {
		return fmt.Errorf("number_of_videos must be between %d and %d", MinVideos, MaxVideos)
	}
	return nil
}

// Outcome is written as the task result of a finished batch.
// Folder and Files are relative to the output root.
type Outcome struct {
	Folder string   `json:"folder"`
	Files  []string `json:"files"`
}

// State is the externally visible job state.
type State string

const (
	StateQueued  State = "queued"
	StateWorking State = "working"
	StateDone    State = "done"
	StateError   State = "error"
)

// Status describes a job as returned by the HTTP API.
type Status struct {
	State  State    `json:"status"`
	Folder string   `json:"folder,omitempty"`
	Files  []string `json:"files,omitempty"`
	Detail string   `json:"detail,omitempty"`
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Inspector is satisfied by *asynq.Inspector.
type Inspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// Client enqueues batches and looks up their state.
type Client struct {
	enq    Enqueuer
	insp   Inspector
	closer []func() error
}

// NewClient connects to Redis through asynq.
func NewClient(opt asynq.RedisConnOpt) *Client {
	c := asynq.NewClient(opt)
	i := asynq.NewInspector(opt)
	return &Client{enq: c, insp: i, closer: []func() error{c.Close, i.Close}}
}

// NewClientWith builds a Client from explicit backends.
func NewClientWith(enq Enqueuer, insp Inspector) *Client {
	return &Client{enq: enq, insp: insp}
}

// Close releases the Redis connections.
func (c *Client) Close() error {
	var errs []error
	for _, f := range c.closer {
		errs = append(errs, f())
	}
	return errors.Join(errs...)
}

// Enqueue validates p and submits it. The returned id is a ULID.
func (c *Client) Enqueue(ctx context.Context, p Payload) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	id := NewID(time.Now())
	_, err = c.enq.EnqueueContext(ctx, asynq.NewTask(TypeGenerateBatch, b),
		asynq.TaskID(id),
		asynq.Queue(QueueName),
		asynq.MaxRetry(0),
		asynq.Retention(Retention),
	)
	if err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	return id, nil
}

// Status reports the state of job id.
func (c *Client) Status(id string) (Status, error) {
	info, err := c.insp.GetTaskInfo(QueueName, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
			return Status{}, ErrJobNotFound
		}
		return Status{}, fmt.Errorf("inspect %s: %w", id, err)
	}
	return statusFromInfo(info)
}

func statusFromInfo(info *asynq.TaskInfo) (Status, error) {
	switch info.State {
	case asynq.TaskStatePending, asynq.TaskStateScheduled, asynq.TaskStateAggregating:
		return Status{State: StateQueued}, nil
	case asynq.TaskStateActive, asynq.TaskStateRetry:
		return Status{State: StateWorking}, nil
	case asynq.TaskStateCompleted:
		var out Outcome
		if err := json.Unmarshal(info.Result, &out); err != nil {
			return Status{}, fmt.Errorf("decode result of %s: %w", info.ID, err)
		}
		return Status{State: StateDone, Folder: out.Folder, Files: out.Files}, nil
	case asynq.TaskStateArchived:
		return Status{State: StateError, Detail: info.LastErr}, nil
	default:
		return Status{}, fmt.Errorf("unknown state %v", info.State)
	}
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewID returns a ULID for time t.
func NewID(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}
