package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

const (
	queueName          = "email"
	defaultMaxWorkers  = 10
	defaultMaxAttempts = 5
)

type emailArgs struct {
	Message Message `json:"message"`
}

func (emailArgs) Kind() string {
	return "storefront:email"
}

type emailWorker struct {
	river.WorkerDefaults[emailArgs]
	mailer *Mailer
	logger *slog.Logger
}

func (w *emailWorker) Work(ctx context.Context, job *river.Job[emailArgs]) error {
	if err := w.mailer.Dispatch(ctx, job.Args.Message); err != nil {
		w.logger.ErrorContext(ctx, "email delivery failed",
			slog.String("template", job.Args.Message.Template),
			slog.Int64("job_id", job.ID),
			slog.Int("attempt", job.Attempt),
			slog.Any("error", err),
		)
		return err
	}
	return nil
}

// Queue dispatches messages through a River job queue. Jobs can be enqueued
// before Start; they are worked once the queue runs.
type Queue struct {
	client  *river.Client[pgx.Tx]
	logger  *slog.Logger
	mu      sync.Mutex
	started bool
}

var _ Dispatcher = (*Queue)(nil)

// QueueOption configures a Queue.
type QueueOption func(*queueConfig)

type queueConfig struct {
	logger     *slog.Logger
	maxWorkers int
}

// WithQueueLogger sets the queue logger.
func WithQueueLogger(l *slog.Logger) QueueOption {
	return func(c *queueConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the number of concurrent deliveries.
func WithMaxWorkers(n int) QueueOption {
	return func(c *queueConfig) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// MigrateQueue creates or upgrades River's tables.
func MigrateQueue(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("notify: create migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("notify: migrate queue: %w", err)
	}
	return nil
}

// NewQueue creates a queue whose worker delivers through mailer.
func NewQueue(pool *pgxpool.Pool, mailer *Mailer, opts ...QueueOption) (*Queue, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &queueConfig{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxWorkers: defaultMaxWorkers,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &emailWorker{mailer: mailer, logger: cfg.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:  map[string]river.QueueConfig{queueName: {MaxWorkers: cfg.maxWorkers}},
		Workers: workers,
		Logger:  cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("notify: create queue client: %w", err)
	}

	return &Queue{client: client, logger: cfg.logger}, nil
}

// Dispatch enqueues msg.
func (q *Queue) Dispatch(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	_, err := q.client.Insert(ctx, emailArgs{Message: msg}, &river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: defaultMaxAttempts,
	})
	if err != nil {
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	return nil
}

// Start begins working queued messages.
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.started {
		return nil
	}
	if err := q.client.Start(ctx); err != nil {
		return fmt.Errorf("notify: start queue: %w", err)
	}
	q.started = true
	q.logger.Info("email queue started")
	return nil
}

// Stop waits for in-flight deliveries and stops the queue.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.started {
		return nil
	}
	if err := q.client.Stop(ctx); err != nil {
		return fmt.Errorf("notify: stop queue: %w", err)
	}
	q.started = false
	q.logger.Info("email queue stopped")
	return nil
}
