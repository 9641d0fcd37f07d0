package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/askly/accounts-api/internal/api/metrics"
	"github.com/askly/accounts-api/internal/core/ports"
)

const (
	defaultWorkers    = 4
	defaultMaxRetries = 3
	defaultBackoff    = 5 * time.Second
	channelBuffer     = 256
)

// Config tunes the dispatcher. Zero values fall back to defaults.
type Config struct {
	Workers    int
	MaxRetries int
	Backoff    time.Duration
}

// Dispatcher delivers verification emails on a fixed set of workers, sharded
// by user id so that a user's messages are sent in the order they were issued.
type Dispatcher struct {
	workers    []chan ports.VerificationEmail
	mailer     ports.VerificationMailer
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
	wg         sync.WaitGroup
}

// NewDispatcher creates a Dispatcher that hands messages to mailer.
func NewDispatcher(cfg Config, mailer ports.VerificationMailer, log zerolog.Logger) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	d := &Dispatcher{
		workers:    make([]chan ports.VerificationEmail, cfg.Workers),
		mailer:     mailer,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		log:        log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.VerificationEmail, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Notify queues msg for delivery. It never blocks; when the worker's channel
// is full the message is dropped and the user can request a new one by
// updating their email.
func (d *Dispatcher) Notify(msg ports.VerificationEmail) {
	idx := d.shardIndex(msg.UserID)
	select {
	case d.workers[idx] <- msg:
		metrics.VerificationQueueDepth.WithLabelValues(strconv.Itoa(idx)).Inc()
	default:
		metrics.VerificationEmailsTotal.WithLabelValues("dropped").Inc()
		d.log.Warn().Str("user_id", msg.UserID).Int("worker_id", idx).Msg("verification queue full, email dropped")
	}
}

// shardIndex maps a user id deterministically to a worker index.
func (d *Dispatcher) shardIndex(userID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.VerificationEmail) {
	defer d.wg.Done()
	label := strconv.Itoa(id)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			metrics.VerificationQueueDepth.WithLabelValues(label).Dec()
			start := time.Now()
			d.deliver(ctx, id, msg)
			metrics.VerificationSendDuration.Observe(time.Since(start).Seconds())
		}
	}
}

// deliver sends msg, retrying with linear backoff until maxRetries is spent
// or ctx is cancelled.
func (d *Dispatcher) deliver(ctx context.Context, workerID int, msg ports.VerificationEmail) {
	for attempt := 0; ; attempt++ {
		err := d.mailer.SendVerification(ctx, msg)
		if err == nil {
			metrics.VerificationEmailsTotal.WithLabelValues("sent").Inc()
			return
		}

		if attempt >= d.maxRetries {
			metrics.VerificationEmailsTotal.WithLabelValues("failed").Inc()
			d.log.Error().Err(err).
				Str("user_id", msg.UserID).
				Int("worker_id", workerID).
				Msg("verification email dropped after max retries")
			return
		}

		backoff := time.Duration(attempt+1) * d.backoff
		metrics.VerificationEmailsTotal.WithLabelValues("retry").Inc()
		d.log.Warn().Err(err).
			Str("user_id", msg.UserID).
			Int("retry", attempt+1).
			Dur("backoff", backoff).
			Msg("verification email failed, retrying")

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}
}
