package feeds

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"swipefeed/db"
)

// ActivityStore records that a user was active. Implemented by db.DB.
type ActivityStore interface {
	BumpActivity(ctx context.Context, procedure string, userID string) error
}

// ActivityBumper sends best-effort activity signals from a small pool of
// workers. Bump never blocks and never reports failure.
type ActivityBumper struct {
	store      ActivityStore
	procedure  string
	maxWorkers int
	queue      chan string
	maxElapsed time.Duration
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func NewActivityBumper(ctx context.Context, store ActivityStore, procedure string, maxWorkers int, maxQueueSize int) *ActivityBumper {
	ctx, cancel := context.WithCancel(ctx)

	return &ActivityBumper{
		store:      store,
		procedure:  procedure,
		maxWorkers: maxWorkers,
		queue:      make(chan string, maxQueueSize),
		maxElapsed: 5 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (b *ActivityBumper) Start() {
	b.wg.Add(b.maxWorkers)
	for i := 0; i < b.maxWorkers; i++ {
		go b.startWorker(i)
	}
}

// Bump queues a signal for the user. The signal is dropped when the queue is full.
func (b *ActivityBumper) Bump(userID string) {
	select {
	case b.queue <- userID: // Non-blocking send
	default:
		activityBumps.WithLabelValues("dropped").Inc()
		log.WithFields(log.Fields{
			"user_id": userID,
		}).Warn("Activity queue full, dropping signal")
	}
}

// Shutdown stops the workers and waits for them. Queued signals are discarded.
func (b *ActivityBumper) Shutdown() {
	log.Info("Shutting down activity bumper")
	b.cancel()
	b.wg.Wait()
}

func (b *ActivityBumper) startWorker(id int) {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			log.Debugf("Activity worker %d: Shutting down", id)
			return
		case userID := <-b.queue:
			b.bump(userID)
		}
	}
}

func (b *ActivityBumper) bump(userID string) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = b.maxElapsed

	err := backoff.Retry(func() error {
		err := b.store.BumpActivity(b.ctx, b.procedure, userID)
		if db.IsProcedureUnavailable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, b.ctx))

	if err != nil {
		activityBumps.WithLabelValues("failed").Inc()
		log.WithFields(log.Fields{
			"user_id": userID,
			"error":   err,
		}).Warn("Failed to bump user activity")
		return
	}
	activityBumps.WithLabelValues("ok").Inc()
}
