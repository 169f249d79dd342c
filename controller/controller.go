// Package controller drives a swipe feed on the client side: initial load,
// infinite scroll, optimistic swipes and retry.
package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	log "github.com/sirupsen/logrus"

	"swipefeed/feeds"
	"swipefeed/models"
)

// ErrClosed is returned by operations on a closed controller
var ErrClosed = errors.New("controller closed")

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Backend is the feed API as seen by the controller. Implemented by client.Client.
type Backend interface {
	FetchPage(ctx context.Context, limit int, cursor *models.Cursor) (*models.FeedPage, error)
	RecordInteraction(ctx context.Context, toUserID string, kind models.InteractionKind) error
}

// State is a copy of the controller state handed to the presentation layer
type State struct {
	Status             Status
	Items              []models.CandidateProfile
	HasNextPage        bool
	IsFetchingNextPage bool
	// Err is the last fetch error, cleared by Retry
	Err error
	// SwipeErr is the last failed swipe, cleared by the next successful one
	SwipeErr error
}

type Config struct {
	// PageSize is the limit sent with every fetch
	PageSize int
	// PrefetchThreshold is how many items before the end RequestMore starts loading
	PrefetchThreshold int
	// OnChange is called after every state change, outside the lock
	OnChange func(State)
}

type Controller struct {
	backend Backend
	cfg     Config
	started sync.Once

	mu           sync.Mutex
	status       Status
	items        []models.CandidateProfile
	cursor       *models.Cursor
	err          error
	swipeErr     error
	fetching     bool
	fetchingNext bool
	closed       bool
	// generation changes on every reset so responses to older requests are dropped
	generation uint64
}

func New(backend Backend, cfg Config) *Controller {
	if cfg.PageSize < feeds.MinLimit || cfg.PageSize > feeds.MaxLimit {
		cfg.PageSize = 20
	}
	if cfg.PrefetchThreshold < 0 {
		cfg.PrefetchThreshold = 0
	}
	return &Controller{
		backend: backend,
		cfg:     cfg,
		items:   []models.CandidateProfile{},
	}
}

// Start performs the initial fetch. Only the first call does anything.
func (c *Controller) Start(ctx context.Context) error {
	var err error
	c.started.Do(func() {
		err = c.reload(ctx)
	})
	return err
}

// Retry clears the error and fetches the first page again. Results of any
// fetch still in flight are discarded.
func (c *Controller) Retry(ctx context.Context) error {
	return c.reload(ctx)
}

func (c *Controller) reload(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.generation++
	gen := c.generation
	c.status = StatusLoading
	c.err = nil
	c.fetching = true
	c.fetchingNext = false
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	return c.load(ctx, gen, nil)
}

// FetchNextPage appends the next page. It does nothing when there is no next
// page or a fetch is already in flight.
func (c *Controller) FetchNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.fetching || c.cursor == nil {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	cursor := *c.cursor
	c.status = StatusLoading
	c.fetching = true
	c.fetchingNext = true
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	return c.load(ctx, gen, &cursor)
}

// RequestMore is called by the presentation layer with the index of the last
// visible item. It loads the next page once the viewport is near the end.
func (c *Controller) RequestMore(ctx context.Context, lastVisibleIndex int) error {
	c.mu.Lock()
	near := lastVisibleIndex >= len(c.items)-1-c.cfg.PrefetchThreshold
	c.mu.Unlock()

	if !near {
		return nil
	}
	return c.FetchNextPage(ctx)
}

func (c *Controller) load(ctx context.Context, gen uint64, cursor *models.Cursor) error {
	page, err := c.backend.FetchPage(ctx, c.cfg.PageSize, cursor)

	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		log.WithFields(log.Fields{
			"generation": gen,
		}).Debug("Discarding stale feed response")
		return nil
	}

	c.fetching = false
	c.fetchingNext = false
	if err != nil {
		c.status = StatusError
		c.err = err
	} else {
		if cursor == nil {
			c.items = feeds.DeduplicateItems(page.Items)
		} else {
			c.items = feeds.MergeItems(c.items, page.Items)
		}
		c.cursor = page.NextCursor
		c.status = StatusSuccess
		c.err = nil
	}
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	if err != nil {
		log.WithFields(log.Fields{
			"error":     err,
			"next_page": cursor != nil,
		}).Warn("Feed fetch failed")
	}
	return err
}

// Like removes the candidate right away and records the like
func (c *Controller) Like(ctx context.Context, userID string) error {
	return c.swipe(ctx, userID, models.InteractionLike)
}

// Dislike removes the candidate right away and records the dislike
func (c *Controller) Dislike(ctx context.Context, userID string) error {
	return c.swipe(ctx, userID, models.InteractionDislike)
}

// swipe applies the decision optimistically. When recording fails the
// candidate is put back where it was.
func (c *Controller) swipe(ctx context.Context, userID string, kind models.InteractionKind) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	index := feeds.IndexOfItem(c.items, userID)
	var removed models.CandidateProfile
	if index >= 0 {
		removed = c.items[index]
		c.items = feeds.RemoveItem(c.items, userID)
	}
	gen := c.generation
	state := c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	err := c.backend.RecordInteraction(ctx, userID, kind)

	c.mu.Lock()
	if err != nil {
		c.swipeErr = fmt.Errorf("record %s: %w", kind, err)
		if index >= 0 && !c.closed && gen == c.generation {
			c.items = feeds.InsertItem(c.items, removed, index)
		}
	} else {
		c.swipeErr = nil
	}
	swipeErr := c.swipeErr
	state = c.snapshotLocked()
	c.mu.Unlock()
	c.notify(state)

	if swipeErr != nil {
		log.WithFields(log.Fields{
			"user_id": userID,
			"kind":    kind,
			"error":   err,
		}).Warn("Swipe failed, restoring candidate")
	}
	return swipeErr
}

// Close stops the controller. Responses still in flight are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.generation++
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	return State{
		Status:             c.status,
		Items:              slices.Clone(c.items),
		HasNextPage:        c.cursor != nil,
		IsFetchingNextPage: c.fetchingNext,
		Err:                c.err,
		SwipeErr:           c.swipeErr,
	}
}

func (c *Controller) notify(state State) {
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(state)
	}
}
