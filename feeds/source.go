package feeds

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"swipefeed/db"
	"swipefeed/models"
	"swipefeed/query"
)

// CandidateStore is the storage the feed sources read from. Implemented by db.DB.
type CandidateStore interface {
	GetRankedCandidates(ctx context.Context, procedure string, viewerID string, limit int, cursor *models.Cursor) ([]models.CandidateProfile, error)
	GetCandidates(ctx context.Context, builder query.Builder, viewerID string, limit int) ([]models.CandidateProfile, error)
}

// SourceResult is one page of unvalidated candidates
type SourceResult struct {
	Items []models.CandidateProfile
	// Source names the implementation that produced the page
	Source string
	// Degraded pages have placeholder scores and must not be paginated
	Degraded bool
}

// FeedSource produces one page of candidates for a viewer
type FeedSource interface {
	Fetch(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*SourceResult, error)
}

// RankedSource calls the ranking procedure
type RankedSource struct {
	store     CandidateStore
	procedure string
}

func NewRankedSource(store CandidateStore, procedure string) *RankedSource {
	return &RankedSource{store: store, procedure: procedure}
}

func (s *RankedSource) Fetch(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*SourceResult, error) {
	items, err := s.store.GetRankedCandidates(ctx, s.procedure, viewerID, limit, cursor)
	if err != nil {
		if db.IsProcedureUnavailable(err) {
			return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return &SourceResult{Items: items, Source: "ranked"}, nil
}

// FallbackSource queries the profile tables directly. It ignores the cursor.
type FallbackSource struct {
	store   CandidateStore
	builder query.Builder
}

func NewFallbackSource(store CandidateStore, builder query.Builder) *FallbackSource {
	return &FallbackSource{store: store, builder: builder}
}

func (s *FallbackSource) Fetch(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*SourceResult, error) {
	items, err := s.store.GetCandidates(ctx, s.builder, viewerID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	return &SourceResult{Items: items, Source: "fallback", Degraded: true}, nil
}

// FallbackChain tries the primary source and switches to the fallback only
// when the primary reports ErrSourceUnavailable.
type FallbackChain struct {
	primary  FeedSource
	fallback FeedSource
}

// NewFallbackChain returns a chain. A nil fallback disables the degraded path.
func NewFallbackChain(primary FeedSource, fallback FeedSource) *FallbackChain {
	return &FallbackChain{primary: primary, fallback: fallback}
}

func (c *FallbackChain) Fetch(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*SourceResult, error) {
	result, err := c.primary.Fetch(ctx, viewerID, limit, cursor)
	if err == nil {
		return result, nil
	}

	if c.fallback == nil || !errors.Is(err, ErrSourceUnavailable) {
		return nil, err
	}

	log.WithFields(log.Fields{
		"viewer": viewerID,
		"error":  err,
	}).Warn("Ranking procedure unavailable, serving fallback query")
	feedFallbacks.Inc()

	return c.fallback.Fetch(ctx, viewerID, limit, cursor)
}

var _ FeedSource = (*RankedSource)(nil)
var _ FeedSource = (*FallbackSource)(nil)
var _ FeedSource = (*FallbackChain)(nil)
