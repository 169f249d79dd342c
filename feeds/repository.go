package feeds

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"swipefeed/models"
)

const (
	MinLimit = 1
	MaxLimit = 50
)

// InteractionStore persists swipe decisions. Implemented by db.DB.
type InteractionStore interface {
	CreateInteraction(ctx context.Context, interaction models.Interaction) error
}

// ActivitySignal receives best-effort activity signals. Implemented by ActivityBumper.
type ActivitySignal interface {
	Bump(userID string)
}

// RepositoryConfig wires the repository's collaborators
type RepositoryConfig struct {
	Source       FeedSource
	Interactions InteractionStore
	Activity     ActivitySignal
	Validation   ValidationPolicy
}

// Repository produces feed pages and records swipe decisions
type Repository struct {
	source       FeedSource
	interactions InteractionStore
	activity     ActivitySignal
	validation   ValidationPolicy
}

func NewRepository(cfg RepositoryConfig) *Repository {
	return &Repository{
		source:       cfg.Source,
		interactions: cfg.Interactions,
		activity:     cfg.Activity,
		validation:   cfg.Validation,
	}
}

// ValidLimit reports whether limit is an accepted page size
func ValidLimit(limit int) bool {
	return limit >= MinLimit && limit <= MaxLimit
}

// FetchFeedPage returns one page of candidates for the viewer. A next cursor is
// only set when the page is full, its last item carries a score and an id,
// and the page was not served by the fallback query.
func (r *Repository) FetchFeedPage(ctx context.Context, viewerID string, limit int, cursor *models.Cursor) (*models.FeedPage, error) {
	if !ValidLimit(limit) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	start := time.Now()
	result, err := r.source.Fetch(ctx, viewerID, limit, cursor)
	feedFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		feedFetchErrors.Inc()
		return nil, err
	}

	items, err := validateCandidates(result.Items, r.validation)
	if err != nil {
		feedFetchErrors.Inc()
		return nil, err
	}

	page := &models.FeedPage{
		Items:    items,
		Degraded: result.Degraded,
	}
	if !result.Degraded && len(result.Items) == limit {
		page.NextCursor = GetNextCursor(items)
	}

	feedPagesServed.WithLabelValues(result.Source).Inc()

	log.WithFields(log.Fields{
		"viewer":   viewerID,
		"limit":    limit,
		"count":    len(items),
		"source":   result.Source,
		"has_next": page.NextCursor != nil,
	}).Info("Fetched feed page")

	return page, nil
}

// ValidateInteraction rejects malformed interactions before any write
func ValidateInteraction(interaction models.Interaction) error {
	if interaction.FromUserID == "" || interaction.ToUserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidInteraction)
	}
	if interaction.FromUserID == interaction.ToUserID {
		return ErrSelfInteraction
	}
	if _, err := uuid.Parse(interaction.ToUserID); err != nil {
		return fmt.Errorf("%w: toUserId is not a uuid", ErrInvalidInteraction)
	}
	if !interaction.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidInteraction, interaction.Kind)
	}
	return nil
}

// RecordInteraction stores a like or dislike from one user about another
func (r *Repository) RecordInteraction(ctx context.Context, fromUserID, toUserID string, kind models.InteractionKind) error {
	interaction := models.Interaction{
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Kind:       kind,
	}
	if err := ValidateInteraction(interaction); err != nil {
		return err
	}

	if err := r.interactions.CreateInteraction(ctx, interaction); err != nil {
		interactionsRecorded.WithLabelValues(string(kind), "failed").Inc()
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	interactionsRecorded.WithLabelValues(string(kind), "ok").Inc()
	return nil
}

// BumpUserActivity signals that the user was active. Never blocks, never fails.
func (r *Repository) BumpUserActivity(userID string) {
	if r.activity == nil || userID == "" {
		return
	}
	r.activity.Bump(userID)
}
