package feeds_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swipefeed/feeds"
	"swipefeed/models"
	"swipefeed/query"
)

type recordingSignal struct {
	users []string
}

func (s *recordingSignal) Bump(userID string) {
	s.users = append(s.users, userID)
}

func newRepository(store *fakeStore, policy feeds.ValidationPolicy) *feeds.Repository {
	builder := feeds.NewFallbackQueryBuilder(query.PlaceholderScores{Interest: 0.5, Proximity: 0.5, Activity: 0.5})
	return feeds.NewRepository(feeds.RepositoryConfig{
		Source: feeds.NewFallbackChain(
			feeds.NewRankedSource(store, "get_feed_candidates"),
			feeds.NewFallbackSource(store, builder),
		),
		Interactions: store,
		Validation:   policy,
	})
}

func TestFetchFeedPageFullPageHasCursor(t *testing.T) {
	items := candidates(20)
	items[19].UserID = userID(90)
	items[19].Score = lo.ToPtr(42.5)
	store := &fakeStore{ranked: items}

	page, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 20, nil)

	require.NoError(t, err)
	assert.Len(t, page.Items, 20)
	assert.False(t, page.Degraded)
	assert.Equal(t, &models.Cursor{AfterScore: 42.5, AfterUser: userID(90)}, page.NextCursor)
}

func TestFetchFeedPageShortPageHasNoCursor(t *testing.T) {
	store := &fakeStore{ranked: candidates(7)}

	page, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 20, nil)

	require.NoError(t, err)
	assert.Len(t, page.Items, 7)
	assert.Nil(t, page.NextCursor)
}

func TestFetchFeedPageLastItemWithoutScoreHasNoCursor(t *testing.T) {
	items := candidates(5)
	items[4].Score = nil
	store := &fakeStore{ranked: items}

	page, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 5, nil)

	require.NoError(t, err)
	assert.Nil(t, page.NextCursor)
}

func TestFetchFeedPagePassesCursor(t *testing.T) {
	store := &fakeStore{ranked: candidates(3)}
	cursor := &models.Cursor{AfterScore: 10, AfterUser: userID(4)}

	_, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 3, cursor)

	require.NoError(t, err)
	assert.Equal(t, cursor, store.lastCursor)
	assert.Equal(t, 3, store.lastLimit)
}

func TestFetchFeedPageInvalidLimit(t *testing.T) {
	for _, limit := range []int{-1, 0, 51, 1000} {
		store := &fakeStore{ranked: candidates(3)}

		_, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), limit, nil)

		assert.ErrorIs(t, err, feeds.ErrInvalidLimit)
		assert.Zero(t, store.rankedCalls, "limit %d reached the backend", limit)
	}
}

func TestFetchFeedPageFallsBackWhenProcedureMissing(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "does not exist",
			err:  &pq.Error{Code: "42883", Message: "function get_feed_candidates(uuid, integer, double precision, uuid) does not exist"},
		},
		{
			name: "permission denied",
			err:  &pq.Error{Code: "42501", Message: "permission denied for function get_feed_candidates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{rankedErr: tt.err, direct: candidates(20)}

			page, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 20, nil)

			require.NoError(t, err)
			assert.Equal(t, 1, store.rankedCalls)
			assert.Equal(t, 1, store.directCalls)
			assert.Len(t, page.Items, 20)
			assert.True(t, page.Degraded)
			// The fallback cannot paginate, even when the page is full
			assert.Nil(t, page.NextCursor)
		})
	}
}

func TestFetchFeedPageOtherErrorsSurface(t *testing.T) {
	store := &fakeStore{rankedErr: &pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"}}

	_, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 20, nil)

	assert.ErrorIs(t, err, feeds.ErrUpstream)
	assert.Zero(t, store.directCalls)
}

func TestFetchFeedPageFallbackFailureSurfaces(t *testing.T) {
	store := &fakeStore{
		rankedErr: &pq.Error{Code: "42883"},
		directErr: errors.New("connection reset"),
	}

	_, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 20, nil)

	assert.ErrorIs(t, err, feeds.ErrUpstream)
}

func TestFetchFeedPageValidationPolicy(t *testing.T) {
	invalid := []models.CandidateProfile{
		{UserID: "not-a-uuid", Name: "Bad"},
		{UserID: userID(2)},
		{UserID: userID(3), Name: "Young", Age: lo.ToPtr(16)},
		{UserID: userID(4), Name: "Photo", Photos: []string{"not a url"}},
		{UserID: userID(5), Name: "NaN", Score: lo.ToPtr(math.NaN())},
	}

	for i, bad := range invalid {
		items := candidates(3)
		items = append(items, bad)

		t.Run("fail fast "+bad.Name, func(t *testing.T) {
			store := &fakeStore{ranked: items}
			page, err := newRepository(store, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 10, nil)

			assert.ErrorIs(t, err, feeds.ErrInvalidRecord, "record %d", i)
			assert.Nil(t, page)
		})

		t.Run("skip invalid "+bad.Name, func(t *testing.T) {
			store := &fakeStore{ranked: items}
			page, err := newRepository(store, feeds.SkipInvalid).FetchFeedPage(context.Background(), userID(999), 10, nil)

			require.NoError(t, err)
			assert.Equal(t, []string{userID(1), userID(2), userID(3)}, ids(page.Items))
		})
	}
}

func TestFetchFeedPageDuplicateUserIDs(t *testing.T) {
	items := append(candidates(3), candidate(userID(2), 1))

	_, err := newRepository(&fakeStore{ranked: items}, feeds.FailFast).FetchFeedPage(context.Background(), userID(999), 10, nil)
	assert.ErrorIs(t, err, feeds.ErrInvalidRecord)

	page, err := newRepository(&fakeStore{ranked: items}, feeds.SkipInvalid).FetchFeedPage(context.Background(), userID(999), 10, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{userID(1), userID(2), userID(3)}, ids(page.Items))
}

func TestRecordInteraction(t *testing.T) {
	viewer := userID(1)

	tests := []struct {
		name        string
		to          string
		kind        models.InteractionKind
		expectedErr error
	}{
		{
			name: "like",
			to:   userID(2),
			kind: models.InteractionLike,
		},
		{
			name: "dislike",
			to:   userID(3),
			kind: models.InteractionDislike,
		},
		{
			name:        "self interaction",
			to:          viewer,
			kind:        models.InteractionLike,
			expectedErr: feeds.ErrSelfInteraction,
		},
		{
			name:        "unknown kind",
			to:          userID(2),
			kind:        models.InteractionKind("superlike"),
			expectedErr: feeds.ErrInvalidInteraction,
		},
		{
			name:        "missing target",
			to:          "",
			kind:        models.InteractionLike,
			expectedErr: feeds.ErrInvalidInteraction,
		},
		{
			name:        "target not a uuid",
			to:          "u9",
			kind:        models.InteractionLike,
			expectedErr: feeds.ErrInvalidInteraction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			err := newRepository(store, feeds.FailFast).RecordInteraction(context.Background(), viewer, tt.to, tt.kind)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Empty(t, store.interactions, "rejected interaction was written")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []models.Interaction{{FromUserID: viewer, ToUserID: tt.to, Kind: tt.kind}}, store.interactions)
		})
	}
}

func TestRecordInteractionFailurePropagates(t *testing.T) {
	store := &fakeStore{interactionErr: errors.New("insert failed")}

	err := newRepository(store, feeds.FailFast).RecordInteraction(context.Background(), userID(1), userID(2), models.InteractionLike)

	assert.ErrorIs(t, err, feeds.ErrUpstream)
}

func TestBumpUserActivity(t *testing.T) {
	signal := &recordingSignal{}
	repo := feeds.NewRepository(feeds.RepositoryConfig{Activity: signal})

	repo.BumpUserActivity(userID(1))
	repo.BumpUserActivity("")

	assert.Equal(t, []string{userID(1)}, signal.users)

	// No signal configured is fine
	feeds.NewRepository(feeds.RepositoryConfig{}).BumpUserActivity(userID(1))
}
