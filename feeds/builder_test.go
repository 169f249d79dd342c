package feeds_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"swipefeed/feeds"
	"swipefeed/query"
)

func TestFallbackQueryBuilder(t *testing.T) {
	builder := feeds.NewFallbackQueryBuilder(query.PlaceholderScores{Interest: 0.1, Proximity: 0.2, Activity: 0.3})
	builder.AddFilter(&feeds.ExcludeViewerFilter{})
	builder.AddFilter(&feeds.CompleteProfileFilter{})

	sql, args := builder.Build("viewer-id", 20)

	assert.Contains(t, sql, "SELECT p.user_id AS user_id, p.name AS name")
	assert.Contains(t, sql, "NULL::double precision AS score")
	assert.Contains(t, sql, "FROM profiles p LEFT JOIN profile_photos ph ON ph.user_id = p.user_id")
	assert.Contains(t, sql, "p.user_id <> $")
	assert.Contains(t, sql, "AND p.is_complete")
	assert.Contains(t, sql, "GROUP BY p.user_id ORDER BY p.updated_at DESC LIMIT")
	assert.NotContains(t, sql, "interactions")
	assert.Contains(t, args, "viewer-id")
	assert.Contains(t, args, 0.1)
	assert.Contains(t, args, 0.2)
	assert.Contains(t, args, 0.3)
}

func TestFallbackQueryBuilderExcludeSwiped(t *testing.T) {
	builder := feeds.NewFallbackQueryBuilder(query.PlaceholderScores{})
	builder.AddFilter(&feeds.ExcludeSwipedFilter{})

	sql, args := builder.Build("viewer-id", 5)

	assert.Contains(t, sql, "NOT EXISTS (SELECT 1 FROM interactions i WHERE i.from_user_id = $")
	assert.Contains(t, args, "viewer-id")
}
