package feeds

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"swipefeed/db"
	"swipefeed/query"
)

// FallbackQueryBuilder builds the direct table query used when the ranking
// procedure is unavailable. It orders by last profile update and has no
// cursor support.
type FallbackQueryBuilder struct {
	filters []query.FilterStrategy
	scores  query.PlaceholderScores
}

func NewFallbackQueryBuilder(scores query.PlaceholderScores) *FallbackQueryBuilder {
	return &FallbackQueryBuilder{
		filters: make([]query.FilterStrategy, 0),
		scores:  scores,
	}
}

func (b *FallbackQueryBuilder) AddFilter(filter query.FilterStrategy) {
	b.filters = append(b.filters, filter)
}

func (b *FallbackQueryBuilder) Build(viewerID string, limit int) (string, []interface{}) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()

	placeholder := func(v float64) string {
		return fmt.Sprintf("%s::double precision", sb.Args.Add(v))
	}

	expressions := map[string]string{
		"user_id":         "p.user_id",
		"name":            "p.name",
		"age":             "date_part('year', age(p.birth_date))::integer",
		"gender":          "p.gender",
		"bio":             "p.bio",
		"city":            "p.city",
		"region":          "p.region",
		"country":         "p.country",
		"distance_km":     "NULL::double precision",
		"occupation":      "p.occupation",
		"company":         "p.company",
		"education":       "p.education",
		"interests":       "p.interests",
		"photos":          "COALESCE(array_agg(ph.url ORDER BY ph.position) FILTER (WHERE ph.url IS NOT NULL), '{}')",
		"score":           "NULL::double precision",
		"interest_score":  placeholder(b.scores.Interest),
		"proximity_score": placeholder(b.scores.Proximity),
		"activity_score":  placeholder(b.scores.Activity),
		"last_active_at":  "p.last_active_at",
	}

	// Select in the column order the scanner expects
	columns := make([]string, len(db.CandidateColumns))
	for i, col := range db.CandidateColumns {
		columns[i] = fmt.Sprintf("%s AS %s", expressions[col], col)
	}
	sb.Select(columns...)

	sb.From("profiles p")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "profile_photos ph", "ph.user_id = p.user_id")

	// Apply all filters
	for _, filter := range b.filters {
		filter.ApplyFilter(sb, viewerID)
	}

	sb.GroupBy("p.user_id")
	sb.OrderBy("p.updated_at DESC")
	sb.Limit(limit)

	return sb.Build()
}

var _ query.Builder = (*FallbackQueryBuilder)(nil)
