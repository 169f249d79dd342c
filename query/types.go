package query

import (
	"github.com/huandu/go-sqlbuilder"
)

// Builder builds SQL queries for candidate retrieval
type Builder interface {
	Build(viewerID string, limit int) (string, []interface{})
}

// FilterStrategy adds WHERE conditions to a candidate query
type FilterStrategy interface {
	// ApplyFilter adds filter conditions to the query builder
	ApplyFilter(sb *sqlbuilder.SelectBuilder, viewerID string)
}

// PlaceholderScores are the sub-scores assigned to candidates when no
// ranking was computed for them
type PlaceholderScores struct {
	Interest  float64
	Proximity float64
	Activity  float64
}
