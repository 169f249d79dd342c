package feeds

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"

	"swipefeed/query"
)

// ExcludeViewerFilter keeps the viewer out of their own feed
type ExcludeViewerFilter struct{}

func (f *ExcludeViewerFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder, viewerID string) {
	sb.Where(sb.NotEqual("p.user_id", viewerID))
}

// CompleteProfileFilter filters out profiles that have not finished onboarding
type CompleteProfileFilter struct{}

func (f *CompleteProfileFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder, viewerID string) {
	sb.Where("p.is_complete")
}

// ExcludeSwipedFilter filters out profiles the viewer already liked or disliked
type ExcludeSwipedFilter struct{}

func (f *ExcludeSwipedFilter) ApplyFilter(sb *sqlbuilder.SelectBuilder, viewerID string) {
	sb.Where(fmt.Sprintf(
		"NOT EXISTS (SELECT 1 FROM interactions i WHERE i.from_user_id = %s AND i.to_user_id = p.user_id)",
		sb.Args.Add(viewerID),
	))
}

var _ query.FilterStrategy = (*ExcludeViewerFilter)(nil)
var _ query.FilterStrategy = (*CompleteProfileFilter)(nil)
var _ query.FilterStrategy = (*ExcludeSwipedFilter)(nil)
