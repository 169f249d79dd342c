package models

import "time"

// CandidateProfile is a display-ready record for another user in the swipe feed.
// Nil pointer fields mean "not specified".
type CandidateProfile struct {
	UserID     string   `json:"user_id" validate:"required,uuid"`
	Name       string   `json:"name" validate:"required"`
	Age        *int     `json:"age" validate:"omitempty,gte=18,lte=120"`
	Gender     *string  `json:"gender"`
	Bio        *string  `json:"bio"`
	City       *string  `json:"city"`
	Region     *string  `json:"region"`
	Country    *string  `json:"country"`
	DistanceKm *float64 `json:"distance_km" validate:"omitempty,gte=0"`
	Occupation *string  `json:"occupation"`
	Company    *string  `json:"company"`
	Education  *string  `json:"education"`
	Interests  []string `json:"interests"`
	Photos     []string `json:"photos" validate:"dive,url"`

	// Ranking sub-scores computed by the ranking procedure
	Score          *float64 `json:"score"`
	InterestScore  *float64 `json:"interest_score"`
	ProximityScore *float64 `json:"proximity_score"`
	ActivityScore  *float64 `json:"activity_score"`

	LastActiveAt *time.Time `json:"last_active_at"`
}

// Cursor marks the boundary of the next page: the score and id of the last seen item.
type Cursor struct {
	AfterScore float64 `json:"after_score"`
	AfterUser  string  `json:"after_user"`
}

// FeedPage is one page of candidates. NextCursor is nil when there are no more pages.
type FeedPage struct {
	Items      []CandidateProfile `json:"items"`
	NextCursor *Cursor            `json:"nextCursor,omitempty"`

	// Degraded is set when the page was served by the fallback query
	Degraded bool `json:"-"`
}

type InteractionKind string

const (
	InteractionLike    InteractionKind = "like"
	InteractionDislike InteractionKind = "dislike"
)

func (k InteractionKind) Valid() bool {
	return k == InteractionLike || k == InteractionDislike
}

// Interaction is a swipe decision from one user about another
type Interaction struct {
	FromUserID string          `json:"fromUserId"`
	ToUserID   string          `json:"toUserId"`
	Kind       InteractionKind `json:"interactionType"`
}
