package feeds_test

import (
	"context"
	"fmt"
	"sync"

	"swipefeed/models"
	"swipefeed/query"
)

func userID(n int) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
}

func candidate(id string, score float64) models.CandidateProfile {
	return models.CandidateProfile{
		UserID: id,
		Name:   "Candidate " + id,
		Score:  &score,
		Photos: []string{"https://cdn.example.com/" + id + ".jpg"},
	}
}

func candidates(n int) []models.CandidateProfile {
	items := make([]models.CandidateProfile, n)
	for i := range items {
		items[i] = candidate(userID(i+1), float64(100-i))
	}
	return items
}

// fakeStore records calls and returns canned results
type fakeStore struct {
	mu sync.Mutex

	ranked    []models.CandidateProfile
	rankedErr error
	direct    []models.CandidateProfile
	directErr error

	rankedCalls int
	directCalls int
	lastCursor  *models.Cursor
	lastLimit   int

	interactions   []models.Interaction
	interactionErr error
}

func (s *fakeStore) GetRankedCandidates(ctx context.Context, procedure string, viewerID string, limit int, cursor *models.Cursor) ([]models.CandidateProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankedCalls++
	s.lastCursor = cursor
	s.lastLimit = limit
	return s.ranked, s.rankedErr
}

func (s *fakeStore) GetCandidates(ctx context.Context, builder query.Builder, viewerID string, limit int) ([]models.CandidateProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directCalls++
	s.lastLimit = limit
	return s.direct, s.directErr
}

func (s *fakeStore) CreateInteraction(ctx context.Context, interaction models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.interactionErr != nil {
		return s.interactionErr
	}
	s.interactions = append(s.interactions, interaction)
	return nil
}
