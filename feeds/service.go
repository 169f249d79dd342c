package feeds

import (
	"slices"

	"github.com/samber/lo"

	"swipefeed/models"
)

// GetNextCursor derives the cursor from the last item. It returns nil when the
// list is empty or the last item has no score or id.
func GetNextCursor(items []models.CandidateProfile) *models.Cursor {
	if len(items) == 0 {
		return nil
	}
	last := items[len(items)-1]
	if last.Score == nil || last.UserID == "" {
		return nil
	}
	return &models.Cursor{
		AfterScore: *last.Score,
		AfterUser:  last.UserID,
	}
}

// DeduplicateItems keeps the first occurrence of each user id, preserving order
func DeduplicateItems(items []models.CandidateProfile) []models.CandidateProfile {
	return lo.UniqBy(items, func(item models.CandidateProfile) string {
		return item.UserID
	})
}

// MergeItems appends incoming to current and drops duplicates
func MergeItems(current, incoming []models.CandidateProfile) []models.CandidateProfile {
	merged := make([]models.CandidateProfile, 0, len(current)+len(incoming))
	merged = append(merged, current...)
	merged = append(merged, incoming...)
	return DeduplicateItems(merged)
}

// RemoveItem returns items without the given user
func RemoveItem(items []models.CandidateProfile, userID string) []models.CandidateProfile {
	return lo.Reject(items, func(item models.CandidateProfile, _ int) bool {
		return item.UserID == userID
	})
}

// IndexOfItem returns the position of the user in items, or -1
func IndexOfItem(items []models.CandidateProfile, userID string) int {
	_, index, ok := lo.FindIndexOf(items, func(item models.CandidateProfile) bool {
		return item.UserID == userID
	})
	if !ok {
		return -1
	}
	return index
}

// InsertItem puts item back at index, clamped to the list bounds. Used to undo
// an optimistic removal. Items already in the list are not inserted twice.
func InsertItem(items []models.CandidateProfile, item models.CandidateProfile, index int) []models.CandidateProfile {
	if IndexOfItem(items, item.UserID) >= 0 {
		return items
	}
	index = max(0, min(index, len(items)))
	return slices.Insert(slices.Clone(items), index, item)
}
