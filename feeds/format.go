package feeds

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"swipefeed/models"
)

// FormatLocation joins city, region and country and appends the distance when
// known. Returns an empty string when nothing is known.
func FormatLocation(p models.CandidateProfile) string {
	place := strings.Join(nonEmpty(p.City, p.Region, p.Country), ", ")

	if p.DistanceKm == nil {
		return place
	}

	distance := formatDistance(*p.DistanceKm)
	if place == "" {
		return distance
	}
	return fmt.Sprintf("%s (%s)", place, distance)
}

func formatDistance(km float64) string {
	if km < 1 {
		return "a menos de 1 km"
	}
	return fmt.Sprintf("a %d km", int(math.Round(km)))
}

// FormatProfessionalInfo renders occupation, company and education on one line
func FormatProfessionalInfo(p models.CandidateProfile) string {
	occupation := strings.TrimSpace(lo.FromPtr(p.Occupation))
	company := strings.TrimSpace(lo.FromPtr(p.Company))

	var work string
	switch {
	case occupation != "" && company != "":
		work = occupation + " en " + company
	case occupation != "":
		work = occupation
	default:
		work = company
	}

	return strings.Join(lo.Compact([]string{work, strings.TrimSpace(lo.FromPtr(p.Education))}), " · ")
}

// PrimaryPhoto returns the first photo URL
func PrimaryPhoto(p models.CandidateProfile) (string, bool) {
	photos := AllPhotos(p)
	if len(photos) == 0 {
		return "", false
	}
	return photos[0], true
}

// AllPhotos returns the non-empty photo URLs in display order
func AllPhotos(p models.CandidateProfile) []string {
	return lo.Compact(p.Photos)
}

func nonEmpty(values ...*string) []string {
	return lo.FilterMap(values, func(v *string, _ int) (string, bool) {
		s := strings.TrimSpace(lo.FromPtr(v))
		return s, s != ""
	})
}
