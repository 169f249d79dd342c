package feeds

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"

	"swipefeed/models"
)

// ValidationPolicy decides what happens to a page containing an invalid record
type ValidationPolicy int

const (
	// FailFast rejects the whole page
	FailFast ValidationPolicy = iota
	// SkipInvalid drops invalid records and logs them
	SkipInvalid
)

// ParseValidationPolicy maps the config names to a policy
func ParseValidationPolicy(name string) (ValidationPolicy, error) {
	switch name {
	case "", "fail-fast":
		return FailFast, nil
	case "skip-invalid":
		return SkipInvalid, nil
	default:
		return FailFast, fmt.Errorf("unknown validation policy %q", name)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Scores may come back as NaN from double precision columns
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(models.CandidateProfile)
		for _, score := range []*float64{c.Score, c.InterestScore, c.ProximityScore, c.ActivityScore} {
			if score != nil && (math.IsNaN(*score) || math.IsInf(*score, 0)) {
				sl.ReportError(score, "Score", "score", "finite", "")
				return
			}
		}
	}, models.CandidateProfile{})
	return v
}

// ValidateCandidate checks a single record against the candidate schema
func ValidateCandidate(c models.CandidateProfile) error {
	return validate.Struct(c)
}

// validateCandidates applies the policy to a page. Duplicate user ids count as
// invalid records.
func validateCandidates(items []models.CandidateProfile, policy ValidationPolicy) ([]models.CandidateProfile, error) {
	valid := make([]models.CandidateProfile, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		err := ValidateCandidate(item)
		if err == nil {
			if _, dup := seen[item.UserID]; dup {
				err = fmt.Errorf("duplicate user_id")
			}
		}

		if err != nil {
			feedInvalidRecords.Inc()
			if policy == FailFast {
				return nil, fmt.Errorf("%w: record %d (%s): %v", ErrInvalidRecord, i, item.UserID, err)
			}
			log.WithFields(log.Fields{
				"index":   i,
				"user_id": item.UserID,
				"error":   err,
			}).Warn("Skipping invalid candidate")
			continue
		}

		seen[item.UserID] = struct{}{}
		valid = append(valid, item)
	}

	return valid, nil
}
