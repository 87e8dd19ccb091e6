// Package preference holds the validated hearing answer a purchase carries
// and the single parser that produces it.
package preference

import (
	"encoding/json"
	"errors"
	"strings"
)

// Plan is the purchased service level.
type Plan string

const (
	PlanExplorer    Plan = "explorer"
	PlanConnoisseur Plan = "connoisseur"
)

// AreaCount is the fixed number of area selections each plan requires.
func (p Plan) AreaCount() int {
	switch p {
	case PlanExplorer:
		return 1
	case PlanConnoisseur:
		return 4
	}
	return 0
}

// Title is the capitalized form stored on purchase records.
func (p Plan) Title() string {
	switch p {
	case PlanExplorer:
		return "Explorer"
	case PlanConnoisseur:
		return "Connoisseur"
	}
	return string(p)
}

// ParsePlan lower-cases and trims s. It returns ErrInvalidPlan for anything
// other than the two recognized tiers.
func ParsePlan(s string) (Plan, error) {
	p := Plan(strings.ToLower(strings.TrimSpace(s)))
	if p.AreaCount() == 0 {
		return "", ErrInvalidPlan
	}
	return p, nil
}

var (
	ErrInvalidHearing                    = errors.New("INVALID_HEARING")
	ErrInvalidPlan                       = errors.New("INVALID_PLAN")
	ErrInvalidAreaCount                  = errors.New("INVALID_AREA_COUNT")
	ErrInvalidAreaGroupsExplorer         = errors.New("INVALID_AREA_GROUPS_EXPLORER")
	ErrInvalidAreaGroupsCountConnoisseur = errors.New("INVALID_AREA_GROUPS_COUNT_CONNOISSEUR")
	ErrDuplicateAreaGroups               = errors.New("DUPLICATE_AREA_GROUPS")
	ErrMissingWho                        = errors.New("MISSING_WHO")
	ErrInvalidVibesCount                 = errors.New("INVALID_VIBES_COUNT")
)

// Preferences is one purchase's validated hearing answer. Values are only
// produced by Parse and are not mutated afterwards.
type Preferences struct {
	Plan           Plan     `json:"plan"`
	AreaSelections []string `json:"area_groups"`
	CompanionType  string   `json:"who,omitempty"`
	VibeTags       []string `json:"vibes,omitempty"`
	NoPreference   bool     `json:"no_preference,omitempty"`
}

// Encode renders the canonical structured blob stored under the "hearing"
// metadata key.
func (p Preferences) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

var validationErrors = []error{
	ErrInvalidHearing,
	ErrInvalidPlan,
	ErrInvalidAreaCount,
	ErrInvalidAreaGroupsExplorer,
	ErrInvalidAreaGroupsCountConnoisseur,
	ErrDuplicateAreaGroups,
	ErrMissingWho,
	ErrInvalidVibesCount,
}

// IsValidationError reports whether err is one of the hearing validation
// failures above.
func IsValidationError(err error) bool {
	return ErrorCode(err) != ""
}

// ErrorCode returns the caller-facing code of a validation failure, or ""
// when err is not one.
func ErrorCode(err error) string {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return ""
}
