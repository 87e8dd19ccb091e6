package preference

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"shop-concierge/internal/models"
)

// HearingKey is the metadata key holding the structured preference blob.
const HearingKey = "hearing"

// NoPreferenceTag is accepted in the vibe list as a spelled-out opt-out.
const NoPreferenceTag = "no_preference"

// Fallback keys, in priority order, for each concept carried as flat fields.
var (
	PlanKeys         = []string{"plan"}
	CompanionKeys    = []string{"who", "prefs", "with"}
	VibeKeys         = []string{"vibes", "vibe"}
	AreaKeys         = []string{"area_groups", "areas", "area_group"}
	NoPreferenceKeys = []string{"no_preference", "noPreference"}
)

// Options tunes validation that differs per deployment.
type Options struct {
	// RequireCompanion rejects answers without a companion type.
	RequireCompanion bool
}

// DefaultOptions matches the hearing form, which always asks "who".
func DefaultOptions() Options {
	return Options{RequireCompanion: true}
}

// hearing is the structured blob. Every field is optional; a missing field
// falls back to the flat metadata.
type hearing struct {
	Plan         string         `json:"plan"`
	AreaGroups   models.TagList `json:"area_groups"`
	Who          string         `json:"who"`
	Vibes        models.TagList `json:"vibes"`
	NoPreference *bool          `json:"no_preference"`
}

// Parse builds Preferences from a metadata bag.
//
// Sources, highest priority first:
//   - the JSON object under HearingKey, field by field
//   - flat fields, trying each key of PlanKeys, CompanionKeys, VibeKeys,
//     AreaKeys and NoPreferenceKeys in order
//
// Lists in flat fields are comma separated. The vibe list may contain
// NoPreferenceTag, which sets NoPreference and is then dropped.
//
// Validation runs in a fixed order (plan, area count, area uniqueness,
// companion, vibe count) and stops at the first failure.
func Parse(md map[string]string, opts Options) (Preferences, error) {
	var blob hearing
	if raw := strings.TrimSpace(md[HearingKey]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			return Preferences{}, fmt.Errorf("%w: %v", ErrInvalidHearing, err)
		}
	}

	planRaw := firstNonEmpty(blob.Plan, lookup(md, PlanKeys))
	plan, err := ParsePlan(planRaw)
	if err != nil {
		return Preferences{}, err
	}

	areas := []string(blob.AreaGroups)
	if len(areas) == 0 {
		areas = splitList(lookup(md, AreaKeys))
	}
	if err := validateAreas(plan, areas); err != nil {
		return Preferences{}, err
	}

	who := strings.TrimSpace(firstNonEmpty(blob.Who, lookup(md, CompanionKeys)))
	if who == "" && opts.RequireCompanion {
		return Preferences{}, ErrMissingWho
	}

	vibes := []string(blob.Vibes)
	if len(vibes) == 0 {
		vibes = splitList(lookup(md, VibeKeys))
	}
	var noPref bool
	if blob.NoPreference != nil {
		noPref = *blob.NoPreference
	} else {
		noPref = truthy(lookup(md, NoPreferenceKeys))
	}
	vibes, sentinel := dedupeVibes(vibes)
	noPref = noPref || sentinel

	if !noPref && (len(vibes) < 1 || len(vibes) > 2) {
		return Preferences{}, ErrInvalidVibesCount
	}

	return Preferences{
		Plan:           plan,
		AreaSelections: areas,
		CompanionType:  who,
		VibeTags:       vibes,
		NoPreference:   noPref,
	}, nil
}

func validateAreas(plan Plan, areas []string) error {
	if len(areas) == 0 {
		return ErrInvalidAreaCount
	}
	if len(areas) != plan.AreaCount() {
		if plan == PlanExplorer {
			return ErrInvalidAreaGroupsExplorer
		}
		return ErrInvalidAreaGroupsCountConnoisseur
	}
	seen := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		k := strings.ToLower(a)
		if _, dup := seen[k]; dup {
			return ErrDuplicateAreaGroups
		}
		seen[k] = struct{}{}
	}
	return nil
}

// dedupeVibes drops repeats (case-insensitive) and pulls out the opt-out tag.
func dedupeVibes(in []string) ([]string, bool) {
	var out []string
	sentinel := false
	seen := map[string]struct{}{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		k := strings.ToLower(v)
		if k == "" {
			continue
		}
		if k == NoPreferenceTag {
			sentinel = true
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out, sentinel
}

func lookup(md map[string]string, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(md[k]); v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err == nil {
		return b
	}
	return strings.EqualFold(strings.TrimSpace(s), "yes")
}
