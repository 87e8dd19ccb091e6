// Package matcher holds the pure predicates that compare one shop record
// against a purchase's preferences.
package matcher

import (
	"strings"

	"shop-concierge/internal/booking/preference"
	"shop-concierge/internal/models"
)

const (
	companionWeight = 2
	vibeWeight      = 2
)

// MatchesCompanion reports whether the shop lists the requested companion
// type among its best_with tags. An empty companion type never matches.
func MatchesCompanion(shop models.Shop, prefs preference.Preferences) bool {
	if strings.TrimSpace(prefs.CompanionType) == "" {
		return false
	}
	return shop.CompanionFit.Contains(prefs.CompanionType)
}

// MatchesVibe is vacuously true when the user waived vibes or gave none.
// Otherwise at least one requested tag must appear in the shop's best_vibe.
func MatchesVibe(shop models.Shop, prefs preference.Preferences) bool {
	if prefs.NoPreference || len(prefs.VibeTags) == 0 {
		return true
	}
	return MatchedVibe(shop, prefs) != ""
}

// MatchedVibe returns the first requested vibe tag the shop carries, or ""
// when none does. Vacuous matches also return "".
func MatchedVibe(shop models.Shop, prefs preference.Preferences) string {
	for _, tag := range prefs.VibeTags {
		if shop.VibeFit.Contains(tag) {
			return strings.TrimSpace(tag)
		}
	}
	return ""
}

// Eligible reports whether the record may be selected at all.
func Eligible(shop models.Shop) bool {
	return strings.EqualFold(strings.TrimSpace(shop.Status), "active") &&
		strings.TrimSpace(shop.ShopID) != "" &&
		strings.TrimSpace(shop.ShopName) != ""
}

// Score ranks a record inside a relaxed pool.
func Score(shop models.Shop, prefs preference.Preferences) int {
	score := 0
	if MatchesCompanion(shop, prefs) {
		score += companionWeight
	}
	if MatchesVibe(shop, prefs) {
		score += vibeWeight
	}
	return score
}

// FilterEligible returns the eligible records of pool in their original order.
func FilterEligible(pool []models.Shop) []models.Shop {
	out := make([]models.Shop, 0, len(pool))
	for _, s := range pool {
		if Eligible(s) {
			out = append(out, s)
		}
	}
	return out
}
