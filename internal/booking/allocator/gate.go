package allocator

import (
	"errors"
	"fmt"
)

var ErrInsufficientInventory = errors.New("INSUFFICIENT_INVENTORY")

// Shortage describes a failed gate check. It wraps ErrInsufficientInventory.
type Shortage struct {
	Required int
	Actual   int
	// Area is set when a strict per-area check failed.
	Area string
}

func (s *Shortage) Error() string {
	if s.Area != "" {
		return fmt.Sprintf("%s: area %q has %d of %d picks", ErrInsufficientInventory, s.Area, s.Actual, s.Required)
	}
	return fmt.Sprintf("%s: %d of %d picks", ErrInsufficientInventory, s.Actual, s.Required)
}

func (s *Shortage) Unwrap() error { return ErrInsufficientInventory }

// Gate fails with a *Shortage when picks do not satisfy req. Customers never
// get a silently short list.
func Gate(picks []Pick, req Requirement) error {
	if len(picks) < req.Total {
		return &Shortage{Required: req.Total, Actual: len(picks)}
	}
	if !req.StrictPerArea {
		return nil
	}

	counts := make(map[string]int, len(req.Areas))
	for _, p := range picks {
		counts[p.Area]++
	}
	for _, area := range req.Areas {
		if counts[area] < req.Share {
			return &Shortage{Required: req.Share, Actual: counts[area], Area: area}
		}
	}
	return nil
}
