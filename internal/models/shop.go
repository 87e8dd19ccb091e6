// internal/models/shop.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shop is a read-only snapshot of one catalog record.
type Shop struct {
	RecordID     string  `json:"id,omitempty"`
	ShopID       string  `json:"shop_id"`
	ShopName     string  `json:"shop_name"`
	AreaGroup    string  `json:"area_group"`
	AreaDetail   string  `json:"area_detail,omitempty"`
	Status       string  `json:"status,omitempty"`
	CompanionFit TagList `json:"best_with,omitempty"`
	VibeFit      TagList `json:"best_vibe,omitempty"`
	Genre        string  `json:"genre,omitempty"`
	ShortDesc    string  `json:"short_desc,omitempty"`
	Tier         string  `json:"tier,omitempty"`
	TimeSlot     string  `json:"time_slot,omitempty"`
}

// DisplayArea is the most specific area label available for the shop.
func (s Shop) DisplayArea() string {
	if d := strings.TrimSpace(s.AreaDetail); d != "" {
		return d
	}
	return strings.TrimSpace(s.AreaGroup)
}

// ShopFilter narrows an ad-hoc catalog search. Empty fields are ignored.
type ShopFilter struct {
	Status     string
	AreaGroup  string
	AreaDetail string
	Tier       string
	TimeSlot   string
	Limit      int
}

// TagList holds a plural tag field. Datastores hand these back either as a
// JSON array or as a single comma/pipe separated string.
type TagList []string

func (t *TagList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = nil
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = ParseTags(list...)
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("tag list: expected string or array: %w", err)
	}
	*t = ParseTags(single)
	return nil
}

// Contains reports whether tag is present, ignoring case and surrounding space.
func (t TagList) Contains(tag string) bool {
	needle := strings.ToLower(strings.TrimSpace(tag))
	if needle == "" {
		return false
	}
	for _, v := range t {
		if strings.ToLower(strings.TrimSpace(v)) == needle {
			return true
		}
	}
	return false
}

// String joins the tags with commas, the form used for flat storage columns.
func (t TagList) String() string {
	return strings.Join(t, ",")
}

// ParseTags splits every value on commas and pipes and drops empty parts.
func ParseTags(values ...string) TagList {
	var out TagList
	for _, v := range values {
		parts := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == '|' })
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
