package checkout

import "shop-concierge/internal/common/validation"

// hearingSchema accepts the hearing form in any of the spellings the
// storefront has sent over time. Stripe caps metadata values at 500
// characters.
var hearingSchema = validation.MustCompileSchema(`{
  "type": "object",
  "definitions": {
    "text": {"type": "string", "maxLength": 500},
    "list": {
      "oneOf": [
        {"type": "string", "maxLength": 500},
        {"type": "array", "maxItems": 10, "items": {"type": "string", "maxLength": 100}}
      ]
    },
    "flag": {"type": ["boolean", "string"]}
  },
  "properties": {
    "plan":          {"type": "string", "maxLength": 32},
    "who":           {"$ref": "#/definitions/text"},
    "prefs":         {"$ref": "#/definitions/text"},
    "with":          {"$ref": "#/definitions/text"},
    "vibes":         {"$ref": "#/definitions/list"},
    "vibe":          {"$ref": "#/definitions/list"},
    "area_groups":   {"$ref": "#/definitions/list"},
    "areas":         {"$ref": "#/definitions/list"},
    "area_group":    {"$ref": "#/definitions/list"},
    "ga_client_id":  {"type": "string", "maxLength": 100},
    "gaClientId":    {"type": "string", "maxLength": 100},
    "no_preference": {"$ref": "#/definitions/flag"},
    "noPreference":  {"$ref": "#/definitions/flag"}
  }
}`)
