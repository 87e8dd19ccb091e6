package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagList_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want TagList
	}{
		{name: "array", raw: `["solo"," partner "]`, want: TagList{"solo", "partner"}},
		{name: "comma string", raw: `"solo, friends"`, want: TagList{"solo", "friends"}},
		{name: "pipe string", raw: `"quiet_reflective|lively"`, want: TagList{"quiet_reflective", "lively"}},
		{name: "array with joined entry", raw: `["solo,family"]`, want: TagList{"solo", "family"}},
		{name: "null", raw: `null`, want: nil},
		{name: "empty string", raw: `""`, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got TagList
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("rejects numbers", func(t *testing.T) {
		var got TagList
		assert.Error(t, json.Unmarshal([]byte(`42`), &got))
	})
}

func TestTagList_Contains(t *testing.T) {
	tags := TagList{"Solo", " Partner "}
	assert.True(t, tags.Contains("solo"))
	assert.True(t, tags.Contains("PARTNER"))
	assert.False(t, tags.Contains("family"))
	assert.False(t, tags.Contains("  "))
}

func TestShop_DisplayArea(t *testing.T) {
	assert.Equal(t, "Shibuya", Shop{AreaGroup: "Tokyo Urban", AreaDetail: "Shibuya"}.DisplayArea())
	assert.Equal(t, "Tokyo Urban", Shop{AreaGroup: "Tokyo Urban"}.DisplayArea())
}

func TestNormalizePaymentStatus(t *testing.T) {
	tests := map[string]string{
		"paid":                    PaymentStatusPaid,
		" Succeeded ":             PaymentStatusPaid,
		"complete":                PaymentStatusPaid,
		"completed":               PaymentStatusPaid,
		"success":                 PaymentStatusPaid,
		"open":                    PaymentStatusUnpaid,
		"requires_payment_method": PaymentStatusUnpaid,
		"cancelled":               PaymentStatusUnpaid,
		"":                        PaymentStatusUnknown,
		"no_payment_required":     "no_payment_required",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizePaymentStatus(in), in)
	}
}

func TestPurchase_Metadata(t *testing.T) {
	p := Purchase{Plan: "Explorer", AreaGroups: "Tokyo Urban", Who: "solo", Vibes: " "}
	md := p.Metadata()
	assert.Equal(t, map[string]string{
		"plan":        "Explorer",
		"area_groups": "Tokyo Urban",
		"who":         "solo",
	}, md)
}

func TestNewPurchaseEvent(t *testing.T) {
	amount := int64(4980)
	ev := NewPurchaseEvent(Purchase{SessionID: "cs_1", Plan: "Explorer", AmountTotal: &amount, GAClientID: "1.2"})
	assert.Equal(t, "cs_1", ev.SessionID)
	assert.Equal(t, int64(4980), ev.AmountTotal)
	assert.Equal(t, "1.2", ev.GAClientID)

	assert.Zero(t, NewPurchaseEvent(Purchase{SessionID: "cs_2"}).AmountTotal)
}
