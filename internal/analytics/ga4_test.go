package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackPurchase(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "G-TEST", r.URL.Query().Get("measurement_id"))
		assert.Equal(t, "secret", r.URL.Query().Get("api_secret"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "G-TEST", "secret", time.Second)
	err := c.TrackPurchase(context.Background(), Purchase{
		ClientID: "123.456", TransactionID: "cs_1", AmountMinor: 4980, Currency: "jpy", Plan: "Explorer",
	})
	require.NoError(t, err)

	assert.Equal(t, "123.456", got["client_id"])
	ev := got["events"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "purchase", ev["name"])
	params := ev["params"].(map[string]interface{})
	assert.Equal(t, "cs_1", params["transaction_id"])
	assert.Equal(t, "JPY", params["currency"])
	assert.Equal(t, 49.8, params["value"])
	it := params["items"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "Explorer", it["item_id"])
	assert.Equal(t, float64(1), it["quantity"])
}

func TestTrackPurchase_Skips(t *testing.T) {
	ctx := context.Background()

	err := NewClient("", "", "secret", time.Second).TrackPurchase(ctx, Purchase{ClientID: "1"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	err = NewClient("", "G-1", "secret", time.Second).TrackPurchase(ctx, Purchase{})
	assert.ErrorIs(t, err, ErrMissingClientID)

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestTrackPurchase_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "G-1", "s", time.Second).TrackPurchase(context.Background(),
		Purchase{ClientID: "1", TransactionID: "cs_1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cs_1")
}

func TestTrackPurchase_Defaults(t *testing.T) {
	var got payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "G-1", "s", time.Second).TrackPurchase(context.Background(),
		Purchase{ClientID: "1", TransactionID: "cs_2"})
	require.NoError(t, err)
	assert.Equal(t, "USD", got.Events[0].Params["currency"])
	assert.Equal(t, float64(0), got.Events[0].Params["value"])
}
