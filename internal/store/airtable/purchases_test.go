package airtable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

func int64Ptr(v int64) *int64 { return &v }

func TestPurchaseStore_FindBySessionID(t *testing.T) {
	base := &fakeBase{match: func(formula string, row map[string]interface{}) bool {
		return formula == "{session_id}='"+row["session_id"].(string)+"'"
	}}
	base.add(map[string]interface{}{
		"session_id": "cs_1", "payment_status": "paid", "amount_total": 4980.0,
		"plan": "Explorer", "area_groups": []string{"Kyoto"}, "vibes": "quiet,retro",
	})
	s := NewPurchaseStore(newFakeClient(t, base), "purchases", logger.NewTestLogger(t))

	p, err := s.FindBySessionID(context.Background(), "cs_1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, int64(4980), *p.AmountTotal)
	assert.Equal(t, "Kyoto", p.AreaGroups)
	assert.Equal(t, "quiet,retro", p.Vibes)

	p, err = s.FindBySessionID(context.Background(), "cs_missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPurchaseStore_UpsertCreates(t *testing.T) {
	base := &fakeBase{match: func(string, map[string]interface{}) bool { return false }}
	s := NewPurchaseStore(newFakeClient(t, base), "purchases", logger.NewTestLogger(t))

	p, err := s.Upsert(context.Background(), &models.Purchase{
		SessionID: "cs_new", PaymentStatus: "paid", AmountTotal: int64Ptr(1200), Plan: "Explorer",
	})

	require.NoError(t, err)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, int64(1200), *p.AmountTotal)
	assert.Len(t, base.rows, 1)
}

func TestPurchaseStore_UpsertKeepsOne(t *testing.T) {
	base := &fakeBase{match: func(formula string, row map[string]interface{}) bool {
		return row["session_id"] == "cs_dup"
	}}
	base.add(map[string]interface{}{"session_id": "cs_dup", "payment_status": "unpaid"})
	base.add(map[string]interface{}{"session_id": "cs_dup", "payment_status": "unpaid"})
	base.add(map[string]interface{}{"session_id": "cs_dup", "payment_status": "unpaid"})
	base.add(map[string]interface{}{"session_id": "cs_other", "payment_status": "paid"})
	s := NewPurchaseStore(newFakeClient(t, base), "purchases", logger.NewTestLogger(t))

	p, err := s.Upsert(context.Background(), &models.Purchase{SessionID: "cs_dup", PaymentStatus: "paid"})

	require.NoError(t, err)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, "paid", p.PaymentStatus)
	assert.Equal(t, []string{"rec2", "rec3"}, base.deletes)
	assert.Equal(t, []string{"rec1", "rec4"}, base.ids)
}

func TestPurchaseStore_UpsertToleratesDeleteFailure(t *testing.T) {
	base := &fakeBase{failDel: true}
	base.add(map[string]interface{}{"session_id": "cs_dup"})
	base.add(map[string]interface{}{"session_id": "cs_dup"})
	s := NewPurchaseStore(newFakeClient(t, base), "purchases", logger.NewTestLogger(t))

	p, err := s.Upsert(context.Background(), &models.Purchase{SessionID: "cs_dup", PaymentStatus: "paid"})

	require.NoError(t, err)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, []string{"rec2"}, base.deletes)
}

func TestPurchaseStore_UpsertRequiresSession(t *testing.T) {
	s := NewPurchaseStore(newFakeClient(t, &fakeBase{}), "purchases", logger.NewTestLogger(t))
	_, err := s.Upsert(context.Background(), &models.Purchase{})
	assert.Error(t, err)
}
