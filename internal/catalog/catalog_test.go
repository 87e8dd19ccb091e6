package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-concierge/internal/common/logger"
	"shop-concierge/internal/models"
)

type fakeReader struct {
	shops []models.Shop
	err   error
}

func (f *fakeReader) ListAll(ctx context.Context) ([]models.Shop, error) {
	return f.shops, f.err
}

type fakeWriter struct {
	got []models.Shop
	err error
}

func (f *fakeWriter) UpsertShops(ctx context.Context, shops []models.Shop) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, shops...)
	return nil
}

type fakeCache struct {
	calls int
}

func (f *fakeCache) Invalidate(ctx context.Context) (int, error) {
	f.calls++
	return 4, nil
}

func shops() []models.Shop {
	return []models.Shop{
		{ShopID: "1", AreaGroup: "Tokyo", Status: "active"},
		{ShopID: "2", AreaGroup: "Tokyo", Status: "Active"},
		{ShopID: "3", AreaGroup: "Tokyo", Status: "paused"},
		{ShopID: "4", AreaGroup: " Kyoto ", Status: "active"},
		{ShopID: "5", AreaGroup: "", Status: "active"},
	}
}

func TestAudit(t *testing.T) {
	got := Audit(shops(), 2)

	require.Len(t, got, 2)
	assert.Equal(t, AreaStock{Area: "Kyoto", Active: 1, Required: 2, Short: 1}, got[0])
	assert.Equal(t, AreaStock{Area: "Tokyo", Active: 2, Inactive: 1, Required: 2}, got[1])
	assert.False(t, got[0].OK())
	assert.True(t, got[1].OK())
}

func TestAudit_Empty(t *testing.T) {
	assert.Empty(t, Audit(nil, 7))
}

func TestSyncer_Run(t *testing.T) {
	pg := &fakeWriter{}
	es := &fakeWriter{}
	cache := &fakeCache{}
	prepared := false

	s := NewSyncer(&fakeReader{shops: shops()}, []Target{
		{Name: "postgres", Writer: pg},
		{Name: "elasticsearch", Writer: es, Prepare: func(ctx context.Context) error {
			prepared = true
			return nil
		}},
	}, cache, logger.NewTestLogger(t))

	report, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, prepared)
	assert.Len(t, pg.got, 5)
	assert.Len(t, es.got, 5)
	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, &SyncReport{
		Read:        5,
		Written:     map[string]int{"postgres": 5, "elasticsearch": 5},
		Invalidated: 4,
	}, report)
}

func TestSyncer_StopsOnFailedTarget(t *testing.T) {
	cache := &fakeCache{}
	es := &fakeWriter{}
	s := NewSyncer(&fakeReader{shops: shops()}, []Target{
		{Name: "postgres", Writer: &fakeWriter{err: errors.New("conn refused")}},
		{Name: "elasticsearch", Writer: es},
	}, cache, logger.NewTestLogger(t))

	report, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync postgres")
	assert.Empty(t, report.Written)
	assert.Empty(t, es.got)
	assert.Zero(t, cache.calls)
}

func TestSyncer_ReadFailure(t *testing.T) {
	s := NewSyncer(&fakeReader{err: errors.New("401")}, nil, nil, logger.NewTestLogger(t))

	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}
