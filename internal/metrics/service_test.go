package metrics

import (
	"context"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/mediaplan-go/internal/models"
	"github.com/AngelCh415/mediaplan-go/internal/store"
)

func loaded(t *testing.T, n int) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	recs := make([]models.Record, 0, n)
	for i := 0; i < n; i++ {
		recs = append(recs, models.Record{
			Market:     fmt.Sprintf("M%02d", i),
			Channel:    "TV",
			Outlet:     fmt.Sprintf("O%02d", i),
			Insertions: models.Number(float64(n - i)),
			CPM:        models.Text("R$ 10,00"),
		})
	}
	st.Replace("test", recs)
	return st
}

func TestDashboardNoDataset(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), 0)
	_, err := svc.Dashboard(context.Background())
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.Panel("delivery.by_market", url.Values{})
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.KPI()
	assert.ErrorIs(t, err, ErrNoDataset)
	_, err = svc.Matrix()
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestDashboard(t *testing.T) {
	st := loaded(t, 12)
	svc := NewService(st, 0)
	d, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	ds, _ := st.Current()
	assert.Equal(t, ds.ID, d.DatasetID)
	assert.Equal(t, 12, d.KPI.Records)
	assert.Equal(t, 10.0, d.KPI.AverageCPM)
	assert.Len(t, d.Delivery.ByMarket, 10)
	assert.Len(t, d.Delivery.ByChannel, 1)
}

func TestPanelTopAndPagination(t *testing.T) {
	svc := NewService(loaded(t, 12), 10)

	rows, err := svc.Panel("delivery.by_market", url.Values{})
	require.NoError(t, err)
	assert.Len(t, rows, 10)

	rows, err = svc.Panel(" Delivery.By_Market ", url.Values{"top": {"12"}})
	require.NoError(t, err)
	assert.Len(t, rows, 12)

	rows, err = svc.Panel("delivery.by_market", url.Values{"limit": {"3"}, "offset": {"2"}})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "M02", rows[0].Key)

	rows, err = svc.Panel("delivery.by_market", url.Values{"offset": {"50"}})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestPanelUnknown(t *testing.T) {
	_, err := NewService(loaded(t, 1), 0).Panel("nope", url.Values{})
	assert.ErrorIs(t, err, ErrUnknownPanel)
}

func TestClampLimitOffset(t *testing.T) {
	l, o := clampLimitOffset(0, -1, 5)
	assert.Equal(t, 5, l)
	assert.Equal(t, 0, o)
	l, o = clampLimitOffset(5000, 9, 5)
	assert.Equal(t, 1000, l)
	assert.Equal(t, 5, o)
}
