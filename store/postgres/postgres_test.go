package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
	"github.com/warp/paycal/store/postgres"
)

// newTestStore connects to PAYCAL_TEST_PG_DSN. Tests use their own company
// ids; period rows are left behind since re-runs are idempotent.
func newTestStore(t *testing.T) *postgres.Store {
	dsn := os.Getenv("PAYCAL_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("PAYCAL_TEST_PG_DSN not set")
	}
	ctx := context.Background()

	store, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Ping(ctx))
	return store
}

func TestStore_MaterializerRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := 900001

	m := calendar.NewMaterializer(store)
	anchor := calendar.NewPayPeriod(id, calendar.Weekly, calendar.MustParseDay("2014-01-01"))
	_, err := m.Seed(ctx, anchor)
	require.NoError(t, err)

	p, err := m.Containing(ctx, id, calendar.MustParseDay("2014-01-09"))
	require.NoError(t, err)
	assert.Equal(t, anchor.Next(), p)

	p, err = m.Containing(ctx, id, calendar.MustParseDay("2013-12-30"))
	require.NoError(t, err)
	assert.Equal(t, anchor.Previous(), p)

	again, err := store.InsertIfAbsent(ctx, anchor)
	require.NoError(t, err)
	assert.Equal(t, anchor, again)

	earliest, err := store.FindEarliest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, anchor.Previous(), *earliest)

	listed, err := store.ListPeriods(ctx, id, anchor.Previous().Begin, anchor.Next().End)
	require.NoError(t, err)
	assert.Len(t, listed, 3)
}

func TestStore_Holidays(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := 900002

	saved, err := store.SaveHoliday(ctx, holiday.Holiday{CompanyID: id, Description: "Founders", Config: "March 3rd"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.DeleteHoliday(context.Background(), id, saved.ID) })

	_, err = store.SaveHoliday(ctx, holiday.Holiday{CompanyID: id, Description: "Founders", Config: "March 4th"})
	assert.ErrorIs(t, err, holiday.ErrInvalidHoliday)

	all, err := store.AllForCompany(ctx, id)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "March 3rd", all[0].Config)
}
