package kvstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"kvvault/internal/clock"
)

func newTestEngine(t *testing.T) (*Engine, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Unix(1_700_000_000, 0))
	e := New(fc, Config{MaxBackups: 10})
	created, err := e.CreateStore("s")
	require.NoError(t, err)
	require.True(t, created)
	return e, fc
}

func TestCreateStoreIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	created, err := e.CreateStore("s")
	require.ErrorIs(t, err, ErrAlreadyExists)
	require.False(t, created)
}

func TestCreateStoreInvalidName(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.CreateStore("")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBasicTTL(t *testing.T) {
	e, fc := newTestEngine(t)
	ttl := 1 * time.Second

	ok, err := e.AddKey("s", "k", "v", &ttl, false, nil)
	require.NoError(t, err)
	require.True(t, ok)

	v, found := e.GetKey("s", "k")
	require.True(t, found)
	require.Equal(t, "v", v)

	fc.Advance(2 * time.Second)
	_, found = e.GetKey("s", "k")
	require.False(t, found)
}

func TestZeroTTLExpiresImmediately(t *testing.T) {
	e, _ := newTestEngine(t)
	zero := time.Duration(0)

	ok, err := e.AddKey("s", "k", "v", &zero, false, nil)
	require.NoError(t, err)
	require.True(t, ok)

	_, found := e.GetKey("s", "k")
	require.False(t, found)
}

func TestDefaultTTLIsTenYears(t *testing.T) {
	e, fc := newTestEngine(t)

	ok, err := e.AddKey("s", "k", "v", nil, false, nil)
	require.NoError(t, err)
	require.True(t, ok)

	fc.Advance(5 * 365 * 24 * time.Hour)
	_, found := e.GetKey("s", "k")
	require.True(t, found)
}

func TestReadonlyGuard(t *testing.T) {
	e, _ := newTestEngine(t)

	ok, err := e.AddKey("s", "k", "v", nil, true, nil)
	require.NoError(t, err)
	require.True(t, ok)

	var w interface{} = "w"
	ok, err = e.EditKey("s", "k", Patch{Value: &w}, false)
	require.ErrorIs(t, err, ErrReadOnly)
	require.False(t, ok)

	ok, err = e.EditKey("s", "k", Patch{Value: &w}, true)
	require.NoError(t, err)
	require.True(t, ok)

	v, found := e.GetKey("s", "k")
	require.True(t, found)
	require.Equal(t, "w", v)
}

func TestAddKeyOnReadonlyAlwaysFails(t *testing.T) {
	e, _ := newTestEngine(t)

	ok, err := e.AddKey("s", "k", "v", nil, true, nil)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.AddKey("s", "k", "w", nil, false, nil)
	require.ErrorIs(t, err, ErrReadOnly)
	require.False(t, ok)
}

func TestEditKeyUpsertsMissingKey(t *testing.T) {
	e, _ := newTestEngine(t)

	var v interface{} = "fresh"
	ok, err := e.EditKey("s", "new-key", Patch{Value: &v}, false)
	require.NoError(t, err)
	require.True(t, ok)

	got, found := e.GetKey("s", "new-key")
	require.True(t, found)
	require.Equal(t, "fresh", got)
}

func TestEditKeyMergesFieldWise(t *testing.T) {
	e, _ := newTestEngine(t)

	ok, err := e.AddKey("s", "k", "v", nil, false, map[string]interface{}{"creator": "alice"})
	require.NoError(t, err)
	require.True(t, ok)

	newTTL := 30 * time.Second
	ok, err = e.EditKey("s", "k", Patch{TTL: &newTTL, Extras: map[string]interface{}{"last_refresh": 1}}, false)
	require.NoError(t, err)
	require.True(t, ok)

	rec, found := e.GetRecord("s", "k")
	require.True(t, found)
	require.Equal(t, "v", rec.Value) // untouched by the patch
	require.Equal(t, "alice", rec.Extras["creator"])
	require.Equal(t, 1, rec.Extras["last_refresh"])
}

func TestDeleteStoreMakesOperationsFailUntilRecreated(t *testing.T) {
	e, _ := newTestEngine(t)

	existed, err := e.DeleteStore("s")
	require.NoError(t, err)
	require.True(t, existed)

	_, ok := e.GetKey("s", "k")
	require.False(t, ok)

	_, err = e.AddKey("s", "k", "v", nil, false, nil)
	require.ErrorIs(t, err, ErrStoreMissing)

	created, err := e.CreateStore("s")
	require.NoError(t, err)
	require.True(t, created)

	ok, err = e.AddKey("s", "k", "v", nil, false, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGetAllKeysReturnsDefensiveCopy(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.AddKey("s", "k", "v", nil, false, nil)
	require.NoError(t, err)

	all, ok := e.GetAllKeys("s")
	require.True(t, ok)
	all["k"] = Record{Value: "tampered"}

	v, found := e.GetKey("s", "k")
	require.True(t, found)
	require.Equal(t, "v", v)
}

func TestSweepExpiredRemovesOnlyExpired(t *testing.T) {
	e, fc := newTestEngine(t)
	ttl := 1 * time.Second

	_, err := e.AddKey("s", "expiring", "v1", &ttl, false, nil)
	require.NoError(t, err)
	_, err = e.AddKey("s", "fresh", "v2", nil, false, nil)
	require.NoError(t, err)

	fc.Advance(2 * time.Second)
	snapshots := e.SweepExpired()

	require.Contains(t, snapshots, "s")
	require.NotContains(t, snapshots["s"], "expiring")
	require.Contains(t, snapshots["s"], "fresh")

	_, ok := e.GetKey("s", "expiring")
	require.False(t, ok)
}
