package facade

import (
	"testing"

	"github.com/stretchr/testify/require"

	"kvvault/internal/worker"
)

func TestInternalReadsMetricsWorkerOutput(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.CreateStore(worker.MetricsStoreName)
	require.NoError(t, err)
	_, err = eng.AddKey(worker.MetricsStoreName, "cpu_usage", 12.5, nil, false, nil)
	require.NoError(t, err)

	f := NewInternal(eng)
	methods := f.Methods()

	v, err := methods["get_cpu_usage"](nil, nil)
	require.NoError(t, err)
	require.Equal(t, 12.5, v)

	_, err = methods["get_memory_usage"](nil, nil)
	require.Error(t, err)
}

func TestInternalGenericKeyCRUD(t *testing.T) {
	eng := newTestEngine()
	_, err := eng.CreateStore(worker.MetricsStoreName)
	require.NoError(t, err)

	f := NewInternal(eng)
	methods := f.Methods()

	ok, err := methods["add_internal_key"](nil, map[string]interface{}{"key": "build_id", "value": "abc123"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	v, err := methods["get_internal_key"](nil, map[string]interface{}{"key": "build_id"})
	require.NoError(t, err)
	require.Equal(t, "abc123", v)

	ok, err = methods["edit_internal_key"](nil, map[string]interface{}{"key": "build_id", "value": "def456"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	v, _ = methods["get_internal_key"](nil, map[string]interface{}{"key": "build_id"})
	require.Equal(t, "def456", v)

	all, err := methods["get_all_internal_keys"](nil, nil)
	require.NoError(t, err)
	require.Contains(t, all, "build_id")

	ok, err = methods["delete_internal_key"](nil, map[string]interface{}{"key": "build_id"})
	require.NoError(t, err)
	require.Equal(t, true, ok)
}
