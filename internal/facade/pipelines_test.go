package facade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPipelines(t *testing.T) *Pipelines {
	t.Helper()
	eng := newTestEngine()
	_, err := eng.CreateStore(PipelinesStoreName)
	require.NoError(t, err)
	return NewPipelines(eng)
}

func TestPipelinesCreateAndGet(t *testing.T) {
	f := newTestPipelines(t)
	methods := f.Methods()

	ok, err := methods["create_pipeline"](nil, map[string]interface{}{
		"name": "release", "stages": []interface{}{"build", "test"},
	})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	got, err := methods["get_pipeline"](nil, map[string]interface{}{"name": "release"})
	require.NoError(t, err)
	state := got.(map[string]interface{})
	require.Equal(t, []interface{}{"build", "test"}, state["stages"])
}

func TestPipelinesCreateDuplicateFails(t *testing.T) {
	f := newTestPipelines(t)
	methods := f.Methods()

	methods["create_pipeline"](nil, map[string]interface{}{"name": "release"})
	_, err := methods["create_pipeline"](nil, map[string]interface{}{"name": "release"})
	require.Error(t, err)
}

func TestPipelinesAddStageAppends(t *testing.T) {
	f := newTestPipelines(t)
	methods := f.Methods()

	methods["create_pipeline"](nil, map[string]interface{}{
		"name": "release", "stages": []interface{}{"build"},
	})
	ok, err := methods["add_stage"](nil, map[string]interface{}{"name": "release", "stage": "deploy"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	got, _ := methods["get_pipeline"](nil, map[string]interface{}{"name": "release"})
	state := got.(map[string]interface{})
	require.Equal(t, []interface{}{"build", "deploy"}, state["stages"])
}

func TestPipelinesLogErrorAccumulates(t *testing.T) {
	f := newTestPipelines(t)
	methods := f.Methods()

	methods["create_pipeline"](nil, map[string]interface{}{"name": "release"})
	methods["log_error"](nil, map[string]interface{}{"name": "release", "stage": "build", "message": "oom"})
	methods["log_error"](nil, map[string]interface{}{"name": "release", "stage": "test", "message": "flaky"})

	got, err := methods["get_pipeline"](nil, map[string]interface{}{"name": "release"})
	require.NoError(t, err)
	state := got.(map[string]interface{})
	errs := state["errors"].([]interface{})
	require.Len(t, errs, 2)
	require.Equal(t, map[string]interface{}{"stage": "build", "message": "oom"}, errs[0])
}

func TestPipelinesListAndDelete(t *testing.T) {
	f := newTestPipelines(t)
	methods := f.Methods()

	methods["create_pipeline"](nil, map[string]interface{}{"name": "a"})
	methods["create_pipeline"](nil, map[string]interface{}{"name": "b"})

	names, err := methods["list_pipelines"](nil, nil)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, names)

	ok, err := methods["delete_pipeline"](nil, map[string]interface{}{"name": "a"})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	names, _ = methods["list_pipelines"](nil, nil)
	require.Equal(t, []string{"b"}, names)
}
