package facade

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPaths(t *testing.T) *Paths {
	t.Helper()
	eng := newTestEngine()
	_, err := eng.CreateStore(PathsStoreName)
	require.NoError(t, err)
	return NewPaths(eng)
}

func TestPathsSetAndGet(t *testing.T) {
	f := newTestPaths(t)
	methods := f.Methods()

	ok, err := methods["set_path"](nil, map[string]interface{}{
		"label": "deploy_scripts", "env": "prod", "system": "linux", "path": "/opt/deploy.sh",
	})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	v, err := methods["get_path"](nil, map[string]interface{}{
		"label": "deploy_scripts", "env": "prod", "system": "linux",
	})
	require.NoError(t, err)
	require.Equal(t, "/opt/deploy.sh", v)
}

func TestPathsGetMissingIsError(t *testing.T) {
	f := newTestPaths(t)
	methods := f.Methods()

	_, err := methods["get_path"](nil, map[string]interface{}{
		"label": "nope", "env": "prod", "system": "linux",
	})
	require.Error(t, err)
}

func TestPathsMultipleSystemsPerEnvCoexist(t *testing.T) {
	f := newTestPaths(t)
	methods := f.Methods()

	methods["set_path"](nil, map[string]interface{}{
		"label": "l", "env": "prod", "system": "linux", "path": "/a",
	})
	methods["set_path"](nil, map[string]interface{}{
		"label": "l", "env": "prod", "system": "windows", "path": "C:\\a",
	})

	v1, _ := methods["get_path"](nil, map[string]interface{}{"label": "l", "env": "prod", "system": "linux"})
	v2, _ := methods["get_path"](nil, map[string]interface{}{"label": "l", "env": "prod", "system": "windows"})
	require.Equal(t, "/a", v1)
	require.Equal(t, "C:\\a", v2)
}

func TestPathsDelete(t *testing.T) {
	f := newTestPaths(t)
	methods := f.Methods()

	methods["set_path"](nil, map[string]interface{}{
		"label": "l", "env": "prod", "system": "linux", "path": "/a",
	})
	ok, err := methods["delete_path"](nil, map[string]interface{}{
		"label": "l", "env": "prod", "system": "linux",
	})
	require.NoError(t, err)
	require.Equal(t, true, ok)

	_, err = methods["get_path"](nil, map[string]interface{}{"label": "l", "env": "prod", "system": "linux"})
	require.Error(t, err)
}
