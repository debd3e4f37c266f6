package facade

import (
	"fmt"

	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
)

// PathsStoreName is the well-known store path directories are kept under.
const PathsStoreName = "paths"

// Paths is the nested label -> environment -> system -> path directory
// (component C10), grounded on original_source/store.py's generic
// _ensure_nested/_set_nested helpers: each label is one record whose Value
// is a three-level nested map, built and read with the typed helpers below
// instead of untyped dict mutation.
type Paths struct {
	Engine *kvstore.Engine
}

// NewPaths returns a Paths facade. The caller must have created
// PathsStoreName already.
func NewPaths(eng *kvstore.Engine) *Paths {
	return &Paths{Engine: eng}
}

// Methods implements rpc.Service.
func (f *Paths) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"set_path":      f.setPath,
		"get_path":      f.getPath,
		"delete_path":   f.deletePath,
		"get_all_paths": f.getAllPaths,
	}
}

func (f *Paths) setPath(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	label, err := a.String(0, "label")
	if err != nil {
		return nil, err
	}
	env, err := a.String(1, "env")
	if err != nil {
		return nil, err
	}
	system, err := a.String(2, "system")
	if err != nil {
		return nil, err
	}
	path, err := a.String(3, "path")
	if err != nil {
		return nil, err
	}

	tree := f.loadTree(label)
	ensureNestedSet(tree, env, system, path)

	var v interface{} = tree
	ok, err := f.Engine.EditKey(PathsStoreName, label, kvstore.Patch{Value: &v}, true)
	return ok, err
}

func (f *Paths) getPath(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	label, err := a.String(0, "label")
	if err != nil {
		return nil, err
	}
	env, err := a.String(1, "env")
	if err != nil {
		return nil, err
	}
	system, err := a.String(2, "system")
	if err != nil {
		return nil, err
	}

	tree := f.loadTree(label)
	path, ok := ensureNestedGet(tree, env, system)
	if !ok {
		return nil, fmt.Errorf("facade: no path recorded for %s/%s/%s", label, env, system)
	}
	return path, nil
}

func (f *Paths) deletePath(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	label, err := a.String(0, "label")
	if err != nil {
		return nil, err
	}
	env, err := a.String(1, "env")
	if err != nil {
		return nil, err
	}
	system, err := a.String(2, "system")
	if err != nil {
		return nil, err
	}

	tree := f.loadTree(label)
	envNode, ok := tree[env].(map[string]interface{})
	if !ok {
		return false, nil
	}
	if _, ok := envNode[system]; !ok {
		return false, nil
	}
	delete(envNode, system)

	var v interface{} = tree
	ok2, err := f.Engine.EditKey(PathsStoreName, label, kvstore.Patch{Value: &v}, true)
	return ok2, err
}

func (f *Paths) getAllPaths(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	label, err := a.String(0, "label")
	if err != nil {
		return nil, err
	}
	return f.loadTree(label), nil
}

func (f *Paths) loadTree(label string) map[string]interface{} {
	rec, ok := f.Engine.GetRecord(PathsStoreName, label)
	if !ok {
		return map[string]interface{}{}
	}
	stored, ok := rec.Value.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	// Copy the two map levels so edits never touch the stored tree in place.
	tree := make(map[string]interface{}, len(stored))
	for env, node := range stored {
		if envNode, ok := node.(map[string]interface{}); ok {
			envCopy := make(map[string]interface{}, len(envNode))
			for system, path := range envNode {
				envCopy[system] = path
			}
			node = envCopy
		}
		tree[env] = node
	}
	return tree
}

// ensureNestedSet writes path at tree[env][system], creating the
// intermediate env level if it does not already exist.
func ensureNestedSet(tree map[string]interface{}, env, system, path string) {
	envNode, ok := tree[env].(map[string]interface{})
	if !ok {
		envNode = map[string]interface{}{}
		tree[env] = envNode
	}
	envNode[system] = path
}

// ensureNestedGet reads tree[env][system], reporting whether it was set.
func ensureNestedGet(tree map[string]interface{}, env, system string) (string, bool) {
	envNode, ok := tree[env].(map[string]interface{})
	if !ok {
		return "", false
	}
	path, ok := envNode[system].(string)
	return path, ok
}
