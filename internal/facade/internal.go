package facade

import (
	"fmt"

	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
	"kvvault/internal/worker"
)

// Internal exposes the well-known metrics store (written by
// worker.Metrics) as an RPC-reachable service, plus a small set of generic
// internal-key operations for anything else a deployment wants to stash
// there — mirroring original_source/plugins/metrics.py, which let callers
// both read the three sampled fields and manage arbitrary internal keys
// alongside them.
type Internal struct {
	Engine *kvstore.Engine
}

// NewInternal returns an Internal facade over the metrics store. The
// caller is responsible for having created worker.MetricsStoreName already
// (main does this at startup, alongside the metrics worker itself).
func NewInternal(eng *kvstore.Engine) *Internal {
	return &Internal{Engine: eng}
}

// Methods implements rpc.Service.
func (f *Internal) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"get_cpu_usage":           f.getCPUUsage,
		"get_memory_usage":        f.getMemoryUsage,
		"get_tasks_running_states": f.getTasksRunningStates,
		"add_internal_key":        f.addInternalKey,
		"edit_internal_key":       f.editInternalKey,
		"delete_internal_key":     f.deleteInternalKey,
		"get_internal_key":        f.getInternalKey,
		"get_all_internal_keys":   f.getAllInternalKeys,
	}
}

func (f *Internal) getCPUUsage(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return f.mustGet("cpu_usage")
}

func (f *Internal) getMemoryUsage(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return f.mustGet("memory_usage")
}

func (f *Internal) getTasksRunningStates(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return f.mustGet("tasks_running_states")
}

func (f *Internal) mustGet(key string) (interface{}, error) {
	v, ok := f.Engine.GetKey(worker.MetricsStoreName, key)
	if !ok {
		return nil, fmt.Errorf("facade: internal key %q is not set yet", key)
	}
	return v, nil
}

func (f *Internal) addInternalKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	value, _ := a.Any(1, "value")
	readonly := a.Bool(2, "readonly")
	ok, err := f.Engine.AddKey(worker.MetricsStoreName, key, value, a.TTL(3, "ttl"), readonly, nil)
	return ok, err
}

func (f *Internal) editInternalKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	patch := kvstore.Patch{TTL: a.TTL(2, "ttl")}
	if v, ok := a.Any(1, "value"); ok {
		patch.Value = &v
	}
	force := a.Bool(3, "force")
	ok, err := f.Engine.EditKey(worker.MetricsStoreName, key, patch, force)
	return ok, err
}

func (f *Internal) deleteInternalKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	ok, err := f.Engine.DeleteKey(worker.MetricsStoreName, key)
	return ok, err
}

func (f *Internal) getInternalKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	v, ok := f.Engine.GetKey(worker.MetricsStoreName, key)
	if !ok {
		return nil, fmt.Errorf("facade: internal key %q not found", key)
	}
	return v, nil
}

func (f *Internal) getAllInternalKeys(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	all, _ := f.Engine.GetAllKeys(worker.MetricsStoreName)
	out := make(map[string]interface{}, len(all))
	for k, rec := range all {
		out[k] = rec.Value
	}
	return out, nil
}
