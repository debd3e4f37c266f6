package facade

import (
	"errors"
	"time"

	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
)

// EngineServiceURI is the well-known service URI the engine itself is
// exposed under.
const EngineServiceURI = "key_value_store"

// EngineService adapts kvstore.Engine's Go method set into the rpc.Service
// surface named in spec.md's wire contract: create_store, delete_store,
// list_stores, add_key, edit_key, delete_key, get_key, get_record,
// get_all_keys, update_configuration. It holds no state of its own.
type EngineService struct {
	Engine *kvstore.Engine
}

// NewEngineService wraps eng for RPC dispatch.
func NewEngineService(eng *kvstore.Engine) *EngineService {
	return &EngineService{Engine: eng}
}

// Methods implements rpc.Service.
func (s *EngineService) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"create_store":         s.createStore,
		"delete_store":         s.deleteStore,
		"list_stores":          s.listStores,
		"add_key":              s.addKey,
		"edit_key":             s.editKey,
		"delete_key":           s.deleteKey,
		"get_key":              s.getKey,
		"get_record":           s.getRecord,
		"get_all_keys":         s.getAllKeys,
		"update_configuration": s.updateConfiguration,
	}
}

func (s *EngineService) createStore(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	return s.Engine.CreateStore(name)
}

func (s *EngineService) deleteStore(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	name, err := a.String(0, "name")
	if err != nil {
		return nil, err
	}
	return s.Engine.DeleteStore(name)
}

func (s *EngineService) listStores(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	return s.Engine.ListStores(), nil
}

func (s *EngineService) addKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	key, err := a.String(1, "key")
	if err != nil {
		return nil, err
	}
	value, _ := a.Any(2, "value")
	readonly := a.Bool(4, "readonly")
	extras := a.StringMap(5, "extras")
	return s.Engine.AddKey(store, key, value, a.TTL(3, "ttl"), readonly, extras)
}

func (s *EngineService) editKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	key, err := a.String(1, "key")
	if err != nil {
		return nil, err
	}

	patchArg := a.StringMap(2, "patch")
	patch := kvstore.Patch{}
	if v, ok := patchArg["value"]; ok {
		patch.Value = &v
	}
	if ttl, ok := patchArg["ttl"]; ok {
		d := NewArgs([]interface{}{ttl}, nil).TTL(0, "")
		patch.TTL = d
	}
	if ro, ok := patchArg["readonly"].(bool); ok {
		patch.Readonly = &ro
	}
	if extras, ok := patchArg["extras"].(map[string]interface{}); ok {
		patch.Extras = extras
	}

	force := a.Bool(3, "force")
	ok, err := s.Engine.EditKey(store, key, patch, force)
	if errors.Is(err, kvstore.ErrReadOnly) {
		// A readonly violation is an expected outcome: report it as false.
		return false, nil
	}
	return ok, err
}

func (s *EngineService) deleteKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	key, err := a.String(1, "key")
	if err != nil {
		return nil, err
	}
	return s.Engine.DeleteKey(store, key)
}

func (s *EngineService) getKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	key, err := a.String(1, "key")
	if err != nil {
		return nil, err
	}
	v, _ := s.Engine.GetKey(store, key)
	return v, nil
}

func (s *EngineService) getRecord(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	key, err := a.String(1, "key")
	if err != nil {
		return nil, err
	}
	rec, ok := s.Engine.GetRecord(store, key)
	if !ok {
		return nil, nil
	}
	return recordToMap(rec), nil
}

func (s *EngineService) getAllKeys(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	store, err := a.String(0, "store")
	if err != nil {
		return nil, err
	}
	all, _ := s.Engine.GetAllKeys(store)
	out := make(map[string]interface{}, len(all))
	for k, rec := range all {
		out[k] = recordToMap(rec)
	}
	return out, nil
}

func (s *EngineService) updateConfiguration(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	patchArg := a.StringMap(0, "patch")

	patch := kvstore.ConfigPatch{}
	if v, ok := patchArg["status_ttl"]; ok {
		if d := NewArgs([]interface{}{v}, nil).TTL(0, ""); d != nil {
			patch.StatusTTL = d
		}
	}
	if v, ok := patchArg["cleanup_frequency"]; ok {
		if d := NewArgs([]interface{}{v}, nil).TTL(0, ""); d != nil {
			patch.CleanupFrequency = d
		}
	}
	if v, ok := patchArg["metrics_interval"]; ok {
		if d := NewArgs([]interface{}{v}, nil).TTL(0, ""); d != nil {
			patch.MetricsInterval = d
		}
	}
	if v, ok := patchArg["backup_dir"].(string); ok {
		patch.BackupDir = &v
	}
	if v, ok := patchArg["max_backups"]; ok {
		if n, ok := asFloat64(v); ok {
			mb := int(n)
			patch.MaxBackups = &mb
		}
	}

	s.Engine.UpdateConfiguration(patch)
	return true, nil
}

func recordToMap(rec kvstore.Record) map[string]interface{} {
	return map[string]interface{}{
		"value":    rec.Value,
		"exp_time": rec.ExpTime.Format(time.RFC3339Nano),
		"readonly": rec.Readonly,
		"extras":   rec.Extras,
	}
}
