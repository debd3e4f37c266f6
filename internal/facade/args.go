// Package facade implements the domain facades (component C10): thin
// operation adapters — internal metrics, secrets, paths, pipelines — each
// composing kvstore.Engine primitives into named RPC methods. Facades hold
// no durable state of their own; the engine is the only thing that does.
package facade

import (
	"fmt"
	"time"
)

// Args gives facade methods uniform, order-independent access to a
// request's positional and keyword arguments — mirroring the flexible
// *args/**kwargs calling convention the original service exposed, adapted
// into the typed-extras style spec §9 calls for: callers may pass a value
// positionally or by keyword, and facades don't care which.
type Args struct {
	pos []interface{}
	kw  map[string]interface{}
}

// NewArgs wraps a method call's raw positional and keyword arguments.
func NewArgs(pos []interface{}, kw map[string]interface{}) Args {
	return Args{pos: pos, kw: kw}
}

func (a Args) at(i int, key string) (interface{}, bool) {
	if key != "" {
		if v, ok := a.kw[key]; ok {
			return v, true
		}
	}
	if i >= 0 && i < len(a.pos) {
		return a.pos[i], true
	}
	return nil, false
}

// String returns the i-th positional or key-named argument as a string.
func (a Args) String(i int, key string) (string, error) {
	v, ok := a.at(i, key)
	if !ok {
		return "", fmt.Errorf("facade: missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("facade: argument %q must be a string, got %T", key, v)
	}
	return s, nil
}

// StringOr is String with a default when the argument is absent.
func (a Args) StringOr(i int, key, def string) string {
	s, err := a.String(i, key)
	if err != nil {
		return def
	}
	return s
}

// Bool returns the i-th positional or key-named argument as a bool,
// defaulting to false when absent.
func (a Args) Bool(i int, key string) bool {
	v, ok := a.at(i, key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Any returns the raw i-th positional or key-named argument.
func (a Args) Any(i int, key string) (interface{}, bool) {
	return a.at(i, key)
}

// StringMap returns the i-th positional or key-named argument as a
// string-keyed map, or nil when absent or the wrong shape.
func (a Args) StringMap(i int, key string) map[string]interface{} {
	v, ok := a.at(i, key)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

// StringSlice returns the i-th positional or key-named argument as a string
// slice, accepting both []string and []interface{} (msgpack decodes arrays
// into the latter).
func (a Args) StringSlice(i int, key string) []string {
	v, ok := a.at(i, key)
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []interface{}:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// TTL returns the "ttl" argument as a *time.Duration: nil when absent or
// explicitly null (meaning "use the engine default"), otherwise the number
// of seconds it names. ttl may arrive as any numeric msgpack type.
func (a Args) TTL(i int, key string) *time.Duration {
	v, ok := a.at(i, key)
	if !ok || v == nil {
		return nil
	}
	seconds, ok := asFloat64(v)
	if !ok {
		return nil
	}
	d := time.Duration(seconds * float64(time.Second))
	return &d
}

func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
