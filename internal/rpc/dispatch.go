// Package rpc implements the RPC dispatch layer (component C9): a
// length-framed binary accept loop, a bounded worker pool, and an explicit
// per-service dispatch table in place of the attribute-based method lookup
// spec §9's REDESIGN FLAGS calls out as needing replacement.
package rpc

import "sync"

// Method is one callable exposed by a Service. Positional and keyword
// arguments arrive exactly as decoded off the wire — a typed tagged variant
// per spec §9's "arbitrary keyword-argument passthrough" redesign note.
// A non-nil error here is a normal response (an error descriptor frame is
// sent back); it is not the same thing as an unknown method, which never
// reaches a Method at all.
type Method func(args []interface{}, kwargs map[string]interface{}) (interface{}, error)

// Service is the exposed surface of one registered service URI: an
// explicit, fixed table from method name to Method, built once at
// construction instead of being discovered via reflection at call time.
type Service interface {
	Methods() map[string]Method
}

// Shutdowner is implemented by services that need to release resources on
// process shutdown (spec §4.6's "Graceful shutdown" step).
type Shutdowner interface {
	Shutdown()
}

// Registry maps service URIs to Service instances. It is safe for
// concurrent use; the manifest refresh loop and the per-connection
// dispatcher both read and write it.
type Registry struct {
	mu       sync.RWMutex
	services map[string]Service
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{services: make(map[string]Service)}
}

// Register adds or replaces the service at uri. Direct callers (e.g.
// main's static wiring) may replace; the manifest refresh loop never does —
// see Registry.RegisterIfAbsent.
func (r *Registry) Register(uri string, svc Service) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[uri] = svc
}

// RegisterIfAbsent adds svc at uri only if no service is already
// registered there, returning whether it was added. This is what the
// manifest hot-reload path uses: spec §9 Open Question 4 decides reload
// must never silently drop a running service's in-memory state by
// replacing it.
func (r *Registry) RegisterIfAbsent(uri string, svc Service) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.services[uri]; ok {
		return false
	}
	r.services[uri] = svc
	return true
}

// Get returns the service registered at uri, if any.
func (r *Registry) Get(uri string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	svc, ok := r.services[uri]
	return svc, ok
}

// All returns a snapshot copy of every registered (uri, service) pair, used
// by graceful shutdown to call Shutdown on every service that has one.
func (r *Registry) All() map[string]Service {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Service, len(r.services))
	for k, v := range r.services {
		out[k] = v
	}
	return out
}
