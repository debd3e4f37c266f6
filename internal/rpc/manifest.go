package rpc

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// manifestEntry mirrors one `{module, class}` pair in the YAML manifest
// (spec §6). Go has no runtime dynamic import, so module+class is resolved
// against a static Factories table registered at startup instead of being
// reflectively imported, matching the "explicit dispatch table ... either
// generated ... or registered at startup" redesign guidance in spec §9.
type manifestEntry struct {
	Module string `yaml:"module"`
	Class  string `yaml:"class"`
}

type manifestFile struct {
	Services map[string]manifestEntry `yaml:"services"`
}

// Factory constructs a fresh Service instance with no arguments, the same
// contract spec §6 describes for the manifest's module/class pair.
type Factory func() Service

// Factories is the static registry Manifest consults to turn a
// `module.Class` manifest entry into a Service instance.
type Factories map[string]Factory

func (f Factories) lookup(entry manifestEntry) (Factory, bool) {
	key := entry.Module + "." + entry.Class
	fn, ok := f[key]
	return fn, ok
}

func (e manifestEntry) valid() bool {
	return e.Module != "" && e.Class != ""
}

// Manifest polls a YAML file on disk and keeps Registry's set of services
// additively in sync with it: URIs present in the file but missing from
// the registry are instantiated and registered; URIs already registered
// are left completely alone, even if their manifest entry changed — per
// spec §9 Open Question 4's decision, reload only adds services, it never
// replaces a running one and silently drops its in-memory state.
type Manifest struct {
	Path      string
	Registry  *Registry
	Factories Factories

	lastModTime time.Time
}

// NewManifest returns a Manifest reader for path.
func NewManifest(path string, registry *Registry, factories Factories) *Manifest {
	return &Manifest{Path: path, Registry: registry, Factories: factories}
}

// Load reads the manifest file if its mtime has changed since the last
// successful Load, and registers any service URI not already present.
// A missing manifest file is skipped silently; an unreadable entry or an
// unknown module/class pair is logged and skipped. None of these aborts the
// server.
func (m *Manifest) Load() {
	info, err := os.Stat(m.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("rpc: manifest: stat %s: %v", m.Path, err)
		}
		return
	}
	if !info.ModTime().After(m.lastModTime) {
		return
	}

	data, err := os.ReadFile(m.Path)
	if err != nil {
		log.Printf("rpc: manifest: read %s: %v", m.Path, err)
		return
	}

	var parsed manifestFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		log.Printf("rpc: manifest: parse %s: %v", m.Path, err)
		return
	}

	for uri, entry := range parsed.Services {
		if err := m.loadOne(uri, entry); err != nil {
			log.Printf("rpc: manifest: %v", err)
		}
	}
	m.lastModTime = info.ModTime()
}

func (m *Manifest) loadOne(uri string, entry manifestEntry) error {
	if !entry.valid() {
		return fmt.Errorf("invalid configuration for service %s", uri)
	}

	if _, ok := m.Registry.Get(uri); ok {
		return nil // already running; never replaced by reload
	}

	factory, ok := m.Factories.lookup(entry)
	if !ok {
		return fmt.Errorf("no factory registered for %s.%s (service %s)", entry.Module, entry.Class, uri)
	}

	if m.Registry.RegisterIfAbsent(uri, factory()) {
		log.Printf("rpc: manifest: service %s loaded successfully", uri)
	}
	return nil
}

// RefreshLoop polls Load every interval until stop is closed, then returns.
func (m *Manifest) RefreshLoop(interval time.Duration, stop <-chan struct{}) {
	m.Load()
	t := time.NewTimer(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.Load()
			t.Reset(interval)
		}
	}
}
