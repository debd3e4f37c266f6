// Package supervisor implements the task supervisor (component C6): a
// registry of named background workers, each started and stopped
// cooperatively through a shared shutdown event local to that worker.
package supervisor

import (
	"log"
	"sync"
)

// Task bundles a worker's start and stop callables. Its running state is
// tracked by the Supervisor, not by the Task.
// Start is expected to spawn a goroutine that polls its own shutdown signal
// and returns promptly once Stop is called; Stop must block until that
// goroutine has actually exited.
type Task struct {
	Start func()
	Stop  func()
}

// Supervisor owns the lifecycle of every registered Task. It is the single
// place that tracks which background workers are currently running, so the
// metrics worker can report it verbatim.
type Supervisor struct {
	mu      sync.Mutex
	tasks   map[string]Task
	running map[string]bool
}

// New returns an empty Supervisor.
func New() *Supervisor {
	return &Supervisor{
		tasks:   make(map[string]Task),
		running: make(map[string]bool),
	}
}

// Register adds a named task. Registering a name that already exists is an
// idempotent no-op — the existing task is left untouched.
func (s *Supervisor) Register(name string, task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[name]; ok {
		return
	}
	s.tasks[name] = task
	s.running[name] = false
}

// Start starts the named task, or every registered task when name is "".
// Starting an already-running task is a no-op.
func (s *Supervisor) Start(name string) {
	if name != "" {
		s.startOne(name)
		return
	}
	for _, n := range s.names() {
		s.startOne(n)
	}
}

// Shutdown stops the named task, or every registered task when name is "".
// Stopping a stopped task is a no-op.
func (s *Supervisor) Shutdown(name string) {
	if name != "" {
		s.stopOne(name)
		return
	}
	for _, n := range s.names() {
		s.stopOne(n)
	}
}

// Running reports whether a given task is currently started.
func (s *Supervisor) Running(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running[name]
}

// RunningMap returns a snapshot copy of every task's running state, keyed
// by task name — exactly what the metrics worker samples on each tick.
func (s *Supervisor) RunningMap() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]bool, len(s.running))
	for k, v := range s.running {
		out[k] = v
	}
	return out
}

func (s *Supervisor) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.tasks))
	for n := range s.tasks {
		names = append(names, n)
	}
	return names
}

func (s *Supervisor) startOne(name string) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	if !ok {
		s.mu.Unlock()
		log.Printf("supervisor: no task named %q", name)
		return
	}
	if s.running[name] {
		s.mu.Unlock()
		log.Printf("supervisor: task %q is already running", name)
		return
	}
	s.running[name] = true
	s.mu.Unlock()

	log.Printf("supervisor: starting task %q", name)
	task.Start()
	log.Printf("supervisor: task %q has been started", name)
}

func (s *Supervisor) stopOne(name string) {
	s.mu.Lock()
	task, ok := s.tasks[name]
	running := s.running[name]
	s.mu.Unlock()

	if !ok {
		log.Printf("supervisor: no task named %q", name)
		return
	}
	if !running {
		log.Printf("supervisor: task %q is not running", name)
		return
	}

	log.Printf("supervisor: shutting down task %q", name)
	task.Stop()

	s.mu.Lock()
	s.running[name] = false
	s.mu.Unlock()
	log.Printf("supervisor: task %q has been shut down", name)
}
