package worker

import (
	"log"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"kvvault/internal/kvstore"
	"kvvault/internal/supervisor"
)

// MetricsStoreName is the well-known store the metrics worker writes into;
// internal facades read it back under the same name.
const MetricsStoreName = "metrics"

// Metrics samples host-wide CPU%, host-wide used-memory%, and the
// supervisor's running-task map on every tick and writes each sample under
// a well-known key via Engine.AddKey. The CPU and memory figures describe
// the whole machine; this process's own CPU share and resident memory are
// not sampled. Like Cleanup, each tick re-arms its own one-shot timer only
// after the sample finishes, so a slow sample defers the next tick instead
// of queueing one behind it.
type Metrics struct {
	Engine     *kvstore.Engine
	Supervisor *supervisor.Supervisor
	Interval   time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewMetrics returns a Metrics worker that writes into MetricsStoreName.
// The caller must have already created that store.
func NewMetrics(eng *kvstore.Engine, sup *supervisor.Supervisor, interval time.Duration) *Metrics {
	return &Metrics{Engine: eng, Supervisor: sup, Interval: interval}
}

// Start spawns the metrics goroutine.
func (m *Metrics) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.loop()
}

// Stop signals the loop to exit and blocks until it has.
func (m *Metrics) Stop() {
	close(m.stop)
	<-m.done
}

func (m *Metrics) loop() {
	defer close(m.done)

	for {
		m.sample()

		t := time.NewTimer(m.Interval)
		select {
		case <-m.stop:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (m *Metrics) sample() {
	cpuPercent := 0.0
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		cpuPercent = pcts[0]
	} else if err != nil {
		log.Printf("metrics: cpu sample failed: %v", err)
	}

	memPercent := 0.0
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	} else {
		log.Printf("metrics: memory sample failed: %v", err)
	}

	running := m.Supervisor.RunningMap()

	if _, err := m.Engine.AddKey(MetricsStoreName, "cpu_usage", cpuPercent, nil, false, nil); err != nil {
		log.Printf("metrics: write cpu_usage: %v", err)
	}
	if _, err := m.Engine.AddKey(MetricsStoreName, "memory_usage", memPercent, nil, false, nil); err != nil {
		log.Printf("metrics: write memory_usage: %v", err)
	}
	if _, err := m.Engine.AddKey(MetricsStoreName, "tasks_running_states", running, nil, false, nil); err != nil {
		log.Printf("metrics: write tasks_running_states: %v", err)
	}
}
