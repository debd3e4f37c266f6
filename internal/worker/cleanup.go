// Package worker implements the two built-in background workers: cleanup
// (C7), which sweeps expired records and rotates backups, and metrics (C8),
// which samples host CPU/memory usage and supervisor state into the metrics
// store.
package worker

import (
	"log"
	"time"

	"kvvault/internal/backup"
	"kvvault/internal/kvstore"
)

// Cleanup drives the periodic expiry sweep + backup rotation loop
// described in spec §4.4. One tick: sweep every store's expired records
// under the engine lock, then rotate a snapshot of each surviving store to
// disk with the lock already released (SweepExpired returns copies).
type Cleanup struct {
	Engine   *kvstore.Engine
	Rotator  *backup.Rotator
	Interval time.Duration

	stop chan struct{}
	done chan struct{}
}

// NewCleanup returns a Cleanup worker. It does nothing until Start is
// called.
func NewCleanup(eng *kvstore.Engine, rotator *backup.Rotator, interval time.Duration) *Cleanup {
	return &Cleanup{Engine: eng, Rotator: rotator, Interval: interval}
}

// Start spawns the cleanup goroutine. It is safe to call once per
// supervisor Start cycle; call Stop before calling Start again.
func (c *Cleanup) Start() {
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop()
}

// Stop signals the loop to exit and blocks until it has.
func (c *Cleanup) Stop() {
	close(c.stop)
	<-c.done
}

func (c *Cleanup) loop() {
	defer close(c.done)

	for {
		c.tick()

		t := time.NewTimer(c.Interval)
		select {
		case <-c.stop:
			t.Stop()
			return
		case <-t.C:
		}
	}
}

func (c *Cleanup) tick() {
	snapshots := c.Engine.SweepExpired()
	for name, snap := range snapshots {
		c.Rotator.Rotate(name, snap)
	}
	log.Printf("cleanup: swept %d store(s)", len(snapshots))
}
