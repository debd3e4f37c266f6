// Package backup implements the per-store rotating JSON snapshot writer
// (component C4) and the reference restore hook described in spec §4.2.
package backup

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"kvvault/internal/kvstore"
)

// Rotator writes and rotates per-store snapshot files under Dir. It is
// called only from the cleanup worker, which already holds a copy of the
// store's contents taken under the engine lock — Rotator itself never
// touches the engine.
type Rotator struct {
	Dir        string
	MaxBackups int
}

// New returns a Rotator writing into dir, keeping at most maxBackups
// numbered snapshots per store.
func New(dir string, maxBackups int) *Rotator {
	return &Rotator{Dir: dir, MaxBackups: maxBackups}
}

// Rotate shifts existing numbered snapshots for storeName up by one
// (1→2, 2→3, ..., dropping MaxBackups) and writes snapshot as the new
// backup.1.json. Any filesystem error aborts the rotation after logging —
// it is never propagated to the caller, per spec §4.2.
func (r *Rotator) Rotate(storeName string, snapshot map[string]kvstore.Record) {
	if err := r.rotate(storeName, snapshot); err != nil {
		log.Printf("backup: rotate %s: %v", storeName, err)
	}
}

func (r *Rotator) rotate(storeName string, snapshot map[string]kvstore.Record) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	for i := r.MaxBackups; i >= 1; i-- {
		src := r.path(storeName, i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if i == r.MaxBackups {
			if err := os.Remove(src); err != nil {
				return fmt.Errorf("remove %s: %w", src, err)
			}
			continue
		}
		dst := r.path(storeName, i+1)
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("rename %s to %s: %w", src, dst, err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dst := r.path(storeName, 1)
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, dst, err)
	}
	return nil
}

func (r *Rotator) path(storeName string, n int) string {
	return filepath.Join(r.Dir, fmt.Sprintf("%s.backup.%d.json", storeName, n))
}

// Restore implements the reference load_from_backup hook from spec §4.2:
// for each of storeNames it reads backup.1.json (only — replaying older
// rotations is a policy choice spec §4.2 explicitly leaves to backup.1) and
// inserts every record directly into eng, bypassing readonly checks.
// Missing backup files are not an error; a store with no snapshot simply
// starts empty.
func Restore(eng *kvstore.Engine, dir string, storeNames []string) error {
	for _, name := range storeNames {
		path := filepath.Join(dir, fmt.Sprintf("%s.backup.1.json", name))
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("read %s: %w", path, err)
		}

		var snapshot map[string]kvstore.Record
		if err := json.Unmarshal(data, &snapshot); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		if _, err := eng.CreateStore(name); err != nil && err != kvstore.ErrAlreadyExists {
			return err
		}
		for key, rec := range snapshot {
			eng.InsertRaw(name, key, rec)
		}
	}
	return nil
}
