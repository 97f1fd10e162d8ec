package record

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrNoLastTake is returned by Last when nothing has been kept yet.
var ErrNoLastTake = errors.New("no previous recording")

// Keeper retains a copy of the most recent finished take so a failed
// upload can be retried after the temp file is gone.
type Keeper struct {
	mu   sync.Mutex
	path string
}

// NewKeeper stores the retained take under dir.
func NewKeeper(dir string) *Keeper {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Keeper{path: filepath.Join(dir, "last_take.wav")}
}

// Keep copies the take at src over the previously retained one. Keeping the
// retained file itself is a no-op: opening it for create would truncate it
// before the copy could read a byte.
func (k *Keeper) Keep(src string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if filepath.Clean(src) == filepath.Clean(k.path) {
		return nil
	}
	if si, err := os.Stat(src); err == nil {
		if di, err := os.Stat(k.path); err == nil && os.SameFile(si, di) {
			return nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(k.path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(k.path)
		return err
	}
	return out.Close()
}

// Last returns the retained take's path, or ErrNoLastTake.
func (k *Keeper) Last() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, err := os.Stat(k.path); err != nil {
		return "", ErrNoLastTake
	}
	return k.path, nil
}
