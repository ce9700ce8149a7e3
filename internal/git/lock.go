package git

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"stax.dev/stax/internal/errors"
)

// lockFileName is the advisory lock guarding stack transactions, scoped to
// the repository. Held from transaction begin until commit or abort.
const lockFileName = "stax/lock"

// Lock is a held repository lock
type Lock struct {
	path  string
	token string
}

type lockInfo struct {
	PID     int       `json:"pid"`
	Token   string    `json:"token"`
	Created time.Time `json:"created"`
}

// AcquireLock takes the repository's advisory transaction lock. A lock left
// behind by a dead process is broken and re-acquired; a live holder results
// in ErrLockHeld.
func (s *Store) AcquireLock() (*Lock, error) {
	path := filepath.Join(s.GitDir(), lockFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.NewStoreError("create lock directory", err)
	}

	token := uuid.NewString()
	info := lockInfo{PID: os.Getpid(), Token: token, Created: time.Now()}
	data, err := json.Marshal(info)
	if err != nil {
		return nil, errors.NewStoreError("encode lock", err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, errors.NewStoreError("write lock", err)
			}
			return &Lock{path: path, token: token}, nil
		}
		if !os.IsExist(err) {
			return nil, errors.NewStoreError("create lock", err)
		}
		if !breakStaleLock(path) {
			break
		}
	}

	return nil, fmt.Errorf("%w: %s", errors.ErrLockHeld, path)
}

// breakStaleLock removes the lock file if its holding process is gone.
// Returns true if the lock was removed.
func breakStaleLock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		// Unreadable or already gone; retry the create either way.
		return !os.IsPermission(err)
	}

	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		// Unrecognized lock content, leave it alone.
		return false
	}

	if info.PID > 0 && processAlive(info.PID) {
		return false
	}

	return os.Remove(path) == nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Release drops the lock. Safe to call more than once; only the file this
// lock created is removed.
func (l *Lock) Release() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil || info.Token != l.token {
		return nil
	}
	return os.Remove(l.path)
}
