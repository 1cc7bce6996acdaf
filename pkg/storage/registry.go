package storage

import "sync"

var (
	defaultMu      sync.RWMutex
	defaultStorage Storage
)

// Init sets the process-wide default storage. It is meant to be called once
// at startup, before any cached function runs.
func Init(s Storage) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultStorage = s
}

// Default returns the storage set by Init, or ErrNotInitialized.
func Default() (Storage, error) {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultStorage == nil {
		return nil, ErrNotInitialized
	}
	return defaultStorage, nil
}

// Reset clears the default storage. Used at shutdown and in tests.
func Reset() {
	Init(nil)
}
