// Package storage owns the Badger database lifecycle. The memory package
// builds its record store on top of the *badger.DB opened here.
package storage

import (
	"fmt"

	"github.com/0xReLogic/Cognio/config"
	"github.com/dgraph-io/badger/v4"
)

// Open opens the database described by the configuration. Type "memory"
// runs Badger fully in memory, which is what tests and throwaway
// environments use; "badger" persists to the configured path.
func Open(cfg *config.StorageConfig) (*badger.DB, error) {
	var opts badger.Options
	switch cfg.Type {
	case "memory":
		opts = badger.DefaultOptions("").WithInMemory(true)
	case "badger":
		opts = badger.DefaultOptions(cfg.Badger.Path)
		opts.SyncWrites = cfg.Badger.SyncWrites
		if cfg.Badger.ValueLogFileSize > 0 {
			opts.ValueLogFileSize = cfg.Badger.ValueLogFileSize
		}
		if cfg.Badger.NumVersionsToKeep > 0 {
			opts.NumVersionsToKeep = cfg.Badger.NumVersionsToKeep
		}
	default:
		return nil, fmt.Errorf("storage: unknown storage type %q", cfg.Type)
	}

	// Badger logs through its own logger by default; keep it quiet and let
	// the caller surface storage problems through returned errors.
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", cfg.Type, err)
	}
	return db, nil
}
